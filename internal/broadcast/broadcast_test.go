package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Klingon-tech/kaschess/internal/restclient"
	"github.com/Klingon-tech/kaschess/internal/rpc"
	"github.com/Klingon-tech/kaschess/internal/rpcclient"
	"github.com/Klingon-tech/kaschess/pkg/tx"
	"github.com/Klingon-tech/kaschess/pkg/types"
)

var testTxID = strings.Repeat("ab", 32)

func testRPCTx() *tx.RPCTransaction {
	return &tx.RPCTransaction{Version: 0, LockTime: "0", SubnetworkID: types.SubnetworkIDNative.String(), Gas: "0"}
}

func TestREST_Accepted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/transactions" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		var body map[string]json.RawMessage
		json.NewDecoder(r.Body).Decode(&body)
		if string(body["allowOrphan"]) != "false" {
			t.Errorf("allowOrphan = %s, want false", body["allowOrphan"])
		}
		if _, ok := body["transaction"]; !ok {
			t.Error("missing transaction")
		}
		fmt.Fprintf(w, `{"transactionId":%q}`, testTxID)
	}))
	defer srv.Close()

	id, err := NewREST(restclient.New(srv.URL)).Submit(context.Background(), testRPCTx())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if id.String() != testTxID {
		t.Errorf("id = %s, want %s", id, testTxID)
	}
}

func TestREST_Outcomes(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   Outcome
		reason string
	}{
		{"rejected error field", 400, `{"error":"already spent by transaction 01 in the mempool"}`, OutcomeRejected, "already spent by transaction 01 in the mempool"},
		{"rejected detail field", 422, `{"detail":"fee too low"}`, OutcomeRejected, "fee too low"},
		{"server error", 503, `{"error":"unavailable"}`, OutcomeTransport, ""},
		{"request timeout", 408, `{"error":"slow down"}`, OutcomeTransport, ""},
		{"too early", 425, `{"error":"slow down"}`, OutcomeTransport, ""},
		{"throttled", 429, `{"error":"slow down"}`, OutcomeTransport, ""},
		{"bad id", 200, `{"transactionId":"zz"}`, OutcomeTransport, ""},
		{"garbage", 200, `<html>`, OutcomeTransport, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewREST(restclient.New(srv.URL)).Submit(context.Background(), testRPCTx())
			if got := Classify(err); got != tt.want {
				t.Fatalf("outcome = %v, want %v (err %v)", got, tt.want, err)
			}
			if tt.reason != "" {
				var re *RejectionError
				if !errors.As(err, &re) || re.Reason != tt.reason {
					t.Errorf("reason = %v, want %q", err, tt.reason)
				}
			}
		})
	}
}

func TestREST_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	_, err := NewREST(restclient.New(url)).Submit(context.Background(), testRPCTx())
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("error = %v, want *TransportError", err)
	}
	if !errors.Is(err, restclient.ErrTransport) {
		t.Error("transport error should keep its cause")
	}
}

type fakeCaller struct {
	result any
	err    error
}

func (f *fakeCaller) Call(ctx context.Context, method string, params, result any) error {
	if method != rpc.MethodSubmitTransaction {
		return fmt.Errorf("unexpected method %s", method)
	}
	if _, ok := params.(rpc.SubmitTransactionParams); !ok {
		return fmt.Errorf("unexpected params %T", params)
	}
	if f.err != nil {
		return f.err
	}
	data, _ := json.Marshal(f.result)
	return json.Unmarshal(data, result)
}

func TestRPC_Outcomes(t *testing.T) {
	tests := []struct {
		name   string
		caller *fakeCaller
		want   Outcome
	}{
		{"accepted", &fakeCaller{result: rpc.SubmitTransactionResult{TransactionID: testTxID}}, OutcomeAccepted},
		{"rejected", &fakeCaller{err: &rpcclient.RPCError{Code: rpc.CodeRejected, Message: "orphan"}}, OutcomeRejected},
		{"unavailable", &fakeCaller{err: &rpcclient.RPCError{Code: rpc.CodeUnavailable, Message: "busy"}}, OutcomeTransport},
		{"timeout", &fakeCaller{err: fmt.Errorf("%w: no reply", rpcclient.ErrTransport)}, OutcomeTransport},
		{"empty id", &fakeCaller{result: rpc.SubmitTransactionResult{}}, OutcomeTransport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := NewRPC(tt.caller).Submit(context.Background(), testRPCTx())
			if got := Classify(err); got != tt.want {
				t.Fatalf("outcome = %v, want %v (err %v)", got, tt.want, err)
			}
			if tt.want == OutcomeAccepted && id.String() != testTxID {
				t.Errorf("id = %s", id)
			}
		})
	}
}

func TestRPC_RejectionReasonVerbatim(t *testing.T) {
	reason := "transaction 01 is an orphan"
	_, err := NewRPC(&fakeCaller{err: &rpcclient.RPCError{Code: rpc.CodeRejected, Message: reason}}).Submit(context.Background(), testRPCTx())
	var re *RejectionError
	if !errors.As(err, &re) || re.Reason != reason {
		t.Errorf("error = %v, want reason %q", err, reason)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want Outcome
	}{
		{nil, OutcomeAccepted},
		{&RejectionError{Reason: "x"}, OutcomeRejected},
		{fmt.Errorf("wrapped: %w", &RejectionError{Reason: "x"}), OutcomeRejected},
		{&TransportError{Op: "op", Err: errors.New("eof")}, OutcomeTransport},
		{errors.New("local"), OutcomeLocal},
	}
	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.want {
			t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
	if OutcomeTransport.String() != "transport" || Outcome(9).String() != "outcome(9)" {
		t.Error("Outcome.String mismatch")
	}
}
