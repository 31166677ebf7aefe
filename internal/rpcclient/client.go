// Package rpcclient provides a JSON-RPC 2.0 client over a persistent
// websocket connection to a node.
package rpcclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Klingon-tech/kaschess/internal/rpc"
	"github.com/gorilla/websocket"
)

// DefaultTimeout bounds a single call when Options.Timeout is zero.
const DefaultTimeout = 10 * time.Second

var (
	// ErrTransport marks every failure where no reply was received.
	ErrTransport = errors.New("rpc transport failure")
	// ErrClosed is the cause recorded when Close was called.
	ErrClosed = errors.New("connection closed")
)

// RPCError is returned when the server responds with an error.
type RPCError struct {
	Code    int
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Verdict reports whether the error is the server's answer about the call
// itself. Unavailable and internal errors are not.
func (e *RPCError) Verdict() bool {
	return e.Code != rpc.CodeUnavailable && e.Code != rpc.CodeInternalError
}

// Options tunes Dial.
type Options struct {
	Timeout time.Duration // per call
	Header  http.Header
	Dialer  *websocket.Dialer
}

// Conn is a websocket JSON-RPC connection. Calls may be issued from many
// goroutines. Once the connection fails every call returns ErrTransport and
// the caller must Dial again.
type Conn struct {
	ws      *websocket.Conn
	timeout time.Duration
	nextID  atomic.Uint64

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[uint64]chan *rpc.Response

	done      chan struct{}
	closeOnce sync.Once
	err       error // set before done is closed
}

// Dial connects to a websocket JSON-RPC endpoint.
func Dial(ctx context.Context, url string, opts Options) (*Conn, error) {
	dialer := opts.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	ws, resp, err := dialer.DialContext(ctx, url, opts.Header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrTransport, url, err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Conn{
		ws:      ws,
		timeout: timeout,
		pending: make(map[uint64]chan *rpc.Response),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Done is closed once the connection is no longer usable.
func (c *Conn) Done() <-chan struct{} { return c.done }

// Err returns the cause of failure after Done is closed.
func (c *Conn) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Close closes the connection. In-flight calls fail with ErrTransport.
func (c *Conn) Close() error {
	c.fail(ErrClosed)
	return nil
}

func (c *Conn) fail(cause error) {
	c.closeOnce.Do(func() {
		c.err = cause
		close(c.done)
		c.ws.Close()
	})
}

func (c *Conn) readLoop() {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			c.fail(err)
			return
		}
		var resp rpc.Response
		if err := json.Unmarshal(data, &resp); err != nil {
			continue
		}
		id, err := strconv.ParseUint(string(resp.ID), 10, 64)
		if err != nil {
			continue
		}
		c.mu.Lock()
		ch, ok := c.pending[id]
		delete(c.pending, id)
		c.mu.Unlock()
		if ok {
			ch <- &resp
		}
	}
}

// Call invokes a method and unmarshals the result into the provided pointer.
// If result is nil, the response result is discarded. A server error is an
// *RPCError. A timeout or cancellation closes the connection and is
// reported as ErrTransport.
func (c *Conn) Call(ctx context.Context, method string, params, result any) error {
	select {
	case <-c.done:
		return fmt.Errorf("%w: %s: %v", ErrTransport, method, c.err)
	default:
	}

	id := c.nextID.Add(1)
	req := rpc.Request{JSONRPC: "2.0", Method: method, ID: json.RawMessage(strconv.FormatUint(id, 10))}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("marshal params: %w", err)
		}
		req.Params = raw
	}
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	ch := make(chan *rpc.Response, 1)
	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	if err := c.write(body); err != nil {
		c.fail(err)
		return fmt.Errorf("%w: %s: write: %v", ErrTransport, method, err)
	}

	select {
	case resp := <-ch:
		if resp.Error != nil {
			return &RPCError{Code: resp.Error.Code, Message: resp.Error.Message}
		}
		if result != nil && len(resp.Result) > 0 {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				return fmt.Errorf("%w: %s: decode result: %v", ErrTransport, method, err)
			}
		}
		return nil
	case <-c.done:
		return fmt.Errorf("%w: %s: %v", ErrTransport, method, c.err)
	case <-ctx.Done():
		c.fail(ctx.Err())
		return fmt.Errorf("%w: %s: %w", ErrTransport, method, ctx.Err())
	case <-timer.C:
		c.fail(context.DeadlineExceeded)
		return fmt.Errorf("%w: %s: no reply within %s", ErrTransport, method, c.timeout)
	}
}

func (c *Conn) write(body []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(c.timeout))
	return c.ws.WriteMessage(websocket.TextMessage, body)
}
