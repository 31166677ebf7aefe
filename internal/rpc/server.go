// Package rpc implements the JSON-RPC 2.0 transport served by a node, both as
// plain HTTP POST and as a persistent websocket.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	klog "github.com/Klingon-tech/kaschess/internal/log"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// maxBodySize is the maximum allowed request body size (1 MB).
const maxBodySize = 1 << 20

// writeWait bounds a single websocket write.
const writeWait = 10 * time.Second

// HandlerFunc serves one method. ctx is cancelled when the caller goes away.
type HandlerFunc func(ctx context.Context, params json.RawMessage) (any, *Error)

// Server dispatches JSON-RPC requests to registered methods.
type Server struct {
	mu       sync.RWMutex
	methods  map[string]HandlerFunc
	upgrader websocket.Upgrader
	logger   zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer creates a server with no methods.
func NewServer() *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		methods: make(map[string]HandlerFunc),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: klog.WithComponent("rpc"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Register binds a handler to a method name, replacing any previous one.
func (s *Server) Register(method string, h HandlerFunc) {
	s.mu.Lock()
	s.methods[method] = h
	s.mu.Unlock()
}

// Close drops every websocket connection and waits for their handlers.
func (s *Server) Close() {
	s.cancel()
	s.wg.Wait()
}

// ServeHTTP upgrades websocket requests and serves the rest as HTTP POST.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if websocket.IsWebSocketUpgrade(r) {
		s.serveWebsocket(w, r)
		return
	}

	if r.Method != http.MethodPost {
		writeJSON(w, errorResponse(nil, CodeInvalidRequest, "only POST method is allowed"))
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		writeJSON(w, errorResponse(nil, CodeParseError, "failed to read request body"))
		return
	}
	if len(body) > maxBodySize {
		writeJSON(w, errorResponse(nil, CodeInvalidRequest, "request body too large"))
		return
	}
	writeJSON(w, s.handle(r.Context(), body))
}

func (s *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	conn.SetReadLimit(maxBodySize)

	s.wg.Add(1)
	defer s.wg.Done()

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	// Closing the socket unblocks ReadMessage on shutdown.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	var (
		writeMu  sync.Mutex
		handlers sync.WaitGroup
	)
	defer func() {
		cancel()
		handlers.Wait()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug().Err(err).Msg("websocket read ended")
			}
			return
		}
		handlers.Add(1)
		go func() {
			defer handlers.Done()
			resp := s.handle(ctx, data)
			if ctx.Err() != nil {
				return
			}
			out, err := json.Marshal(resp)
			if err != nil {
				return
			}
			writeMu.Lock()
			defer writeMu.Unlock()
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
				s.logger.Debug().Err(err).Msg("websocket write failed")
				cancel()
			}
		}()
	}
}

// handle parses one request and runs it.
func (s *Server) handle(ctx context.Context, body []byte) Response {
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return errorResponse(nil, CodeParseError, "invalid JSON")
	}
	if req.JSONRPC != "2.0" {
		return errorResponse(req.ID, CodeInvalidRequest, "jsonrpc must be \"2.0\"")
	}

	result, rpcErr := s.dispatch(ctx, &req)
	if rpcErr != nil {
		return Response{JSONRPC: "2.0", Error: rpcErr, ID: req.ID}
	}
	data, err := json.Marshal(result)
	if err != nil {
		return errorResponse(req.ID, CodeInternalError, "encode result")
	}
	return Response{JSONRPC: "2.0", Result: data, ID: req.ID}
}

// dispatch routes a request to the appropriate handler.
func (s *Server) dispatch(ctx context.Context, req *Request) (any, *Error) {
	s.mu.RLock()
	h, ok := s.methods[req.Method]
	s.mu.RUnlock()
	if !ok {
		return nil, &Error{Code: CodeMethodNotFound, Message: fmt.Sprintf("method %q not found", req.Method)}
	}
	return h(ctx, req.Params)
}

// writeJSON writes a JSON-RPC response.
func writeJSON(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func errorResponse(id json.RawMessage, code int, message string) Response {
	return Response{
		JSONRPC: "2.0",
		Error:   &Error{Code: code, Message: message},
		ID:      id,
	}
}

// ParseParams unmarshals request params into target.
func ParseParams(params json.RawMessage, target any) *Error {
	if len(params) == 0 {
		return &Error{Code: CodeInvalidParams, Message: "params required"}
	}
	if err := json.Unmarshal(params, target); err != nil {
		return &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid params: %v", err)}
	}
	return nil
}
