// Package statusapi exposes the controller over local HTTP and a websocket event stream.
package statusapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rbright/heosctl/internal/device"
	"github.com/rbright/heosctl/internal/events"
	"github.com/rbright/heosctl/internal/ipc"
)

const (
	maxCommandBody  = 4 << 10
	eventWriteLimit = 5 * time.Second
	shutdownGrace   = 2 * time.Second
)

// Controller is the subset of the daemon the HTTP surface drives.
type Controller interface {
	Handle(ctx context.Context, req ipc.Request) ipc.Response
	Snapshot() device.Snapshot
	Bus() *events.Bus
}

// Server serves /status, /commands and /events.
type Server struct {
	controller Controller
	logger     *slog.Logger
}

// New returns a Server for controller.
func New(controller Controller, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{controller: controller, logger: logger}
}

// Handler returns the route table.
//
// Unsafe requests from another origin are refused with 403 before routing.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("POST /commands", s.handleCommand)
	mux.HandleFunc("GET /events", s.handleEvents)

	guard := http.NewCrossOriginProtection()
	guard.SetDenyHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Warn("cross-origin request refused", "path", r.URL.Path, "origin", r.Header.Get("Origin"))
		writeJSON(w, http.StatusForbidden, ipc.Response{OK: false, Error: "cross-origin request refused"})
	}))
	return guard.Handler(mux)
}

// Serve listens on addr until ctx is canceled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.ServeListener(ctx, listener)
}

// ServeListener serves on an existing listener until ctx is canceled.
func (s *Server) ServeListener(ctx context.Context, listener net.Listener) error {
	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve(listener) }()
	s.logger.Info("status api listening", "addr", listener.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("status api shutdown", "error", err.Error())
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.Snapshot())
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		writeJSON(w, http.StatusUnsupportedMediaType, ipc.Response{OK: false, Error: "content type must be application/json"})
		return
	}

	var req ipc.Request
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCommandBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ipc.Response{OK: false, Error: "decode request: " + err.Error()})
		return
	}
	if req.Command == "" {
		writeJSON(w, http.StatusBadRequest, ipc.Response{OK: false, Error: "missing command"})
		return
	}

	resp := s.controller.Handle(r.Context(), req)
	status := http.StatusOK
	if !resp.OK {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		s.logger.Warn("websocket accept failed", "error", err.Error())
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	bus := s.controller.Bus()
	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)

	// Clients only listen; CloseRead cancels ctx when they go away.
	ctx := conn.CloseRead(r.Context())

	hello := events.Event{Kind: events.KindSnapshot, At: time.Now(), State: s.controller.Snapshot()}
	if err := s.write(ctx, conn, hello); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if err := s.write(ctx, conn, evt); err != nil {
				s.logger.Debug("websocket write failed", "error", err.Error())
				return
			}
		}
	}
}

func (s *Server) write(ctx context.Context, conn *websocket.Conn, evt events.Event) error {
	writeCtx, cancel := context.WithTimeout(ctx, eventWriteLimit)
	defer cancel()
	return wsjson.Write(writeCtx, conn, evt)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
