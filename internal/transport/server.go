package transport

import (
	"context"
	"net"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lox/bombpot/internal/connmgr"
)

// Server accepts websocket upgrades on /ws and wires each connection's
// parsed messages to a Handler.
type Server struct {
	handler  Handler
	logger   *log.Logger
	upgrader websocket.Upgrader
	mux      *http.ServeMux
	http     *http.Server

	register func(id connmgr.ConnectionID, conn *Connection)
}

// NewServer creates a websocket server dispatching to handler. register
// is called once per accepted connection so the caller can retain the
// *Connection for the Broadcaster to send through later.
func NewServer(handler Handler, logger *log.Logger, register func(connmgr.ConnectionID, *Connection)) *Server {
	s := &Server{
		handler: handler,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		mux:      http.NewServeMux(),
		register: register,
	}
	s.mux.HandleFunc("/ws", s.handleWebSocket)
	s.mux.HandleFunc("/health", s.handleHealth)
	return s
}

// Serve starts accepting connections on listener and blocks until it
// closes or Shutdown is called.
func (s *Server) Serve(listener net.Listener) error {
	s.http = &http.Server{Handler: s.mux}
	s.logger.Info("transport listening", "addr", listener.Addr().String())
	return s.http.Serve(listener)
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	id := connmgr.ConnectionID(uuid.NewString())
	c := NewConnection(id, conn, s.handler, s.logger)
	if s.register != nil {
		s.register(id, c)
	}
	c.Start()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
