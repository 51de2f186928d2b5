// Package webconsole serves a browser chat page that mirrors the
// local console over a websocket.
package webconsole

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zclaw/zclaw/internal/bus"
	"github.com/zclaw/zclaw/internal/config"
	"github.com/zclaw/zclaw/internal/textutil"
)

//go:embed static/*
var staticFiles embed.FS

const writeTimeout = 5 * time.Second

// Server relays websocket text frames into the agent's input queue
// and broadcasts console replies to every connected browser.
type Server struct {
	addr   string
	input  *bus.Queue
	maxLen int
	log    *slog.Logger

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

func NewServer(cfg config.WebConsoleConfig, input *bus.Queue, maxLen int, log *slog.Logger) *Server {
	return &Server{
		addr:   net.JoinHostPort(cfg.Address, fmt.Sprintf("%d", cfg.Port)),
		input:  input,
		maxLen: maxLen,
		log:    log.With("component", "webconsole"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		clients: make(map[*websocket.Conn]bool),
	}
}

// Handler returns the server's routes: the chat page at / and the
// websocket at /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	subFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	fileServer := http.FileServer(http.FS(subFS))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" || r.URL.Path == "" {
			r.URL.Path = "/index.html"
		}
		fileServer.ServeHTTP(w, r)
	})
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

// Run serves until the context is cancelled, then shuts down and
// closes all websocket clients.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Info("web console listening", "addr", s.addr)
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		s.closeAll()
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("web console: %w", err)
		}
		return nil
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	s.mu.Lock()
	s.clients[conn] = true
	n := len(s.clients)
	s.mu.Unlock()
	s.log.Info("web console client connected", "clients", n)

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		line := strings.TrimSpace(string(data))
		if line == "" {
			continue
		}
		msg := bus.Message{Text: textutil.Truncate(line, s.maxLen), Source: bus.SourceConsole}
		if !s.input.TrySend(msg) {
			s.log.Warn("web console line dropped, input queue full")
		}
	}
}

// Broadcast fans one reply out to every connected client. Clients
// whose writes fail are dropped.
func (s *Server) Broadcast(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
			s.log.Warn("web console write failed, dropping client", "error", err)
			conn.Close()
			delete(s.clients, conn)
		}
	}
}

// ClientCount reports connected websocket clients, for diagnostics.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		conn.Close()
		delete(s.clients, conn)
	}
}
