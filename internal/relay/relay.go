package relay

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ayachi01/FixItWeb/internal/auth"
	"github.com/ayachi01/FixItWeb/internal/config"
)

// Hub fans messages out to connected websocket clients.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	ch      chan []byte
}

// NewHub constructs an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: map[*websocket.Conn]bool{},
		ch:      make(chan []byte, 64),
	}
}

// Run delivers broadcast messages until ctx is cancelled. Slow or dead
// connections are dropped on write failure.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case msg := <-h.ch:
			h.mu.Lock()
			for conn := range h.clients {
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					delete(h.clients, conn)
					_ = conn.Close()
				}
			}
			h.mu.Unlock()
		case <-ctx.Done():
			h.mu.Lock()
			for conn := range h.clients {
				_ = conn.Close()
			}
			h.clients = map[*websocket.Conn]bool{}
			h.mu.Unlock()
			return
		}
	}
}

// Broadcast queues a message for delivery, dropping it when the buffer
// is full.
func (h *Hub) Broadcast(msg []byte) {
	select {
	case h.ch <- msg:
	default:
	}
}

// Add registers a connection.
func (h *Hub) Add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
}

// Remove unregisters a connection.
func (h *Hub) Remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Server exposes the websocket endpoint and pumps the Redis event
// channel into the hub.
type Server struct {
	cfg    config.RelayConfig
	tokens *auth.TokenManager
	redis  *redis.Client
	hub    *Hub
	log    *zap.Logger

	httpServer *http.Server
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// NewServer constructs the relay server.
func NewServer(cfg config.RelayConfig, tokens *auth.TokenManager, client *redis.Client, logger *zap.Logger) *Server {
	return &Server{
		cfg:    cfg,
		tokens: tokens,
		redis:  client,
		hub:    NewHub(),
		log:    logger,
	}
}

// Hub exposes the underlying hub, mainly for tests.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start launches the hub, the Redis subscriber, and the HTTP listener.
func (s *Server) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.hub.Run(ctx)
	}()

	if s.redis != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.subscribe(ctx)
		}()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/notifications", s.handleSocket)
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("relay listener failed", zap.Error(err))
		}
	}()
	s.log.Info("notification relay listening", zap.String("addr", s.cfg.Addr), zap.String("channel", s.cfg.Channel))
}

// Stop shuts the listener down and waits for the pumps to exit.
func (s *Server) Stop(ctx context.Context) {
	if s.httpServer != nil {
		_ = s.httpServer.Shutdown(ctx)
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Server) subscribe(ctx context.Context) {
	sub := s.redis.Subscribe(ctx, s.cfg.Channel)
	defer func() { _ = sub.Close() }()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			s.hub.Broadcast([]byte(msg.Payload))
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	if _, err := s.tokens.ParseToken(token); err != nil {
		http.Error(w, "authentication failed", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.hub.Add(conn)
	defer func() {
		s.hub.Remove(conn)
		_ = conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
