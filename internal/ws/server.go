package ws

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"duet/internal/auth"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

type ServerConfig struct {
	AllowedOrigins []string
	MaxFrameSize   int64
	PingInterval   time.Duration
}

type Server struct {
	verifier auth.Verifier
	hub      *Hub
	log      *slog.Logger
	config   ServerConfig
	upgrader *websocket.Upgrader
}

func NewServer(verifier auth.Verifier, hub *Hub, log *slog.Logger, config ServerConfig) *Server {
	if config.PingInterval <= 0 {
		config.PingInterval = 30 * time.Second
	}
	origins, allowAll := normalizeOrigins(config.AllowedOrigins)
	s := &Server{
		verifier: verifier,
		hub:      hub,
		log:      log,
		config:   config,
	}
	s.upgrader = &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || allowAll {
				return true
			}
			normalized, ok := normalizeOrigin(origin)
			if ok && origins[normalized] {
				return true
			}
			log.Warn("blocked websocket origin", "origin", origin)
			return false
		},
	}
	return s
}

// HandleConnections verifies the credential before upgrading. A rejected
// credential never reaches the hub.
func (s *Server) HandleConnections(w http.ResponseWriter, r *http.Request) {
	userID, err := s.verifier.Verify(r.Context(), auth.CredentialFromRequest(r))
	if err != nil {
		s.log.Info("connection refused", "remote_addr", r.RemoteAddr, "error", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("error upgrading to websocket", "error", err)
		return
	}

	if s.config.MaxFrameSize > 0 {
		conn.SetReadLimit(s.config.MaxFrameSize)
	}

	s.watchPongs(conn)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.ping(ctx, conn)

	c := NewConnection(s.hub, conn, userID, s.log)
	if err := c.Handle(ctx); err != nil && !isExpectedClose(err) {
		s.log.Warn("connection closed with error", "user_id", userID, "error", err)
	}
}

// watchPongs extends the read deadline on every pong, so a silently dropped
// peer turns into a read error and a normal disconnect.
func (s *Server) watchPongs(conn *websocket.Conn) {
	deadline := func() time.Time { return time.Now().Add(2 * s.config.PingInterval) }
	_ = conn.SetReadDeadline(deadline())
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(deadline())
	})
}

func (s *Server) ping(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func isExpectedClose(err error) bool {
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
		websocket.CloseAbnormalClosure) ||
		strings.Contains(err.Error(), "use of closed network connection")
}

func normalizeOrigins(origins []string) (map[string]bool, bool) {
	normalized := make(map[string]bool, len(origins))
	allowAll := false
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		switch {
		case trimmed == "":
		case trimmed == "*":
			allowAll = true
		default:
			if n, ok := normalizeOrigin(trimmed); ok {
				normalized[n] = true
			}
		}
	}
	return normalized, allowAll
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}
