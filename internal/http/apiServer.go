package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"duet/internal/api"
	"duet/internal/ws"
)

type APIServer struct {
	server *http.Server
	log    *slog.Logger
	wg     sync.WaitGroup
}

func NewAPIServer(handlers *api.API, chat *ws.Server, addr string, log *slog.Logger) *APIServer {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/messages", handlers.RequireAuth(handlers.MessagesHandler))
	mux.HandleFunc("GET /api/users", handlers.RequireAuth(handlers.UsersHandler))
	mux.HandleFunc("GET /api/me", handlers.RequireAuth(handlers.MeHandler))
	mux.HandleFunc("POST /api/users/me", handlers.RequireAuth(handlers.UpdateProfileHandler))

	// WebSocket endpoint
	mux.HandleFunc("/api/chat", chat.HandleConnections)

	if addr == "" {
		addr = ":8080"
	}

	return &APIServer{
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

func (s *APIServer) Start() error {
	s.log.Info("server started", "addr", s.server.Addr)
	s.wg.Add(1)
	defer s.wg.Done()

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *APIServer) Shutdown(ctx context.Context) error {
	defer s.wg.Wait()
	return s.server.Shutdown(ctx)
}
