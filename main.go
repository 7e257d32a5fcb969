package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"duet/internal/api"
	"duet/internal/auth"
	"duet/internal/commands"
	"duet/internal/config"
	"duet/internal/http"
	"duet/internal/logging"
	"duet/internal/models"
	"duet/internal/relay"
	"duet/internal/signals"
	"duet/internal/storage"
	"duet/internal/ws"

	"golang.org/x/sync/errgroup"
)

func run(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("duet", flag.ContinueOnError)
	addUser := flags.String("add-user", "", "Username to create (prints the user's access token)")
	online := flags.Bool("online", false, "List online users of a running server")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cliMode := *addUser != "" || *online
	cfg, err := config.Load(cliMode)
	if err != nil {
		return err
	}

	switch {
	case *addUser != "":
		return commands.AddUser(*addUser, cfg, os.Stdout)
	case *online:
		return commands.ListOnline(cfg, os.Stdout)
	}

	log, err := logging.Setup(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return err
	}

	bbStorage, err := storage.NewBboltStorage(cfg.DBFile)
	if err != nil {
		return err
	}
	defer func() { _ = bbStorage.Close() }()

	tokens, err := auth.NewJWTService(auth.Config{
		Secret:      cfg.AuthSecret,
		TokenExpiry: cfg.TokenExpiry,
	})
	if err != nil {
		return err
	}

	var verifier auth.Verifier = tokens
	if cfg.VerifyCacheTTL > 0 {
		verifier = auth.NewCachingVerifier(ctx, tokens, cfg.VerifyCacheTTL, log)
	}

	hub := ws.NewHub(log, cfg.SessionBuffer)
	coordinator := signals.New(bbStorage, hub, log)
	messages := relay.New(bbStorage, hub, coordinator, log, relay.Config{
		MaxContentLength: cfg.MaxContentLength,
	})

	hub.Handle(models.EventSendMessage, messages.HandleSendMessage)
	hub.Handle(models.EventTyping, coordinator.HandleTyping)
	hub.Handle(models.EventStopTyping, coordinator.HandleStopTyping)
	hub.Handle(models.EventReadMessage, coordinator.HandleReadMessage)
	hub.OnDisconnect(coordinator.ClearTypist)

	chat := ws.NewServer(verifier, hub, log, ws.ServerConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		MaxFrameSize:   cfg.MaxFrameSize,
		PingInterval:   cfg.PingInterval,
	})

	adminServer := http.NewAdminServer(api.NewAdminHandler(tokens, bbStorage, hub, log), cfg.AdminAddr, log)
	apiServer := http.NewAPIServer(api.New(verifier, bbStorage, hub, log), chat, cfg.APIAddr, log)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(adminServer.Start)
	g.Go(apiServer.Start)

	// Wait for context cancellation (signal)
	g.Go(func() error {
		<-gCtx.Done()
		log.Info("shutting down servers")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := adminServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("admin server shutdown error", "error", err)
		}
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("API server shutdown error", "error", err)
		}
		hub.Close()
		return nil
	})

	return g.Wait()
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, flag.ErrHelp) {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}
