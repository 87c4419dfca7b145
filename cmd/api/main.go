package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Maxibaroni/bot-ia-motos/internal/catalog"
	"github.com/Maxibaroni/bot-ia-motos/internal/config"
	"github.com/Maxibaroni/bot-ia-motos/internal/handler"
	"github.com/Maxibaroni/bot-ia-motos/internal/model/persona"
	aiservice "github.com/Maxibaroni/bot-ia-motos/internal/service/ai"
	chatservice "github.com/Maxibaroni/bot-ia-motos/internal/service/chat"
	"github.com/Maxibaroni/bot-ia-motos/internal/service/dialog"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	catalogStore, err := catalog.Open(cfg.Catalog.Backend, cfg.Catalog.Path)
	if err != nil {
		log.Fatalf("failed to open catalog (%s): %v", cfg.Catalog.Backend, err)
	}
	defer catalogStore.Close()
	log.Printf("catalog backend %q ready", cfg.Catalog.Backend)

	sessions := chatservice.NewService(
		chatservice.WithTTL(cfg.Session.TTL),
		chatservice.WithSweepInterval(cfg.Session.SweepInterval),
	)
	sessions.Start(ctx)

	assistant := persona.Default()
	if cfg.Persona.SystemPrompt != "" {
		assistant.SystemInstruction = cfg.Persona.SystemPrompt
	}

	var aiSvc *aiservice.Service
	if cfg.AI.Enabled() {
		aiSvc, err = aiservice.NewService(ctx, assistant, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize AI service: %v", err)
			log.Println("continuing without generative replies - check the ARK_* environment variables")
		} else {
			log.Println("AI service initialized successfully")
		}
	} else {
		log.Println("model credentials not configured, skipping AI initialization")
	}

	// A typed nil *aiservice.Service would not compare equal to nil
	// inside the router, so the interface is only set when the backend
	// actually initialized.
	var generator dialog.Generator
	if aiSvc != nil {
		generator = aiSvc
	}
	dialogSvc := dialog.NewService(catalogStore, sessions, generator)

	router := handler.NewRouter(sessions, dialogSvc, aiSvc, cfg.Server.StaticDir)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("bot-ia-motos listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
