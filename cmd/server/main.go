// Command server runs the WhatsApp webhook server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Beny9313/whatsapp-ai-bot/internal/agent"
	"github.com/Beny9313/whatsapp-ai-bot/internal/api/server"
	"github.com/Beny9313/whatsapp-ai-bot/internal/config"
	"github.com/Beny9313/whatsapp-ai-bot/internal/embeddings"
	"github.com/Beny9313/whatsapp-ai-bot/internal/llm"
	"github.com/Beny9313/whatsapp-ai-bot/internal/logger"
	"github.com/Beny9313/whatsapp-ai-bot/internal/session"
	"github.com/Beny9313/whatsapp-ai-bot/internal/storage"
)

const version = "1.0.0"

func main() {
	configFile := flag.String("config", "", "configuration file path")
	flag.Parse()

	if err := run(*configFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	if err := logger.Initialize(cfg.Logging.Level, cfg.Logging.JSON); err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	embedder, err := embeddings.New(cfg)
	if err != nil {
		return err
	}

	store, err := storage.New(ctx, cfg, embedder.Dimension())
	if err != nil {
		return err
	}
	defer store.Close()

	_, provider, err := llm.NewFromConfig(cfg)
	if err != nil {
		return err
	}

	sessions := session.NewService(cfg.Session.MaxTurns)
	pipeline := agent.New(provider, embedder, store, cfg, sessions)

	logger.Infow("starting SAP CX WhatsApp agent",
		"version", version,
		"llm_provider", provider.Name(),
		"embedder", embedder.Name(),
		"storage", cfg.Storage.Backend,
	)

	return server.New(cfg, pipeline, version).Run(ctx)
}
