// Command bot is the operations CLI: corpus ingestion, one-shot questions,
// store statistics, and config management.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Beny9313/whatsapp-ai-bot/internal/agent"
	"github.com/Beny9313/whatsapp-ai-bot/internal/config"
	"github.com/Beny9313/whatsapp-ai-bot/internal/embeddings"
	"github.com/Beny9313/whatsapp-ai-bot/internal/llm"
	"github.com/Beny9313/whatsapp-ai-bot/internal/logger"
	"github.com/Beny9313/whatsapp-ai-bot/internal/rag"
	"github.com/Beny9313/whatsapp-ai-bot/internal/storage"
	"github.com/Beny9313/whatsapp-ai-bot/pkg/interfaces"
)

var (
	configFile string
	logLevel   string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bot",
		Short: "SAP CX WhatsApp assistant operations",
		Long: `Operations CLI for the SAP CX WhatsApp assistant: ingest documentation
into the vector store, ask one-shot questions against the pipeline, and
inspect store and configuration state.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Initialize(logLevel, false)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load, chunk, embed, and index the documentation corpus",
		Long: `Walk docs/<domain>/ for each of the five SAP CX domains, split the
documents into chunks, embed them, and index them in the vector store.
Chunk IDs are deterministic, so re-running ingestion updates in place.`,
		RunE: runIngest,
	}
	ingestCmd.Flags().String("docs-dir", "", "documentation root (overrides config)")
	ingestCmd.Flags().Bool("reset", false, "reset the store before ingesting")
	ingestCmd.Flags().Int("workers", 0, "concurrent files (overrides config)")

	askCmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Run one question through the pipeline",
		Args:  cobra.ExactArgs(1),
		RunE:  runAsk,
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show vector store statistics",
		RunE:  runStats,
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	configInitCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		RunE:  runConfigInit,
	}
	configInitCmd.Flags().StringP("output", "o", "config.json", "output path")

	configValidateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the configuration",
		RunE:  runConfigValidate,
	}

	configCmd.AddCommand(configInitCmd, configValidateCmd)
	rootCmd.AddCommand(ingestCmd, askCmd, statsCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func openStore(ctx context.Context, cfg *config.Config) (interfaces.Embedder, interfaces.VectorStore, error) {
	embedder, err := embeddings.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	store, err := storage.New(ctx, cfg, embedder.Dimension())
	if err != nil {
		return nil, nil, err
	}
	return embedder, store, nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	if docsDir, _ := cmd.Flags().GetString("docs-dir"); docsDir != "" {
		cfg.RAG.DocsDir = docsDir
	}
	if workers, _ := cmd.Flags().GetInt("workers"); workers > 0 {
		cfg.RAG.MaxConcurrency = workers
	}
	reset, _ := cmd.Flags().GetBool("reset")

	ctx, cancel := signalContext()
	defer cancel()

	embedder, store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if reset {
		if err := store.Reset(ctx); err != nil {
			return err
		}
		fmt.Println("Store reset.")
	}

	ingester := rag.NewIngester(
		rag.NewLoader(cfg.RAG.DocsDir),
		rag.NewChunker(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap),
		embedder,
		store,
		rag.Options{
			MaxConcurrency: cfg.RAG.MaxConcurrency,
			EmbedBatchSize: cfg.Embeddings.BatchSize,
			StoreBatchSize: cfg.Storage.SQLite.BatchSize,
		},
	)

	stats, err := ingester.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Ingestion complete in %s\n", stats.Duration.Round(10*time.Millisecond))
	fmt.Printf("  Files processed: %d\n", stats.FilesProcessed)
	fmt.Printf("  Files failed:    %d\n", stats.FilesFailed)
	fmt.Printf("  Chunks indexed:  %d\n", stats.ChunksIndexed)

	domains := make([]string, 0, len(stats.ByDomain))
	for d := range stats.ByDomain {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	for _, d := range domains {
		fmt.Printf("    %s: %d chunks\n", d, stats.ByDomain[d])
	}
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	embedder, store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	_, provider, err := llm.NewFromConfig(cfg)
	if err != nil {
		return err
	}

	pipeline := agent.New(provider, embedder, store, cfg, nil)

	state, err := pipeline.Run(ctx, args[0], "cli")
	if err != nil {
		return err
	}

	fmt.Printf("Domain: %s", state.PrimaryDomain)
	if state.CrossDomain {
		fmt.Printf(" (+ %v)", state.SecondaryDomains)
	}
	fmt.Printf("\nConfidence: %.2f\n", state.Confidence)
	if verbose && state.Plan != "" {
		fmt.Printf("\nPlan:\n%s\n", state.Plan)
	}
	if state.Failed() {
		fmt.Printf("\nError: %s\n", state.Err)
	}
	fmt.Printf("\nAnswer:\n%s\n", state.Answer)
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	_, store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.Stats(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Backend: %s\n", cfg.Storage.Backend)
	fmt.Printf("Total documents: %d\n", stats.TotalDocuments)

	domains := make([]string, 0, len(stats.ByDomain))
	for d := range stats.ByDomain {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	for _, d := range domains {
		fmt.Printf("  %s: %d\n", d, stats.ByDomain[d])
	}

	if verbose {
		fmt.Printf("\nConfiguration:\n%s\n", cfg.String())
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")

	if _, err := os.Stat(output); err == nil {
		return fmt.Errorf("refusing to overwrite existing file: %s", output)
	}

	cfg := config.DefaultConfig()
	if err := cfg.SaveToFile(output); err != nil {
		return err
	}

	fmt.Printf("Default configuration written to %s\n", output)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	fmt.Println("Configuration is valid.")
	fmt.Println(cfg.String())
	return nil
}
