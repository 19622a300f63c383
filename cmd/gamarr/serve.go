package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/vmunix/gamarr/internal/config"
	"github.com/vmunix/gamarr/internal/download"
	"github.com/vmunix/gamarr/internal/events"
	"github.com/vmunix/gamarr/internal/handlers"
	"github.com/vmunix/gamarr/internal/importer"
	"github.com/vmunix/gamarr/internal/library"
	"github.com/vmunix/gamarr/internal/migrations"
	"github.com/vmunix/gamarr/internal/organizer"
	"github.com/vmunix/gamarr/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the import daemon",
	Long:  "Polls the download client and imports completed downloads into the library.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runServe() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "config: %s\n", e)
		}
		return fmt.Errorf("invalid config: %d problem(s)", len(errs))
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))
	slog.SetDefault(logger)

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", cfg.Database.Path+"?_foreign_keys=on")
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(migrations.InitialSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	libraryStore := library.NewStore(db)
	trackedStore := download.NewStore(db)
	historyStore := download.NewHistoryStore(db)

	// The config file is authoritative: its naming section overwrites the
	// persisted row on every start.
	if err := libraryStore.UpdateNamingConfig(cfg.LibraryNaming()); err != nil {
		return fmt.Errorf("seed naming config: %w", err)
	}

	var client download.Downloader
	switch cfg.Downloader.Client {
	case "watchfolder":
		client = download.NewWatchFolderClient(cfg.Downloader.WatchDir, cfg.Downloader.Category)
	case "":
		return errors.New("downloader.client: required for serve")
	default:
		return fmt.Errorf("downloader.client: unsupported client %q", cfg.Downloader.Client)
	}

	mappings := pathMappings(cfg)
	bus := events.NewBus(logger)
	org := organizer.New(logger)
	engine := importer.NewEngine(libraryStore, nil, logger)
	imp := importer.NewImporter(libraryStore, historyStore, org, nil, bus, logger)
	completion := handlers.NewCompletionService(trackedStore, historyStore, libraryStore, engine, imp, bus, mappings, logger)

	runner := server.NewRunner(trackedStore, client, completion, server.Config{
		PollInterval: cfg.Downloader.PollInterval.Duration,
		ClientName:   cfg.Downloader.Client,
		PathMappings: mappings,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("gamarr started",
		"version", version,
		"db", cfg.Database.Path,
		"client", cfg.Downloader.Client,
		"poll_interval", cfg.Downloader.PollInterval.Duration)

	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("gamarr stopped")
	return nil
}

func pathMappings(cfg *config.Config) []download.PathMapping {
	mappings := make([]download.PathMapping, len(cfg.Downloader.PathMappings))
	for i, m := range cfg.Downloader.PathMappings {
		mappings[i] = download.PathMapping{Remote: m.Remote, Local: m.Local}
	}
	return mappings
}
