package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vmunix/gamarr/internal/config"
	"github.com/vmunix/gamarr/internal/download"
	"github.com/vmunix/gamarr/internal/events"
	"github.com/vmunix/gamarr/internal/importer"
	"github.com/vmunix/gamarr/internal/library"
	"github.com/vmunix/gamarr/internal/migrations"
	"github.com/vmunix/gamarr/internal/organizer"
)

var (
	importCommit     bool
	importGameID     int64
	importDownloadID string
)

var importCmd = &cobra.Command{
	Use:   "import <path>",
	Short: "Manually import files from a folder",
	Long: `Evaluates every video file under the given path and prints the import
decision for each. With --commit, approved files are moved into the library.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd.Context(), args[0])
	},
}

func init() {
	importCmd.Flags().BoolVar(&importCommit, "commit", false, "Import approved files instead of only listing them")
	importCmd.Flags().Int64Var(&importGameID, "game-id", 0, "Import against this game instead of resolving per file")
	importCmd.Flags().StringVar(&importDownloadID, "download-id", "", "Associate files with this tracked download")
	rootCmd.AddCommand(importCmd)
}

func runImport(ctx context.Context, path string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

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

	var client download.Downloader
	if cfg.Downloader.Client == "watchfolder" {
		client = download.NewWatchFolderClient(cfg.Downloader.WatchDir, cfg.Downloader.Category)
	}

	bus := events.NewBus(logger)
	org := organizer.New(logger)
	engine := importer.NewEngine(libraryStore, nil, logger)
	imp := importer.NewImporter(libraryStore, historyStore, org, nil, bus, logger)
	manual := importer.NewManualImportService(engine, imp, libraryStore, trackedStore, client, logger)

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	items, err := manual.GetMediaFiles(abs, importDownloadID, importGameID, false)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("No video files found.")
		return nil
	}

	var approved []*importer.ManualItem
	for _, item := range items {
		if len(item.Rejections) == 0 && item.Game != nil {
			approved = append(approved, item)
			fmt.Printf("approved  %s\n", item.Name)
			fmt.Printf("          %s (%d)  %s\n", item.Game.Title, item.Game.Year, item.Quality)
			continue
		}
		fmt.Printf("rejected  %s\n", item.Name)
		for _, r := range item.Rejections {
			fmt.Printf("          - %s\n", r.Message)
		}
	}
	fmt.Printf("\n%d of %d file(s) approved\n", len(approved), len(items))

	if !importCommit || len(approved) == 0 {
		return nil
	}

	results, err := manual.Commit(ctx, approved)
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	for _, r := range results {
		if r.Imported {
			fmt.Printf("imported  %s\n", r.DestPath)
			continue
		}
		fmt.Printf("failed    %s\n", r.Decision.Item.Path)
		for _, e := range r.Errors {
			fmt.Printf("          - %s\n", e)
		}
	}
	return nil
}
