package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vmunix/gamarr/internal/config"
	"github.com/vmunix/gamarr/internal/library"
	"github.com/vmunix/gamarr/internal/organizer"
)

var previewCmd = &cobra.Command{
	Use:   "preview [file-format]",
	Short: "Preview naming formats against a sample game",
	Long: `Renders the configured naming formats against a built-in sample game
and file. Pass a format string to try it without touching the config.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPreview(args)
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
}

func runPreview(args []string) error {
	naming := previewNaming()
	if len(args) == 1 {
		naming.StandardGameFormat = args[0]
		naming.RenameGames = true
	}

	org := organizer.New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	game := organizer.SampleGame()
	file := organizer.SampleFile()

	name, err := org.BuildFileName(game, file, naming, nil)
	if err != nil {
		return fmt.Errorf("file format: %w", err)
	}
	folder, err := org.GetGameFolder(game, naming)
	if err != nil {
		return fmt.Errorf("folder format: %w", err)
	}

	fmt.Printf("Folder: %s\n", folder)
	fmt.Printf("File:   %s\n", name)
	return nil
}

// previewNaming loads the config's naming section, falling back to defaults
// so the command works before any config file exists.
func previewNaming() library.NamingConfig {
	if _, err := os.Stat(configPath); err != nil {
		return library.DefaultNamingConfig()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v, using defaults\n", err)
		return library.DefaultNamingConfig()
	}
	naming := cfg.LibraryNaming()
	if naming.StandardGameFormat == "" {
		naming.StandardGameFormat = library.DefaultNamingConfig().StandardGameFormat
	}
	return naming
}
