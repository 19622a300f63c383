// internal/config/validate.go
package config

import (
	"fmt"
	"os"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if c.Library.Root == "" {
		errs = append(errs, "library.root: required")
	}

	if !validLogLevels[c.Server.LogLevel] {
		errs = append(errs, fmt.Sprintf("server.log_level: must be one of debug, info, warn, error; got %q", c.Server.LogLevel))
	}

	// An empty file template with renaming on would name every import the
	// same; it must fail here, never fall back to a default silently.
	if c.Naming.RenameGames && c.Naming.StandardGameFormat == "" {
		errs = append(errs, "naming.standard_game_format: required when rename_games is enabled")
	}
	if _, ok := colonStyles[c.Naming.ColonReplacement]; !ok {
		errs = append(errs, fmt.Sprintf("naming.colon_replacement: must be one of delete, dash, spaceDash, spaceDashSpace, smart; got %q", c.Naming.ColonReplacement))
	}

	if c.Downloader.Client == "watchfolder" && c.Downloader.WatchDir == "" {
		errs = append(errs, "downloader.watch_dir: required for the watchfolder client")
	}

	for i, m := range c.Downloader.PathMappings {
		if m.Remote == "" || m.Local == "" {
			errs = append(errs, fmt.Sprintf("downloader.path_mappings[%d]: both remote and local are required", i))
		}
	}

	// Library path warning (non-fatal in spirit, reported the same way)
	if c.Library.Root != "" {
		if _, err := os.Stat(c.Library.Root); os.IsNotExist(err) {
			errs = append(errs, fmt.Sprintf("library.root: warning: directory %q does not exist", c.Library.Root))
		}
	}

	return errs
}
