// Package config handles TOML configuration loading with environment
// variable substitution.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/vmunix/gamarr/internal/library"
)

// Config is the root configuration structure.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Database   DatabaseConfig   `toml:"database"`
	Library    LibraryConfig    `toml:"library"`
	Naming     NamingConfig     `toml:"naming"`
	Downloader DownloaderConfig `toml:"downloader"`
}

type ServerConfig struct {
	LogLevel string `toml:"log_level"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type LibraryConfig struct {
	Root string `toml:"root"`
}

// NamingConfig mirrors the persisted naming row; the TOML values seed the
// database and win over it on startup so the file stays authoritative.
type NamingConfig struct {
	RenameGames              bool   `toml:"rename_games"`
	ReplaceIllegalCharacters bool   `toml:"replace_illegal_characters"`
	ColonReplacement         string `toml:"colon_replacement"`
	GameFolderFormat         string `toml:"game_folder_format"`
	StandardGameFormat       string `toml:"standard_game_format"`
}

type DownloaderConfig struct {
	Client       string        `toml:"client"`
	Category     string        `toml:"category"`
	WatchDir     string        `toml:"watch_dir"`
	PollInterval Duration      `toml:"poll_interval"`
	PathMappings []PathMapping `toml:"path_mappings"`
}

// Duration decodes TOML strings like "30s" into a time.Duration.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

type PathMapping struct {
	Remote string `toml:"remote"`
	Local  string `toml:"local"`
}

// colonStyles maps the TOML spelling to the persisted style.
var colonStyles = map[string]library.ColonStyle{
	"delete":         library.ColonDelete,
	"dash":           library.ColonDash,
	"spaceDash":      library.ColonSpaceDash,
	"spaceDashSpace": library.ColonSpaceDashSpace,
	"smart":          library.ColonSmart,
}

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	content := substituteEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/gamarr.db"
	}
	if c.Naming.ColonReplacement == "" {
		c.Naming.ColonReplacement = "smart"
	}
	if c.Naming.GameFolderFormat == "" {
		c.Naming.GameFolderFormat = library.DefaultNamingConfig().GameFolderFormat
	}
	if c.Downloader.PollInterval.Duration <= 0 {
		c.Downloader.PollInterval = Duration{30 * time.Second}
	}
}

// LibraryNaming converts the TOML section to the persisted row shape.
func (c *Config) LibraryNaming() library.NamingConfig {
	return library.NamingConfig{
		RenameGames:              c.Naming.RenameGames,
		ReplaceIllegalCharacters: c.Naming.ReplaceIllegalCharacters,
		ColonReplacement:         colonStyles[c.Naming.ColonReplacement],
		GameFolderFormat:         c.Naming.GameFolderFormat,
		StandardGameFormat:       c.Naming.StandardGameFormat,
	}
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := match[2 : len(match)-1]
		if value, ok := os.LookupEnv(varName); ok {
			return value
		}
		return match
	})
}
