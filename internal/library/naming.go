package library

import (
	"database/sql"
	"fmt"
)

// GetNamingConfig reads the singleton naming configuration row, seeding the
// defaults on first access.
func (s *Store) GetNamingConfig() (NamingConfig, error) {
	cfg := NamingConfig{}
	var rename, replaceIllegal int
	var colon int

	err := s.db.QueryRow(`
		SELECT rename_games, replace_illegal, colon_replacement, game_folder_format, standard_game_format
		FROM naming_config WHERE id = 1`,
	).Scan(&rename, &replaceIllegal, &colon, &cfg.GameFolderFormat, &cfg.StandardGameFormat)

	if err == sql.ErrNoRows {
		cfg = DefaultNamingConfig()
		if err := s.UpdateNamingConfig(cfg); err != nil {
			return NamingConfig{}, err
		}
		return cfg, nil
	}
	if err != nil {
		return NamingConfig{}, fmt.Errorf("get naming config: %w", err)
	}

	cfg.RenameGames = rename != 0
	cfg.ReplaceIllegalCharacters = replaceIllegal != 0
	cfg.ColonReplacement = ColonStyle(colon)
	return cfg, nil
}

// UpdateNamingConfig writes the singleton naming configuration row.
func (s *Store) UpdateNamingConfig(cfg NamingConfig) error {
	_, err := s.db.Exec(`
		INSERT INTO naming_config (id, rename_games, replace_illegal, colon_replacement, game_folder_format, standard_game_format)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			rename_games = excluded.rename_games,
			replace_illegal = excluded.replace_illegal,
			colon_replacement = excluded.colon_replacement,
			game_folder_format = excluded.game_folder_format,
			standard_game_format = excluded.standard_game_format`,
		boolToInt(cfg.RenameGames), boolToInt(cfg.ReplaceIllegalCharacters),
		int(cfg.ColonReplacement), cfg.GameFolderFormat, cfg.StandardGameFormat,
	)
	if err != nil {
		return fmt.Errorf("update naming config: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
