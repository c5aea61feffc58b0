package di

import (
	"fmt"

	"github.com/aristath/checkup/internal/config"
	"github.com/aristath/checkup/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens checkups.db and applies its schema
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	checkupsDB, err := database.New(database.Config{
		Path:    cfg.DatabasePath(),
		Profile: database.ProfileStandard,
		Name:    "checkups",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize checkups database: %w", err)
	}

	if err := checkupsDB.Migrate(); err != nil {
		checkupsDB.Close()
		return nil, fmt.Errorf("failed to migrate checkups database: %w", err)
	}
	container.CheckupsDB = checkupsDB

	log.Info().Str("path", checkupsDB.Path()).Msg("Database initialized")
	return container, nil
}
