package models

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mlboard/config"
)

var DB *gorm.DB

// Open connects to the configured database and migrates every model.
func Open(cfg config.Database) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite", "":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&User{}, &Project{}, &Membership{}, &Experiment{}); err != nil {
		return nil, fmt.Errorf("failed to auto migrate: %w", err)
	}
	return db, nil
}

func ConnectDatabase(cfg config.Database) {
	db, err := Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Driver).Msg("database unavailable")
	}
	DB = db
}
