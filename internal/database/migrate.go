package database

import (
	"certgen/internal/logger"
	. "certgen/internal/models"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB, log logger.Logger) error {
	log = log.Function("Migrate")
	log.Info("Migrating run history tables")

	if err := db.AutoMigrate(&GenerationRun{}, &SkippedRow{}); err != nil {
		return log.Err("failed to migrate run history tables", err)
	}

	log.Info("Table migration complete")
	return nil
}
