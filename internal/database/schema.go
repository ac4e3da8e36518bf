package database

import (
	"context"
	"fmt"
	"log/slog"

	"avatio/internal/middleware"

	"gorm.io/gorm"
)

// ApplySchema migrates every persistent model.
func ApplySchema(ctx context.Context, db *gorm.DB) error {
	middleware.Logger.InfoContext(ctx, "Running GORM AutoMigrate", slog.Int("models", len(PersistentModels())))
	if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
