// Package testutil provides shared fixtures for backend tests.
package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"avatio/internal/database"
	"avatio/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewTestDB opens a migrated in-memory sqlite database private to t. The
// named shared-cache DSN keeps one database visible to every pooled
// connection, including those used by detached side effects.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:avatio_test_%d?mode=memory&cache=shared&_foreign_keys=on", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.ApplySchema(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// CreateUser inserts a user with a unique handle derived from name.
func CreateUser(t testing.TB, db *gorm.DB, name string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{Handle: fmt.Sprintf("%s_%d", name, dbSeq.Add(1)), Name: name, Role: role}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// CreateItem inserts an item with a unique external id.
func CreateItem(t testing.TB, db *gorm.DB, name string) *models.Item {
	t.Helper()
	it := &models.Item{Platform: "booth", ExternalID: fmt.Sprintf("%d", dbSeq.Add(1)), Name: name, Price: 500}
	if err := db.Create(it).Error; err != nil {
		t.Fatalf("create item: %v", err)
	}
	return it
}

// CreateSetup inserts a setup owned by userID with the given image URLs and tags.
func CreateSetup(t testing.TB, db *gorm.DB, userID uint, name string, imageURLs []string, tags ...string) *models.Setup {
	t.Helper()
	s := &models.Setup{UserID: userID, Name: name}
	for _, u := range imageURLs {
		s.Images = append(s.Images, models.SetupImage{URL: u, Width: 10, Height: 10})
	}
	for _, tag := range tags {
		s.Tags = append(s.Tags, models.SetupTag{Tag: tag})
	}
	if err := db.Create(s).Error; err != nil {
		t.Fatalf("create setup: %v", err)
	}
	return s
}
