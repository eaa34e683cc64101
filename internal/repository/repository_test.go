package repository_test

import (
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sparkmatch/discovery/internal/db"
)

// setupTestDB opens an isolated in-memory SQLite DB with the full schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.Migrate(database); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return database
}

// seedProfile inserts a minimal active profile and returns its id.
func seedProfile(t *testing.T, database *gorm.DB, p db.Profile) uint64 {
	t.Helper()
	if p.Name == "" {
		p.Name = "someone"
	}
	if p.Age == 0 {
		p.Age = 25
	}
	if p.Gender == "" {
		p.Gender = "female"
	}
	p.Active = true
	if err := database.Create(&p).Error; err != nil {
		t.Fatalf("failed to seed profile: %v", err)
	}
	return p.ID
}
