// Package databasetest opens throwaway in-memory databases for package tests.
package databasetest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"gorm.io/gorm"

	"reservecore/internal/database"
)

var seq atomic.Int64

// Open returns a fresh shared-cache in-memory SQLite database migrated with models.
// The database is closed when the test finishes.
func Open(t testing.TB, models ...any) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, seq.Add(1))
	db, err := database.Connect(dsn, database.WithSilentLogger())
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			t.Fatalf("failed to migrate db: %v", err)
		}
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
