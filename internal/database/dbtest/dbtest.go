// Package dbtest provides a throwaway sqlite store for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/axellelanca/portfolio/internal/config"
	"github.com/axellelanca/portfolio/internal/database"
	"gorm.io/gorm"
)

// Open opens a migrated sqlite database in t's temp dir and closes it
// when the test ends. The pool holds a single connection.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	return OpenPool(t, 1)
}

// OpenPool is Open with up to conns concurrent connections, so that
// concurrent writers really race inside the store.
func OpenPool(t testing.TB, conns int) *gorm.DB {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{
		Driver:        config.DriverSQLite,
		Name:          filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns:  conns,
		MaxIdleConns:  conns,
		BusyTimeoutMS: 5000,
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}
