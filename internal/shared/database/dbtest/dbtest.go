// Package dbtest opens throwaway SQLite databases for repository and service tests.
package dbtest

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a gorm handle on a fresh database file that is removed with the test.
// The handle has a single connection, so transactions from concurrent goroutines
// run one after another. Tests here check the outcome of those interleavings;
// two transactions racing on the same row is not exercised.
func Open(t testing.TB, migrations ...func(*gorm.DB) error) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "busline_test.db")
	db, err := gorm.Open(sqlite.Open(path+"?_pragma=busy_timeout(5000)"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, migrate := range migrations {
		if err := migrate(db); err != nil {
			t.Fatalf("migrate: %v", err)
		}
	}
	return db
}
