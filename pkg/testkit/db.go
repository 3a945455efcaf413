// Package testkit holds helpers shared by package tests: a migrated
// in-memory database and small HTTP request/response utilities.
package testkit

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	_ "github.com/rainbowartistery/atelier/database/migrations"
	"github.com/rainbowartistery/atelier/pkg/database"
	"github.com/rainbowartistery/atelier/pkg/migration"
)

var dbSeq atomic.Int64

// NewDB returns a fresh, fully migrated SQLite database private to t.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A named shared-cache DSN keeps each test's database isolated.
	dsn := fmt.Sprintf("file:testkit_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := database.Open("sqlite", dsn)
	require.NoError(t, err, "testkit: open db")

	_, err = migration.New(db, nil).Run()
	require.NoError(t, err, "testkit: migrate")

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}
