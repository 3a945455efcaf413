package migration_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rainbowartistery/atelier/pkg/database"
	"github.com/rainbowartistery/atelier/pkg/migration"
)

type widget struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

type gadget struct {
	ID uint `gorm:"primaryKey"`
}

type tableMigration struct{ model any }

func (m tableMigration) Up(db *gorm.DB) error   { return db.AutoMigrate(m.model) }
func (m tableMigration) Down(db *gorm.DB) error { return db.Migrator().DropTable(m.model) }

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	return db
}

func TestRunRollbackStatus(t *testing.T) {
	db := openDB(t)
	entries := []migration.Entry{
		{Name: "20240102000000_create_gadgets", Migration: tableMigration{&gadget{}}},
		{Name: "20240101000000_create_widgets", Migration: tableMigration{&widget{}}},
	}
	r := migration.NewWith(db, nil, entries...)

	n, err := r.Run()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, db.Migrator().HasTable(&widget{}))
	assert.True(t, db.Migrator().HasTable(&gadget{}))

	n, err = r.Run()
	require.NoError(t, err)
	assert.Zero(t, n, "second run is a no-op")

	rows, err := r.Status()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "20240101000000_create_widgets", rows[0].Name, "sorted by name")
	assert.True(t, rows[0].Ran)
	assert.Equal(t, 1, rows[0].Batch)

	n, err = r.Rollback()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.False(t, db.Migrator().HasTable(&widget{}))

	n, err = r.Rollback()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRollbackOnlyLastBatch(t *testing.T) {
	db := openDB(t)
	first := migration.Entry{Name: "20240101000000_create_widgets", Migration: tableMigration{&widget{}}}
	_, err := migration.NewWith(db, nil, first).Run()
	require.NoError(t, err)

	second := migration.Entry{Name: "20240102000000_create_gadgets", Migration: tableMigration{&gadget{}}}
	r := migration.NewWith(db, nil, first, second)
	_, err = r.Run()
	require.NoError(t, err)

	n, err := r.Rollback()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, db.Migrator().HasTable(&widget{}))
	assert.False(t, db.Migrator().HasTable(&gadget{}))
}

func TestRollbackUnknownMigration(t *testing.T) {
	db := openDB(t)
	e := migration.Entry{Name: "20240101000000_create_widgets", Migration: tableMigration{&widget{}}}
	_, err := migration.NewWith(db, nil, e).Run()
	require.NoError(t, err)

	_, err = migration.NewWith(db, nil).Rollback()
	assert.ErrorIs(t, err, migration.ErrNotRegistered)
}
