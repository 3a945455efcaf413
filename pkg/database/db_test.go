package database_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rainbowartistery/atelier/pkg/database"
)

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := database.Open("oracle", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported DB_DRIVER")
}

func TestOpenSQLiteMemory(t *testing.T) {
	db, err := database.Open("sqlite", ":memory:")
	require.NoError(t, err)

	var one int
	require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
}

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{gorm.ErrDuplicatedKey, true},
		{fmt.Errorf("create: %w", gorm.ErrDuplicatedKey), true},
		{errors.New("UNIQUE constraint failed: products.slug"), true},
		{errors.New(`ERROR: duplicate key value violates unique constraint "idx_products_slug"`), true},
		{errors.New("Error 1062: Duplicate entry 'x' for key 'slug'"), true},
		{gorm.ErrRecordNotFound, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, database.IsUniqueViolation(tc.err), "%v", tc.err)
	}
}

func TestUniqueIndexViolationIsDetected(t *testing.T) {
	type widget struct {
		ID   uint   `gorm:"primaryKey"`
		Slug string `gorm:"uniqueIndex"`
	}

	db, err := database.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&widget{}))

	require.NoError(t, db.Create(&widget{Slug: "a"}).Error)
	err = db.Create(&widget{Slug: "a"}).Error
	assert.True(t, database.IsUniqueViolation(err), "got %v", err)
}
