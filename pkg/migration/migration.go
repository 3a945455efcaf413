// Package migration runs and tracks schema migrations.
//
// Usage (in database/migrations):
//
//	func init() {
//	    migration.Register("20240601000000_create_products_table", &CreateProductsTable{})
//	}
//
//	type CreateProductsTable struct{}
//	func (m *CreateProductsTable) Up(db *gorm.DB) error {
//	    return db.AutoMigrate(&models.Product{})
//	}
//	func (m *CreateProductsTable) Down(db *gorm.DB) error {
//	    return db.Migrator().DropTable("products")
//	}
//
// Run from CLI:
//
//	atelier migrate             // run all pending
//	atelier migrate:rollback    // rollback last batch
package migration

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/rainbowartistery/atelier/pkg/logger"
)

// Migration is the interface every migration must implement.
type Migration interface {
	Up(db *gorm.DB) error
	Down(db *gorm.DB) error
}

// migrationRecord is the row stored in the tracking table.
type migrationRecord struct {
	ID    uint      `gorm:"primaryKey;autoIncrement"`
	Name  string    `gorm:"uniqueIndex;size:255;not null"`
	Batch int       `gorm:"not null"`
	RunAt time.Time `gorm:"autoCreateTime"`
}

func (migrationRecord) TableName() string { return "atelier_migrations" }

// ErrNotRegistered is returned when a recorded migration has no code.
var ErrNotRegistered = errors.New("migration: not registered")

// ------------------- Registry -------------------

// Entry pairs a timestamp-prefixed name with its implementation.
type Entry struct {
	Name      string
	Migration Migration
}

var registry []Entry

// Register adds a migration to the global registry. Order of registration
// does not matter; migrations run sorted by name.
func Register(name string, m Migration) {
	registry = append(registry, Entry{Name: name, Migration: m})
}

// Registered returns a sorted copy of the global registry.
func Registered() []Entry {
	return sorted(registry)
}

func sorted(in []Entry) []Entry {
	out := append([]Entry(nil), in...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ------------------- Runner -------------------

// Runner executes and tracks migrations.
type Runner struct {
	db      *gorm.DB
	entries []Entry
	out     io.Writer
}

// New creates a Runner over the global registry. Progress lines go to out
// (io.Discard when nil).
func New(db *gorm.DB, out io.Writer) *Runner {
	return NewWith(db, out, registry...)
}

// NewWith creates a Runner over an explicit migration set.
func NewWith(db *gorm.DB, out io.Writer, entries ...Entry) *Runner {
	if out == nil {
		out = io.Discard
	}
	return &Runner{db: db, entries: sorted(entries), out: out}
}

// EnsureTable creates the tracking table if it does not exist.
func (r *Runner) EnsureTable() error {
	return r.db.AutoMigrate(&migrationRecord{})
}

func (r *Runner) ran() (map[string]migrationRecord, error) {
	var rows []migrationRecord
	if err := r.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]migrationRecord, len(rows))
	for _, rec := range rows {
		out[rec.Name] = rec
	}
	return out, nil
}

// Pending returns the migrations that have not yet been run, by name.
func (r *Runner) Pending() ([]Entry, error) {
	ran, err := r.ran()
	if err != nil {
		return nil, err
	}
	var pending []Entry
	for _, e := range r.entries {
		if _, ok := ran[e.Name]; !ok {
			pending = append(pending, e)
		}
	}
	return pending, nil
}

// Run executes all pending migrations in a single batch and returns how
// many ran.
func (r *Runner) Run() (int, error) {
	if err := r.EnsureTable(); err != nil {
		return 0, fmt.Errorf("migration: ensure table: %w", err)
	}

	pending, err := r.Pending()
	if err != nil {
		return 0, fmt.Errorf("migration: fetch pending: %w", err)
	}
	if len(pending) == 0 {
		fmt.Fprintln(r.out, "Nothing to migrate.")
		return 0, nil
	}

	batch, err := r.lastBatch()
	if err != nil {
		return 0, err
	}
	batch++

	for i, e := range pending {
		logger.Info("migration: running", "name", e.Name)
		fmt.Fprintf(r.out, "  ▶ Migrating: %s\n", e.Name)

		if err := e.Migration.Up(r.db); err != nil {
			return i, fmt.Errorf("migration: %s up: %w", e.Name, err)
		}
		if err := r.db.Create(&migrationRecord{Name: e.Name, Batch: batch}).Error; err != nil {
			return i, fmt.Errorf("migration: record %s: %w", e.Name, err)
		}

		fmt.Fprintf(r.out, "  ✅ Migrated:  %s\n", e.Name)
	}

	logger.Info("migration: done", "ran", len(pending), "batch", batch)
	return len(pending), nil
}

// Rollback reverses every migration in the most recent batch and returns
// how many were rolled back.
func (r *Runner) Rollback() (int, error) {
	if err := r.EnsureTable(); err != nil {
		return 0, fmt.Errorf("migration: ensure table: %w", err)
	}

	batch, err := r.lastBatch()
	if err != nil {
		return 0, err
	}
	if batch == 0 {
		fmt.Fprintln(r.out, "Nothing to roll back.")
		return 0, nil
	}

	var records []migrationRecord
	if err := r.db.Where("batch = ?", batch).Order("name desc").Find(&records).Error; err != nil {
		return 0, fmt.Errorf("migration: load batch %d: %w", batch, err)
	}

	byName := make(map[string]Migration, len(r.entries))
	for _, e := range r.entries {
		byName[e.Name] = e.Migration
	}

	for i, rec := range records {
		m, ok := byName[rec.Name]
		if !ok {
			return i, fmt.Errorf("%w: %s", ErrNotRegistered, rec.Name)
		}

		fmt.Fprintf(r.out, "  ◀ Rolling back: %s\n", rec.Name)
		logger.Info("migration: rolling back", "name", rec.Name)

		if err := m.Down(r.db); err != nil {
			return i, fmt.Errorf("migration: %s down: %w", rec.Name, err)
		}
		if err := r.db.Delete(&rec).Error; err != nil {
			return i, fmt.Errorf("migration: forget %s: %w", rec.Name, err)
		}

		fmt.Fprintf(r.out, "  ✅ Rolled back:  %s\n", rec.Name)
	}
	return len(records), nil
}

// StatusRow is one line of `migrate:status`. Batch is 0 when pending.
type StatusRow struct {
	Name  string
	Ran   bool
	Batch int
}

// Status reports every known migration and whether it has run.
func (r *Runner) Status() ([]StatusRow, error) {
	if err := r.EnsureTable(); err != nil {
		return nil, err
	}
	ran, err := r.ran()
	if err != nil {
		return nil, err
	}

	rows := make([]StatusRow, 0, len(r.entries))
	for _, e := range r.entries {
		rec, ok := ran[e.Name]
		rows = append(rows, StatusRow{Name: e.Name, Ran: ok, Batch: rec.Batch})
	}
	return rows, nil
}

func (r *Runner) lastBatch() (int, error) {
	var out struct{ Max int }
	err := r.db.Model(&migrationRecord{}).Select("COALESCE(MAX(batch), 0) AS max").Scan(&out).Error
	if err != nil {
		return 0, fmt.Errorf("migration: read batch: %w", err)
	}
	return out.Max, nil
}
