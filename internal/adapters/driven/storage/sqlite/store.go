package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/parcelworks/deedline/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/parcelworks/deedline/internal/core/domain"
	"github.com/parcelworks/deedline/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides the ledger and
// record store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.deedline/data/deedline.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".deedline", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "deedline.db")

	// WAL mode for concurrent worker writes
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// FreshnessLedger returns a FreshnessLedger backed by this store.
func (s *Store) FreshnessLedger() driven.FreshnessLedger {
	return &freshnessLedger{store: s}
}

// RecordStore returns a RecordStore backed by this store.
func (s *Store) RecordStore() driven.RecordStore {
	return &recordStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// ==================== Freshness Ledger ====================

// freshnessLedger implements driven.FreshnessLedger.
type freshnessLedger struct {
	store *Store
}

var _ driven.FreshnessLedger = (*freshnessLedger)(nil)

// IsDue reports whether the triple should be fetched given the maximum age.
func (l *freshnessLedger) IsDue(ctx context.Context, sourceID, parcelKey string, category domain.Category, maxAge time.Duration) (bool, error) {
	row := l.store.db.QueryRowContext(ctx, `
		SELECT checked_at, outcome FROM freshness_ledger
		WHERE source_id = ? AND parcel_key = ? AND category = ?
	`, sourceID, parcelKey, string(category))

	var checkedAt time.Time
	var outcome string
	err := row.Scan(&checkedAt, &outcome)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying ledger: %w", err)
	}

	entry := domain.FreshnessEntry{
		SourceID:  sourceID,
		ParcelKey: parcelKey,
		Category:  category,
		CheckedAt: checkedAt,
		Outcome:   domain.Outcome(outcome),
	}
	return entry.Due(time.Now().UTC(), maxAge), nil
}

// RecordOutcome upserts the entry for the triple.
func (l *freshnessLedger) RecordOutcome(ctx context.Context, entry domain.FreshnessEntry) error {
	_, err := l.store.db.ExecContext(ctx, `
		INSERT INTO freshness_ledger (source_id, parcel_key, category, checked_at, outcome)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(source_id, parcel_key, category) DO UPDATE SET
			checked_at = excluded.checked_at,
			outcome = excluded.outcome
	`, entry.SourceID, entry.ParcelKey, string(entry.Category), entry.CheckedAt.UTC(), string(entry.Outcome))
	if err != nil {
		return fmt.Errorf("recording outcome: %w", err)
	}
	return nil
}

// Entries lists ledger entries, optionally filtered by source id.
func (l *freshnessLedger) Entries(ctx context.Context, sourceID string) ([]domain.FreshnessEntry, error) {
	query := `
		SELECT source_id, parcel_key, category, checked_at, outcome
		FROM freshness_ledger`
	args := []any{}
	if sourceID != "" {
		query += " WHERE source_id = ?"
		args = append(args, sourceID)
	}
	query += " ORDER BY source_id, parcel_key, category"

	rows, err := l.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.FreshnessEntry
	for rows.Next() {
		var e domain.FreshnessEntry
		var category, outcome string
		if err := rows.Scan(&e.SourceID, &e.ParcelKey, &category, &e.CheckedAt, &outcome); err != nil {
			return nil, fmt.Errorf("scanning ledger entry: %w", err)
		}
		e.Category = domain.Category(category)
		e.Outcome = domain.Outcome(outcome)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ==================== Record Store ====================

// recordStore implements driven.RecordStore. Category field sets are stored
// as JSON columns; provenance rows live in their own table so re-saving a
// record never rewrites history.
type recordStore struct {
	store *Store
}

var _ driven.RecordStore = (*recordStore)(nil)

// Get returns the record for a parcel key.
func (r *recordStore) Get(ctx context.Context, parcelKey string) (*domain.NormalisedRecord, error) {
	row := r.store.db.QueryRowContext(ctx, `
		SELECT parcel_key, mortgage, foreclosure, tax, updated_at
		FROM records WHERE parcel_key = ?
	`, parcelKey)

	var record domain.NormalisedRecord
	var mortgage, foreclosure, tax string
	err := row.Scan(&record.ParcelKey, &mortgage, &foreclosure, &tax, &record.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: record %q", domain.ErrNotFound, parcelKey)
	}
	if err != nil {
		return nil, fmt.Errorf("querying record: %w", err)
	}

	for dst, raw := range map[*domain.ParsedFields]string{
		&record.Mortgage:    mortgage,
		&record.Foreclosure: foreclosure,
		&record.Tax:         tax,
	} {
		if err := json.Unmarshal([]byte(raw), dst); err != nil {
			return nil, fmt.Errorf("decoding record fields: %w", err)
		}
	}

	if record.Provenance, err = r.provenance(ctx, parcelKey); err != nil {
		return nil, err
	}
	return &record, nil
}

// Save upserts the record and appends any provenance rows not yet stored.
func (r *recordStore) Save(ctx context.Context, record *domain.NormalisedRecord) error {
	mortgage, err := json.Marshal(record.Mortgage)
	if err != nil {
		return fmt.Errorf("encoding mortgage fields: %w", err)
	}
	foreclosure, err := json.Marshal(record.Foreclosure)
	if err != nil {
		return fmt.Errorf("encoding foreclosure fields: %w", err)
	}
	tax, err := json.Marshal(record.Tax)
	if err != nil {
		return fmt.Errorf("encoding tax fields: %w", err)
	}

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO records (parcel_key, mortgage, foreclosure, tax, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(parcel_key) DO UPDATE SET
			mortgage = excluded.mortgage,
			foreclosure = excluded.foreclosure,
			tax = excluded.tax,
			updated_at = excluded.updated_at
	`, record.ParcelKey, string(mortgage), string(foreclosure), string(tax), record.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving record: %w", err)
	}

	for _, p := range record.Provenance {
		_, err = tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO provenance
				(parcel_key, source_id, instrument_type, document_date, artifact_ref, ingested_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, record.ParcelKey, p.SourceID, p.InstrumentType, p.DocumentDate, p.ArtifactRef, p.IngestedAt.UTC())
		if err != nil {
			return fmt.Errorf("saving provenance: %w", err)
		}
	}
	return tx.Commit()
}

// List returns all parcel keys with a record, sorted.
func (r *recordStore) List(ctx context.Context) ([]string, error) {
	rows, err := r.store.db.QueryContext(ctx, "SELECT parcel_key FROM records ORDER BY parcel_key")
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scanning parcel key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// provenance loads a record's provenance in insertion order.
func (r *recordStore) provenance(ctx context.Context, parcelKey string) ([]domain.ProvenanceEntry, error) {
	rows, err := r.store.db.QueryContext(ctx, `
		SELECT source_id, instrument_type, document_date, artifact_ref, ingested_at
		FROM provenance WHERE parcel_key = ? ORDER BY id
	`, parcelKey)
	if err != nil {
		return nil, fmt.Errorf("querying provenance: %w", err)
	}
	defer rows.Close()

	var entries []domain.ProvenanceEntry
	for rows.Next() {
		var e domain.ProvenanceEntry
		if err := rows.Scan(&e.SourceID, &e.InstrumentType, &e.DocumentDate, &e.ArtifactRef, &e.IngestedAt); err != nil {
			return nil, fmt.Errorf("scanning provenance: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
