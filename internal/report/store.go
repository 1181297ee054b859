package report

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ironsheep/coloc-tools-mcp/internal/pipeline"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Store persists batch results in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Run describes one batch invocation.
type Run struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	StartedAt time.Time       `json:"started_at"`
	Params    pipeline.Params `json:"params"`
}

// FieldSummary is the stored per-field row.
type FieldSummary struct {
	Name             string
	Group            string
	ReferenceObjects int
	QueryObjects     int
	Colocalized      int
	CountedObjects   int
	GranuleObjects   int
	EnrichedObjects  int
	Warnings         []string
}

// OpenStore opens or creates the results database at path and applies
// migrations.
func OpenStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordRun inserts a run. A missing ID is generated and a zero StartedAt
// is set to now.
func (s *Store) RecordRun(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	params, err := json.Marshal(run.Params)
	if err != nil {
		return Run{}, fmt.Errorf("marshal params: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, name, started_at, params_json) VALUES (?, ?, ?, ?)`,
		run.ID, run.Name, run.StartedAt.Format(time.RFC3339Nano), string(params),
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// Runs lists recorded runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, started_at, params_json FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started, params string
		if err := rows.Scan(&run.ID, &run.Name, &started, &params); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if run.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		if err := json.Unmarshal([]byte(params), &run.Params); err != nil {
			return nil, fmt.Errorf("decode params: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RecordField stores a field result and its enriched objects under runID.
func (s *Store) RecordField(ctx context.Context, runID string, res *pipeline.FieldResult) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin field tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var warnings any
	if len(res.Warnings) > 0 {
		data, err := json.Marshal(res.Warnings)
		if err != nil {
			return 0, fmt.Errorf("marshal warnings: %w", err)
		}
		warnings = string(data)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO fields (
            run_id, name, group_name, reference_objects, query_objects, colocalized,
            counted_objects, granule_objects, enriched_objects, warnings_json
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, res.Name, res.Group, res.ReferenceObjects, res.QueryObjects, res.Colocalized,
		res.CountedObjects, res.GranuleObjects, len(res.Enriched), warnings,
	)
	if err != nil {
		return 0, fmt.Errorf("insert field %s: %w", res.Name, err)
	}
	fieldID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	props := res.EnrichedProps()
	for i, st := range res.Enriched {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO objects (
                field_id, label, area, centroid_x, centroid_y, background_pixels,
                object_median, background_median, enrichment, t, p_value
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			fieldID, st.Label, st.ObjectPixels, props[i].Centroid.X, props[i].Centroid.Y, st.BackgroundPixels,
			st.ObjectMedian, st.BackgroundMedian, nullableFloat(st.Enrichment()), nullableFloat(st.T), st.PValue,
		)
		if err != nil {
			return 0, fmt.Errorf("insert object %d of %s: %w", st.Label, res.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit field: %w", err)
	}
	return fieldID, nil
}

// FieldSummaries returns the fields of a run ordered by name.
func (s *Store) FieldSummaries(ctx context.Context, runID string) ([]FieldSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, group_name, reference_objects, query_objects, colocalized, counted_objects,
                granule_objects, enriched_objects, warnings_json
         FROM fields WHERE run_id = ? ORDER BY name`, runID)
	if err != nil {
		return nil, fmt.Errorf("query fields: %w", err)
	}
	defer rows.Close()

	var out []FieldSummary
	for rows.Next() {
		var f FieldSummary
		var warnings sql.NullString
		if err := rows.Scan(&f.Name, &f.Group, &f.ReferenceObjects, &f.QueryObjects, &f.Colocalized,
			&f.CountedObjects, &f.GranuleObjects, &f.EnrichedObjects, &warnings); err != nil {
			return nil, fmt.Errorf("scan field: %w", err)
		}
		if warnings.Valid {
			if err := json.Unmarshal([]byte(warnings.String), &f.Warnings); err != nil {
				return nil, fmt.Errorf("decode warnings: %w", err)
			}
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// ObjectEnrichments returns the stored enrichment ratios of a run. Objects
// whose ratio is undefined are left out.
func (s *Store) ObjectEnrichments(ctx context.Context, runID string) ([]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT o.enrichment FROM objects o JOIN fields f ON f.id = o.field_id
         WHERE f.run_id = ? AND o.enrichment IS NOT NULL
         ORDER BY f.name, o.label`, runID)
	if err != nil {
		return nil, fmt.Errorf("query objects: %w", err)
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan object: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// migrate applies pending schema migrations with golang-migrate.
func (s *Store) migrate() error {
	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	// m is not closed: that would close the store's connection.

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func nullableFloat(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}
