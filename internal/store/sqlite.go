package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidVariant = errors.New("variant does not belong to test")
)

type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS test_definitions (
    id TEXT PRIMARY KEY,
    name TEXT UNIQUE NOT NULL,
    variable TEXT NOT NULL,
    running INTEGER NOT NULL DEFAULT 1,
    created_at INTEGER NOT NULL DEFAULT (unixepoch()),
    updated_at INTEGER NOT NULL DEFAULT (unixepoch())
);

CREATE TABLE IF NOT EXISTS test_variants (
    id TEXT PRIMARY KEY,
    test_id TEXT NOT NULL,
    name TEXT NOT NULL,
    position INTEGER NOT NULL,
    FOREIGN KEY (test_id) REFERENCES test_definitions(id)
);

CREATE INDEX IF NOT EXISTS idx_variants_test ON test_variants(test_id, position);

CREATE TABLE IF NOT EXISTS test_values (
    test_id TEXT NOT NULL,
    language TEXT NOT NULL,
    active_variant_id TEXT NOT NULL,
    updated_at INTEGER NOT NULL DEFAULT (unixepoch()),
    PRIMARY KEY (test_id, language),
    FOREIGN KEY (test_id) REFERENCES test_definitions(id),
    FOREIGN KEY (active_variant_id) REFERENCES test_variants(id)
);

CREATE TABLE IF NOT EXISTS test_configurations (
    test_id TEXT NOT NULL,
    device_id TEXT NOT NULL,
    started_at INTEGER NOT NULL DEFAULT (unixepoch()),
    PRIMARY KEY (test_id, device_id),
    FOREIGN KEY (test_id) REFERENCES test_definitions(id)
);

CREATE TABLE IF NOT EXISTS events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    test_id TEXT NOT NULL,
    variant_id TEXT NOT NULL,
    event_type TEXT NOT NULL,
    visitor_id TEXT NOT NULL,
    device_id TEXT NOT NULL,
    value REAL NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL DEFAULT (unixepoch()),
    FOREIGN KEY (test_id) REFERENCES test_definitions(id)
);

CREATE INDEX IF NOT EXISTS idx_events_test_device ON events(test_id, device_id, created_at);
CREATE UNIQUE INDEX IF NOT EXISTS idx_events_dedup ON events(test_id, visitor_id, event_type);
`

func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for health checks
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func (s *SQLiteStore) CreateTest(ctx context.Context, name, variable string, variants []string) (*TestDefinition, error) {
	if name == "" {
		return nil, fmt.Errorf("test name is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	test := &TestDefinition{
		ID:        uuid.New(),
		Name:      name,
		IsRunning: true,
		Variable:  Variable{Name: variable, Variants: make([]Variant, 0, len(variants))},
		CreatedAt: time.Unix(now, 0),
		UpdatedAt: time.Unix(now, 0),
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO test_definitions (id, name, variable, running, created_at, updated_at)
		 VALUES (?, ?, ?, 1, ?, ?)`,
		test.ID.String(), name, variable, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert test: %w", err)
	}

	for i, vname := range variants {
		v := Variant{ID: uuid.New(), Name: vname}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO test_variants (id, test_id, name, position) VALUES (?, ?, ?, ?)`,
			v.ID.String(), test.ID.String(), vname, i,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert variant: %w", err)
		}
		test.Variable.Variants = append(test.Variable.Variants, v)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit test: %w", err)
	}

	return test, nil
}

const selectTest = `SELECT id, name, variable, running, created_at, updated_at FROM test_definitions`

func (s *SQLiteStore) GetTest(ctx context.Context, name string) (*TestDefinition, error) {
	return s.getTest(ctx, selectTest+` WHERE name = ?`, name)
}

func (s *SQLiteStore) GetTestByID(ctx context.Context, id uuid.UUID) (*TestDefinition, error) {
	return s.getTest(ctx, selectTest+` WHERE id = ?`, id.String())
}

func (s *SQLiteStore) getTest(ctx context.Context, query string, arg any) (*TestDefinition, error) {
	test, err := scanTest(s.db.QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	if err := s.loadVariants(ctx, test); err != nil {
		return nil, err
	}
	return test, nil
}

func (s *SQLiteStore) ListTests(ctx context.Context) ([]*TestDefinition, error) {
	rows, err := s.db.QueryContext(ctx, selectTest+` ORDER BY created_at DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tests: %w", err)
	}

	var tests []*TestDefinition
	for rows.Next() {
		test, err := scanTest(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan test: %w", err)
		}
		tests = append(tests, test)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list tests: %w", err)
	}

	for _, test := range tests {
		if err := s.loadVariants(ctx, test); err != nil {
			return nil, err
		}
	}

	return tests, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTest(row rowScanner) (*TestDefinition, error) {
	var test TestDefinition
	var id string
	var running int
	var createdAt, updatedAt int64

	if err := row.Scan(&id, &test.Name, &test.Variable.Name, &running, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid test id %q: %w", id, err)
	}
	test.ID = parsed
	test.IsRunning = running != 0
	test.CreatedAt = time.Unix(createdAt, 0)
	test.UpdatedAt = time.Unix(updatedAt, 0)

	return &test, nil
}

func (s *SQLiteStore) loadVariants(ctx context.Context, test *TestDefinition) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name FROM test_variants WHERE test_id = ? ORDER BY position`,
		test.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to get variants: %w", err)
	}
	defer rows.Close()

	test.Variable.Variants = []Variant{}
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return fmt.Errorf("failed to scan variant: %w", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return fmt.Errorf("invalid variant id %q: %w", id, err)
		}
		test.Variable.Variants = append(test.Variable.Variants, Variant{ID: parsed, Name: name})
	}

	return rows.Err()
}

func (s *SQLiteStore) SetRunning(ctx context.Context, name string, running bool) error {
	flag := 0
	if running {
		flag = 1
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE test_definitions SET running = ?, updated_at = ? WHERE name = ?`,
		flag, time.Now().Unix(), name,
	)
	if err != nil {
		return fmt.Errorf("failed to update test state: %w", err)
	}

	return requireRow(result)
}

// SetActiveVariant binds variantID as the active variant of the test for lang.
func (s *SQLiteStore) SetActiveVariant(ctx context.Context, testID uuid.UUID, lang string, variantID uuid.UUID) error {
	var owner string
	err := s.db.QueryRowContext(ctx,
		`SELECT test_id FROM test_variants WHERE id = ?`, variantID.String(),
	).Scan(&owner)
	if err == sql.ErrNoRows || (err == nil && owner != testID.String()) {
		return ErrInvalidVariant
	}
	if err != nil {
		return fmt.Errorf("failed to look up variant: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO test_values (test_id, language, active_variant_id, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (test_id, language) DO UPDATE SET
		   active_variant_id = excluded.active_variant_id,
		   updated_at = excluded.updated_at`,
		testID.String(), lang, variantID.String(), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to set active variant: %w", err)
	}

	return nil
}

// GetTestValue resolves the binding of a rendering for lang. bindingID is the
// ID of the bound test definition.
func (s *SQLiteStore) GetTestValue(ctx context.Context, bindingID string, lang string) (*TestValue, error) {
	testID, err := uuid.Parse(bindingID)
	if err != nil {
		return nil, ErrNotFound
	}

	var active string
	err = s.db.QueryRowContext(ctx,
		`SELECT active_variant_id FROM test_values WHERE test_id = ? AND language = ?`,
		testID.String(), lang,
	).Scan(&active)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get test value: %w", err)
	}

	activeID, err := uuid.Parse(active)
	if err != nil {
		return nil, fmt.Errorf("invalid active variant id %q: %w", active, err)
	}

	test, err := s.GetTestByID(ctx, testID)
	if err != nil {
		return nil, err
	}

	return &TestValue{Test: test, Language: lang, ActiveVariantID: activeID}, nil
}

// SaveConfiguration provisions the test for a device. An existing
// configuration keeps its original start time.
func (s *SQLiteStore) SaveConfiguration(ctx context.Context, testID uuid.UUID, deviceID string) (*TestConfiguration, error) {
	test, err := s.GetTestByID(ctx, testID)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO test_configurations (test_id, device_id, started_at) VALUES (?, ?, ?)`,
		testID.String(), deviceID, time.Now().Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save configuration: %w", err)
	}

	return s.LoadTest(ctx, test, deviceID)
}

func (s *SQLiteStore) LoadTest(ctx context.Context, test *TestDefinition, deviceID string) (*TestConfiguration, error) {
	if test == nil {
		return nil, nil
	}

	var startedAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT started_at FROM test_configurations WHERE test_id = ? AND device_id = ?`,
		test.ID.String(), deviceID,
	).Scan(&startedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load test configuration: %w", err)
	}

	return &TestConfiguration{Test: test, DeviceID: deviceID, StartedAt: time.Unix(startedAt, 0)}, nil
}

func (s *SQLiteStore) DeleteTest(ctx context.Context, name string) error {
	test, err := s.GetTest(ctx, name)
	if err != nil {
		return err
	}
	id := test.ID.String()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Dependents first
	for _, table := range []string{"events", "test_values", "test_configurations", "test_variants"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE test_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete %s: %w", table, err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM test_definitions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete test: %w", err)
	}
	if err := requireRow(result); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLiteStore) RecordEvent(ctx context.Context, e Event) error {
	if e.EventType != EventView && e.EventType != EventConvert {
		return fmt.Errorf("invalid event type %q", e.EventType)
	}

	// INSERT OR IGNORE deduplicates via the unique index
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO events (test_id, variant_id, event_type, visitor_id, device_id, value, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.TestID.String(), e.VariantID.String(), string(e.EventType), e.VisitorID, e.DeviceID, e.Value, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}

	return nil
}

// VariantEngagement aggregates the events of a configured test in a single
// query. Only events for the configuration's device recorded since it started
// are counted.
func (s *SQLiteStore) VariantEngagement(ctx context.Context, cfg *TestConfiguration) ([]VariantStats, error) {
	if cfg == nil || cfg.Test == nil {
		return nil, fmt.Errorf("configuration is required")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT
			variant_id,
			COUNT(DISTINCT CASE WHEN event_type = 'view' THEN visitor_id END) as views,
			COUNT(DISTINCT CASE WHEN event_type = 'convert' THEN visitor_id END) as conversions,
			COALESCE(SUM(CASE WHEN event_type = 'convert' THEN value END), 0) as value
		FROM events
		WHERE test_id = ? AND device_id = ? AND created_at >= ?
		GROUP BY variant_id
		ORDER BY variant_id
	`, cfg.Test.ID.String(), cfg.DeviceID, cfg.StartedAt.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to get variant engagement: %w", err)
	}
	defer rows.Close()

	var stats []VariantStats
	for rows.Next() {
		var st VariantStats
		var id string
		if err := rows.Scan(&id, &st.Views, &st.Conversions, &st.Value); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid variant id %q: %w", id, err)
		}
		st.VariantID = parsed
		stats = append(stats, st)
	}

	return stats, rows.Err()
}

func (s *SQLiteStore) GetEvents(ctx context.Context, testID uuid.UUID) ([]*Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, test_id, variant_id, event_type, visitor_id, device_id, value, created_at
		 FROM events WHERE test_id = ? ORDER BY created_at DESC, id DESC`,
		testID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var e Event
		var tid, vid, eventType string
		var createdAt int64
		if err := rows.Scan(&e.ID, &tid, &vid, &eventType, &e.VisitorID, &e.DeviceID, &e.Value, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if e.TestID, err = uuid.Parse(tid); err != nil {
			return nil, fmt.Errorf("invalid test id %q: %w", tid, err)
		}
		if e.VariantID, err = uuid.Parse(vid); err != nil {
			return nil, fmt.Errorf("invalid variant id %q: %w", vid, err)
		}
		e.EventType = EventType(eventType)
		e.CreatedAt = time.Unix(createdAt, 0)
		events = append(events, &e)
	}

	return events, rows.Err()
}

func requireRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
