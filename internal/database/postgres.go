package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/catering/dashboard/internal/results"
	_ "github.com/lib/pq"
)

// latestKey is the primary key of the single row the store maintains.
const latestKey = "latest"

type PostgresDatabase struct {
	db *sql.DB
}

func NewPostgresDatabase(dsn string) (*PostgresDatabase, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pgDb := &PostgresDatabase{db: db}
	if err := pgDb.InitSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return pgDb, nil
}

func (d *PostgresDatabase) InitSchema() error {
	_, err := d.db.Exec(`
		CREATE TABLE IF NOT EXISTS test_run_results (
			slot TEXT PRIMARY KEY,
			run_id TEXT,
			test_id TEXT,
			success BOOLEAN NOT NULL,
			total INTEGER NOT NULL,
			passed INTEGER NOT NULL,
			failed INTEGER NOT NULL,
			duration_ms BIGINT NOT NULL,
			payload JSONB NOT NULL,
			finished_at TIMESTAMP NOT NULL
		);`)
	if err != nil {
		return fmt.Errorf("failed to create test_run_results: %w", err)
	}
	return nil
}

func (d *PostgresDatabase) SaveLatest(resp *results.RunResponse) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to encode run response: %w", err)
	}

	_, err = d.db.Exec(`
		INSERT INTO test_run_results (slot, run_id, test_id, success, total, passed, failed, duration_ms, payload, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (slot) DO UPDATE SET
			run_id = EXCLUDED.run_id,
			test_id = EXCLUDED.test_id,
			success = EXCLUDED.success,
			total = EXCLUDED.total,
			passed = EXCLUDED.passed,
			failed = EXCLUDED.failed,
			duration_ms = EXCLUDED.duration_ms,
			payload = EXCLUDED.payload,
			finished_at = EXCLUDED.finished_at
	`, latestKey, resp.RunID, resp.TestID, resp.Success, resp.Summary.Total, resp.Summary.Passed,
		resp.Summary.Failed, resp.Summary.DurationMs, payload, resp.Timestamp)
	return err
}

func (d *PostgresDatabase) LoadLatest() (*results.RunResponse, error) {
	var payload []byte
	err := d.db.QueryRow(`SELECT payload FROM test_run_results WHERE slot = $1`, latestKey).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var resp results.RunResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode stored run response: %w", err)
	}
	return &resp, nil
}

func (d *PostgresDatabase) Close() error {
	return d.db.Close()
}
