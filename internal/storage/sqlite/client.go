package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/ticket-validator/backend/internal/storage/models"
	"github.com/ticket-validator/backend/pkg/logger"
)

// ErrRunNotFound is returned when no run exists for the requested id.
var ErrRunNotFound = fmt.Errorf("pipeline run not found")

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pipeline_runs (
		id TEXT PRIMARY KEY,
		content_hash TEXT NOT NULL,
		daily_file TEXT NOT NULL,
		alarm_file TEXT NOT NULL,
		ticket_rows INTEGER NOT NULL,
		alarm_rows INTEGER NOT NULL,
		valid_count INTEGER NOT NULL,
		invalid_count INTEGER NOT NULL,
		not_in_nms_count INTEGER NOT NULL,
		latency_ms INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_hash ON pipeline_runs(content_hash);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON pipeline_runs(created_at);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

func (c *Client) InsertRun(run *models.PipelineRun) error {
	query := `
	INSERT INTO pipeline_runs (
		id, content_hash, daily_file, alarm_file,
		ticket_rows, alarm_rows, valid_count, invalid_count,
		not_in_nms_count, latency_ms, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.Exec(query,
		run.ID, run.ContentHash, run.DailyFile, run.AlarmFile,
		run.TicketRows, run.AlarmRows, run.ValidCount, run.InvalidCount,
		run.NotInNMSCount, run.LatencyMS, run.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

func (c *Client) GetRun(id string) (*models.PipelineRun, error) {
	query := `
	SELECT id, content_hash, daily_file, alarm_file,
		ticket_rows, alarm_rows, valid_count, invalid_count,
		not_in_nms_count, latency_ms, created_at
	FROM pipeline_runs WHERE id = ?
	`

	run, err := scanRun(c.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return run, nil
}

func (c *Client) ListRuns(limit int) ([]*models.PipelineRun, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
	SELECT id, content_hash, daily_file, alarm_file,
		ticket_rows, alarm_rows, valid_count, invalid_count,
		not_in_nms_count, latency_ms, created_at
	FROM pipeline_runs ORDER BY created_at DESC, id LIMIT ?
	`

	rows, err := c.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.PipelineRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

func (c *Client) DeleteRun(id string) error {
	result, err := c.db.Exec("DELETE FROM pipeline_runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrRunNotFound
	}

	return nil
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scannable) (*models.PipelineRun, error) {
	var run models.PipelineRun
	var createdAt int64

	err := row.Scan(
		&run.ID, &run.ContentHash, &run.DailyFile, &run.AlarmFile,
		&run.TicketRows, &run.AlarmRows, &run.ValidCount, &run.InvalidCount,
		&run.NotInNMSCount, &run.LatencyMS, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	run.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &run, nil
}
