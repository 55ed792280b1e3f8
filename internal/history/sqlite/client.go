package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/m1dnxt404/finalyze/internal/history"
	"github.com/m1dnxt404/finalyze/pkg/logger"
)

// Client is the durable side of the report store. The vector index can be
// rebuilt from these rows; this table is the source of truth.
type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("sqlite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		company TEXT NOT NULL,
		ticker TEXT NOT NULL,
		period TEXT NOT NULL,
		provider TEXT,
		model TEXT,
		sentiment_score INTEGER NOT NULL DEFAULT 0,
		summary TEXT,
		payload TEXT NOT NULL,
		embedding_text TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reports_company ON reports(company);
	CREATE INDEX IF NOT EXISTS idx_reports_created ON reports(created_at);
	`

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

func (c *Client) InsertReport(ctx context.Context, r history.Record) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO reports (id, company, ticker, period, provider, model, sentiment_score, summary, payload, embedding_text, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Company, r.Ticker, r.Period, r.Provider, r.Model, r.SentimentScore, r.Summary, r.Payload, r.EmbeddingText, r.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}
	return nil
}

func (c *Client) GetReport(ctx context.Context, id string) (*history.Record, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT id, company, ticker, period, provider, model, sentiment_score, summary, payload, embedding_text, created_at
		FROM reports WHERE id = ?`, id)

	r, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, history.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return r, nil
}

// ListRecent returns the newest reports first.
func (c *Client) ListRecent(ctx context.Context, limit int) ([]history.Record, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, company, ticker, period, provider, model, sentiment_score, summary, payload, embedding_text, created_at
		FROM reports ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// CompanyReports returns the newest reports for one company. The match is
// exact; records are filed under the resolved company name at save time.
func (c *Client) CompanyReports(ctx context.Context, company string, limit int) ([]history.Record, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, company, ticker, period, provider, model, sentiment_score, summary, payload, embedding_text, created_at
		FROM reports WHERE company = ? ORDER BY created_at DESC LIMIT ?`, company, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list company reports: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

func (c *Client) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reports`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}
	return n, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRecord(row scannable) (*history.Record, error) {
	var r history.Record
	var createdAt int64
	err := row.Scan(&r.ID, &r.Company, &r.Ticker, &r.Period, &r.Provider, &r.Model, &r.SentimentScore, &r.Summary, &r.Payload, &r.EmbeddingText, &createdAt)
	if err != nil {
		return nil, err
	}
	r.CreatedAt = time.Unix(0, createdAt).UTC()
	return &r, nil
}

func collectRecords(rows *sql.Rows) ([]history.Record, error) {
	records := make([]history.Record, 0)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		records = append(records, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reports: %w", err)
	}
	return records, nil
}
