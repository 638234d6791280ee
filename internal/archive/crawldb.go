package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/webcrawl/internal/model"
)

// CrawlDB provides SQLite-based storage for crawl runs. Each run is
// stored whole: its summary row, every page record, and every fetch
// failure, keyed by the run ID.
//
// Design decision: We use a single database file for all runs rather
// than one file per seed. This keeps cross-run queries (history of one
// site over time) in plain SQL and simplifies backup.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// performance. Recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB in the specified directory.
// If CreateIfNotExists is false and the database doesn't exist, an
// error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, "webcrawl.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating
	// new files, mode=rwc allows creation.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- Runs store one row per crawl run
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		seed_url TEXT NOT NULL,
		state TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		pages_crawled INTEGER NOT NULL DEFAULT 0,
		urls_discovered INTEGER NOT NULL DEFAULT 0,
		duplicates_skipped INTEGER NOT NULL DEFAULT 0,
		robots_blocked INTEGER NOT NULL DEFAULT 0,
		fetch_errors INTEGER NOT NULL DEFAULT 0,
		total_words INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_seed ON runs(seed_url);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- Pages store the extracted records of a run in collection order
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(run_id),
		url TEXT NOT NULL,
		title TEXT,
		content TEXT,
		description TEXT,
		keywords TEXT,
		links TEXT,
		images TEXT,
		status_code INTEGER,
		depth INTEGER NOT NULL,
		word_count INTEGER NOT NULL DEFAULT 0,
		fetched_at DATETIME NOT NULL,
		fetch_duration_ms INTEGER NOT NULL DEFAULT 0,
		fingerprint TEXT,
		UNIQUE(run_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_run ON pages(run_id);
	CREATE INDEX IF NOT EXISTS idx_pages_url ON pages(url);
	CREATE INDEX IF NOT EXISTS idx_pages_fingerprint ON pages(fingerprint);

	-- Failures store fetches that exhausted their retries
	CREATE TABLE IF NOT EXISTS failures (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(run_id),
		url TEXT NOT NULL,
		depth INTEGER NOT NULL,
		status_code INTEGER,
		attempts INTEGER NOT NULL DEFAULT 0,
		reason TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_failures_run ON failures(run_id);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun stores a complete crawl result in one transaction. Saving
// the same run ID twice replaces its pages and failures.
func (cdb *CrawlDB) SaveRun(ctx context.Context, result *model.CrawlResult) error {
	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	s := result.Summary
	if _, err := tx.ExecContext(ctx, `
	INSERT INTO runs (run_id, seed_url, state, started_at, finished_at,
		pages_crawled, urls_discovered, duplicates_skipped, robots_blocked,
		fetch_errors, total_words)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id) DO UPDATE SET
		state = excluded.state,
		finished_at = excluded.finished_at,
		pages_crawled = excluded.pages_crawled,
		urls_discovered = excluded.urls_discovered,
		duplicates_skipped = excluded.duplicates_skipped,
		robots_blocked = excluded.robots_blocked,
		fetch_errors = excluded.fetch_errors,
		total_words = excluded.total_words
	`,
		s.RunID, s.SeedURL, string(s.State),
		s.StartedAt.UTC().Format(time.RFC3339Nano),
		s.FinishedAt.UTC().Format(time.RFC3339Nano),
		s.PagesCrawled, s.URLsDiscovered, s.DuplicatesSkipped,
		s.RobotsBlocked, s.FetchErrors, s.TotalWords,
	); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	// Replace any pages and failures from an earlier save of this run.
	if _, err := tx.ExecContext(ctx, `DELETE FROM pages WHERE run_id = ?`, s.RunID); err != nil {
		return fmt.Errorf("failed to clear pages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM failures WHERE run_id = ?`, s.RunID); err != nil {
		return fmt.Errorf("failed to clear failures: %w", err)
	}

	for _, record := range result.Records {
		if err := insertPage(ctx, tx, s.RunID, record); err != nil {
			return err
		}
	}
	for _, failure := range result.Failures {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO failures (run_id, url, depth, status_code, attempts, reason)
		VALUES (?, ?, ?, ?, ?, ?)
		`, s.RunID, failure.URL, failure.Depth, failure.StatusCode,
			failure.Attempts, failure.Reason,
		); err != nil {
			return fmt.Errorf("failed to insert failure: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

func insertPage(ctx context.Context, tx *sql.Tx, runID string, record model.PageRecord) error {
	keywords, err := json.Marshal(record.Keywords)
	if err != nil {
		return fmt.Errorf("failed to serialize keywords: %w", err)
	}
	links, err := json.Marshal(record.Links)
	if err != nil {
		return fmt.Errorf("failed to serialize links: %w", err)
	}
	images, err := json.Marshal(record.Images)
	if err != nil {
		return fmt.Errorf("failed to serialize images: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
	INSERT INTO pages (run_id, url, title, content, description, keywords,
		links, images, status_code, depth, word_count, fetched_at,
		fetch_duration_ms, fingerprint)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		runID, record.URL, record.Title, record.Content, record.Description,
		string(keywords), string(links), string(images),
		record.StatusCode, record.Depth, record.WordCount,
		record.FetchedAt.UTC().Format(time.RFC3339Nano),
		record.FetchDuration.Milliseconds(), record.Fingerprint,
	); err != nil {
		return fmt.Errorf("failed to insert page: %w", err)
	}
	return nil
}

// Run loads a stored crawl result by run ID.
func (cdb *CrawlDB) Run(ctx context.Context, runID string) (*model.CrawlResult, error) {
	summary, err := cdb.runSummary(ctx, runID)
	if err != nil {
		return nil, err
	}

	records, err := cdb.runPages(ctx, runID)
	if err != nil {
		return nil, err
	}

	failures, err := cdb.runFailures(ctx, runID)
	if err != nil {
		return nil, err
	}

	return &model.CrawlResult{
		Summary:  summary,
		Records:  records,
		Failures: failures,
	}, nil
}

// Runs lists every stored run summary, newest first.
func (cdb *CrawlDB) Runs(ctx context.Context) ([]model.RunSummary, error) {
	rows, err := cdb.db.QueryContext(ctx, `
	SELECT run_id, seed_url, state, started_at, finished_at,
		pages_crawled, urls_discovered, duplicates_skipped,
		robots_blocked, fetch_errors, total_words
	FROM runs ORDER BY started_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var summaries []model.RunSummary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

func (cdb *CrawlDB) runSummary(ctx context.Context, runID string) (model.RunSummary, error) {
	rows, err := cdb.db.QueryContext(ctx, `
	SELECT run_id, seed_url, state, started_at, finished_at,
		pages_crawled, urls_discovered, duplicates_skipped,
		robots_blocked, fetch_errors, total_words
	FROM runs WHERE run_id = ?
	`, runID)
	if err != nil {
		return model.RunSummary{}, fmt.Errorf("failed to query run: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return model.RunSummary{}, err
		}
		return model.RunSummary{}, fmt.Errorf("run %s not found", runID)
	}
	return scanSummary(rows)
}

func scanSummary(rows *sql.Rows) (model.RunSummary, error) {
	var (
		summary             model.RunSummary
		state               string
		startedAt, finished string
	)
	if err := rows.Scan(
		&summary.RunID, &summary.SeedURL, &state, &startedAt, &finished,
		&summary.PagesCrawled, &summary.URLsDiscovered,
		&summary.DuplicatesSkipped, &summary.RobotsBlocked,
		&summary.FetchErrors, &summary.TotalWords,
	); err != nil {
		return model.RunSummary{}, fmt.Errorf("failed to scan run: %w", err)
	}
	summary.State = model.RunState(state)

	var err error
	if summary.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return model.RunSummary{}, fmt.Errorf("failed to parse started_at: %w", err)
	}
	if summary.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
		return model.RunSummary{}, fmt.Errorf("failed to parse finished_at: %w", err)
	}
	return summary, nil
}

func (cdb *CrawlDB) runPages(ctx context.Context, runID string) ([]model.PageRecord, error) {
	rows, err := cdb.db.QueryContext(ctx, `
	SELECT url, title, content, description, keywords, links, images,
		status_code, depth, word_count, fetched_at, fetch_duration_ms,
		fingerprint
	FROM pages WHERE run_id = ? ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pages: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var records []model.PageRecord
	for rows.Next() {
		var (
			record                  model.PageRecord
			keywords, links, images string
			fetchedAt               string
			durationMS              int64
		)
		if err := rows.Scan(
			&record.URL, &record.Title, &record.Content, &record.Description,
			&keywords, &links, &images, &record.StatusCode, &record.Depth,
			&record.WordCount, &fetchedAt, &durationMS, &record.Fingerprint,
		); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}

		if err := json.Unmarshal([]byte(keywords), &record.Keywords); err != nil {
			return nil, fmt.Errorf("failed to parse keywords: %w", err)
		}
		if err := json.Unmarshal([]byte(links), &record.Links); err != nil {
			return nil, fmt.Errorf("failed to parse links: %w", err)
		}
		if err := json.Unmarshal([]byte(images), &record.Images); err != nil {
			return nil, fmt.Errorf("failed to parse images: %w", err)
		}
		if record.FetchedAt, err = time.Parse(time.RFC3339Nano, fetchedAt); err != nil {
			return nil, fmt.Errorf("failed to parse fetched_at: %w", err)
		}
		record.FetchDuration = time.Duration(durationMS) * time.Millisecond

		records = append(records, record)
	}
	return records, rows.Err()
}

func (cdb *CrawlDB) runFailures(ctx context.Context, runID string) ([]model.FetchFailure, error) {
	rows, err := cdb.db.QueryContext(ctx, `
	SELECT url, depth, status_code, attempts, reason
	FROM failures WHERE run_id = ? ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query failures: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var failures []model.FetchFailure
	for rows.Next() {
		var failure model.FetchFailure
		if err := rows.Scan(
			&failure.URL, &failure.Depth, &failure.StatusCode,
			&failure.Attempts, &failure.Reason,
		); err != nil {
			return nil, fmt.Errorf("failed to scan failure: %w", err)
		}
		failures = append(failures, failure)
	}
	return failures, rows.Err()
}
