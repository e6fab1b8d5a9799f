package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// PostgresSink stores emitted declarations in PostgreSQL, in the same
// layout as SQLiteSink.
type PostgresSink struct {
	db     *sqlx.DB
	logger *logrus.Logger
	runID  string
	seq    int64
}

// NewPostgresSink connects to dsn, creates the tables when missing and
// starts a new run.
func NewPostgresSink(ctx context.Context, dsn string, source string, logger *logrus.Logger) (*PostgresSink, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	// One run writes sequentially
	db.SetMaxOpenConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &PostgresSink{
		db:     db,
		logger: logger,
		runID:  uuid.New().String(),
	}

	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		source TEXT,
		started_at TIMESTAMPTZ
	);

	CREATE TABLE IF NOT EXISTS declarations (
		run_id TEXT NOT NULL REFERENCES runs(id),
		seq BIGINT NOT NULL,
		decl_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		name TEXT,
		pseudo_root TEXT NOT NULL,
		location TEXT NOT NULL,
		json TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_declarations_name ON declarations(name);
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO runs (id, source, started_at) VALUES ($1, $2, $3)`,
		s.runID, source, time.Now().UTC()); err != nil {
		db.Close()
		return nil, fmt.Errorf("record run: %w", err)
	}

	logger.WithField("run_id", s.runID).Debug("Opened PostgreSQL sink")
	return s, nil
}

// RunID identifies the rows written through this sink.
func (s *PostgresSink) RunID() string {
	return s.runID
}

// Write inserts rec with the next sequence number of the run.
func (s *PostgresSink) Write(ctx context.Context, rec Record) error {
	s.seq++
	if _, err := s.db.NamedExecContext(ctx, insertDeclaration, newDeclarationRow(s.runID, s.seq, rec)); err != nil {
		return fmt.Errorf("insert declaration %s: %w", rec.DeclID, err)
	}
	return nil
}

// Declarations returns the rows of a run in emission order.
func (s *PostgresSink) Declarations(ctx context.Context, runID string) ([]DeclarationRow, error) {
	var rows []DeclarationRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT run_id, seq, decl_id, kind, name, pseudo_root, location, json
		 FROM declarations WHERE run_id = $1 ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query declarations: %w", err)
	}
	return rows, nil
}

// Close closes the connection pool.
func (s *PostgresSink) Close() error {
	return s.db.Close()
}
