package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// SQLiteSink stores emitted declarations in a SQLite database, one row per
// record, grouped by run.
type SQLiteSink struct {
	db     *sqlx.DB
	logger *logrus.Logger
	runID  string
	seq    int64
}

// DeclarationRow is the stored form of a Record.
type DeclarationRow struct {
	RunID      string `db:"run_id"`
	Seq        int64  `db:"seq"`
	DeclID     string `db:"decl_id"`
	Kind       string `db:"kind"`
	Name       string `db:"name"`
	PseudoRoot string `db:"pseudo_root"`
	Location   string `db:"location"`
	JSON       string `db:"json"`
}

const insertDeclaration = `
	INSERT INTO declarations (run_id, seq, decl_id, kind, name, pseudo_root, location, json)
	VALUES (:run_id, :seq, :decl_id, :kind, :name, :pseudo_root, :location, :json)`

func newDeclarationRow(runID string, seq int64, rec Record) DeclarationRow {
	return DeclarationRow{
		RunID:      runID,
		Seq:        seq,
		DeclID:     rec.DeclID,
		Kind:       rec.Kind,
		Name:       rec.Name,
		PseudoRoot: rec.PseudoRoot,
		Location:   strings.Join(rec.Location, "/"),
		JSON:       string(rec.JSON),
	}
}

// NewSQLiteSink opens (or creates) the database at path and starts a new run.
func NewSQLiteSink(path string, source string, logger *logrus.Logger) (*SQLiteSink, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("connect to sqlite: %w", err)
	}
	db.Exec("PRAGMA journal_mode = WAL")

	s := &SQLiteSink{
		db:     db,
		logger: logger,
		runID:  uuid.New().String(),
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	_, err = db.Exec(`INSERT INTO runs (id, source, started_at) VALUES (?, ?, ?)`,
		s.runID, source, time.Now().UTC())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("record run: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"path":   path,
		"run_id": s.runID,
	}).Debug("Opened SQLite sink")

	return s, nil
}

func (s *SQLiteSink) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		source TEXT,
		started_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS declarations (
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		decl_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		name TEXT,
		pseudo_root TEXT NOT NULL,
		location TEXT NOT NULL,
		json TEXT NOT NULL,
		PRIMARY KEY (run_id, seq),
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_declarations_name ON declarations(name);
	CREATE INDEX IF NOT EXISTS idx_declarations_location ON declarations(location);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RunID identifies the rows written through this sink.
func (s *SQLiteSink) RunID() string {
	return s.runID
}

// Write inserts rec with the next sequence number of the run.
func (s *SQLiteSink) Write(ctx context.Context, rec Record) error {
	s.seq++
	_, err := s.db.NamedExecContext(ctx, insertDeclaration, newDeclarationRow(s.runID, s.seq, rec))
	if err != nil {
		return fmt.Errorf("insert declaration %s: %w", rec.DeclID, err)
	}
	return nil
}

// Declarations returns the rows of a run in emission order.
func (s *SQLiteSink) Declarations(ctx context.Context, runID string) ([]DeclarationRow, error) {
	var rows []DeclarationRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT run_id, seq, decl_id, kind, name, pseudo_root, location, json
		 FROM declarations WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query declarations: %w", err)
	}
	return rows, nil
}

// Close closes the database.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
