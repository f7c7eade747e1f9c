// Package tracestore persists interpretation results so a trace can be
// replayed later. SQLite, MySQL and PostgreSQL are supported.
package tracestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"jiki/internal/frames"
	"jiki/internal/interpreter"
	"jiki/internal/object"
)

var ErrRunNotFound = errors.New("run not found")

// Run is a stored interpretation result.
type Run struct {
	ID           string
	Success      bool
	Halted       bool
	ErrorKind    string
	ErrorType    string
	ErrorMessage string
	SavedAt      time.Time
	Frames       []Frame
}

// Frame is a stored frame. Variables and Result hold the values converted
// with object.ToNative and decoded back from JSON.
type Frame struct {
	Index        int
	Time         int64
	Line         int
	Status       frames.Status
	Description  string
	Variables    map[string]any
	Result       any
	ErrorType    string
	ErrorMessage string
}

type Store struct {
	db     *sql.DB
	driver string
	// numbered placeholders ($1) instead of ?
	numbered bool
	logger   *slog.Logger
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		run_id VARCHAR(64) NOT NULL PRIMARY KEY,
		success INTEGER NOT NULL,
		halted INTEGER NOT NULL,
		error_kind VARCHAR(32),
		error_type VARCHAR(64),
		error_message TEXT,
		frame_count INTEGER NOT NULL,
		saved_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS frames (
		run_id VARCHAR(64) NOT NULL,
		frame_index INTEGER NOT NULL,
		time_value BIGINT NOT NULL,
		line INTEGER NOT NULL,
		status VARCHAR(16) NOT NULL,
		description TEXT,
		variables TEXT,
		result TEXT,
		error_type VARCHAR(64),
		error_message TEXT,
		PRIMARY KEY (run_id, frame_index)
	)`,
}

// ParseDSN splits a store URL into the database/sql driver name and the
// driver's own data source name.
//
//	sqlite://trace.db            sqlite3, trace.db
//	sqlite://:memory:            sqlite3, :memory:
//	mysql://u:p@tcp(h:3306)/db   mysql, u:p@tcp(h:3306)/db
//	postgres://u:p@h/db          postgres, postgres://u:p@h/db
func ParseDSN(dsn string) (driver, source string, err error) {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return "", "", fmt.Errorf("tracestore: %q has no scheme", dsn)
	}
	switch strings.ToLower(scheme) {
	case "sqlite", "sqlite3":
		if rest == "" {
			rest = ":memory:"
		}
		return "sqlite3", rest, nil
	case "mysql":
		return "mysql", rest, nil
	case "postgres", "postgresql":
		return "postgres", dsn, nil
	}
	return "", "", fmt.Errorf("tracestore: unsupported scheme %q", scheme)
}

// Open connects to dsn and creates the tables when they are missing.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	driver, source, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("tracestore: open %s: %w", driver, err)
	}
	if driver == "sqlite3" {
		// an in-memory database lives and dies with its connection
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("tracestore: ping %s: %w", driver, err)
	}

	s := &Store{db: db, driver: driver, numbered: driver == "postgres", logger: logger}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("tracestore: create tables: %w", err)
		}
	}

	logger.Info("trace store opened", slog.String("driver", driver))
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites `?` placeholders as `$1, $2, ...` for PostgreSQL.
func (s *Store) rebind(query string) string {
	if !s.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$")
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Save stores result under runID in one transaction, replacing any run
// already saved with that id.
func (s *Store) Save(ctx context.Context, runID string, result *interpreter.Result) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("tracestore: begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, q := range []string{"DELETE FROM frames WHERE run_id = ?", "DELETE FROM runs WHERE run_id = ?"} {
		if _, err = tx.ExecContext(ctx, s.rebind(q), runID); err != nil {
			return fmt.Errorf("tracestore: clear %s: %w", runID, err)
		}
	}

	var kind, typ, message sql.NullString
	if result.Error != nil {
		kind = nullString(string(result.Error.Kind))
		typ = nullString(string(result.Error.Type))
		message = nullString(result.Error.Message)
	}
	_, err = tx.ExecContext(ctx, s.rebind(
		`INSERT INTO runs (run_id, success, halted, error_kind, error_type, error_message, frame_count, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		runID, boolInt(result.Success), boolInt(result.Halted), kind, typ, message,
		len(result.Frames), time.Now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("tracestore: insert run %s: %w", runID, err)
	}

	stmt, err := tx.PrepareContext(ctx, s.rebind(
		`INSERT INTO frames (run_id, frame_index, time_value, line, status, description, variables, result, error_type, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("tracestore: prepare frames: %w", err)
	}
	defer stmt.Close()

	for _, f := range result.Frames {
		vars, res, err := encodeFrame(f)
		if err != nil {
			return fmt.Errorf("tracestore: frame %d: %w", f.Index, err)
		}
		var errType, errMessage sql.NullString
		if f.Error != nil {
			errType = nullString(string(f.Error.Type))
			errMessage = nullString(f.Error.Message)
		}
		if _, err := stmt.ExecContext(ctx, runID, f.Index, f.Time, f.Line, string(f.Status),
			nullString(f.Description()), vars, res, errType, errMessage); err != nil {
			return fmt.Errorf("tracestore: insert frame %d: %w", f.Index, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("tracestore: commit: %w", err)
	}
	s.logger.Debug("run saved", slog.String("run", runID), slog.Int("frames", len(result.Frames)))
	return nil
}

func encodeFrame(f *frames.Frame) (variables, result sql.NullString, err error) {
	if f.Variables != nil {
		native := make(map[string]any, len(f.Variables))
		for name, v := range f.Variables {
			native[name] = object.ToNative(v)
		}
		data, err := json.Marshal(native)
		if err != nil {
			return variables, result, err
		}
		variables = nullString(string(data))
	}
	if f.Result != nil {
		data, err := json.Marshal(object.ToNative(f.Result))
		if err != nil {
			return variables, result, err
		}
		result = nullString(string(data))
	}
	return variables, result, nil
}

// Load returns the run saved as runID with its frames in order.
func (s *Store) Load(ctx context.Context, runID string) (*Run, error) {
	run := &Run{ID: runID}
	var success, halted int
	var kind, typ, message sql.NullString
	var savedAt int64

	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT success, halted, error_kind, error_type, error_message, saved_at FROM runs WHERE run_id = ?`), runID).
		Scan(&success, &halted, &kind, &typ, &message, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tracestore: %s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("tracestore: load %s: %w", runID, err)
	}
	run.Success = success != 0
	run.Halted = halted != 0
	run.ErrorKind, run.ErrorType, run.ErrorMessage = kind.String, typ.String, message.String
	run.SavedAt = time.UnixMilli(savedAt).UTC()

	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT frame_index, time_value, line, status, description, variables, result, error_type, error_message
		FROM frames WHERE run_id = ? ORDER BY frame_index`), runID)
	if err != nil {
		return nil, fmt.Errorf("tracestore: load frames of %s: %w", runID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var f Frame
		var status string
		var description, variables, result, errType, errMessage sql.NullString
		if err := rows.Scan(&f.Index, &f.Time, &f.Line, &status, &description, &variables, &result, &errType, &errMessage); err != nil {
			return nil, fmt.Errorf("tracestore: scan frame: %w", err)
		}
		f.Status = frames.Status(status)
		f.Description = description.String
		f.ErrorType, f.ErrorMessage = errType.String, errMessage.String
		if variables.Valid {
			if err := json.Unmarshal([]byte(variables.String), &f.Variables); err != nil {
				return nil, fmt.Errorf("tracestore: frame %d variables: %w", f.Index, err)
			}
		}
		if result.Valid {
			if err := json.Unmarshal([]byte(result.String), &f.Result); err != nil {
				return nil, fmt.Errorf("tracestore: frame %d result: %w", f.Index, err)
			}
		}
		run.Frames = append(run.Frames, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tracestore: read frames of %s: %w", runID, err)
	}
	return run, nil
}

// Runs lists the stored run ids, oldest first.
func (s *Store) Runs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT run_id FROM runs ORDER BY saved_at, run_id")
	if err != nil {
		return nil, fmt.Errorf("tracestore: list runs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("tracestore: scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
