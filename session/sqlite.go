package session

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	agent "github.com/armatrix/taskagent"
	"github.com/armatrix/taskagent/llm"
)

//go:embed schema.sql
var schema string

// SQLiteStore keeps sessions and transcript events in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

var (
	_ agent.FullSessionStore = (*SQLiteStore)(nil)
	_ agent.Recorder         = (*SQLiteStore)(nil)
)

// OpenSQLite opens (or creates) the database at path and applies the schema.
// A leading "~/" is expanded to the home directory.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, path[2:])
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Transcript writes arrive from parent and child goroutines.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{"PRAGMA journal_mode=WAL", schema} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init database: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Save(ctx context.Context, session *agent.Session) error {
	if session == nil {
		return errNilSession
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, model, actor, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			model = excluded.model,
			actor = excluded.actor,
			data = excluded.data,
			updated_at = excluded.updated_at`,
		session.ID, session.Metadata.Model, session.Metadata.Actor, string(data),
		session.CreatedAt.UnixNano(), session.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, id string) (*agent.Session, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM sessions WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", agent.ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return decodeSession(data)
}

// Delete removes the session. Its transcript events are kept.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", agent.ErrSessionNotFound, id)
	}
	return nil
}

// List returns all sessions, most recently updated first.
func (s *SQLiteStore) List(ctx context.Context) ([]*agent.Session, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*agent.Session
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sess, err := decodeSession(data)
		if err != nil {
			continue
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func (s *SQLiteStore) Fork(ctx context.Context, id string) (*agent.Session, error) {
	original, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	forked := original.Clone()
	if err := s.Save(ctx, forked); err != nil {
		return nil, fmt.Errorf("save forked session: %w", err)
	}
	return forked, nil
}

// Record appends a transcript entry to the events table.
func (s *SQLiteStore) Record(e agent.TranscriptEntry) error {
	var calls string
	if len(e.ToolCalls) > 0 {
		b, err := json.Marshal(e.ToolCalls)
		if err != nil {
			return fmt.Errorf("marshal tool calls: %w", err)
		}
		calls = string(b)
	}
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO events (session_id, actor, event, model, round, content, tool_name, arguments, tool_calls, is_error, subtype, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID, e.Actor, e.Event, e.Model, e.Round, e.Content, e.ToolName,
		string(e.Arguments), calls, e.IsError, e.Subtype, ts.UnixNano())
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	return nil
}

// Events returns the transcript of a session in recording order.
func (s *SQLiteStore) Events(ctx context.Context, sessionID string) ([]agent.TranscriptEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, actor, event, model, round, content, tool_name, arguments, tool_calls, is_error, subtype, created_at
		FROM events WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var entries []agent.TranscriptEntry
	for rows.Next() {
		var (
			e         agent.TranscriptEntry
			args      string
			calls     string
			createdAt int64
		)
		if err := rows.Scan(&e.SessionID, &e.Actor, &e.Event, &e.Model, &e.Round, &e.Content,
			&e.ToolName, &args, &calls, &e.IsError, &e.Subtype, &createdAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if args != "" {
			e.Arguments = json.RawMessage(args)
		}
		if calls != "" {
			var tc []llm.ToolCall
			if err := json.Unmarshal([]byte(calls), &tc); err == nil {
				e.ToolCalls = tc
			}
		}
		e.Timestamp = time.Unix(0, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func decodeSession(data string) (*agent.Session, error) {
	var sess agent.Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &sess, nil
}
