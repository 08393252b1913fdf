package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	agent "github.com/armatrix/taskagent"
)

// FileStore persists sessions as individual JSON files named {id}.json.
type FileStore struct {
	dir string
}

var _ agent.FullSessionStore = (*FileStore)(nil)

// NewFileStore creates a FileStore in dir, creating the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Save writes the session atomically via a temp file and rename.
func (f *FileStore) Save(_ context.Context, session *agent.Session) error {
	if session == nil {
		return errNilSession
	}
	b, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	tmp, err := os.CreateTemp(f.dir, session.ID+".*.tmp")
	if err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path(session.ID)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

func (f *FileStore) Load(_ context.Context, id string) (*agent.Session, error) {
	b, err := os.ReadFile(f.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", agent.ErrSessionNotFound, id)
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}
	var s agent.Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &s, nil
}

func (f *FileStore) Delete(_ context.Context, id string) error {
	if err := os.Remove(f.path(id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", agent.ErrSessionNotFound, id)
		}
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// List returns all readable sessions, most recently updated first. Corrupt
// files are skipped.
func (f *FileStore) List(ctx context.Context) ([]*agent.Session, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("read session dir: %w", err)
	}
	var sessions []*agent.Session
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		s, err := f.Load(ctx, strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		sessions = append(sessions, s)
	}
	sortByUpdated(sessions)
	return sessions, nil
}

func (f *FileStore) Fork(ctx context.Context, id string) (*agent.Session, error) {
	original, err := f.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	forked := original.Clone()
	if err := f.Save(ctx, forked); err != nil {
		return nil, fmt.Errorf("save forked session: %w", err)
	}
	return forked, nil
}

func (f *FileStore) path(id string) string {
	return filepath.Join(f.dir, filepath.Base(id)+".json")
}

func sortByUpdated(sessions []*agent.Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
}
