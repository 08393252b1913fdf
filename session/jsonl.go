package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	agent "github.com/armatrix/taskagent"
)

// JSONLRecorder appends transcript entries to a JSON Lines file, one object
// per line. Parent and child runs share the file; entries carry their actor.
type JSONLRecorder struct {
	mu   sync.Mutex
	f    *os.File
	enc  *json.Encoder
	path string
}

var _ agent.Recorder = (*JSONLRecorder)(nil)

// NewJSONLRecorder creates dir/{model}_{timestamp}.jsonl.
func NewJSONLRecorder(dir, model string) (*JSONLRecorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create transcript dir: %w", err)
	}
	name := fmt.Sprintf("%s_%s.jsonl", sanitizeFileName(model), time.Now().Format("20060102_150405"))
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	return &JSONLRecorder{f: f, enc: json.NewEncoder(f), path: path}, nil
}

// Path returns the transcript file path.
func (r *JSONLRecorder) Path() string {
	return r.path
}

func (r *JSONLRecorder) Record(e agent.TranscriptEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return os.ErrClosed
	}
	return r.enc.Encode(e)
}

// Close closes the transcript file.
func (r *JSONLRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	return err
}

func sanitizeFileName(s string) string {
	if s == "" {
		return "session"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		return r
	}, s)
}
