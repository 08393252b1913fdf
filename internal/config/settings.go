// Package config loads taskagent settings and skill files.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Supported providers and session stores.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"

	StoreMemory = "memory"
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// Settings is the merged configuration. Sources apply in order: defaults,
// config file, environment, command-line flags.
type Settings struct {
	Provider          string   `toml:"provider" json:"provider"`
	Model             string   `toml:"model" json:"model"`
	BaseURL           string   `toml:"base_url" json:"base_url"`
	APIKey            string   `toml:"api_key" json:"api_key"`
	MaxTokens         int      `toml:"max_tokens" json:"max_tokens"`
	MaxMainRounds     int      `toml:"max_main_rounds" json:"max_main_rounds"`
	MaxSubagentRounds int      `toml:"max_subagent_rounds" json:"max_subagent_rounds"`
	MaxBudgetUSD      float64  `toml:"max_budget_usd" json:"max_budget_usd"`
	ParallelTools     bool     `toml:"parallel_tools" json:"parallel_tools"`
	Workspace         string   `toml:"workspace" json:"workspace"`
	SkillDirs         []string `toml:"skill_dirs" json:"skill_dirs"`
	TranscriptDir     string   `toml:"transcript_dir" json:"transcript_dir"`
	LogLevel          string   `toml:"log_level" json:"log_level"`

	Session SessionConfig `toml:"session" json:"session"`
	Trace   TraceConfig   `toml:"trace" json:"trace"`
}

// SessionConfig selects the session store.
type SessionConfig struct {
	Store string `toml:"store" json:"store"`
	Dir   string `toml:"dir" json:"dir"`
	DB    string `toml:"db" json:"db"`
}

// TraceConfig configures OTLP trace export. An empty endpoint disables it.
type TraceConfig struct {
	Endpoint string `toml:"endpoint" json:"endpoint"`
	URLPath  string `toml:"url_path" json:"url_path"`
	APIKey   string `toml:"api_key" json:"api_key"`
}

// Default returns the built-in settings.
func Default() *Settings {
	dataDir := defaultDataDir()
	return &Settings{
		Provider:          ProviderAnthropic,
		MaxTokens:         8192,
		MaxMainRounds:     40,
		MaxSubagentRounds: 30,
		Workspace:         ".",
		LogLevel:          "info",
		Session: SessionConfig{
			Store: StoreMemory,
			Dir:   filepath.Join(dataDir, "sessions"),
			DB:    filepath.Join(dataDir, "taskagent.db"),
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/taskagent/config.toml (or the
// platform equivalent).
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "taskagent", "config.toml")
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".taskagent"
	}
	return filepath.Join(home, ".local", "share", "taskagent")
}

// Load reads settings from path on top of the defaults and applies the
// environment. An empty path means DefaultPath, which may be absent; an
// explicit path must exist. Files ending in .json are decoded as JSON,
// everything else as TOML.
func Load(path string) (*Settings, error) {
	s := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if err := s.decodeFile(path); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
	}
	s.ApplyEnv(os.Getenv)
	return s, nil
}

func (s *Settings) decodeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, s); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
		return nil
	}
	if _, err := toml.Decode(string(data), s); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from environment variables read via getenv.
func (s *Settings) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&s.Provider, "LLM_PROVIDER")
	set(&s.Model, "LLM_MODEL")
	set(&s.BaseURL, "LLM_BASE_URL")
	set(&s.APIKey, "LLM_API_KEY")
	set(&s.LogLevel, "LOG_LEVEL")
	set(&s.Trace.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	if v := getenv("TASKAGENT_MAX_BUDGET_USD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			s.MaxBudgetUSD = f
		}
	}
	s.Provider = strings.ToLower(s.Provider)
}

// Validate reports the first invalid field.
func (s *Settings) Validate() error {
	switch s.Provider {
	case ProviderAnthropic, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown provider %q (want %s or %s)", s.Provider, ProviderAnthropic, ProviderOpenAI)
	}
	switch s.Session.Store {
	case StoreMemory, StoreFile, StoreSQLite:
	default:
		return fmt.Errorf("unknown session store %q", s.Session.Store)
	}
	if s.MaxMainRounds <= 0 {
		return fmt.Errorf("max_main_rounds must be positive, got %d", s.MaxMainRounds)
	}
	if s.MaxSubagentRounds <= 0 {
		return fmt.Errorf("max_subagent_rounds must be positive, got %d", s.MaxSubagentRounds)
	}
	if s.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive, got %d", s.MaxTokens)
	}
	if s.MaxBudgetUSD < 0 {
		return fmt.Errorf("max_budget_usd must not be negative")
	}
	return nil
}
