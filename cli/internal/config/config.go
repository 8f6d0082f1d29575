// Package config provides git-commitai configuration with a defined load order:
// CLI flags > environment variables > repo .gitcommitai > global config > defaults.
//
// Paths:
//   - Repo: .gitcommitai (relative to repo root)
//   - Global: XDG config dir, e.g. ~/.config/git-commitai/config.toml (see os.UserConfigDir)
//
// Environment variables (override config files when set):
//   - GIT_COMMIT_AI_KEY (API key; required to make requests),
//   - GIT_COMMIT_AI_URL (chat-completion endpoint URL),
//   - GIT_COMMIT_AI_MODEL (model name),
//   - GIT_COMMIT_AI_TIMEOUT (Go duration string or integer seconds).
//
// The repo .gitcommitai file carries a prompt template, optionally preceded by
// a "model:" or "model=" line, or a JSON object with "model" and "prompt" keys.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"git-commitai/cli/internal/erruser"
)

// Config holds all git-commitai configuration. An empty APIKey means no
// credential has been configured; callers decide when that is fatal.
type Config struct {
	APIKey  string        `toml:"api_key"`
	APIURL  string        `toml:"api_url"`
	Model   string        `toml:"model"`
	Timeout time.Duration `toml:"timeout"`
	// MaxAttempts, RetryDelay and RetryBackoff shape the request retry loop:
	// up to MaxAttempts tries, waiting RetryDelay before the next try and
	// multiplying the wait by RetryBackoff after each failure.
	MaxAttempts  int           `toml:"max_attempts"`
	RetryDelay   time.Duration `toml:"retry_delay"`
	RetryBackoff float64       `toml:"retry_backoff"`
	// PromptTemplate is the repo-specific prompt template from .gitcommitai;
	// empty means the built-in prompt is used.
	PromptTemplate string `toml:"-"`
}

// Overrides represents optional CLI flag overrides. Non-nil pointer means
// "override with this value".
type Overrides struct {
	APIKey *string
	APIURL *string
	Model  *string
}

// LoadOptions configures Load. All fields are optional.
type LoadOptions struct {
	// RepoRoot is the repository root; if set, repo config is RepoRoot/.gitcommitai.
	RepoRoot string
	// GlobalConfigPath is the global config file path; if empty, XDG path is used.
	GlobalConfigPath string
	// Env is the environment key=value slice; if nil, os.Environ() is used.
	Env []string
	// Overrides are applied last (highest precedence).
	Overrides *Overrides
}

const (
	_defaultAPIURL       = "https://openrouter.ai/api/v1/chat/completions"
	_defaultModel        = "qwen/qwen3-coder"
	_defaultTimeout      = 5 * time.Minute
	_defaultMaxAttempts  = 3
	_defaultRetryDelay   = 2 * time.Second
	_defaultRetryBackoff = 1.5
)

// RepoConfigName is the per-repository configuration file name.
const RepoConfigName = ".gitcommitai"

// ErrNoAPIKey is returned when a request is about to be made but no API key
// was configured through any source.
var ErrNoAPIKey = errors.New("GIT_COMMIT_AI_KEY is not set")

// DefaultConfig returns the default configuration (no I/O).
func DefaultConfig() Config {
	return Config{
		APIURL:       _defaultAPIURL,
		Model:        _defaultModel,
		Timeout:      _defaultTimeout,
		MaxAttempts:  _defaultMaxAttempts,
		RetryDelay:   _defaultRetryDelay,
		RetryBackoff: _defaultRetryBackoff,
	}
}

// Load loads configuration with precedence: defaults < global file < repo file < env < overrides.
// Missing config files are ignored. Invalid TOML or invalid env values return an error.
func Load(opts LoadOptions) (*Config, error) {
	if opts.Env == nil {
		opts.Env = os.Environ()
	}
	cfg := DefaultConfig()

	globalPath := opts.GlobalConfigPath
	if globalPath == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, erruser.New("Could not determine config directory.", err)
		}
		globalPath = filepath.Join(dir, "git-commitai", "config.toml")
	}
	if err := mergeFile(&cfg, globalPath); err != nil {
		return nil, err
	}

	if opts.RepoRoot != "" {
		mergeRepoFile(&cfg, filepath.Join(opts.RepoRoot, RepoConfigName))
	}

	if err := applyEnv(&cfg, opts.Env); err != nil {
		return nil, err
	}

	applyOverrides(&cfg, opts.Overrides)
	return &cfg, nil
}

// mergeFile reads the global TOML file at path and merges into cfg. Only
// overwrites fields that are present and non-zero in the file. Missing file
// is skipped (no error).
func mergeFile(cfg *Config, path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return erruser.New("Invalid configuration file.", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return erruser.New("Could not read configuration file.", err)
	}
	var file struct {
		APIKey       *string  `toml:"api_key"`
		APIURL       *string  `toml:"api_url"`
		Model        *string  `toml:"model"`
		Timeout      *string  `toml:"timeout"`
		MaxAttempts  *int64   `toml:"max_attempts"`
		RetryDelay   *string  `toml:"retry_delay"`
		RetryBackoff *float64 `toml:"retry_backoff"`
	}
	if _, err := toml.Decode(string(data), &file); err != nil {
		return erruser.New("Invalid configuration in config.toml.", err)
	}
	if file.APIKey != nil && *file.APIKey != "" {
		cfg.APIKey = *file.APIKey
	}
	if file.APIURL != nil && *file.APIURL != "" {
		cfg.APIURL = *file.APIURL
	}
	if file.Model != nil && *file.Model != "" {
		cfg.Model = *file.Model
	}
	if file.Timeout != nil && *file.Timeout != "" {
		d, err := parseDuration(*file.Timeout)
		if err != nil {
			return erruser.New("Configuration timeout is invalid.", err)
		}
		cfg.Timeout = d
	}
	if file.MaxAttempts != nil && *file.MaxAttempts > 0 {
		cfg.MaxAttempts = int(*file.MaxAttempts)
	}
	if file.RetryDelay != nil && *file.RetryDelay != "" {
		d, err := parseDuration(*file.RetryDelay)
		if err != nil {
			return erruser.New("Configuration retry_delay is invalid.", err)
		}
		cfg.RetryDelay = d
	}
	if file.RetryBackoff != nil && *file.RetryBackoff >= 1 {
		cfg.RetryBackoff = *file.RetryBackoff
	}
	return nil
}

// mergeRepoFile reads the repo .gitcommitai file and merges its model and
// prompt template into cfg. The file is either a JSON object with "model"
// and "prompt" keys, or a plain prompt template optionally preceded by a
// "model:" / "model=" line. A missing or unreadable file is skipped; the
// file customizes the prompt and is never a reason to fail the commit.
func mergeRepoFile(cfg *Config, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	content := string(data)

	if strings.HasPrefix(strings.TrimSpace(content), "{") {
		var file struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
		}
		if err := json.Unmarshal(data, &file); err == nil {
			if file.Model != "" {
				cfg.Model = file.Model
			}
			if file.Prompt != "" {
				cfg.PromptTemplate = file.Prompt
			}
			return
		}
		// Not valid JSON after all; fall through and treat as a template.
	}

	var templateLines []string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "model:") || strings.HasPrefix(trimmed, "model=") {
			if model := strings.TrimSpace(trimmed[len("model:"):]); model != "" {
				cfg.Model = model
			}
			continue
		}
		templateLines = append(templateLines, line)
	}
	if template := strings.TrimSpace(strings.Join(templateLines, "\n")); template != "" {
		cfg.PromptTemplate = template
	}
}

func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	// Try Go duration first (e.g. "5m", "30s")
	d, err := time.ParseDuration(s)
	if err == nil {
		return d, nil
	}
	// Try integer seconds
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return time.Duration(n) * time.Second, nil
}

// env key names for config
const (
	envAPIKey  = "GIT_COMMIT_AI_KEY"
	envAPIURL  = "GIT_COMMIT_AI_URL"
	envModel   = "GIT_COMMIT_AI_MODEL"
	envTimeout = "GIT_COMMIT_AI_TIMEOUT"
)

func applyEnv(cfg *Config, env []string) error {
	vals := make(map[string]string)
	for _, e := range env {
		idx := strings.Index(e, "=")
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(e[:idx])
		val := strings.TrimSpace(e[idx+1:])
		vals[key] = val
	}
	if v, ok := vals[envAPIKey]; ok && v != "" {
		cfg.APIKey = v
	}
	if v, ok := vals[envAPIURL]; ok && v != "" {
		cfg.APIURL = v
	}
	if v, ok := vals[envModel]; ok && v != "" {
		cfg.Model = v
	}
	if v, ok := vals[envTimeout]; ok && v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return erruser.New("GIT_COMMIT_AI_TIMEOUT must be a valid duration.", err)
		}
		cfg.Timeout = d
	}
	return nil
}

func applyOverrides(cfg *Config, o *Overrides) {
	if o == nil {
		return
	}
	if o.APIKey != nil && *o.APIKey != "" {
		cfg.APIKey = *o.APIKey
	}
	if o.APIURL != nil && *o.APIURL != "" {
		cfg.APIURL = *o.APIURL
	}
	if o.Model != nil && *o.Model != "" {
		cfg.Model = *o.Model
	}
}
