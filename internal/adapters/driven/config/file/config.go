package file

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/lexica-labs/lexica/internal/core/domain"
)

// Config is the on-disk configuration file layout.
type Config struct {
	Pipeline  PipelineSection  `toml:"pipeline"`
	Embedding EmbeddingSection `toml:"embedding"`
	Generator GeneratorSection `toml:"generator"`
	Storage   StorageSection   `toml:"storage"`
	Scheduler SchedulerSection `toml:"scheduler"`
	Rules     []RuleSection    `toml:"rules"`
}

// PipelineSection configures processing and retrieval limits.
type PipelineSection struct {
	Workers          int    `toml:"workers"`
	MaxRetries       int    `toml:"max_retries"`
	RetryBackoff     string `toml:"retry_backoff"`
	SegmenterVersion string `toml:"segmenter_version"`
	TokenBudget      int    `toml:"token_budget"`
	TopK             int    `toml:"top_k"`
	OverfetchFactor  int    `toml:"overfetch_factor"`
}

// EmbeddingSection configures the embedding backend.
type EmbeddingSection struct {
	// Provider selects the backend: "ollama", "openai" or "local".
	Provider     string  `toml:"provider"`
	BaseURL      string  `toml:"base_url"`
	Model        string  `toml:"model"`
	ModelVersion string  `toml:"model_version"`
	Dimensions   int     `toml:"dimensions"`
	RateLimit    float64 `toml:"rate_limit"`
	// APIKey authenticates against hosted providers. The
	// LEXICA_EMBEDDING_API_KEY environment variable takes precedence.
	APIKey string `toml:"api_key"`
}

// GeneratorSection configures the answer generation backend.
type GeneratorSection struct {
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
	Timeout string `toml:"timeout"`
}

// StorageSection configures persistence.
type StorageSection struct {
	// DataDir holds the SQLite database. Empty selects the default
	// under the user's home directory.
	DataDir string `toml:"data_dir"`
}

// SchedulerSection configures background tasks.
type SchedulerSection struct {
	Enabled bool                   `toml:"enabled"`
	Tasks   map[string]TaskSection `toml:"tasks"`
}

// TaskSection configures one background task.
type TaskSection struct {
	Enabled  bool   `toml:"enabled"`
	Interval string `toml:"interval"`
}

// RuleSection is one PII detector rule in file form.
type RuleSection struct {
	ID       string   `toml:"id"`
	Kind     string   `toml:"kind"`
	Category string   `toml:"category"`
	Priority int      `toml:"priority"`
	Pattern  string   `toml:"pattern"`
	Terms    []string `toml:"terms"`
}

// DefaultPath returns the default configuration file location,
// ~/.lexica/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".lexica", "config.toml"), nil
}

// Load reads and validates the configuration file. A missing file is
// not an error; defaults apply.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		Scheduler: SchedulerSection{Enabled: true},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if key := os.Getenv("LEXICA_EMBEDDING_API_KEY"); key != "" {
		cfg.Embedding.APIKey = key
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to path with restricted permissions.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// validate rejects malformed sections at load time.
func (c *Config) validate() error {
	if c.Pipeline.RetryBackoff != "" {
		if _, err := time.ParseDuration(c.Pipeline.RetryBackoff); err != nil {
			return fmt.Errorf("pipeline.retry_backoff: %w", err)
		}
	}
	if c.Generator.Timeout != "" {
		if _, err := time.ParseDuration(c.Generator.Timeout); err != nil {
			return fmt.Errorf("generator.timeout: %w", err)
		}
	}
	for id, task := range c.Scheduler.Tasks {
		if task.Interval == "" {
			continue
		}
		if _, err := time.ParseDuration(task.Interval); err != nil {
			return fmt.Errorf("scheduler.tasks.%s.interval: %w", id, err)
		}
	}

	seen := make(map[string]struct{}, len(c.Rules))
	for _, rule := range c.Rules {
		if rule.ID == "" {
			return fmt.Errorf("rule missing id: %w", domain.ErrInvalidInput)
		}
		if _, dup := seen[rule.ID]; dup {
			return fmt.Errorf("duplicate rule id %q: %w", rule.ID, domain.ErrInvalidInput)
		}
		seen[rule.ID] = struct{}{}
		if rule.Category == "" {
			return fmt.Errorf("rule %q missing category: %w", rule.ID, domain.ErrInvalidInput)
		}
		switch domain.RuleKind(rule.Kind) {
		case domain.RulePattern:
			if _, err := regexp.Compile(rule.Pattern); err != nil {
				return fmt.Errorf("rule %q pattern: %w", rule.ID, err)
			}
		case domain.RuleLookup:
			if len(rule.Terms) == 0 {
				return fmt.Errorf("lookup rule %q has no terms: %w", rule.ID, domain.ErrInvalidInput)
			}
		default:
			return fmt.Errorf("rule %q has unknown kind %q: %w", rule.ID, rule.Kind, domain.ErrInvalidInput)
		}
	}
	return nil
}

// PipelineConfig converts the file form into the domain configuration.
// File rules replace the built-in defaults entirely when present.
func (c *Config) PipelineConfig() domain.PipelineConfig {
	cfg := domain.PipelineConfig{
		Workers:          c.Pipeline.Workers,
		MaxRetries:       c.Pipeline.MaxRetries,
		SegmenterVersion: c.Pipeline.SegmenterVersion,
		TokenBudget:      c.Pipeline.TokenBudget,
		TopK:             c.Pipeline.TopK,
		OverfetchFactor:  c.Pipeline.OverfetchFactor,
	}
	if c.Pipeline.RetryBackoff != "" {
		// Validated in Load.
		cfg.RetryBackoff, _ = time.ParseDuration(c.Pipeline.RetryBackoff)
	}
	if c.Embedding.ModelVersion != "" {
		cfg.ModelVersion = c.Embedding.ModelVersion
	} else if c.Embedding.Model != "" {
		cfg.ModelVersion = c.Embedding.Model
	}
	for _, rule := range c.Rules {
		cfg.Rules = append(cfg.Rules, domain.DetectorRule{
			ID:       rule.ID,
			Kind:     domain.RuleKind(rule.Kind),
			Category: rule.Category,
			Priority: rule.Priority,
			Pattern:  rule.Pattern,
			Terms:    rule.Terms,
		})
	}
	return cfg.Normalize()
}

// SchedulerConfig converts the scheduler section into the domain
// configuration, starting from the built-in defaults.
func (c *Config) SchedulerConfig() domain.SchedulerConfig {
	cfg := domain.DefaultSchedulerConfig()
	cfg.Enabled = c.Scheduler.Enabled
	for id, task := range c.Scheduler.Tasks {
		tc := domain.TaskConfig{Enabled: task.Enabled}
		if task.Interval != "" {
			// Validated in Load.
			tc.Interval, _ = time.ParseDuration(task.Interval)
		}
		cfg.TaskConfigs[id] = tc
	}
	return cfg
}
