package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexica-labs/lexica/internal/core/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	pc := cfg.PipelineConfig()
	assert.Equal(t, domain.DefaultWorkers, pc.Workers)
	assert.Equal(t, domain.DefaultTokenBudget, pc.TokenBudget)
	assert.Equal(t, "v1", pc.SegmenterVersion)
	assert.NotEmpty(t, pc.Rules)
	assert.True(t, cfg.Scheduler.Enabled)
}

func TestLoad_FullFile(t *testing.T) {
	path := writeConfig(t, `
[pipeline]
workers = 4
max_retries = 2
retry_backoff = "250ms"
segmenter_version = "v1"
token_budget = 1024
top_k = 5
overfetch_factor = 3

[embedding]
provider = "local"
model_version = "local-hash-v1"

[scheduler]
enabled = true

[scheduler.tasks.retry-failed]
enabled = true
interval = "5m"

[[rules]]
id = "phone"
kind = "pattern"
category = "PHONE"
priority = 90
pattern = '09[0-9]{2}-?[0-9]{3}-?[0-9]{3}'

[[rules]]
id = "parties"
kind = "lookup"
category = "PARTY_NAME"
priority = 95
terms = ["王小明"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	pc := cfg.PipelineConfig()
	assert.Equal(t, 4, pc.Workers)
	assert.Equal(t, 2, pc.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, pc.RetryBackoff)
	assert.Equal(t, 1024, pc.TokenBudget)
	assert.Equal(t, 5, pc.TopK)
	assert.Equal(t, 3, pc.OverfetchFactor)
	assert.Equal(t, "local-hash-v1", pc.ModelVersion)

	require.Len(t, pc.Rules, 2)
	assert.Equal(t, domain.RulePattern, pc.Rules[0].Kind)
	assert.Equal(t, domain.RuleLookup, pc.Rules[1].Kind)

	sc := cfg.SchedulerConfig()
	assert.True(t, sc.Enabled)
	assert.Equal(t, 5*time.Minute, sc.GetTaskConfig(domain.TaskIDRetryFailed).Interval)
}

func TestLoad_InvalidRulePattern(t *testing.T) {
	path := writeConfig(t, `
[[rules]]
id = "broken"
kind = "pattern"
category = "X"
pattern = "["
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_UnknownRuleKind(t *testing.T) {
	path := writeConfig(t, `
[[rules]]
id = "odd"
kind = "heuristic"
category = "X"
`)

	_, err := Load(path)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLoad_DuplicateRuleID(t *testing.T) {
	path := writeConfig(t, `
[[rules]]
id = "phone"
kind = "pattern"
category = "PHONE"
pattern = "a"

[[rules]]
id = "phone"
kind = "pattern"
category = "PHONE"
pattern = "b"
`)

	_, err := Load(path)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLoad_BadBackoff(t *testing.T) {
	path := writeConfig(t, `
[pipeline]
retry_backoff = "soon"
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	original := &Config{
		Pipeline: PipelineSection{Workers: 2, TokenBudget: 512},
		Storage:  StorageSection{DataDir: "/tmp/lexica"},
		Scheduler: SchedulerSection{
			Enabled: true,
		},
	}
	require.NoError(t, Save(path, original))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Pipeline.Workers)
	assert.Equal(t, "/tmp/lexica", loaded.Storage.DataDir)
}
