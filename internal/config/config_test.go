package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigWithDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(cfg.Specs.Path))
	assert.True(t, filepath.IsAbs(cfg.Output.Dir))
	assert.DirExists(t, cfg.Output.Dir)
	assert.Equal(t, "openai", cfg.Generation.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Generation.PrimaryModel)
	assert.Equal(t, "gpt-3.5-turbo", cfg.Generation.AuxiliaryModel)
	assert.Equal(t, 120*time.Second, cfg.Generation.Timeout)
	assert.Equal(t, time.Second, cfg.Generation.RetryDelay)
	assert.Equal(t, 3, cfg.Generation.MaxRetries)
	assert.Equal(t, 3, cfg.Generation.BreakerThreshold)
	assert.True(t, cfg.Generation.StripFences)
	assert.Equal(t, "sk-test", cfg.Generation.APIKey)
	assert.NotEmpty(t, cfg.Reference.Encoding)
	assert.Equal(t, []string{"excel", "html", "json"}, cfg.Output.Formats)
	assert.NoError(t, cfg.Validate())

	cfg.Print()
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	content := `
specs:
  path: ./my_specs.yaml
  strict: true
output:
  dir: ./out
generation:
  provider: gemini
  primary_model: gemini-2.5-pro
  auxiliary_model: gemini-2.5-flash
  timeout: 30s
  breaker_threshold: 2
ledger:
  enabled: false
`
	path := filepath.Join(dir, "route-forge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	t.Setenv("GEMINI_API_KEY", "gm-key")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "my_specs.yaml"), cfg.Specs.Path)
	assert.True(t, cfg.Specs.Strict)
	assert.Equal(t, filepath.Join(dir, "out"), cfg.Output.Dir)
	assert.Equal(t, "gemini", cfg.Generation.Provider)
	assert.Equal(t, 30*time.Second, cfg.Generation.Timeout)
	assert.Equal(t, 2, cfg.Generation.BreakerThreshold)
	assert.False(t, cfg.Ledger.Enabled)
	assert.Equal(t, "gm-key", cfg.Generation.APIKey)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ROUTE_FORGE_GENERATION_MAX_RETRIES", "7")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Generation.MaxRetries)
}

func TestLoadConfigDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("OPENAI_API_KEY", "")
	os.Unsetenv("OPENAI_API_KEY") // godotenv never overrides a variable that is already set
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("OPENAI_API_KEY=from-dotenv\n"), 0644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Generation.APIKey)
}

func TestLoadConfigInvalidFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Reference: ReferenceConfig{Encoding: []string{"utf-8"}},
			Output:    OutputConfig{ReportName: "report"},
			Generation: GenerationConfig{
				Provider:         "openai",
				PrimaryModel:     "a",
				AuxiliaryModel:   "b",
				Timeout:          time.Second,
				BreakerThreshold: 1,
			},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{"valid", func(c *Config) {}, true},
		{"unknown provider", func(c *Config) { c.Generation.Provider = "llama" }, false},
		{"missing model", func(c *Config) { c.Generation.AuxiliaryModel = "" }, false},
		{"zero timeout", func(c *Config) { c.Generation.Timeout = 0 }, false},
		{"negative retries", func(c *Config) { c.Generation.MaxRetries = -1 }, false},
		{"zero breaker", func(c *Config) { c.Generation.BreakerThreshold = 0 }, false},
		{"no encodings", func(c *Config) { c.Reference.Encoding = nil }, false},
		{"no report name", func(c *Config) { c.Output.ReportName = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestRequireCredential(t *testing.T) {
	cfg := &Config{Generation: GenerationConfig{Provider: "gemini"}}
	err := cfg.RequireCredential()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")

	cfg.Generation.APIKey = "k"
	assert.NoError(t, cfg.RequireCredential())
}

func TestPathHelpers(t *testing.T) {
	cfg := &Config{Output: OutputConfig{Dir: "/tmp/out", ReportName: "report"}}

	assert.Equal(t, filepath.Join("/tmp/out", "report.xlsx"), cfg.GetReportPath(".xlsx"))
	assert.Equal(t, filepath.Join("/tmp/out", "route-forge.db"), cfg.GetLedgerPath())

	cfg.Ledger.Path = "/var/db/ledger.db"
	assert.Equal(t, "/var/db/ledger.db", cfg.GetLedgerPath())
}
