package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides (ROUTE_FORGE_OUTPUT_DIR, ...)
const EnvPrefix = "ROUTE_FORGE"

// Config represents the application configuration
type Config struct {
	Specs      SpecsConfig      `mapstructure:"specs"`
	Reference  ReferenceConfig  `mapstructure:"reference"`
	Output     OutputConfig     `mapstructure:"output"`
	Generation GenerationConfig `mapstructure:"generation"`
	Ledger     LedgerConfig     `mapstructure:"ledger"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	Review     ReviewConfig     `mapstructure:"review"`
}

// SpecsConfig locates the specification document
type SpecsConfig struct {
	Path   string `mapstructure:"path"`   // YAML list of route specifications
	Strict bool   `mapstructure:"strict"` // Also validate input fields and descriptions
}

// ReferenceConfig locates the optional reference data files
type ReferenceConfig struct {
	ProjectInfo       string   `mapstructure:"project_info"`
	DBSchema          string   `mapstructure:"db_schema"`
	Middleware        string   `mapstructure:"middleware"`
	ProjectStructure  string   `mapstructure:"project_structure"`
	ExampleRoute      string   `mapstructure:"example_route"`
	ExampleController string   `mapstructure:"example_controller"`
	ExampleService    string   `mapstructure:"example_service"`
	ExampleTest       string   `mapstructure:"example_test"`
	ExampleSwagger    string   `mapstructure:"example_swagger"`
	Encoding          []string `mapstructure:"encoding"` // Encoding hints for non-UTF-8 files (e.g., ["utf-8", "euc-kr"])
}

// OutputConfig holds output settings
type OutputConfig struct {
	Dir        string   `mapstructure:"dir"`         // Generated artifacts land here
	ReportName string   `mapstructure:"report_name"` // Run report file name (without extension)
	Formats    []string `mapstructure:"formats"`     // Run report formats (excel, html, word, json, openapi)
}

// GenerationConfig selects and tunes the text-generation backend
type GenerationConfig struct {
	Provider          string        `mapstructure:"provider"` // "openai" or "gemini"
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	PrimaryModel      string        `mapstructure:"primary_model"`
	AuxiliaryModel    string        `mapstructure:"auxiliary_model"`
	Temperature       float32       `mapstructure:"temperature"`
	MaxTokens         int           `mapstructure:"max_tokens"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RetryDelay        time.Duration `mapstructure:"retry_delay"`
	BreakerThreshold  int           `mapstructure:"breaker_threshold"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"` // 0 disables pacing
	StripFences       bool          `mapstructure:"strip_fences"`
}

// LedgerConfig controls the SQLite run ledger
type LedgerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"` // Defaults to <output.dir>/route-forge.db
}

// TelemetryConfig toggles trace/metric files in the output directory
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// ReviewConfig controls the advisory reviewer
type ReviewConfig struct {
	AfterRun bool `mapstructure:"after_run"`
}

// Load reads the configuration from a file or uses defaults.
// If configPath is empty, it looks for "route-forge.yaml" in the current directory.
// A ".env" file next to the working directory is loaded first so the backend
// credential can live outside the config file.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath == "" {
		configPath = "route-forge.yaml"
	}
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		if !isNotFound(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		fmt.Println("==========================================")
		fmt.Println("Config file not found. Using defaults:")
		fmt.Println("  Specs:  ./data/route_specs.yaml")
		fmt.Println("  Output: ./generated")
		fmt.Println("==========================================")
	} else {
		fmt.Printf("Loaded config from: %s\n", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Generation.APIKey == "" {
		cfg.Generation.APIKey = credentialFromEnv(cfg.Generation.Provider)
	}

	if err := cfg.normalizePaths(); err != nil {
		return nil, err
	}

	if err := cfg.EnsureOutputDir(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func isNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
		return true
	}
	return strings.Contains(err.Error(), "no such file") || strings.Contains(err.Error(), "cannot find")
}

// credentialFromEnv returns the provider's conventional API key variable
func credentialFromEnv(provider string) string {
	switch strings.ToLower(provider) {
	case "gemini":
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			return key
		}
		return os.Getenv("GOOGLE_API_KEY")
	default:
		return os.Getenv("OPENAI_API_KEY")
	}
}

// setDefaults configures sensible default values
func setDefaults(v *viper.Viper) {
	v.SetDefault("specs.path", "./data/route_specs.yaml")
	v.SetDefault("specs.strict", false)

	v.SetDefault("reference.project_info", "./data/project_info.json")
	v.SetDefault("reference.db_schema", "./data/db_schema.json")
	v.SetDefault("reference.middleware", "./data/middleware_utils.json")
	v.SetDefault("reference.project_structure", "./data/project_structure.json")
	v.SetDefault("reference.example_route", "./data/example_files/example_route.js")
	v.SetDefault("reference.example_controller", "./data/example_files/example_controller.js")
	v.SetDefault("reference.example_service", "./data/example_files/example_service.js")
	v.SetDefault("reference.example_test", "./data/example_files/example_test.js")
	v.SetDefault("reference.example_swagger", "./data/example_files/example_swagger.js")
	v.SetDefault("reference.encoding", []string{"utf-8", "euc-kr"})

	v.SetDefault("output.dir", "./generated")
	v.SetDefault("output.report_name", "route-forge-report")
	v.SetDefault("output.formats", []string{"excel", "html", "json"})

	v.SetDefault("generation.provider", "openai")
	v.SetDefault("generation.api_key", "")
	v.SetDefault("generation.base_url", "")
	v.SetDefault("generation.primary_model", "gpt-4o-mini")
	v.SetDefault("generation.auxiliary_model", "gpt-3.5-turbo")
	v.SetDefault("generation.temperature", 0.2)
	v.SetDefault("generation.max_tokens", 4096)
	v.SetDefault("generation.timeout", "120s")
	v.SetDefault("generation.max_retries", 3)
	v.SetDefault("generation.retry_delay", "1s")
	v.SetDefault("generation.breaker_threshold", 3)
	v.SetDefault("generation.requests_per_minute", 0)
	v.SetDefault("generation.strip_fences", true)

	v.SetDefault("ledger.enabled", true)
	v.SetDefault("ledger.path", "")

	v.SetDefault("telemetry.enabled", false)

	v.SetDefault("review.after_run", false)
}

// normalizePaths converts relative paths to absolute paths
func (c *Config) normalizePaths() error {
	paths := []struct {
		name string
		ptr  *string
	}{
		{"specs.path", &c.Specs.Path},
		{"output.dir", &c.Output.Dir},
		{"reference.project_info", &c.Reference.ProjectInfo},
		{"reference.db_schema", &c.Reference.DBSchema},
		{"reference.middleware", &c.Reference.Middleware},
		{"reference.project_structure", &c.Reference.ProjectStructure},
		{"reference.example_route", &c.Reference.ExampleRoute},
		{"reference.example_controller", &c.Reference.ExampleController},
		{"reference.example_service", &c.Reference.ExampleService},
		{"reference.example_test", &c.Reference.ExampleTest},
		{"reference.example_swagger", &c.Reference.ExampleSwagger},
		{"ledger.path", &c.Ledger.Path},
	}

	for _, p := range paths {
		if *p.ptr == "" {
			continue
		}
		abs, err := filepath.Abs(*p.ptr)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", p.name, err)
		}
		*p.ptr = abs
	}

	return nil
}

// EnsureOutputDir creates the output directory if it doesn't exist
func (c *Config) EnsureOutputDir() error {
	if err := os.MkdirAll(c.Output.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// SetOutputDir overrides the output directory (e.g., from a CLI flag)
func (c *Config) SetOutputDir(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve output dir: %w", err)
	}
	c.Output.Dir = abs
	return c.EnsureOutputDir()
}

// GetReportPath returns the run report path for the given extension (e.g., ".xlsx")
func (c *Config) GetReportPath(ext string) string {
	return filepath.Join(c.Output.Dir, c.Output.ReportName+ext)
}

// GetLedgerPath returns the SQLite ledger location
func (c *Config) GetLedgerPath() string {
	if c.Ledger.Path != "" {
		return c.Ledger.Path
	}
	return filepath.Join(c.Output.Dir, "route-forge.db")
}

// Validate checks if the configuration is valid.
// It does not check the specs file; a missing document is reported by the loader.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Generation.Provider) {
	case "openai", "gemini":
	default:
		return fmt.Errorf("generation.provider must be \"openai\" or \"gemini\", got %q", c.Generation.Provider)
	}

	if c.Generation.PrimaryModel == "" || c.Generation.AuxiliaryModel == "" {
		return fmt.Errorf("generation.primary_model and generation.auxiliary_model cannot be empty")
	}

	if c.Generation.Timeout <= 0 {
		return fmt.Errorf("generation.timeout must be positive")
	}

	if c.Generation.MaxRetries < 0 {
		return fmt.Errorf("generation.max_retries cannot be negative")
	}

	if c.Generation.BreakerThreshold < 1 {
		return fmt.Errorf("generation.breaker_threshold must be at least 1")
	}

	if len(c.Reference.Encoding) == 0 {
		return fmt.Errorf("reference.encoding must contain at least one encoding")
	}

	if c.Output.ReportName == "" {
		return fmt.Errorf("output.report_name cannot be empty")
	}

	return nil
}

// RequireCredential fails when no API key is available for the backend
func (c *Config) RequireCredential() error {
	if c.Generation.APIKey != "" {
		return nil
	}
	if strings.EqualFold(c.Generation.Provider, "gemini") {
		return fmt.Errorf("no API key: set GEMINI_API_KEY or generation.api_key")
	}
	return fmt.Errorf("no API key: set OPENAI_API_KEY or generation.api_key")
}

// Print displays the current configuration
func (c *Config) Print() {
	fmt.Println("=== Route Forge Configuration ===")
	fmt.Printf("Specs:            %s (strict=%v)\n", c.Specs.Path, c.Specs.Strict)
	fmt.Printf("Output Directory: %s\n", c.Output.Dir)
	fmt.Printf("Report Formats:   %v\n", c.Output.Formats)
	fmt.Printf("Provider:         %s\n", c.Generation.Provider)
	fmt.Printf("Models:           primary=%s auxiliary=%s\n", c.Generation.PrimaryModel, c.Generation.AuxiliaryModel)
	fmt.Printf("Timeout/Retries:  %s / %d\n", c.Generation.Timeout, c.Generation.MaxRetries)
	fmt.Printf("Encoding Hints:   %v\n", c.Reference.Encoding)
	fmt.Printf("Ledger:           %v (%s)\n", c.Ledger.Enabled, c.GetLedgerPath())
	fmt.Printf("Telemetry:        %v\n", c.Telemetry.Enabled)
	fmt.Println("=================================")
}
