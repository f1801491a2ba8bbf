// Package config builds the effective prlens configuration by merging
// defaults, an optional YAML config file, environment variables, and CLI
// flag overrides, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/prlens/prlens/internal/diff"
	apperr "github.com/prlens/prlens/internal/errors"
)

// DefaultPath is the config file consulted when --config is not given.
const DefaultPath = "prlens.yaml"

// Config is the effective prlens configuration.
type Config struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	MaxTokens  int    `yaml:"max_tokens"`
	ReviewType string `yaml:"review_type"`

	// Repository is "owner/repo". GitHubToken is environment-only and never
	// read from the config file.
	Repository  string `yaml:"repository"`
	GitHubToken string `yaml:"-"`
	GitHubAPI   string `yaml:"github_api"`

	Filter diff.Criteria `yaml:"filter"`

	RequireContent bool `yaml:"require_content"`
	RedactSecrets  bool `yaml:"redact_secrets"`
	IncludeContext bool `yaml:"include_context"`
	MaxDiffBytes   int  `yaml:"max_diff_bytes"`

	ReportsDir string      `yaml:"reports_dir"`
	Cache      CacheConfig `yaml:"cache"`
	Log        LogConfig   `yaml:"log"`
	Serve      ServeConfig `yaml:"serve"`
}

// CacheConfig controls completion reply caching.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Dir        string `yaml:"dir"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// ServeConfig controls the report server.
type ServeConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Provider:       "anthropic",
		Model:          "claude-3-5-sonnet-20241022",
		MaxTokens:      4096,
		ReviewType:     "accessibility",
		RedactSecrets:  true,
		IncludeContext: true,
		MaxDiffBytes:   50000,
		ReportsDir:     "reports",
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 86400,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Serve: ServeConfig{
			Port: 8080,
		},
	}
}

// fileConfig mirrors Config with pointer fields so that an absent YAML key
// is distinguishable from an explicit zero value.
type fileConfig struct {
	Provider   *string `yaml:"provider"`
	Model      *string `yaml:"model"`
	MaxTokens  *int    `yaml:"max_tokens"`
	ReviewType *string `yaml:"review_type"`

	Repository *string `yaml:"repository"`
	GitHubAPI  *string `yaml:"github_api"`

	Filter *diff.Criteria `yaml:"filter"`

	RequireContent *bool `yaml:"require_content"`
	RedactSecrets  *bool `yaml:"redact_secrets"`
	IncludeContext *bool `yaml:"include_context"`
	MaxDiffBytes   *int  `yaml:"max_diff_bytes"`

	ReportsDir *string `yaml:"reports_dir"`

	Cache *struct {
		Enabled    *bool   `yaml:"enabled"`
		Dir        *string `yaml:"dir"`
		TTLSeconds *int    `yaml:"ttl_seconds"`
	} `yaml:"cache"`

	Log *struct {
		Level  *string `yaml:"level"`
		Format *string `yaml:"format"`
	} `yaml:"log"`

	Serve *struct {
		Host *string `yaml:"host"`
		Port *int    `yaml:"port"`
	} `yaml:"serve"`
}

// Load builds the effective config: defaults <- file <- env <- overrides.
// path may be empty; DefaultPath is then used when it exists. The overrides
// map comes from CLI flags.
func Load(path string, overrides map[string]string) (Config, error) {
	cfg := Default()

	if err := mergeFile(&cfg, path); err != nil {
		return Config{}, err
	}
	mergeEnv(&cfg)
	mergeOverrides(&cfg, overrides)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func mergeFile(cfg *Config, path string) error {
	explicit := path != ""
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return apperr.Wrapf(err, apperr.ErrCodeConfiguration, "reading config file %s", path)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return apperr.Wrapf(err, apperr.ErrCodeConfiguration, "parsing config file %s", path)
	}

	setString(&cfg.Provider, fc.Provider)
	setString(&cfg.Model, fc.Model)
	setInt(&cfg.MaxTokens, fc.MaxTokens)
	setString(&cfg.ReviewType, fc.ReviewType)
	setString(&cfg.Repository, fc.Repository)
	setString(&cfg.GitHubAPI, fc.GitHubAPI)
	if fc.Filter != nil {
		cfg.Filter = *fc.Filter
	}
	setBool(&cfg.RequireContent, fc.RequireContent)
	setBool(&cfg.RedactSecrets, fc.RedactSecrets)
	setBool(&cfg.IncludeContext, fc.IncludeContext)
	setInt(&cfg.MaxDiffBytes, fc.MaxDiffBytes)
	setString(&cfg.ReportsDir, fc.ReportsDir)
	if fc.Cache != nil {
		setBool(&cfg.Cache.Enabled, fc.Cache.Enabled)
		setString(&cfg.Cache.Dir, fc.Cache.Dir)
		setInt(&cfg.Cache.TTLSeconds, fc.Cache.TTLSeconds)
	}
	if fc.Log != nil {
		setString(&cfg.Log.Level, fc.Log.Level)
		setString(&cfg.Log.Format, fc.Log.Format)
	}
	if fc.Serve != nil {
		setString(&cfg.Serve.Host, fc.Serve.Host)
		setInt(&cfg.Serve.Port, fc.Serve.Port)
	}
	return nil
}

func mergeEnv(cfg *Config) {
	// .env is optional; real environment variables win over its contents.
	_ = godotenv.Load(".env")

	cfg.GitHubToken = os.Getenv("GITHUB_TOKEN")

	if v := os.Getenv("GITHUB_REPOSITORY"); v != "" {
		cfg.Repository = v
	}
	if v := os.Getenv("GITHUB_API_URL"); v != "" {
		cfg.GitHubAPI = v
	}
	if v := os.Getenv("PRLENS_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("PRLENS_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("PRLENS_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxTokens = n
		}
	}
	if v := os.Getenv("PRLENS_REVIEW_TYPE"); v != "" {
		cfg.ReviewType = v
	}
	if v := os.Getenv("PRLENS_REPORTS_DIR"); v != "" {
		cfg.ReportsDir = v
	}
	if v := os.Getenv("PRLENS_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("PRLENS_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

func mergeOverrides(cfg *Config, overrides map[string]string) {
	if overrides == nil {
		return
	}
	if v, ok := overrides["provider"]; ok && v != "" {
		cfg.Provider = v
	}
	if v, ok := overrides["model"]; ok && v != "" {
		cfg.Model = v
	}
	if v, ok := overrides["maxTokens"]; ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxTokens = n
		}
	}
	if v, ok := overrides["reviewType"]; ok && v != "" {
		cfg.ReviewType = v
	}
	if v, ok := overrides["repository"]; ok && v != "" {
		cfg.Repository = v
	}
	if v, ok := overrides["reportsDir"]; ok && v != "" {
		cfg.ReportsDir = v
	}
	if v, ok := overrides["maxDiffBytes"]; ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxDiffBytes = n
		}
	}
	if v, ok := overrides["requireContent"]; ok {
		cfg.RequireContent = v == "true"
	}
	if v, ok := overrides["noRedact"]; ok && v == "true" {
		cfg.RedactSecrets = false
	}
	if v, ok := overrides["noCache"]; ok && v == "true" {
		cfg.Cache.Enabled = false
	}
}

// Validate rejects configurations the pipeline cannot run with. Filter
// pattern syntax is validated separately when the filter is compiled.
func (c *Config) Validate() error {
	switch c.ReviewType {
	case "accessibility", "code_review":
	default:
		return apperr.Newf(apperr.ErrCodeConfiguration, "unknown review type %q", c.ReviewType)
	}
	switch c.Provider {
	case "anthropic", "openai":
	default:
		return apperr.Newf(apperr.ErrCodeConfiguration, "unknown provider %q", c.Provider)
	}
	if c.MaxTokens <= 0 {
		return apperr.Configuration("max_tokens must be positive")
	}
	if c.Serve.Port < 1 || c.Serve.Port > 65535 {
		return apperr.Newf(apperr.ErrCodeConfiguration, "invalid serve port %d", c.Serve.Port)
	}
	return nil
}

// Address returns the report server listen address.
func (s ServeConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
