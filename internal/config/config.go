// Package config loads resume-server settings from defaults, an optional YAML
// file, RESUME_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/goliatone/go-resume/pagination"
	flag "github.com/spf13/pflag"
)

// MaxFileSize limits the YAML config file size.
const MaxFileSize = 1 << 20

var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("failed to parse config")
	ErrInvalidConfig  = errors.New("invalid config")
)

// Config holds all resume-server settings.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Browser  BrowserConfig  `yaml:"browser"`
	Layout   LayoutConfig   `yaml:"layout"`
	Template string         `yaml:"template"`
	Seed     string         `yaml:"seed"`
	Verbose  bool           `yaml:"verbose"`
}

// ServerConfig configures the HTTP listener and route prefixes.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	BasePath        string `yaml:"basePath"`
	ArtifactPath    string `yaml:"artifactPath"`
	ShutdownTimeout string `yaml:"shutdownTimeout"`
}

// DatabaseConfig configures resume persistence.
type DatabaseConfig struct {
	DSN   string `yaml:"dsn"`
	Debug bool   `yaml:"debug"`
}

// StorageConfig configures the artifact store.
type StorageConfig struct {
	Root    string `yaml:"root"`
	BaseURL string `yaml:"baseURL"`
}

// BrowserConfig configures the headless browser used for measurement and
// printing.
type BrowserConfig struct {
	Path         string   `yaml:"path"`
	Download     bool     `yaml:"download"`
	Headless     bool     `yaml:"headless"`
	Timeout      string   `yaml:"timeout"`
	Args         []string `yaml:"args"`
	BlockRemote  bool     `yaml:"blockRemote"`
	MaxHTMLBytes int64    `yaml:"maxHTMLBytes"`
}

// LayoutConfig is page geometry in CSS pixels. Width and height must match
// A4; padding is free.
type LayoutConfig struct {
	PageWidth  float64 `yaml:"pageWidth"`
	PageHeight float64 `yaml:"pageHeight"`
	Padding    float64 `yaml:"padding"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			BasePath:        "/api/resumes",
			ArtifactPath:    "/api/artifacts",
			ShutdownTimeout: "10s",
		},
		Database: DatabaseConfig{
			DSN: "file:resume.db?cache=shared",
		},
		Storage: StorageConfig{
			Root:    "data/artifacts",
			BaseURL: "/api/artifacts",
		},
		Browser: BrowserConfig{
			Download:     true,
			Headless:     true,
			Timeout:      "30s",
			MaxHTMLBytes: 5 * 1024 * 1024,
		},
		Layout: LayoutConfig{
			PageWidth:  pagination.A4.PageWidth,
			PageHeight: pagination.A4.PageHeight,
			Padding:    pagination.A4.Padding,
		},
		Template: "classic",
	}
}

// Load resolves configuration from args and the environment. args excludes
// the program name.
func Load(args []string, getenv func(string) string) (*Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	fs := flag.NewFlagSet("resume-server", flag.ContinueOnError)
	configPath := fs.StringP("config", "c", "", "path to YAML config file")
	addr := fs.String("addr", "", "HTTP listen address")
	dsn := fs.String("db", "", "database DSN")
	storage := fs.String("storage", "", "artifact storage directory")
	browser := fs.String("browser", "", "path to a Chromium binary")
	download := fs.Bool("download-browser", true, "download Chromium when none is installed")
	timeout := fs.Duration("timeout", 0, "browser render timeout")
	template := fs.StringP("template", "t", "", "default resume template")
	seed := fs.String("seed", "", "YAML resume to load at startup")
	verbose := fs.BoolP("verbose", "v", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := Default()

	path := *configPath
	if path == "" {
		path = getenv("RESUME_CONFIG")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}

	if fs.Changed("addr") {
		cfg.Server.Addr = *addr
	}
	if fs.Changed("db") {
		cfg.Database.DSN = *dsn
	}
	if fs.Changed("storage") {
		cfg.Storage.Root = *storage
	}
	if fs.Changed("browser") {
		cfg.Browser.Path = *browser
	}
	if fs.Changed("download-browser") {
		cfg.Browser.Download = *download
	}
	if fs.Changed("timeout") {
		cfg.Browser.Timeout = timeout.String()
	}
	if fs.Changed("template") {
		cfg.Template = *template
	}
	if fs.Changed("seed") {
		cfg.Seed = *seed
	}
	if fs.Changed("verbose") {
		cfg.Verbose = *verbose
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}
	if info.Size() > MaxFileSize {
		return fmt.Errorf("%w: %s exceeds %d bytes", ErrConfigParse, path, MaxFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return c.Decode(data)
}

// Decode merges YAML data into c, rejecting unknown fields.
func (c *Config) Decode(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if err := yaml.UnmarshalWithOptions(data, c, yaml.Strict()); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigParse, err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	strs := map[string]*string{
		"RESUME_ADDR":             &c.Server.Addr,
		"RESUME_BASE_PATH":        &c.Server.BasePath,
		"RESUME_ARTIFACT_PATH":    &c.Server.ArtifactPath,
		"RESUME_DB_DSN":           &c.Database.DSN,
		"RESUME_STORAGE_ROOT":     &c.Storage.Root,
		"RESUME_STORAGE_BASE_URL": &c.Storage.BaseURL,
		"RESUME_BROWSER_PATH":     &c.Browser.Path,
		"RESUME_RENDER_TIMEOUT":   &c.Browser.Timeout,
		"RESUME_TEMPLATE":         &c.Template,
	}
	for key, dst := range strs {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"RESUME_BROWSER_DOWNLOAD": &c.Browser.Download,
		"RESUME_BROWSER_HEADLESS": &c.Browser.Headless,
		"RESUME_VERBOSE":          &c.Verbose,
	}
	for key, dst := range bools {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			continue
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidConfig, key, v)
		}
		*dst = parsed
	}
	return nil
}

// Validate checks durations, paths and page geometry.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("%w: server.addr is required", ErrInvalidConfig)
	}
	if !strings.HasPrefix(c.Server.BasePath, "/") || !strings.HasPrefix(c.Server.ArtifactPath, "/") {
		return fmt.Errorf("%w: route prefixes must start with /", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("%w: database.dsn is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Storage.Root) == "" {
		return fmt.Errorf("%w: storage.root is required", ErrInvalidConfig)
	}
	if c.Browser.MaxHTMLBytes < 0 {
		return fmt.Errorf("%w: browser.maxHTMLBytes must not be negative", ErrInvalidConfig)
	}
	if _, err := parsePositiveDuration("server.shutdownTimeout", c.Server.ShutdownTimeout); err != nil {
		return err
	}
	if _, err := parsePositiveDuration("browser.timeout", c.Browser.Timeout); err != nil {
		return err
	}
	if err := c.PageLayout().Validate(); err != nil {
		return fmt.Errorf("%w: layout: %w", ErrInvalidConfig, err)
	}
	// pages are printed on A4 paper; only the padding may vary
	if c.Layout.PageWidth != pagination.A4.PageWidth || c.Layout.PageHeight != pagination.A4.PageHeight {
		return fmt.Errorf("%w: layout: page size must be A4 (%gx%g px), got %gx%g",
			ErrInvalidConfig, pagination.A4.PageWidth, pagination.A4.PageHeight, c.Layout.PageWidth, c.Layout.PageHeight)
	}
	return nil
}

// PageLayout returns the configured page geometry.
func (c *Config) PageLayout() pagination.Layout {
	return pagination.Layout{
		PageWidth:  c.Layout.PageWidth,
		PageHeight: c.Layout.PageHeight,
		Padding:    c.Layout.Padding,
	}
}

// RenderTimeout returns the browser timeout. Call after Validate.
func (c *Config) RenderTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Browser.Timeout)
	return d
}

// ShutdownTimeout returns the graceful shutdown timeout. Call after Validate.
func (c *Config) ShutdownTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Server.ShutdownTimeout)
	return d
}

func parsePositiveDuration(field, value string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, field, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, field)
	}
	return d, nil
}
