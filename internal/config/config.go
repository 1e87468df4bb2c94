package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/spendsync/internal/errors"
)

// ConfigFileNames are looked up in order by Load.
var ConfigFileNames = []string{"spendsync.yaml", "spendsync.yml", "spendsync.json"}

const (
	// DefaultBaseURL is the default remote API address.
	DefaultBaseURL = "http://localhost:8080"

	// DefaultTimeout bounds a single remote write.
	DefaultTimeout = "30s"

	// DefaultLocale is the default UI language.
	DefaultLocale = "en"

	// DefaultMaxAttachmentSize is the default attachment size limit (25 MiB).
	DefaultMaxAttachmentSize = 25 << 20

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "SPENDSYNC_"
)

// Transports.
const (
	TransportHTTP = "http"
	TransportWS   = "ws"
)

// Attachment backends.
const (
	BackendMemory = "memory"
	BackendDisk   = "disk"
	BackendS3     = "s3"
)

// Config is the spendsync configuration.
type Config struct {
	API         APIConfig        `json:"api" yaml:"api"`
	Locale      string           `json:"locale,omitempty" yaml:"locale,omitempty"`
	Log         LogConfig        `json:"log" yaml:"log"`
	Metrics     MetricsConfig    `json:"metrics" yaml:"metrics"`
	Attachments AttachmentConfig `json:"attachments" yaml:"attachments"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// APIConfig configures the remote API connection.
type APIConfig struct {
	// BaseURL is the API root. Commands are posted to BaseURL/api/{command};
	// the WebSocket transport dials BaseURL/ws.
	BaseURL string `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`

	// Transport is "http" or "ws".
	Transport string `json:"transport,omitempty" yaml:"transport,omitempty"`

	// Timeout bounds one write, e.g. "30s". "0" disables it.
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	Retry RetryConfig `json:"retry" yaml:"retry"`
}

// RetryConfig configures HTTP retries.
type RetryConfig struct {
	InitialInterval string `json:"initialInterval,omitempty" yaml:"initialInterval,omitempty"`
	MaxElapsed      string `json:"maxElapsed,omitempty" yaml:"maxElapsed,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// AttachmentConfig configures attachment storage.
type AttachmentConfig struct {
	// Backend is memory, disk or s3.
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`

	// Dir is the disk backend directory.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`

	// Bucket, Prefix and Region configure the s3 backend.
	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Region string `json:"region,omitempty" yaml:"region,omitempty"`

	// MaxSize is the largest accepted attachment in bytes.
	MaxSize int64 `json:"maxSize,omitempty" yaml:"maxSize,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads the first config file found in dir.
func Load(dir string) (*Config, error) {
	for _, name := range ConfigFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("S100").
		WithDetail("No spendsync.yaml or spendsync.json found in " + dir).
		WithSuggestion("Create spendsync.yaml or pass --config")
}

// LoadFile reads configuration from path. The format follows the file
// extension. Defaults fill empty fields and environment overrides are
// applied on top.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("S100").WithDetail("No config file at " + path)
		}
		return nil, errors.New("S100").Wrap(err)
	}

	cfg := &Config{}
	if err := unmarshal(path, data, cfg); err != nil {
		return nil, err
	}

	cfg.configPath = path
	cfg.applyDefaults()
	cfg.ApplyEnv(os.Getenv)

	return cfg, nil
}

func unmarshal(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return errors.New("S100").
				WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
				WithSuggestion("Check that the file is valid JSON")
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return errors.New("S100").
				WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
				WithSuggestion("Check that the file is valid YAML")
		}
	default:
		return errors.New("S102").WithDetail("Unsupported file " + filepath.Base(path))
	}
	return nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to path in the format of its extension.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		return errors.New("S102").WithDetail("Unsupported file " + filepath.Base(path))
	}
	if err != nil {
		return errors.New("S100").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("S100").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	// API
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.Transport == "" {
		c.API.Transport = TransportHTTP
	}
	if c.API.Timeout == "" {
		c.API.Timeout = DefaultTimeout
	}
	if c.API.Retry.InitialInterval == "" {
		c.API.Retry.InitialInterval = "200ms"
	}
	if c.API.Retry.MaxElapsed == "" {
		c.API.Retry.MaxElapsed = "5s"
	}

	if c.Locale == "" {
		c.Locale = DefaultLocale
	}

	// Logging
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "spendsync"
	}

	// Attachments
	if c.Attachments.Backend == "" {
		c.Attachments.Backend = BackendMemory
	}
	if c.Attachments.Dir == "" {
		c.Attachments.Dir = "attachments"
	}
	if c.Attachments.Prefix == "" {
		c.Attachments.Prefix = "attachments/"
	}
	if c.Attachments.MaxSize == 0 {
		c.Attachments.MaxSize = DefaultMaxAttachmentSize
	}
}

// ApplyEnv applies SPENDSYNC_* overrides read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	overrides := []struct {
		name string
		dst  *string
	}{
		{"API_BASE_URL", &c.API.BaseURL},
		{"API_TRANSPORT", &c.API.Transport},
		{"API_TIMEOUT", &c.API.Timeout},
		{"LOCALE", &c.Locale},
		{"LOG_LEVEL", &c.Log.Level},
		{"LOG_FORMAT", &c.Log.Format},
		{"ATTACHMENTS_BACKEND", &c.Attachments.Backend},
		{"ATTACHMENTS_DIR", &c.Attachments.Dir},
		{"ATTACHMENTS_BUCKET", &c.Attachments.Bucket},
	}
	for _, o := range overrides {
		if v := getenv(EnvPrefix + o.name); v != "" {
			*o.dst = v
		}
	}
	if v := getenv(EnvPrefix + "ATTACHMENTS_MAX_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Attachments.MaxSize = n
		}
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return errors.New("S101").
			WithDetail("api.baseURL must be an http or https URL, got " + strconv.Quote(c.API.BaseURL))
	}
	switch c.API.Transport {
	case TransportHTTP, TransportWS:
	default:
		return errors.New("S101").
			WithDetail("api.transport must be http or ws, got " + strconv.Quote(c.API.Transport))
	}
	for name, v := range map[string]string{
		"api.timeout":               c.API.Timeout,
		"api.retry.initialInterval": c.API.Retry.InitialInterval,
		"api.retry.maxElapsed":      c.API.Retry.MaxElapsed,
	} {
		if d, err := time.ParseDuration(v); err != nil || d < 0 {
			return errors.New("S101").WithDetail(name + " must be a duration such as 30s, got " + strconv.Quote(v))
		}
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return errors.New("S101").WithDetail("log.level must be debug, info, warn or error")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New("S101").WithDetail("log.format must be text or json")
	}
	switch c.Attachments.Backend {
	case BackendMemory, BackendDisk:
	case BackendS3:
		if c.Attachments.Bucket == "" {
			return errors.New("S101").
				WithDetail("attachments.bucket is required for the s3 backend")
		}
	default:
		return errors.New("S101").
			WithDetail("attachments.backend must be memory, disk or s3, got " + strconv.Quote(c.Attachments.Backend))
	}
	if c.Attachments.MaxSize < 0 {
		return errors.New("S101").WithDetail("attachments.maxSize must not be negative")
	}
	return nil
}

// Timeout returns the parsed API timeout. Invalid values yield zero.
func (c *Config) Timeout() time.Duration {
	d, _ := time.ParseDuration(c.API.Timeout)
	return d
}

// RetryInitialInterval returns the parsed first retry delay.
func (c *Config) RetryInitialInterval() time.Duration {
	d, _ := time.ParseDuration(c.API.Retry.InitialInterval)
	return d
}

// RetryMaxElapsed returns the parsed retry budget.
func (c *Config) RetryMaxElapsed() time.Duration {
	d, _ := time.ParseDuration(c.API.Retry.MaxElapsed)
	return d
}

// WebSocketURL returns the ws:// or wss:// address of the push endpoint.
func (c *Config) WebSocketURL() string {
	base := strings.TrimRight(c.API.BaseURL, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/ws"
}

// AttachmentDir returns the absolute path of the disk backend directory.
func (c *Config) AttachmentDir() string {
	if filepath.IsAbs(c.Attachments.Dir) {
		return c.Attachments.Dir
	}
	return filepath.Join(c.Dir(), c.Attachments.Dir)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range ConfigFileNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// FindProjectRoot walks up directories to find one holding a config file.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("S100").
				WithDetail("No spendsync config found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the working directory or its
// parents. When none is found it returns defaults with environment
// overrides applied.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		cfg := New()
		cfg.ApplyEnv(os.Getenv)
		return cfg, nil
	}

	return Load(root)
}
