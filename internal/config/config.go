package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vango-dev/fiber/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "fiber.json"

	// DefaultPort is the default render server port.
	DefaultPort = 7070

	// DefaultHost is the default render server host.
	DefaultHost = "localhost"

	// DefaultContainerTag is the tag of the host container element.
	DefaultContainerTag = "body"

	// DefaultSnapshotName is the object name used for published snapshots.
	DefaultSnapshotName = "index.html"

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "fiber"
)

// Default scheduler timings, in time.ParseDuration form.
const (
	DefaultSliceBudget  = "16ms"
	DefaultMaxWait      = "500ms"
	DefaultPollInterval = "5ms"
	DefaultMinRemaining = "1ms"
)

// Config represents the complete fiber.json configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	Scheduler SchedulerConfig `json:"scheduler"`
	Server    ServerConfig    `json:"server"`
	Log       LogConfig       `json:"log"`
	Publish   PublishConfig   `json:"publish"`
	Metrics   MetricsConfig   `json:"metrics"`

	// configPath is the path where the config was loaded from.
	configPath string
}

// SchedulerConfig holds work loop timings as duration strings ("16ms").
type SchedulerConfig struct {
	// SliceBudget is the idle time granted to each work loop slice.
	SliceBudget string `json:"sliceBudget,omitempty"`

	// MaxWait bounds how long a pending slice waits for the loop to go idle.
	MaxWait string `json:"maxWait,omitempty"`

	// PollInterval is how often the loop checks for idleness.
	PollInterval string `json:"pollInterval,omitempty"`

	// MinRemaining is the idle time below which the work loop yields.
	MinRemaining string `json:"minRemaining,omitempty"`
}

// Timings is SchedulerConfig with parsed durations.
type Timings struct {
	SliceBudget  time.Duration
	MaxWait      time.Duration
	PollInterval time.Duration
	MinRemaining time.Duration
}

// ServerConfig configures the render server.
type ServerConfig struct {
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`

	// ContainerTag is the tag of the container the tree renders into.
	ContainerTag string `json:"containerTag,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty"`
}

// PublishConfig configures snapshot publishing to S3.
// Publishing is disabled while Bucket is empty.
type PublishConfig struct {
	Bucket   string `json:"bucket,omitempty"`
	Prefix   string `json:"prefix,omitempty"`
	Region   string `json:"region,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`

	// Name is the object name of the snapshot, appended to Prefix.
	Name string `json:"name,omitempty"`

	// PathStyle forces path-style addressing, as needed by most
	// S3-compatible stores.
	PathStyle bool `json:"pathStyle,omitempty"`
}

// MetricsConfig configures Prometheus collectors.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled"`
	Namespace string `json:"namespace,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Scheduler: SchedulerConfig{
			SliceBudget:  DefaultSliceBudget,
			MaxWait:      DefaultMaxWait,
			PollInterval: DefaultPollInterval,
			MinRemaining: DefaultMinRemaining,
		},
		Server: ServerConfig{
			Host:         DefaultHost,
			Port:         DefaultPort,
			ContainerTag: DefaultContainerTag,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Publish: PublishConfig{
			Region: "us-east-1",
			Name:   DefaultSnapshotName,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultNamespace,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for fiber.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E202").
				WithDetail("No fiber.json found in " + filepath.Dir(path)).
				WithSuggestion("Create fiber.json or run without --config to use defaults")
		}
		return nil, errors.New("E201").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E201").
			WithDetail("Failed to parse fiber.json: " + err.Error()).
			WithSuggestion("Check that fiber.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E201").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E201").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	// Scheduler
	if c.Scheduler.SliceBudget == "" {
		c.Scheduler.SliceBudget = DefaultSliceBudget
	}
	if c.Scheduler.MaxWait == "" {
		c.Scheduler.MaxWait = DefaultMaxWait
	}
	if c.Scheduler.PollInterval == "" {
		c.Scheduler.PollInterval = DefaultPollInterval
	}
	if c.Scheduler.MinRemaining == "" {
		c.Scheduler.MinRemaining = DefaultMinRemaining
	}

	// Server
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.ContainerTag == "" {
		c.Server.ContainerTag = DefaultContainerTag
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	// Publish
	if c.Publish.Name == "" {
		c.Publish.Name = DefaultSnapshotName
	}
	if c.Publish.Region == "" {
		c.Publish.Region = "us-east-1"
	}

	// Metrics
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := c.Timings(); err != nil {
		return err
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("E204").
			WithDetail("server.port is " + strconv.Itoa(c.Server.Port))
	}
	if _, ok := parseLevel(c.Log.Level); !ok {
		return errors.New("E205").
			WithDetail("Unknown log level " + strconv.Quote(c.Log.Level))
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		return errors.New("E205").
			WithDetail("Unknown log format " + strconv.Quote(c.Log.Format))
	}
	return nil
}

// Timings parses the scheduler durations.
func (c *Config) Timings() (Timings, error) {
	var t Timings
	fields := []struct {
		name  string
		value string
		dst   *time.Duration
		zero  bool
	}{
		{"sliceBudget", c.Scheduler.SliceBudget, &t.SliceBudget, false},
		{"maxWait", c.Scheduler.MaxWait, &t.MaxWait, false},
		{"pollInterval", c.Scheduler.PollInterval, &t.PollInterval, false},
		{"minRemaining", c.Scheduler.MinRemaining, &t.MinRemaining, true},
	}
	for _, f := range fields {
		d, err := time.ParseDuration(f.value)
		if err != nil {
			return Timings{}, errors.New("E203").
				WithDetail("scheduler." + f.name + ": " + err.Error())
		}
		if d < 0 || (d == 0 && !f.zero) {
			return Timings{}, errors.New("E203").
				WithDetail("scheduler." + f.name + " must be positive, got " + f.value)
		}
		*f.dst = d
	}
	return t, nil
}

// Address returns the listen address of the render server.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// SlogLevel returns the configured log level, or slog.LevelInfo if it is
// not recognized.
func (c *Config) SlogLevel() slog.Level {
	level, _ := parseLevel(c.Log.Level)
	return level
}

// PublishEnabled reports whether snapshots should be published.
func (c *Config) PublishEnabled() bool {
	return c.Publish.Bucket != ""
}

// SnapshotKey returns the object key of the published snapshot.
func (c *PublishConfig) SnapshotKey() string {
	return c.Prefix + c.Name
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}
