package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/grovetools/widgetdeck/errors"
	"github.com/grovetools/widgetdeck/pkg/paths"
	"github.com/mitchellh/mapstructure"
)

// Storage backend names.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// DefaultStateKey is the key the application state is persisted under.
const DefaultStateKey = "app-state"

// Config is the widgetdeck configuration file.
type Config struct {
	Version  string         `yaml:"version" toml:"version" jsonschema:"description=Configuration version (e.g. '1.0')"`
	Storage  StorageConfig  `yaml:"storage,omitempty" toml:"storage,omitempty" jsonschema:"description=Where application state is persisted"`
	MemSaver MemSaverConfig `yaml:"memsaver,omitempty" toml:"memsaver,omitempty" jsonschema:"description=Application-wide memory saver defaults"`

	// Extensions holds every other top-level section (e.g. "logging").
	// Decode a section with UnmarshalExtension.
	Extensions map[string]interface{} `yaml:",inline" toml:"-" jsonschema:"-"`
}

// StorageConfig selects and configures the key/value backend.
type StorageConfig struct {
	Backend string `yaml:"backend,omitempty" toml:"backend,omitempty" jsonschema:"enum=memory,enum=file,enum=sqlite,enum=redis,description=Storage backend"`
	// Path is a directory for the file backend and a database file for sqlite.
	Path string `yaml:"path,omitempty" toml:"path,omitempty" jsonschema:"description=Directory (file) or database path (sqlite)"`
	Key  string `yaml:"key,omitempty" toml:"key,omitempty" jsonschema:"description=Key the application state is stored under"`
	// SaveTimeout bounds a single background save, e.g. "5s".
	SaveTimeout string      `yaml:"save_timeout,omitempty" toml:"save_timeout,omitempty" jsonschema:"description=Timeout of a single background save (Go duration)"`
	Redis       RedisConfig `yaml:"redis,omitempty" toml:"redis,omitempty" jsonschema:"description=Redis connection settings"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr     string `yaml:"addr,omitempty" toml:"addr,omitempty"`
	Password string `yaml:"password,omitempty" toml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty" toml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty" toml:"prefix,omitempty"`
}

// MemSaverConfig holds application-level memory saver values. Unset fields
// leave the value stored in the application state untouched.
type MemSaverConfig struct {
	ActivateWorkflowsOnProjectSwitch *bool `yaml:"activate_workflows_on_project_switch,omitempty" toml:"activate_workflows_on_project_switch,omitempty" jsonschema:"description=Activate every workflow of a project when switching into it"`
	// WorkflowInactiveAfter is in minutes: 0 deactivates immediately, negative never.
	WorkflowInactiveAfter *int `yaml:"workflow_inactive_after,omitempty" toml:"workflow_inactive_after,omitempty" jsonschema:"description=Minutes before an inactive workflow is released (0 = immediately; negative = never)"`
}

// SetDefaults fills in unset values.
func (c *Config) SetDefaults() {
	if c.Version == "" {
		c.Version = "1.0"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendFile
	}
	if c.Storage.Key == "" {
		c.Storage.Key = DefaultStateKey
	}
	if c.Storage.SaveTimeout == "" {
		c.Storage.SaveTimeout = "5s"
	}
	if c.Storage.Path == "" {
		switch c.Storage.Backend {
		case BackendFile:
			c.Storage.Path = filepath.Join(paths.StateDir(), "state")
		case BackendSQLite:
			c.Storage.Path = filepath.Join(paths.StateDir(), "widgetdeck.db")
		}
	}
	if c.Storage.Backend == BackendRedis && c.Storage.Redis.Prefix == "" {
		c.Storage.Redis.Prefix = "widgetdeck:"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendFile, BackendSQLite:
	case BackendRedis:
		if c.Storage.Redis.Addr == "" {
			return errors.New(errors.ErrCodeConfigValidation, "storage.redis.addr is required for the redis backend")
		}
	default:
		return errors.New(errors.ErrCodeConfigValidation,
			fmt.Sprintf("unknown storage backend %q", c.Storage.Backend)).
			WithDetail("backend", c.Storage.Backend)
	}

	if (c.Storage.Backend == BackendFile || c.Storage.Backend == BackendSQLite) && c.Storage.Path == "" {
		return errors.New(errors.ErrCodeConfigValidation, "storage.path is required for the "+c.Storage.Backend+" backend")
	}

	if _, err := time.ParseDuration(c.Storage.SaveTimeout); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigValidation, "storage.save_timeout is not a valid duration").
			WithDetail("value", c.Storage.SaveTimeout)
	}

	return nil
}

// SaveTimeoutDuration returns the parsed save timeout, falling back to 5s.
func (s StorageConfig) SaveTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(s.SaveTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// UnmarshalExtension decodes a top-level extension section into target.
//
// Example:
//
//	var logCfg logging.Config
//	err := cfg.UnmarshalExtension("logging", &logCfg)
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		// It's not an error if the key doesn't exist.
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  target,
		TagName: "yaml",
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}

	return nil
}

// ConfigSource identifies the origin of a configuration layer.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceGlobal   ConfigSource = "global"
	SourceProject  ConfigSource = "project"
	SourceOverride ConfigSource = "override"
)

// OverrideSource holds a raw configuration from an override file and its path.
type OverrideSource struct {
	Path   string
	Config *Config
}

// LayeredConfig holds the raw configuration from each source file,
// as well as the final merged configuration.
type LayeredConfig struct {
	Global    *Config                 // Raw config from the global file.
	Project   *Config                 // Raw config from the project file.
	Overrides []OverrideSource        // Raw configs from override files, in order of application.
	Final     *Config                 // The fully merged and validated config.
	FilePaths map[ConfigSource]string // Maps sources to their file paths.
}

// Files returns every file that contributed to the final configuration.
func (l *LayeredConfig) Files() []string {
	var files []string
	if p, ok := l.FilePaths[SourceGlobal]; ok {
		files = append(files, p)
	}
	if p, ok := l.FilePaths[SourceProject]; ok {
		files = append(files, p)
	}
	for _, o := range l.Overrides {
		files = append(files, o.Path)
	}
	return files
}
