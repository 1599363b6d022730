package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/grovetools/widgetdeck/errors"
	"github.com/grovetools/widgetdeck/pkg/paths"
	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// configNames are searched in order in every directory.
var configNames = []string{
	"widgetdeck.yml",
	"widgetdeck.yaml",
	"widgetdeck.toml",
	".widgetdeck.yml",
	".widgetdeck.yaml",
}

var overrideNames = []string{
	"widgetdeck.override.yml",
	"widgetdeck.override.yaml",
	".widgetdeck.override.yml",
	".widgetdeck.override.yaml",
}

// Load reads, parses, defaults and validates a single configuration file.
func Load(path string) (*Config, error) {
	cfg, err := parseFile(path)
	if err != nil {
		return nil, err
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromBytes parses YAML configuration from a byte slice.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg, err := parseYAML(data)
	if err != nil {
		return nil, err
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault loads the layered configuration starting from the working directory.
func LoadDefault() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to get current directory")
	}

	return LoadFrom(cwd)
}

// LoadFrom loads configuration with hierarchical merging starting from the given directory.
func LoadFrom(startDir string) (*Config, error) {
	layered, err := LoadLayeredWithLogger(startDir, logrus.New())
	if err != nil {
		return nil, err
	}
	return layered.Final, nil
}

// LoadLayeredWithLogger loads every configuration layer and merges them:
//  1. Global config (<config dir>/widgetdeck.yml), optional
//  2. Project config (widgetdeck.yml/.yaml/.toml, searched upward), optional
//  3. Local override (widgetdeck.override.yml next to the project config)
//
// Missing files are not an error; built-in defaults apply. A file that exists
// but cannot be parsed is an error, except the global file which is skipped
// with a warning.
func LoadLayeredWithLogger(startDir string, logger *logrus.Logger) (*LayeredConfig, error) {
	layered := &LayeredConfig{
		FilePaths: make(map[ConfigSource]string),
	}
	merged := &Config{}

	if globalPath := GlobalConfigPath(); globalPath != "" {
		if _, err := os.Stat(globalPath); err == nil {
			logger.WithField("path", globalPath).Debug("Loading global configuration")
			globalCfg, err := parseFile(globalPath)
			if err != nil {
				logger.WithError(err).Warn("Failed to load global configuration, continuing without it")
			} else {
				layered.Global = globalCfg
				layered.FilePaths[SourceGlobal] = globalPath
				merged = mergeConfigs(merged, globalCfg)
			}
		}
	}

	projectPath, err := FindConfigFile(startDir)
	if err == nil {
		logger.WithField("path", projectPath).Debug("Loading project configuration")
		projectCfg, err := parseFile(projectPath)
		if err != nil {
			return nil, err
		}
		layered.Project = projectCfg
		layered.FilePaths[SourceProject] = projectPath
		merged = mergeConfigs(merged, projectCfg)

		for _, name := range overrideNames {
			overridePath := filepath.Join(filepath.Dir(projectPath), name)
			if _, err := os.Stat(overridePath); err != nil {
				continue
			}
			logger.WithField("path", overridePath).Debug("Loading local override configuration")
			overrideCfg, err := parseFile(overridePath)
			if err != nil {
				logger.WithError(err).Warn("Failed to parse override file, skipping")
				continue
			}
			layered.Overrides = append(layered.Overrides, OverrideSource{Path: overridePath, Config: overrideCfg})
			merged = mergeConfigs(merged, overrideCfg)
		}
	} else if !errors.Is(err, errors.ErrCodeConfigNotFound) {
		return nil, err
	}

	merged.SetDefaults()
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	layered.Final = merged

	if logger.IsLevelEnabled(logrus.DebugLevel) {
		if data, err := yaml.Marshal(merged); err == nil {
			logger.Debugf("Merged configuration:\n%s", string(data))
		}
	}

	return layered, nil
}

// FindConfigFile searches from startDir up to the filesystem root for a
// project configuration file.
func FindConfigFile(startDir string) (string, error) {
	dir := startDir
	for {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", errors.ConfigNotFound(startDir).WithDetail("searchPath", startDir)
}

// GlobalConfigPath returns the path of the user-wide configuration file.
func GlobalConfigPath() string {
	dir := paths.ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "widgetdeck.yml")
}

func parseFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}

	var cfg *Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		cfg, err = parseTOML(data)
	} else {
		cfg, err = parseYAML(data)
	}
	if err != nil {
		if e, ok := err.(*errors.Error); ok {
			return nil, e.WithDetail("path", path)
		}
		return nil, err
	}
	return cfg, nil
}

func parseYAML(data []byte) (*Config, error) {
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse YAML configuration")
	}
	return &cfg, nil
}

// parseTOML decodes the typed sections and keeps every other top-level table
// as an extension, mirroring the inline map used for YAML.
func parseTOML(data []byte) (*Config, error) {
	expanded := []byte(expandEnvVars(string(data)))

	var cfg Config
	if err := toml.Unmarshal(expanded, &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse TOML configuration")
	}

	var raw map[string]interface{}
	if err := toml.Unmarshal(expanded, &raw); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse TOML configuration")
	}
	for key, value := range raw {
		switch key {
		case "version", "storage", "memsaver":
			continue
		}
		if cfg.Extensions == nil {
			cfg.Extensions = make(map[string]interface{})
		}
		cfg.Extensions[key] = value
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment values.
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		varName := envVarRegex.FindStringSubmatch(match)[1]

		parts := strings.SplitN(varName, ":-", 2)
		varName = parts[0]
		defaultValue := ""
		if len(parts) > 1 {
			defaultValue = parts[1]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultValue
	})
}
