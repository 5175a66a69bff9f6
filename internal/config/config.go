// Package config manages fsclass configuration: browsable roots, server, logging and label overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/CageChen/fsclass/internal/classify"
	"github.com/CageChen/fsclass/internal/logging"
)

// Config errors
var (
	// ErrConfigNotFound indicates an explicitly requested config file is missing
	ErrConfigNotFound = errors.New("config file not found")

	// ErrConfigInvalid indicates the config file is malformed or inconsistent
	ErrConfigInvalid = errors.New("invalid config")
)

// Root is a directory (or git ref of a repository) exposed under an alias
type Root struct {
	Path   string `yaml:"path" mapstructure:"path" json:"path"`
	Alias  string `yaml:"alias" mapstructure:"alias" json:"alias"`
	GitRef string `yaml:"git_ref,omitempty" mapstructure:"git_ref" json:"git_ref,omitempty"`
}

// LogConfig mirrors logging.Config in the config file
type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`
	Format     string `yaml:"format" mapstructure:"format"`
	File       string `yaml:"file,omitempty" mapstructure:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups,omitempty" mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days,omitempty" mapstructure:"max_age_days"`
	Compress   bool   `yaml:"compress,omitempty" mapstructure:"compress"`
}

// Config holds all configuration options for fsclass
type Config struct {
	Roots   []Root   `yaml:"roots,omitempty" mapstructure:"roots"`
	Port    int      `yaml:"port" mapstructure:"port"`
	Watch   bool     `yaml:"watch" mapstructure:"watch"`
	Open    bool     `yaml:"open" mapstructure:"open"`
	Exclude []string `yaml:"exclude" mapstructure:"exclude"`

	// Extra extension labels, merged over the built-in table. LabelsFile is
	// applied first, then Labels.
	LabelsFile string            `yaml:"labels_file,omitempty" mapstructure:"labels_file"`
	Labels     map[string]string `yaml:"labels,omitempty" mapstructure:"labels"`

	PreviewMaxBytes int64     `yaml:"preview_max_bytes" mapstructure:"preview_max_bytes"`
	Languages       bool      `yaml:"languages" mapstructure:"languages"`
	Metrics         bool      `yaml:"metrics" mapstructure:"metrics"`
	Log             LogConfig `yaml:"log" mapstructure:"log"`

	// Internal: path to config file for saving
	configPath string
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Port:            8080,
		Watch:           true,
		Exclude:         []string{".git", ".svn", "node_modules"},
		PreviewMaxBytes: 256 << 10,
		Languages:       true,
		Metrics:         true,
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// GetConfigDir returns the config directory path
func GetConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/fsclass"
	}
	return filepath.Join(home, ".config", "fsclass")
}

// GetConfigPath returns the full path to the default config file
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), "fsclass.yaml")
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("roots", []Root{})
	v.SetDefault("port", d.Port)
	v.SetDefault("watch", d.Watch)
	v.SetDefault("open", d.Open)
	v.SetDefault("exclude", d.Exclude)
	v.SetDefault("labels_file", d.LabelsFile)
	v.SetDefault("labels", map[string]string{})
	v.SetDefault("preview_max_bytes", d.PreviewMaxBytes)
	v.SetDefault("languages", d.Languages)
	v.SetDefault("metrics", d.Metrics)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.compress", false)
}

// Load reads configuration. An explicit path must exist; otherwise "fsclass.yaml"
// is searched in the working directory and the user config directory, and
// defaults are used when none is found. FSCLASS_* environment variables
// override file values (FSCLASS_LOG_LEVEL for log.level).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix("fsclass")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("fsclass")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(GetConfigDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}

	cfg.configPath = v.ConfigFileUsed()
	if cfg.configPath == "" {
		cfg.configPath = GetConfigPath()
	}

	cfg.normalizeRoots()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalizeRoots resolves root paths to absolute and fills missing aliases
func (c *Config) normalizeRoots() {
	for i := range c.Roots {
		if absPath, err := filepath.Abs(c.Roots[i].Path); err == nil {
			c.Roots[i].Path = absPath
		}
		if c.Roots[i].Alias == "" {
			c.Roots[i].Alias = defaultAlias(c.Roots[i].Path, c.Roots[i].GitRef)
		}
	}
}

func defaultAlias(absPath, gitRef string) string {
	alias := filepath.Base(absPath)
	if gitRef != "" {
		alias += "@" + gitRef
	}
	return alias
}

// Validate checks that every root has a usable, unique alias
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Roots))
	for _, r := range c.Roots {
		if r.Path == "" {
			return fmt.Errorf("%w: root %q has no path", ErrConfigInvalid, r.Alias)
		}
		if r.Alias == "" || strings.ContainsAny(r.Alias, `/\`) {
			return fmt.Errorf("%w: invalid alias %q", ErrConfigInvalid, r.Alias)
		}
		if seen[r.Alias] {
			return fmt.Errorf("%w: duplicate alias %q", ErrConfigInvalid, r.Alias)
		}
		seen[r.Alias] = true
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrConfigInvalid, c.Port)
	}
	return nil
}

// Save saves the current configuration to the config file
func (c *Config) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.configPath), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(c.configPath, data, 0644)
}

// SetConfigFilePath changes where Save writes
func (c *Config) SetConfigFilePath(path string) {
	c.configPath = path
}

// GetConfigFilePath returns the path to the config file
func (c *Config) GetConfigFilePath() string {
	return c.configPath
}

// AddRoot adds a root with the given path, alias and git ref. Adding a root
// that is already configured is a no-op. On error the roots are unchanged.
func (c *Config) AddRoot(path, alias, gitRef string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	for _, r := range c.Roots {
		if r.Path == absPath && r.GitRef == gitRef {
			return nil
		}
	}

	if alias == "" {
		alias = defaultAlias(absPath, gitRef)
	}
	for _, r := range c.Roots {
		if r.Alias == alias {
			return fmt.Errorf("%w: duplicate alias %q", ErrConfigInvalid, alias)
		}
	}

	prev := c.Roots
	c.Roots = append(c.Roots[:len(c.Roots):len(c.Roots)], Root{Path: absPath, Alias: alias, GitRef: gitRef})
	if err := c.Validate(); err != nil {
		c.Roots = prev
		return err
	}
	return nil
}

// RemoveRootByIndex removes a root by its index
func (c *Config) RemoveRootByIndex(index int) {
	if index < 0 || index >= len(c.Roots) {
		return
	}
	c.Roots = append(c.Roots[:index], c.Roots[index+1:]...)
}

// FindRoot returns the root with the given alias
func (c *Config) FindRoot(alias string) (Root, bool) {
	for _, r := range c.Roots {
		if r.Alias == alias {
			return r, true
		}
	}
	return Root{}, false
}

// IsExcluded checks if a path's base name matches a global exclude pattern
func (c *Config) IsExcluded(path string) bool {
	base := filepath.Base(path)
	for _, exclude := range c.Exclude {
		if matched, _ := filepath.Match(exclude, base); matched {
			return true
		}
	}
	return false
}

// Labeler builds the extension labeler: built-in table, then LabelsFile, then Labels
func (c *Config) Labeler() (*classify.Labeler, error) {
	l := classify.DefaultLabeler()
	if c.LabelsFile != "" {
		table, err := classify.LoadLabelFile(c.LabelsFile)
		if err != nil {
			return nil, fmt.Errorf("%w: labels_file: %v", ErrConfigInvalid, err)
		}
		l = l.With(table)
	}
	if len(c.Labels) > 0 {
		l = l.With(c.Labels)
	}
	return l, nil
}

// Logging converts the log section for logging.New
func (c *Config) Logging() logging.Config {
	return logging.Config{
		Level:      c.Log.Level,
		Format:     c.Log.Format,
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
		Compress:   c.Log.Compress,
	}
}
