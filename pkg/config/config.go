package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ErrInvalidConfig marks configuration that could not be read or failed validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all configuration for janitor
type Config struct {
	Repository RepositoryConfig  `mapstructure:"repository" json:"repository,omitempty"`
	NodeTypes  NodeTypesConfig   `mapstructure:"nodetypes" json:"nodetypes,omitempty"`
	Dimensions []DimensionConfig `mapstructure:"dimensions" json:"dimensions,omitempty"`
	Routing    RoutingConfig     `mapstructure:"routing" json:"routing,omitempty"`
	Report     ReportConfig      `mapstructure:"report" json:"report,omitempty"`

	// File is the config file that was read, empty when running on defaults.
	File string `mapstructure:"-" json:"-"`

	// overridden holds the path keys set by a flag or the environment.
	overridden map[string]bool
}

// RepositoryConfig selects the content repository backend
type RepositoryConfig struct {
	Driver string `mapstructure:"driver" json:"driver"` // "yaml" or "sqlite"
	Path   string `mapstructure:"path" json:"path,omitempty"`
}

// NodeTypesConfig describes where node type definitions live and which
// well-known types the commands rely on
type NodeTypesConfig struct {
	Paths          []string `mapstructure:"paths" json:"paths,omitempty"`
	Postprocessors []string `mapstructure:"postprocessors" json:"postprocessors,omitempty"`
	BaseType       string   `mapstructure:"base_type" json:"base_type,omitempty"`
	DocumentType   string   `mapstructure:"document_type" json:"document_type,omitempty"`
	ShortcutType   string   `mapstructure:"shortcut_type" json:"shortcut_type,omitempty"`
}

// DimensionConfig is one content dimension with its presets, in display order
type DimensionConfig struct {
	Name    string         `mapstructure:"name" json:"name,omitempty"`
	Default string         `mapstructure:"default" json:"default,omitempty"`
	Presets []PresetConfig `mapstructure:"presets" json:"presets,omitempty"`
}

// PresetConfig is one allowed value set of a dimension
type PresetConfig struct {
	Key        string   `mapstructure:"key" json:"key,omitempty"`
	Values     []string `mapstructure:"values" json:"values,omitempty"`
	URISegment string   `mapstructure:"uri_segment" json:"uri_segment,omitempty"`
	// Constraints restricts combinations: dimension name -> preset key (or "*") -> allowed
	Constraints map[string]map[string]bool `mapstructure:"constraints" json:"constraints,omitempty"`
}

// RoutingConfig configures canonical URI generation
type RoutingConfig struct {
	BaseURI string `mapstructure:"base_uri" json:"base_uri,omitempty"`
	Suffix  string `mapstructure:"suffix" json:"suffix,omitempty"`
}

// ReportConfig holds settings shared by the report commands
type ReportConfig struct {
	Concurrency int `mapstructure:"concurrency" json:"concurrency"`
}

var defaultConfig = Config{
	Repository: RepositoryConfig{
		Driver: "yaml",
		Path:   "content.yaml",
	},
	NodeTypes: NodeTypesConfig{
		Paths:          []string{"NodeTypes"},
		Postprocessors: []string{},
		BaseType:       "Neos.Neos:Node",
		DocumentType:   "Neos.Neos:Document",
		ShortcutType:   "Neos.Neos:Shortcut",
	},
	Routing: RoutingConfig{
		BaseURI: "https://domain.tld",
		Suffix:  ".html",
	},
	Report: ReportConfig{
		Concurrency: 1,
	},
}

// Default returns a copy of the built-in configuration.
func Default() *Config {
	c := defaultConfig
	c.NodeTypes.Paths = append([]string(nil), defaultConfig.NodeTypes.Paths...)
	c.NodeTypes.Postprocessors = []string{}
	return &c
}

// Options controls where LoadConfig looks for settings.
type Options struct {
	// ConfigFile is an explicit file; when empty the search paths are used.
	ConfigFile string
	// SearchPaths override the default search locations ("." and ~/.janitor).
	SearchPaths []string
	// Flags are bound on top of file and environment values.
	Flags *pflag.FlagSet
}

// flagBindings maps persistent CLI flags to config keys.
var flagBindings = map[string]string{
	"driver":      "repository.driver",
	"repository":  "repository.path",
	"node-types":  "nodetypes.paths",
	"concurrency": "report.concurrency",
	"base-uri":    "routing.base_uri",
}

// LoadConfig loads configuration from defaults, the config file, JANITOR_*
// environment variables and bound flags, in increasing precedence.
func LoadConfig(opts Options) (*Config, error) {
	v := viper.New()

	v.SetDefault("repository.driver", defaultConfig.Repository.Driver)
	v.SetDefault("repository.path", defaultConfig.Repository.Path)
	v.SetDefault("nodetypes.paths", defaultConfig.NodeTypes.Paths)
	v.SetDefault("nodetypes.postprocessors", []string{})
	v.SetDefault("nodetypes.base_type", defaultConfig.NodeTypes.BaseType)
	v.SetDefault("nodetypes.document_type", defaultConfig.NodeTypes.DocumentType)
	v.SetDefault("nodetypes.shortcut_type", defaultConfig.NodeTypes.ShortcutType)
	v.SetDefault("routing.base_uri", defaultConfig.Routing.BaseURI)
	v.SetDefault("routing.suffix", defaultConfig.Routing.Suffix)
	v.SetDefault("report.concurrency", defaultConfig.Report.Concurrency)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("janitor")
		paths := opts.SearchPaths
		if len(paths) == 0 {
			paths = []string{"."}
			if home, err := GetJanitorHome(); err == nil {
				paths = append(paths, home)
			}
		}
		for _, p := range paths {
			v.AddConfigPath(p)
		}
	}

	v.SetEnvPrefix("JANITOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// An explicit --config must exist; a missing searched file means defaults.
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrInvalidConfig, describeFile(v, opts), err)
		}
	}

	if opts.Flags != nil {
		for flagName, key := range flagBindings {
			if f := opts.Flags.Lookup(flagName); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("%w: binding --%s: %v", ErrInvalidConfig, flagName, err)
				}
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("%w: error unmarshaling config: %v", ErrInvalidConfig, err)
	}
	config.File = v.ConfigFileUsed()
	config.overridden = overriddenKeys(opts.Flags, "repository.path", "nodetypes.paths")

	if err := Validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func describeFile(v *viper.Viper, opts Options) string {
	if used := v.ConfigFileUsed(); used != "" {
		return used
	}
	if opts.ConfigFile != "" {
		return opts.ConfigFile
	}
	return "janitor config"
}

// overriddenKeys reports which of keys were set by a changed flag or a
// JANITOR_* environment variable.
func overriddenKeys(flags *pflag.FlagSet, keys ...string) map[string]bool {
	out := map[string]bool{}
	for _, key := range keys {
		env := "JANITOR_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if _, ok := os.LookupEnv(env); ok {
			out[key] = true
		}
	}
	if flags == nil {
		return out
	}
	for flagName, key := range flagBindings {
		if !slices.Contains(keys, key) {
			continue
		}
		if f := flags.Lookup(flagName); f != nil && f.Changed {
			out[key] = true
		}
	}
	return out
}

// ResolvePath makes p absolute relative to the directory of the config file
// that was read, or leaves it relative to the working directory.
func (c *Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) || c.File == "" {
		return p
	}
	return filepath.Join(filepath.Dir(c.File), p)
}

// resolveKey resolves p against the config file unless the value of key
// came from a flag or the environment.
func (c *Config) resolveKey(key, p string) string {
	if c.overridden[key] {
		return p
	}
	return c.ResolvePath(p)
}

// RepositoryPath returns the content repository location. Paths from the
// config file are relative to it; flag and environment values are relative
// to the working directory.
func (c *Config) RepositoryPath() string {
	return c.resolveKey("repository.path", c.Repository.Path)
}

// NodeTypePaths returns the node type locations, resolved like RepositoryPath.
func (c *Config) NodeTypePaths() []string {
	out := make([]string, 0, len(c.NodeTypes.Paths))
	for _, p := range c.NodeTypes.Paths {
		out = append(out, c.resolveKey("nodetypes.paths", p))
	}
	return out
}

// GetJanitorHome returns the janitor home directory
func GetJanitorHome() (string, error) {
	if home := os.Getenv("JANITOR_HOME"); home != "" {
		return home, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %v", err)
	}

	return filepath.Join(homeDir, ".janitor"), nil
}
