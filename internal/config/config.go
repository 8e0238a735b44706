// Package config provides site configuration loading for basalt using Viper
// for flexible configuration from the project YAML file, environment
// variables with the BASALT_ prefix, and bound command-line flags.
//
// A project is any directory containing a basalt.yaml; discovery walks
// upward from the working directory so commands work from anywhere inside
// the project tree.
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/basalt-ssg/basalt/internal/errors"
)

const (
	// ConfigFileName is the name of the project configuration file.
	ConfigFileName = "basalt.yaml"

	// RunStateFileName is the name of the dev server run-state file.
	RunStateFileName = ".basalt-server.run"

	// SourcesDirName holds Markdown content sources.
	SourcesDirName = "source"

	// DraftsDirName is the per-section drafts directory name.
	DraftsDirName = ".drafts"

	// StaticDirName holds site-level static assets.
	StaticDirName = "static"

	// ThemesDirName holds theme directories.
	ThemesDirName = "theme"

	// ExtensionDirName holds project extension files.
	ExtensionDirName = "extension"

	// TargetDirName is the build output directory.
	TargetDirName = "target"

	// ThemeTemplatesDirName is the templates directory inside a theme.
	ThemeTemplatesDirName = "templates"

	// ThemeStaticDirName is the static directory inside a theme.
	ThemeStaticDirName = "static"

	// ThemeSettingsFileName is the per-theme settings file.
	ThemeSettingsFileName = "theme.yaml"

	// MarkdownExt is the extension of Markdown source files.
	MarkdownExt = ".md"
)

// Config holds the resolved site configuration and project layout.
type Config struct {
	Name             string     `mapstructure:"name"`
	URL              string     `mapstructure:"url"`
	Description      string     `mapstructure:"description"`
	Author           string     `mapstructure:"author"`
	Language         string     `mapstructure:"language"`
	SlugReplacements [][]string `mapstructure:"slug_replacements"`
	Theme            ThemeRef   `mapstructure:"theme"`

	// ProjectDir is the absolute path of the directory containing the
	// config file. Not read from the file itself.
	ProjectDir string `mapstructure:"-"`

	// WithDrafts marks whether draft sources are included in builds. Set by
	// the CLI or the run-state file, never from the config file.
	WithDrafts bool `mapstructure:"-"`
}

// ThemeRef selects and parameterizes the active theme.
type ThemeRef struct {
	Name string `mapstructure:"name"`
}

// Load reads the project configuration starting the project lookup at
// startDir. It returns a config-typed error when no project is found or
// when the file cannot be parsed.
func Load(startDir string) (*Config, error) {
	projectDir, err := FindProjectDir(startDir)
	if err != nil {
		return nil, err
	}
	return LoadFrom(filepath.Join(projectDir, ConfigFileName))
}

// LoadFrom reads the configuration from an explicit config file path.
func LoadFrom(configFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configFile)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("BASALT")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Config("could not read config", err).WithPath(configFile)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Config("could not parse config", err).WithPath(configFile)
	}

	abs, err := filepath.Abs(filepath.Dir(configFile))
	if err != nil {
		return nil, errors.IO("could not resolve project directory", err)
	}
	cfg.ProjectDir = abs

	if cfg.Theme.Name == "" {
		cfg.Theme.Name = "default"
	}

	return &cfg, nil
}

// FindProjectDir walks upward from startDir looking for a directory that
// contains the config file. It returns a config-typed error when the
// filesystem root is reached without a match.
func FindProjectDir(startDir string) (string, error) {
	cur, err := filepath.Abs(startDir)
	if err != nil {
		return "", errors.IO("could not resolve start directory", err)
	}

	for {
		candidate := filepath.Join(cur, ConfigFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return cur, nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", errors.Config("not inside a basalt project (no "+ConfigFileName+" found)", nil)
		}
		cur = parent
	}
}

// SourcesDir returns the absolute path of the content sources directory.
func (c *Config) SourcesDir() string {
	return filepath.Join(c.ProjectDir, SourcesDirName)
}

// StaticDir returns the absolute path of the site static directory.
func (c *Config) StaticDir() string {
	return filepath.Join(c.ProjectDir, StaticDirName)
}

// ThemesDir returns the absolute path of the themes directory.
func (c *Config) ThemesDir() string {
	return filepath.Join(c.ProjectDir, ThemesDirName)
}

// ExtensionDir returns the absolute path of the extension directory.
func (c *Config) ExtensionDir() string {
	return filepath.Join(c.ProjectDir, ExtensionDirName)
}

// TargetDir returns the absolute path of the build output directory.
func (c *Config) TargetDir() string {
	return filepath.Join(c.ProjectDir, TargetDirName)
}

// ThemeDir returns the absolute path of the active theme.
func (c *Config) ThemeDir() string {
	return filepath.Join(c.ThemesDir(), c.Theme.Name)
}

// ThemeTemplatesDir returns the templates directory of the active theme.
func (c *Config) ThemeTemplatesDir() string {
	return filepath.Join(c.ThemeDir(), ThemeTemplatesDirName)
}

// ThemeStaticDir returns the static directory of the active theme.
func (c *Config) ThemeStaticDir() string {
	return filepath.Join(c.ThemeDir(), ThemeStaticDirName)
}

// ConfigFile returns the absolute path of the project config file.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.ProjectDir, ConfigFileName)
}

// RunStateFile returns the absolute path of the dev server run-state file.
func (c *Config) RunStateFile() string {
	return filepath.Join(c.ProjectDir, RunStateFileName)
}

// SlugPairs returns slug replacement rules as pairs, dropping malformed
// entries. Defaults are applied when the config defines none.
func (c *Config) SlugPairs() [][2]string {
	if len(c.SlugReplacements) == 0 {
		return [][2]string{
			{"I/O", "io"},
			{"'", ""},
			{`"`, ""},
		}
	}
	pairs := make([][2]string, 0, len(c.SlugReplacements))
	for _, rep := range c.SlugReplacements {
		if len(rep) == 2 {
			pairs = append(pairs, [2]string{rep[0], rep[1]})
		}
	}
	return pairs
}

// InDocker reports whether the process runs inside a Docker container.
func InDocker() bool {
	_, err := os.Stat("/.dockerenv")
	return err == nil
}

// Reload re-reads the configuration from disk, preserving the drafts flag.
func (c *Config) Reload() (*Config, error) {
	fresh, err := LoadFrom(c.ConfigFile())
	if err != nil {
		return nil, err
	}
	fresh.WithDrafts = c.WithDrafts
	return fresh, nil
}
