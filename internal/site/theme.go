package site

import (
	"html/template"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/basalt-ssg/basalt/internal/config"
	"github.com/basalt-ssg/basalt/internal/errors"
)

// Theme is a loaded site theme: parsed templates plus optional settings
// from the theme's theme.yaml.
type Theme struct {
	Name      string
	Dir       string
	Settings  map[string]interface{}
	templates *template.Template
}

// LoadTheme loads the active theme of the given configuration. The theme
// directory must exist and contain at least one template under templates/.
func LoadTheme(cfg *config.Config) (*Theme, error) {
	dir := cfg.ThemeDir()
	if _, err := os.Stat(dir); err != nil {
		return nil, errors.Resource("theme not found", err).WithPath(dir)
	}

	settings := map[string]interface{}{}
	settingsFile := filepath.Join(dir, config.ThemeSettingsFileName)
	if raw, err := os.ReadFile(settingsFile); err == nil {
		if err := yaml.Unmarshal(raw, &settings); err != nil {
			return nil, errors.Config("could not parse theme settings", err).WithPath(settingsFile)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.IO("could not read theme settings", err).WithPath(settingsFile)
	}

	pattern := filepath.Join(cfg.ThemeTemplatesDir(), "*.html")
	tmpl, err := template.ParseGlob(pattern)
	if err != nil {
		return nil, errors.Resource("could not load theme templates", err).WithPath(pattern)
	}

	return &Theme{
		Name:      cfg.Theme.Name,
		Dir:       dir,
		Settings:  settings,
		templates: tmpl,
	}, nil
}

// Template returns the named template, or a resource error if the theme
// does not define it.
func (t *Theme) Template(name string) (*template.Template, error) {
	tmpl := t.templates.Lookup(name)
	if tmpl == nil {
		return nil, errors.Resource("theme defines no template "+name, nil).WithPath(t.Dir)
	}
	return tmpl, nil
}
