// Package scaffolding bootstraps new basalt projects: the directory layout,
// an initial configuration file, and a minimal starter theme.
package scaffolding

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"

	"github.com/basalt-ssg/basalt/internal/config"
	"github.com/basalt-ssg/basalt/internal/errors"
)

// ProjectOptions parameterize project creation.
type ProjectOptions struct {
	// Dir is the directory to create the project in; empty means the
	// current directory.
	Dir string

	Name        string
	URL         string
	Description string
	Author      string
	Language    string

	// Force allows creation inside a non-empty directory.
	Force bool
}

const configTemplate = `---
# Basalt configuration file.
name: %q
url: %q
description: %q
author: %q
language: %q
theme:
  name: default
`

const starterPageTemplate = `<!DOCTYPE html>
<html lang="{{ .Site.Language }}">
<head>
  <meta charset="utf-8">
  <title>{{ .Meta.title }} · {{ .Site.Name }}</title>
</head>
<body>
  <main>{{ .Content }}</main>
</body>
</html>
`

const starterThemeSettings = "# Settings for the default theme.\n"

// CreateProject creates a new project and returns its directory. It may
// overwrite files when force is set, and refuses non-empty directories
// otherwise.
func CreateProject(opts ProjectOptions) (string, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	projectDir, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.IO("could not resolve project directory", err)
	}

	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		return "", errors.IO("could not create project directory", err).WithPath(projectDir)
	}

	if !opts.Force {
		entries, err := os.ReadDir(projectDir)
		if err != nil {
			return "", errors.IO("could not inspect project directory", err).WithPath(projectDir)
		}
		if len(entries) > 0 {
			return "", errors.Config(
				fmt.Sprintf("project directory %s contains files -- use the --force flag to create anyway", projectDir), nil)
		}
	}

	name := opts.Name
	if name == "" && opts.Dir != "" {
		name = filepath.Base(projectDir)
	}
	author := opts.Author
	if author == "" {
		author = InferAuthor()
	}
	lang := opts.Language
	if lang == "" {
		lang = InferLanguage()
	}

	dirs := []string{
		filepath.Join(projectDir, config.SourcesDirName),
		filepath.Join(projectDir, config.StaticDirName),
		filepath.Join(projectDir, config.ThemesDirName, "default", config.ThemeTemplatesDirName),
		filepath.Join(projectDir, config.ThemesDirName, "default", config.ThemeStaticDirName),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return "", errors.IO("could not create directory", err).WithPath(d)
		}
	}

	files := map[string]string{
		filepath.Join(projectDir, config.ConfigFileName): fmt.Sprintf(
			configTemplate, name, opts.URL, opts.Description, author, lang),
		filepath.Join(projectDir, config.ThemesDirName, "default", config.ThemeTemplatesDirName, "page.html"): starterPageTemplate,
		filepath.Join(projectDir, config.ThemesDirName, "default", config.ThemeSettingsFileName):              starterThemeSettings,
	}
	for path, contents := range files {
		if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
			return "", errors.IO("could not write file", err).WithPath(path)
		}
	}

	return projectDir, nil
}

// InferAuthor guesses the author name from git configuration, falling back
// to the USER environment variable.
func InferAuthor() string {
	out, err := exec.Command("git", "config", "user.name").Output()
	if err == nil {
		if name := strings.TrimSpace(string(out)); name != "" {
			return name
		}
	}
	return os.Getenv("USER")
}

// InferLanguage derives a BCP 47 language tag from the process locale, or
// an empty string when none can be parsed.
func InferLanguage() string {
	for _, env := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		raw := os.Getenv(env)
		if raw == "" || raw == "C" || raw == "POSIX" {
			continue
		}
		// Locale values look like "en_US.UTF-8"; the tag is the part
		// before the encoding suffix.
		raw = strings.SplitN(raw, ".", 2)[0]
		raw = strings.ReplaceAll(raw, "_", "-")
		if tag, err := language.Parse(raw); err == nil {
			base, conf := tag.Base()
			if conf != language.No {
				return base.String()
			}
		}
	}
	return ""
}
