package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basalt-ssg/basalt/internal/errors"
)

func writeConfig(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadFrom(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
name: "My Site"
url: "https://example.org"
description: "a test site"
theme:
  name: plain
`)

	cfg, err := LoadFrom(filepath.Join(dir, ConfigFileName))
	require.NoError(t, err)

	assert.Equal(t, "My Site", cfg.Name)
	assert.Equal(t, "https://example.org", cfg.URL)
	assert.Equal(t, "plain", cfg.Theme.Name)
	assert.False(t, cfg.WithDrafts)

	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	gotDir, err := filepath.EvalSymlinks(cfg.ProjectDir)
	require.NoError(t, err)
	assert.Equal(t, resolved, gotDir)
}

func TestLoadFromDefaultsThemeName(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `name: "No Theme"`)

	cfg, err := LoadFrom(filepath.Join(dir, ConfigFileName))
	require.NoError(t, err)
	assert.Equal(t, "default", cfg.Theme.Name)
}

func TestLoadFromMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "name: [unclosed")

	_, err := LoadFrom(filepath.Join(dir, ConfigFileName))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestFindProjectDirWalksUp(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `name: "up"`)

	nested := filepath.Join(root, "source", "news")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	found, err := FindProjectDir(nested)
	require.NoError(t, err)
	assert.Equal(t, root, found)
}

func TestFindProjectDirNoProject(t *testing.T) {
	_, err := FindProjectDir(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestDerivedLayout(t *testing.T) {
	cfg := &Config{ProjectDir: "/proj", Theme: ThemeRef{Name: "plain"}}

	assert.Equal(t, "/proj/source", cfg.SourcesDir())
	assert.Equal(t, "/proj/static", cfg.StaticDir())
	assert.Equal(t, "/proj/target", cfg.TargetDir())
	assert.Equal(t, "/proj/theme/plain/templates", cfg.ThemeTemplatesDir())
	assert.Equal(t, "/proj/theme/plain/static", cfg.ThemeStaticDir())
	assert.Equal(t, "/proj/basalt.yaml", cfg.ConfigFile())
	assert.Equal(t, "/proj/.basalt-server.run", cfg.RunStateFile())
}

func TestSlugPairs(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := &Config{}
		pairs := cfg.SlugPairs()
		assert.Contains(t, pairs, [2]string{"I/O", "io"})
	})

	t.Run("configured drops malformed", func(t *testing.T) {
		cfg := &Config{SlugReplacements: [][]string{{"&", "and"}, {"solo"}}}
		assert.Equal(t, [][2]string{{"&", "and"}}, cfg.SlugPairs())
	})
}

func TestReloadPreservesDrafts(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `name: "first"`)

	cfg, err := LoadFrom(filepath.Join(dir, ConfigFileName))
	require.NoError(t, err)
	cfg.WithDrafts = true

	writeConfig(t, dir, `name: "second"`)

	fresh, err := cfg.Reload()
	require.NoError(t, err)
	assert.Equal(t, "second", fresh.Name)
	assert.True(t, fresh.WithDrafts)
}
