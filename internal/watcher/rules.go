package watcher

import (
	"path/filepath"
	"strings"

	"github.com/basalt-ssg/basalt/internal/config"
)

// Rules classifies project-relative paths as relevant to rebuilds or not.
// Allow rules are exact subtree prefixes or exact file names; deny rules are
// subtree prefixes that win over any allow match. Matching is case
// sensitive.
type Rules struct {
	AllowDirs  []string
	AllowFiles []string
	DenyDirs   []string
}

// DefaultRules returns the rule set for a basalt project: content sources,
// static assets, themes, extensions, the config file and the run-state file
// are relevant; the build output and VCS or cache metadata are not.
func DefaultRules() Rules {
	return Rules{
		AllowDirs: []string{
			config.ExtensionDirName,
			config.SourcesDirName,
			config.StaticDirName,
			config.ThemesDirName,
		},
		AllowFiles: []string{
			config.ConfigFileName,
			config.RunStateFileName,
		},
		DenyDirs: []string{
			config.TargetDirName,
			".git",
			".basalt-cache",
		},
	}
}

// Match reports whether the given project-relative path is relevant. The
// path is normalized to slash separators; deny rules take precedence.
func (r Rules) Match(relPath string) bool {
	rel := filepath.ToSlash(relPath)
	if rel == "" || rel == "." || strings.HasPrefix(rel, "../") {
		return false
	}

	for _, dir := range r.DenyDirs {
		if underDir(rel, dir) {
			return false
		}
	}
	for _, name := range r.AllowFiles {
		if rel == name {
			return true
		}
	}
	for _, dir := range r.AllowDirs {
		if underDir(rel, dir) {
			return true
		}
	}
	return false
}

// underDir reports whether rel is the directory itself or inside it. Plain
// prefix comparison would wrongly match siblings like "sources" against
// "source".
func underDir(rel, dir string) bool {
	return rel == dir || strings.HasPrefix(rel, dir+"/")
}
