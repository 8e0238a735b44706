package site

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/basalt-ssg/basalt/internal/config"
	"github.com/basalt-ssg/basalt/internal/errors"
)

// FindSource fuzzy-matches query against the Markdown files under the
// sources directory and returns the absolute path of the best match. Draft
// directories are searched only when includeDrafts is set.
func FindSource(cfg *config.Config, query string, includeDrafts bool) (string, error) {
	root := cfg.SourcesDir()

	var candidates []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if info.Name() == config.DraftsDirName && !includeDrafts {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) == config.MarkdownExt {
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return relErr
			}
			candidates = append(candidates, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return "", errors.IO("could not scan sources", err).WithPath(root)
	}

	matches := fuzzy.Find(query, candidates)
	if len(matches) == 0 {
		return "", errors.Resource(fmt.Sprintf("found no matching file for %q", query), nil)
	}
	return filepath.Join(root, filepath.FromSlash(matches[0].Str)), nil
}

// InferFrontMatter produces the initial content of a new draft: a YAML
// front matter block with a title derived from the query or given
// explicitly.
func InferFrontMatter(query, title string) string {
	if title == "" {
		base := strings.TrimSuffix(filepath.Base(query), config.MarkdownExt)
		words := strings.FieldsFunc(base, func(r rune) bool {
			return r == '-' || r == '_'
		})
		for i, w := range words {
			if w != "" {
				words[i] = strings.ToUpper(w[:1]) + w[1:]
			}
		}
		title = strings.Join(words, " ")
	}
	return fmt.Sprintf("---\ntitle: %q\n---\n\n", title)
}
