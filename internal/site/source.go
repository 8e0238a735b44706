package site

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"

	"github.com/basalt-ssg/basalt/internal/config"
	"github.com/basalt-ssg/basalt/internal/errors"
)

// md is the shared Markdown converter: GFM extensions, with raw HTML passed
// through since sources are authored by the site owner.
var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(htmlrenderer.WithUnsafe()),
)

// MarkdownSource is a single Markdown content file with parsed front matter.
type MarkdownSource struct {
	// Src is the path of the file, relative to the sources directory.
	Src string

	// Meta is the parsed front matter plus defaults.
	Meta map[string]interface{}

	// Content is the Markdown body without front matter.
	Content []byte

	// IsDraft marks sources living under a drafts directory.
	IsDraft bool

	cfg *config.Config
}

// LoadSource reads and parses one Markdown file. src is relative to the
// sources directory.
func LoadSource(cfg *config.Config, src string, isDraft bool) (*MarkdownSource, error) {
	full := filepath.Join(cfg.SourcesDir(), src)
	raw, err := os.ReadFile(full)
	if err != nil {
		return nil, errors.IO("could not read source", err).WithPath(full)
	}

	meta, body, err := SplitFrontMatter(raw)
	if err != nil {
		if e, ok := err.(*errors.Error); ok {
			return nil, e.WithPath(full)
		}
		return nil, err
	}

	if _, ok := meta["title"]; !ok {
		base := strings.TrimSuffix(filepath.Base(src), config.MarkdownExt)
		meta["title"] = strings.ReplaceAll(base, "-", " ")
	}
	if _, ok := meta["pub_time"]; !ok {
		meta["pub_time"] = time.Now()
	}
	if _, ok := meta["labels"]; !ok {
		meta["labels"] = map[string]interface{}{}
	}
	meta["is_draft"] = isDraft

	return &MarkdownSource{
		Src:     src,
		Meta:    meta,
		Content: body,
		IsDraft: isDraft,
		cfg:     cfg,
	}, nil
}

// PathParts returns the output path of the rendered page, relative to the
// target directory and split into elements. An explicit "url" metadata value
// wins; otherwise the slugified title with an .html extension is used. For
// drafts the drafts directory element is elided, so a draft renders where
// its published version would.
func (s *MarkdownSource) PathParts() []string {
	var leaf []string
	if u, ok := s.Meta["url"].(string); ok && u != "" {
		for _, part := range strings.Split(u, "/") {
			if part != "" {
				leaf = append(leaf, part)
			}
		}
	} else {
		title, _ := s.Meta["title"].(string)
		leaf = []string{Slugify(title, s.cfg.SlugPairs()) + ".html"}
	}

	var parts []string
	for _, part := range strings.Split(filepath.ToSlash(filepath.Dir(s.Src)), "/") {
		if part == "" || part == "." {
			continue
		}
		if s.IsDraft && part == config.DraftsDirName {
			continue
		}
		parts = append(parts, part)
	}
	return append(parts, leaf...)
}

// RelURL returns the site-relative URL of the rendered page.
func (s *MarkdownSource) RelURL() string {
	return "/" + strings.Join(s.PathParts(), "/")
}

// HTML converts the Markdown body to HTML.
func (s *MarkdownSource) HTML() ([]byte, error) {
	var buf bytes.Buffer
	if err := md.Convert(s.Content, &buf); err != nil {
		return nil, errors.Build("could not convert markdown", err).WithPath(s.Src)
	}
	return buf.Bytes(), nil
}

// CollectSources walks the sources directory and loads every Markdown file.
// Files under a drafts directory are loaded as drafts only when withDrafts
// is set, and skipped entirely otherwise. A missing sources directory yields
// an empty slice.
func CollectSources(cfg *config.Config, withDrafts bool) ([]*MarkdownSource, error) {
	root := cfg.SourcesDir()
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}

	var sources []*MarkdownSource
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if info.Name() == config.DraftsDirName && !withDrafts {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != config.MarkdownExt {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		isDraft := strings.Contains(filepath.ToSlash(rel), config.DraftsDirName+"/")

		src, err := LoadSource(cfg, rel, isDraft)
		if err != nil {
			return err
		}
		sources = append(sources, src)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sources, nil
}
