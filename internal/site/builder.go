package site

import (
	"context"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/basalt-ssg/basalt/internal/config"
	"github.com/basalt-ssg/basalt/internal/errors"
	"github.com/basalt-ssg/basalt/internal/logging"
)

// PageTemplateName is the theme template every Markdown source renders
// through.
const PageTemplateName = "page.html"

// BuildOptions control a single site build.
type BuildOptions struct {
	// Clean removes the output directory before syncing the new build.
	Clean bool

	// WithDrafts includes draft sources in the build.
	WithDrafts bool
}

// Builder produces the static site from a project.
type Builder struct {
	logger logging.Logger
}

// NewBuilder creates a site builder.
func NewBuilder(logger logging.Logger) *Builder {
	return &Builder{logger: logger.WithComponent("build")}
}

// Build generates the site into the configured target directory. The build
// is staged into a temporary directory first and synced afterwards, so an
// aborted build never truncates existing output, and unchanged files are
// not rewritten.
func (b *Builder) Build(ctx context.Context, cfg *config.Config, opts BuildOptions) error {
	start := time.Now()

	theme, err := LoadTheme(cfg)
	if err != nil {
		return err
	}
	pageTmpl, err := theme.Template(PageTemplateName)
	if err != nil {
		return err
	}

	plan := NewPlan()
	if err := gatherCopyTargets(plan, cfg.StaticDir()); err != nil {
		return err
	}
	if err := gatherCopyTargets(plan, cfg.ThemeStaticDir()); err != nil {
		return err
	}

	sources, err := CollectSources(cfg, opts.WithDrafts)
	if err != nil {
		return err
	}
	for _, src := range sources {
		target, err := pageTarget(cfg, theme, pageTmpl, src)
		if err != nil {
			return err
		}
		if err := plan.Add(target); err != nil {
			return err
		}
	}

	stage, err := os.MkdirTemp("", "basalt-build-")
	if err != nil {
		return errors.IO("could not create staging directory", err)
	}
	defer os.RemoveAll(stage)

	if err := plan.Write(stage); err != nil {
		return err
	}

	if opts.Clean {
		if err := os.RemoveAll(cfg.TargetDir()); err != nil {
			return errors.IO("could not clean output directory", err).WithPath(cfg.TargetDir())
		}
	}
	if err := syncDir(stage, cfg.TargetDir()); err != nil {
		return err
	}

	b.logger.Info(ctx, "build completed",
		"pages", len(sources),
		"targets", plan.Len(),
		"duration", time.Since(start).Round(time.Millisecond).String(),
	)
	return nil
}

func pageTarget(cfg *config.Config, theme *Theme, tmpl *template.Template, src *MarkdownSource) (Target, error) {
	html, err := src.HTML()
	if err != nil {
		return nil, err
	}

	parts := src.PathParts()
	return TemplateTarget{
		Rel:      filepath.ToSlash(filepath.Join(parts...)),
		Template: tmpl,
		Data: PageData{
			Meta:    src.Meta,
			Content: template.HTML(html),
			Site:    cfg,
			Theme:   theme.Settings,
		},
	}, nil
}

// gatherCopyTargets adds every file under dir as a copy target. A missing
// directory is not an error.
func gatherCopyTargets(plan *Plan, dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}

	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		return plan.Add(CopyTarget{Src: path, Rel: filepath.ToSlash(rel)})
	})
}

// syncDir copies the staged build into the output directory. Files whose
// content fingerprint is unchanged are left untouched to avoid needless
// mtime churn while the dev server is watching.
func syncDir(stage, out string) error {
	return filepath.Walk(stage, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(stage, path)
		if err != nil {
			return err
		}
		dest := filepath.Join(out, rel)

		if info.IsDir() {
			if mkErr := os.MkdirAll(dest, 0o755); mkErr != nil {
				return errors.IO("could not create output directory", mkErr).WithPath(dest)
			}
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return errors.IO("could not read staged file", err).WithPath(path)
		}
		if existing, readErr := os.ReadFile(dest); readErr == nil {
			if xxhash.Sum64(existing) == xxhash.Sum64(data) {
				return nil
			}
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return errors.IO("could not write output file", err).WithPath(dest)
		}
		return nil
	})
}
