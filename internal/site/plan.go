package site

import (
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/basalt-ssg/basalt/internal/config"
	"github.com/basalt-ssg/basalt/internal/errors"
)

// Target is one file to be produced in the site output directory.
type Target interface {
	// RelPath is the destination path relative to the output root, in
	// slash form.
	RelPath() string

	// Write produces the file under the given output root. Parent
	// directories are guaranteed to exist.
	Write(outRoot string) error
}

// CopyTarget copies a static file verbatim.
type CopyTarget struct {
	Src string
	Rel string
}

// RelPath implements Target.
func (t CopyTarget) RelPath() string { return t.Rel }

// Write implements Target.
func (t CopyTarget) Write(outRoot string) error {
	in, err := os.Open(t.Src)
	if err != nil {
		return errors.IO("could not open static file", err).WithPath(t.Src)
	}
	defer in.Close()

	dest := filepath.Join(outRoot, filepath.FromSlash(t.Rel))
	out, err := os.Create(dest)
	if err != nil {
		return errors.IO("could not create output file", err).WithPath(dest)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return errors.IO("could not copy static file", err).WithPath(dest)
	}
	return nil
}

// PageData is the rendering context handed to theme templates.
type PageData struct {
	Meta    map[string]interface{}
	Content template.HTML
	Site    *config.Config
	Theme   map[string]interface{}
}

// TemplateTarget renders a page through a theme template.
type TemplateTarget struct {
	Rel      string
	Template *template.Template
	Data     PageData
}

// RelPath implements Target.
func (t TemplateTarget) RelPath() string { return t.Rel }

// Write implements Target.
func (t TemplateTarget) Write(outRoot string) error {
	dest := filepath.Join(outRoot, filepath.FromSlash(t.Rel))
	out, err := os.Create(dest)
	if err != nil {
		return errors.IO("could not create output file", err).WithPath(dest)
	}
	defer out.Close()

	if err := t.Template.Execute(out, t.Data); err != nil {
		return errors.Build("could not render page", err).WithPath(dest)
	}
	return nil
}

// Plan is the set of targets making up one build, keyed by destination to
// catch conflicting outputs early.
type Plan struct {
	targets map[string]Target
	order   []string
}

// NewPlan creates an empty plan.
func NewPlan() *Plan {
	return &Plan{targets: make(map[string]Target)}
}

// Add registers a target, rejecting duplicate destination paths.
func (p *Plan) Add(t Target) error {
	rel := t.RelPath()
	if rel == "" || strings.HasPrefix(rel, "../") || strings.HasPrefix(rel, "/") {
		return errors.Build("target path escapes the output directory", nil).WithPath(rel)
	}
	if _, exists := p.targets[rel]; exists {
		return errors.Build("duplicate target path", nil).WithPath(rel)
	}
	p.targets[rel] = t
	p.order = append(p.order, rel)
	return nil
}

// Len returns the number of planned targets.
func (p *Plan) Len() int { return len(p.order) }

// Write materializes every target under the output root, creating parent
// directories as needed, in insertion order.
func (p *Plan) Write(outRoot string) error {
	for _, rel := range p.order {
		dest := filepath.Join(outRoot, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return errors.IO("could not create output directory", err).WithPath(filepath.Dir(dest))
		}
		if err := p.targets[rel].Write(outRoot); err != nil {
			return err
		}
	}
	return nil
}
