package tracker

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"text/template"
	"time"

	"github.com/starford/dagaz/internal/models"
)

//go:embed templates/*.yaml
var templatesFS embed.FS

// ErrNoChanges is returned when the editor session leaves the rendered
// template untouched; the record is not created.
var ErrNoChanges = errors.New("no changes made to template")

// EditFunc hands the rendered template text to an interactive editor
// and returns the edited text. changed is false when the user saved
// without edits. The interactive layer lives outside the core; the
// service only calls back through this function.
type EditFunc func(initial []byte) (edited []byte, changed bool, err error)

// Create renders the template for typ, runs the edit callback,
// validates the result by parsing it, and saves it under the canonical
// <timestamp>-<type>.yaml filename. Returns the new file's path.
func (s *Service) Create(_ context.Context, typ models.Type, edit EditFunc) (string, error) {
	tmpl, err := loadTemplate(typ)
	if err != nil {
		return "", err
	}

	now := s.now().In(s.parser.Resolver().Location())
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, struct{ Timestamp string }{now.Format(time.RFC3339)}); err != nil {
		return "", fmt.Errorf("tracker: render template: %w", err)
	}

	edited, changed, err := edit(buf.Bytes())
	if err != nil {
		return "", err
	}
	if !changed {
		return "", ErrNoChanges
	}

	filename := now.Format("2006-01-02T15:04:05") + "-" + string(typ) + ".yaml"
	// Validate before saving so a broken record never lands on disk.
	if _, err := s.parser.Parse(edited, filename); err != nil {
		return "", err
	}
	if err := s.store.Write(filename, edited); err != nil {
		return "", err
	}
	return filename, nil
}

func loadTemplate(typ models.Type) (*template.Template, error) {
	data, err := templatesFS.ReadFile("templates/" + string(typ) + ".yaml")
	if err != nil {
		data, err = templatesFS.ReadFile("templates/default.yaml")
		if err != nil {
			return nil, fmt.Errorf("tracker: load template: %w", err)
		}
	}
	return template.New(string(typ)).Parse(string(data))
}
