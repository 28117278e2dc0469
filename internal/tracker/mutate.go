package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/parser"
)

// Mutations rewrite the whole record file from the retained raw
// mapping. They are single-file and synchronous; concurrent
// invocations racing on the same file are out of scope and may corrupt
// it (known limitation of single-user operation).

// Complete marks the record identified by id as completed now and
// rewrites its file, preserving every other key.
func (s *Service) Complete(ctx context.Context, id string) (*models.Record, error) {
	rec, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	parser.MapSet(rec.Raw, "completed", parser.BoolScalar(true))
	parser.MapSet(rec.Raw, "completed_at",
		parser.Scalar(s.now().In(s.parser.Resolver().Location()).Format(time.RFC3339)))

	if err := s.rewrite(rec); err != nil {
		return nil, err
	}
	return s.Load(ctx, rec.Path)
}

// PushDue replaces the record's due date with expr resolved against
// today, recording the previous raw value in previous_due_dates.
func (s *Service) PushDue(ctx context.Context, id, expr string) (*models.Record, error) {
	rec, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	today := s.nowValue().Date()
	due, err := s.parser.Resolver().Resolve(expr, today)
	if err != nil {
		return nil, err
	}
	if due.IsZero() {
		return nil, fmt.Errorf("tracker: empty due expression")
	}

	if old := parser.MapGet(rec.Raw, "due"); old != nil && old.Value != "" {
		parser.AppendSeq(rec.Raw, "previous_due_dates", parser.Scalar(old.Value))
	}
	parser.MapSet(rec.Raw, "due", parser.Scalar(due.String()))

	if err := s.rewrite(rec); err != nil {
		return nil, err
	}
	return s.Load(ctx, rec.Path)
}

// rewrite serializes the raw mapping back to disk. YAML records are
// re-marshalled whole; Markdown records splice the mapping into the
// last yaml code block, leaving the prose untouched.
func (s *Service) rewrite(rec *models.Record) error {
	block, err := parser.Marshal(rec.Raw)
	if err != nil {
		return fmt.Errorf("tracker: marshal record: %w", err)
	}

	var out []byte
	switch rec.Format {
	case models.FormatMarkdown:
		orig, err := s.store.Read(rec.Path)
		if err != nil {
			return err
		}
		if out, err = parser.ReplaceLastYAMLBlock(orig, block); err != nil {
			return err
		}
	default:
		out = block
	}
	return s.store.Write(rec.Path, out)
}
