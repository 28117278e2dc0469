// Package tracker coordinates record storage, parsing, and mutation.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/parser"
	"github.com/starford/dagaz/internal/storage"
	"github.com/starford/dagaz/internal/temporal"
)

// parseWorkers bounds the bulk-parse worker pool. Parses are
// independent and side-effect-free, so completion order is undefined;
// results are sorted afterward.
const parseWorkers = 8

// ParseFailure reports one record file that failed to parse during a
// bulk listing. Failures are local: the remaining files still load.
type ParseFailure struct {
	Path string
	Err  error
}

// Filter selects records for listing commands.
type Filter struct {
	// Types restricts to the given record types; empty means all.
	Types []models.Type
	// Tag restricts to records carrying the tag.
	Tag string
	// ShowAll includes completed and no-longer-relevant records.
	ShowAll bool
}

// Match reports whether rec passes the filter.
func (f Filter) Match(rec *models.Record) bool {
	if len(f.Types) > 0 {
		ok := false
		for _, t := range f.Types {
			if rec.Type == t {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if f.Tag != "" {
		ok := false
		for _, tag := range rec.Tags {
			if tag == f.Tag {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if !f.ShowAll && (rec.Completed || !rec.StillRelevant) {
		return false
	}
	return true
}

// Service coordinates storage and parsing of records.
type Service struct {
	store  storage.Provider
	parser *parser.Parser
	now    func() time.Time
}

// New creates a record service. A nil now defaults to time.Now.
func New(store storage.Provider, p *parser.Parser, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, parser: p, now: now}
}

// Load reads and parses a single record. Errors are fatal to the
// caller; single-record commands report them and exit non-zero.
func (s *Service) Load(_ context.Context, path string) (*models.Record, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return s.parser.Parse(data, path)
}

// LoadAll parses every record file under the data root with a bounded
// worker pool. A file that fails to parse is reported as a
// ParseFailure and excluded; it never hides the rest.
func (s *Service) LoadAll(ctx context.Context) ([]*models.Record, []ParseFailure, error) {
	metas, err := s.store.List("")
	if err != nil {
		return nil, nil, err
	}

	var (
		mu       sync.Mutex
		records  []*models.Record
		failures []ParseFailure
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parseWorkers)
	for _, meta := range metas {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := s.store.Read(meta.Path)
			if err == nil {
				var rec *models.Record
				if rec, err = s.parser.Parse(data, meta.Path); err == nil {
					mu.Lock()
					records = append(records, rec)
					mu.Unlock()
					return nil
				}
			}
			mu.Lock()
			failures = append(failures, ParseFailure{Path: meta.Path, Err: err})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	sortRecords(records)
	sort.Slice(failures, func(i, j int) bool { return failures[i].Path < failures[j].Path })
	return records, failures, nil
}

// List loads all records and applies the filter.
func (s *Service) List(ctx context.Context, f Filter) ([]*models.Record, []ParseFailure, error) {
	records, failures, err := s.LoadAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	out := records[:0]
	for _, rec := range records {
		if f.Match(rec) {
			out = append(out, rec)
		}
	}
	return out, failures, nil
}

// Find locates a record by its identifier digest or by exact path.
func (s *Service) Find(ctx context.Context, id string) (*models.Record, error) {
	records, _, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if rec.Identifier == id || rec.Path == id {
			return rec, nil
		}
	}
	return nil, fmt.Errorf("tracker: record %q: %w", id, apperr.ErrNotFound)
}

// sortRecords orders by rank priority, then due date (undated last),
// then creation time, then path. Parse-completion order is never
// meaningful.
func sortRecords(records []*models.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.RankPriority != b.RankPriority {
			return a.RankPriority < b.RankPriority
		}
		switch {
		case !a.Due.IsZero() && b.Due.IsZero():
			return true
		case a.Due.IsZero() && !b.Due.IsZero():
			return false
		case !a.Due.IsZero():
			if c := a.Due.Compare(b.Due); c != 0 {
				return c < 0
			}
		}
		if !a.Created.IsZero() && !b.Created.IsZero() {
			if c := a.Created.Compare(b.Created); c != 0 {
				return c < 0
			}
		}
		return a.Path < b.Path
	})
}

// nowValue returns the current instant in the configured zone.
func (s *Service) nowValue() temporal.Value {
	return temporal.NewTimestamp(s.now().In(s.parser.Resolver().Location()))
}
