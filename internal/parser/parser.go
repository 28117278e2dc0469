// Package parser turns raw record file content into models.Record
// values, resolving every temporal field against the record's own
// creation time.
package parser

import (
	"encoding/hex"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/blake2s"
	"gopkg.in/yaml.v3"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/temporal"
)

// stemRe strips the leading ISO-8601 timestamp prefix from a filename
// stem; the capture is the record type tag.
var stemRe = regexp.MustCompile(`^[0-9T:.-]+-(.+)$`)

// Parser reads record files. It carries the resolver (timezone) and a
// clock so that relevance computation is injectable in tests.
type Parser struct {
	resolver *temporal.Resolver
	now      func() time.Time
}

// New creates a Parser. A nil now defaults to time.Now.
func New(resolver *temporal.Resolver, now func() time.Time) *Parser {
	if now == nil {
		now = time.Now
	}
	return &Parser{resolver: resolver, now: now}
}

// Resolver returns the parser's temporal resolver.
func (p *Parser) Resolver() *temporal.Resolver {
	return p.resolver
}

// Identifier returns the 10-hex-character BLAKE2s digest of a record's
// filename. Collisions are possible but treated as good enough.
func Identifier(filename string) string {
	sum := blake2s.Sum256([]byte(filepath.Base(filename)))
	return hex.EncodeToString(sum[:])[:10]
}

// Parse builds a Record from raw file content. filename selects both
// the format (extension) and the record type (stem suffix). Any missing
// required structure or unresolvable temporal field fails the whole
// record; callers doing bulk listings catch per file and continue.
func (p *Parser) Parse(data []byte, filename string) (*models.Record, error) {
	base := filepath.Base(filename)
	ext := filepath.Ext(base)

	format, err := models.ParseFormat(ext)
	if err != nil {
		return nil, err
	}

	stem := strings.TrimSuffix(base, ext)
	m := stemRe.FindStringSubmatch(stem)
	if m == nil {
		return nil, fmt.Errorf("parser: %w: filename %q does not match <timestamp>-<type>",
			apperr.ErrMalformedRecord, base)
	}
	typ, err := models.ParseType(m[1])
	if err != nil {
		return nil, err
	}

	var event string
	var raw *yaml.Node
	switch format {
	case models.FormatMarkdown:
		event, raw, err = parseMarkdown(data)
	default:
		event, raw, err = parseYAML(data)
	}
	if err != nil {
		return nil, err
	}

	rec := &models.Record{
		Identifier:   Identifier(base),
		Path:         filename,
		Type:         typ,
		Format:       format,
		Event:        event,
		RankPriority: models.DefaultRankPriority,
		Raw:          raw,
	}
	if err := p.populate(rec, raw); err != nil {
		return nil, err
	}
	return rec, nil
}

// populate resolves temporal fields in dependency order and computes
// the derived relevance state.
func (p *Parser) populate(rec *models.Record, raw *yaml.Node) error {
	created, err := p.created(raw)
	if err != nil {
		return err
	}
	rec.Created = created

	nowVal := temporal.NewTimestamp(p.now().In(p.resolver.Location()))
	today := nowVal.Date()

	base := created
	if base.IsZero() {
		base = today
	}

	if rec.ExpectedCompletion, err = p.resolveKey(raw, "expected_completion", base); err != nil {
		return err
	}
	if rec.Due, err = p.resolveKey(raw, "due", base); err != nil {
		return err
	}

	// The anchor for the remaining fields is the first of expected
	// completion, due date, creation time, today.
	anchor := firstNonZero(rec.ExpectedCompletion, rec.Due, created, today)

	if rec.IrrelevantAfter, err = p.resolveBoundary(raw, "irrelevant_after", rec.Due, anchor); err != nil {
		return err
	}
	if rec.IrrelevantAfter.IsZero() {
		rec.IrrelevantAfter = base.AddDays(365)
	}
	if rec.IrrelevantBefore, err = p.resolveBoundary(raw, "irrelevant_before", rec.Due, anchor); err != nil {
		return err
	}

	if rec.CompletedAt, err = p.resolveKey(raw, "completed_at", anchor); err != nil {
		return err
	}
	if n := MapGet(raw, "completed"); n != nil {
		var b bool
		if err := n.Decode(&b); err == nil {
			rec.Completed = b
		}
	}

	if n := MapGet(raw, "tags"); n != nil {
		var tags []string
		if err := n.Decode(&tags); err != nil {
			return fmt.Errorf("parser: %w: tags: %v", apperr.ErrMalformedRecord, err)
		}
		rec.Tags = tags
	}
	if n := MapGet(raw, "rank_priority"); n != nil {
		var rank int
		if err := n.Decode(&rank); err != nil {
			return fmt.Errorf("parser: %w: rank_priority: %v", apperr.ErrMalformedRecord, err)
		}
		rec.RankPriority = rank
	}

	rec.StillRelevant = true
	if !rec.IrrelevantAfter.IsZero() && nowVal.After(rec.IrrelevantAfter) {
		rec.StillRelevant = false
	}
	if !rec.IrrelevantBefore.IsZero() && rec.IrrelevantBefore.After(nowVal) {
		rec.StillRelevant = false
	}
	return nil
}

// created reads the creation time from "date", falling back to
// "timestamp". Timezone-naive values are reinterpreted as UTC wall
// clock and converted to the configured zone: the upstream serializer
// shifted the clock fields to UTC before dropping the zone, so naive
// never means local.
func (p *Parser) created(raw *yaml.Node) (temporal.Value, error) {
	n := MapGet(raw, "date")
	if n == nil || strings.TrimSpace(n.Value) == "" {
		n = MapGet(raw, "timestamp")
	}
	if n == nil {
		return temporal.Value{}, nil
	}
	s := strings.TrimSpace(n.Value)
	if s == "" {
		return temporal.Value{}, nil
	}
	v, ok := p.concrete(s)
	if !ok {
		return temporal.Value{}, fmt.Errorf("parser: %w: unparseable creation time %q",
			apperr.ErrMalformedRecord, s)
	}
	return v, nil
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// concrete parses an already-concrete date or datetime scalar, if s is
// one. Naive datetimes are anchored at UTC and converted to the
// configured zone; date-only scalars stay date-granular.
func (p *Parser) concrete(s string) (temporal.Value, bool) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return temporal.NewDate(t.Date()), true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return temporal.NewTimestamp(t.In(p.resolver.Location())), true
	}
	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return temporal.NewTimestamp(t.In(p.resolver.Location())), true
		}
	}
	return temporal.Value{}, false
}

func (p *Parser) resolveKey(raw *yaml.Node, key string, ref temporal.Value) (temporal.Value, error) {
	return p.resolveNode(MapGet(raw, key), ref)
}

// resolveNode resolves a scalar field node. Concrete dates and
// datetimes pass through unchanged; everything else goes through the
// expression grammar.
func (p *Parser) resolveNode(n *yaml.Node, ref temporal.Value) (temporal.Value, error) {
	if n == nil {
		return temporal.Value{}, nil
	}
	s := strings.TrimSpace(n.Value)
	if s == "" {
		return temporal.Value{}, nil
	}
	if v, ok := p.concrete(s); ok {
		return v, nil
	}
	return p.resolver.Resolve(s, ref)
}

// resolveBoundary handles the irrelevant_after/irrelevant_before
// fields, where the literal "==due" token copies the resolved due
// value.
func (p *Parser) resolveBoundary(raw *yaml.Node, key string, due, anchor temporal.Value) (temporal.Value, error) {
	n := MapGet(raw, key)
	if n == nil {
		return temporal.Value{}, nil
	}
	if strings.TrimSpace(n.Value) == "==due" {
		return due, nil
	}
	return p.resolveNode(n, anchor)
}

func firstNonZero(vals ...temporal.Value) temporal.Value {
	for _, v := range vals {
		if !v.IsZero() {
			return v
		}
	}
	return temporal.Value{}
}

// parseYAML loads a flat-mapping record file. "event" is required.
func parseYAML(data []byte) (string, *yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return "", nil, fmt.Errorf("parser: %w: invalid yaml: %v", apperr.ErrMalformedRecord, err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return "", nil, fmt.Errorf("parser: %w: record is not a mapping", apperr.ErrMalformedRecord)
	}
	m := doc.Content[0]
	ev := MapGet(m, "event")
	if ev == nil || strings.TrimSpace(ev.Value) == "" {
		return "", nil, fmt.Errorf("parser: %w: missing required key \"event\"", apperr.ErrMalformedRecord)
	}
	return ev.Value, m, nil
}
