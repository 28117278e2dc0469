// Package models defines the domain types for Dagaz.
package models

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/temporal"
)

// Type tags a record by kind. The tag is derived purely from the
// filename suffix, never from file content.
type Type string

const (
	TypeTask       Type = "task"
	TypeDueDate    Type = "due-date"
	TypeFocus      Type = "focus"
	TypePrediction Type = "prediction"
	TypeNote       Type = "note"
	TypeGist       Type = "gist"
	TypeEvent      Type = "event"
	TypeMetric     Type = "metric"
)

// Types lists every known record type.
var Types = []Type{
	TypeTask, TypeDueDate, TypeFocus, TypePrediction,
	TypeNote, TypeGist, TypeEvent, TypeMetric,
}

// ParseType validates a filename type tag.
func ParseType(s string) (Type, error) {
	t := Type(s)
	for _, known := range Types {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("models: %w: unknown record type %q", apperr.ErrMalformedRecord, s)
}

// Format identifies the on-disk encoding of a record file.
type Format int

const (
	FormatYAML Format = iota
	FormatMarkdown
)

// ParseFormat maps a file extension to a Format.
func ParseFormat(ext string) (Format, error) {
	switch ext {
	case ".yaml":
		return FormatYAML, nil
	case ".md":
		return FormatMarkdown, nil
	}
	return 0, fmt.Errorf("models: %w: %q", apperr.ErrUnknownExtension, ext)
}

// DefaultRankPriority is the sort key assigned to records that do not
// specify rank_priority. Lower sorts earlier.
const DefaultRankPriority = 10000

// Record is the parsed, in-memory representation of one record file.
// It is constructed once per read and immutable thereafter; persisted
// mutation rewrites the whole file from Raw, never patches in place.
type Record struct {
	// Identifier is a short stable digest of the filename. Collisions
	// are possible but treated as good enough for interactive use.
	Identifier string
	Path       string
	Type       Type
	Format     Format

	Event string

	Created            temporal.Value
	ExpectedCompletion temporal.Value
	Due                temporal.Value
	IrrelevantAfter    temporal.Value
	IrrelevantBefore   temporal.Value

	StillRelevant bool

	Completed   bool
	CompletedAt temporal.Value

	// Tags preserves insertion order and duplicates.
	Tags []string

	RankPriority int

	// Raw is the original key-value mapping node, retained so that
	// mutations (complete, push due date) round-trip unknown keys,
	// key order, and comments.
	Raw *yaml.Node
}

// FileMeta is a lightweight representation returned by store listings.
type FileMeta struct {
	Path      string
	Checksum  string
	UpdatedAt time.Time
}
