package api

import (
	"github.com/starford/dagaz/internal/models"
)

// RecordDetail is the full record response payload.
type RecordDetail struct {
	Identifier         string   `json:"identifier"`
	Path               string   `json:"path"`
	Type               string   `json:"type"`
	Event              string   `json:"event"`
	Created            string   `json:"created,omitempty"`
	Due                string   `json:"due,omitempty"`
	ExpectedCompletion string   `json:"expected_completion,omitempty"`
	IrrelevantAfter    string   `json:"irrelevant_after,omitempty"`
	IrrelevantBefore   string   `json:"irrelevant_before,omitempty"`
	StillRelevant      bool     `json:"still_relevant"`
	Completed          bool     `json:"completed"`
	CompletedAt        string   `json:"completed_at,omitempty"`
	Tags               []string `json:"tags"`
	RankPriority       int      `json:"rank_priority"`
}

func recordDetail(rec *models.Record) RecordDetail {
	tags := rec.Tags
	if tags == nil {
		tags = []string{}
	}
	return RecordDetail{
		Identifier:         rec.Identifier,
		Path:               rec.Path,
		Type:               string(rec.Type),
		Event:              rec.Event,
		Created:            rec.Created.String(),
		Due:                rec.Due.String(),
		ExpectedCompletion: rec.ExpectedCompletion.String(),
		IrrelevantAfter:    rec.IrrelevantAfter.String(),
		IrrelevantBefore:   rec.IrrelevantBefore.String(),
		StillRelevant:      rec.StillRelevant,
		Completed:          rec.Completed,
		CompletedAt:        rec.CompletedAt.String(),
		Tags:               tags,
		RankPriority:       rec.RankPriority,
	}
}

// RecordListItem is a lightweight item in a list response.
type RecordListItem struct {
	Identifier   string   `json:"identifier"`
	Path         string   `json:"path"`
	Type         string   `json:"type"`
	Event        string   `json:"event"`
	Due          string   `json:"due,omitempty"`
	Completed    bool     `json:"completed"`
	Tags         []string `json:"tags"`
	RankPriority int      `json:"rank_priority"`
}

// RecordListResponse wraps paginated record listings.
type RecordListResponse struct {
	Records []RecordListItem `json:"records"`
	Total   int              `json:"total"`
}

// PushRequest is the request body for pushing a record's due date.
type PushRequest struct {
	Due string `json:"due"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	Path    string `json:"path"`
	Event   string `json:"event"`
	Snippet string `json:"snippet"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}
