// Package render formats records for terminal output.
package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/temporal"
)

// Table writes an aligned listing of records. now is used to flag
// overdue entries.
func Table(w io.Writer, records []*models.Record, now temporal.Value) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tDUE\tEVENT\tTAGS")
	for _, rec := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			rec.Identifier,
			rec.Type,
			dueCell(rec, now),
			statusPrefix(rec)+rec.Event,
			strings.Join(rec.Tags, ","),
		)
	}
	return tw.Flush()
}

func dueCell(rec *models.Record, now temporal.Value) string {
	if rec.Due.IsZero() {
		return "-"
	}
	s := rec.Due.String()
	if !rec.Completed && now.After(rec.Due) {
		s += " !"
	}
	return s
}

func statusPrefix(rec *models.Record) string {
	if rec.Completed {
		return "[done] "
	}
	return ""
}

// Detail writes one record as aligned key/value lines.
func Detail(w io.Writer, rec *models.Record) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	row := func(k, v string) {
		if v != "" {
			fmt.Fprintf(tw, "%s\t%s\n", k, v)
		}
	}
	row("id", rec.Identifier)
	row("path", rec.Path)
	row("type", string(rec.Type))
	row("event", rec.Event)
	row("created", rec.Created.String())
	row("due", rec.Due.String())
	row("expected_completion", rec.ExpectedCompletion.String())
	row("irrelevant_after", rec.IrrelevantAfter.String())
	row("irrelevant_before", rec.IrrelevantBefore.String())
	row("still_relevant", fmt.Sprintf("%t", rec.StillRelevant))
	row("completed", fmt.Sprintf("%t", rec.Completed))
	row("completed_at", rec.CompletedAt.String())
	if len(rec.Tags) > 0 {
		row("tags", strings.Join(rec.Tags, ","))
	}
	if rec.RankPriority != models.DefaultRankPriority {
		row("rank_priority", fmt.Sprintf("%d", rec.RankPriority))
	}
	return tw.Flush()
}
