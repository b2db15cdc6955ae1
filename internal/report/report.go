// Package report prints coverage tables for a classification run.
package report

import (
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/jonesrussell/north-cloud/prayerbook/internal/database"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/pipeline"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/tree"
)

// WriteCounts prints one row per leaf with its prayer count and a total.
func WriteCounts(w io.Writer, t *tree.Tree) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)

	tw.AppendHeader(table.Row{"Category", "Prayers"})
	for _, c := range t.Counts() {
		tw.AppendRow(table.Row{c.Path.String(), c.Count})
	}
	tw.AppendFooter(table.Row{"Total", t.Total()})
	tw.Render()
}

// WritePasses prints the bucket sizes of every top-level pass.
func WritePasses(w io.Writer, passes []pipeline.PassStats) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)

	tw.AppendHeader(table.Row{"Pass", "Category", "Prayers"})
	for _, p := range passes {
		for _, c := range p.Counts {
			tw.AppendRow(table.Row{p.Name, c.Label, c.Count})
		}
		tw.AppendRow(table.Row{p.Name, "(remainder)", p.Remainder})
		tw.AppendSeparator()
	}
	tw.Render()
}

// WriteRuns prints recorded runs, newest first.
func WriteRuns(w io.Writer, runs []database.Run) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)

	tw.AppendHeader(table.Row{"ID", "Rules", "Prayers", "Uncategorized", "Started"})
	for _, r := range runs {
		tw.AppendRow(table.Row{r.ID, r.RulesName, r.Prayers, r.Uncategorized, r.StartedAt.Format(time.RFC3339)})
	}
	tw.Render()
}

// WriteChanges prints prayers that moved between two runs.
func WriteChanges(w io.Writer, changes []database.Change) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)

	tw.AppendHeader(table.Row{"Prayer", "From", "To"})
	for _, c := range changes {
		tw.AppendRow(table.Row{c.PrayerIndex, orNone(c.From), orNone(c.To)})
	}
	tw.AppendFooter(table.Row{"Changed", len(changes), ""})
	tw.Render()
}

func orNone(path string) string {
	if path == "" {
		return "(none)"
	}
	return path
}
