package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"git.home.luguber.info/inful/stdoc/internal/bundle"
)

// logSummaryTable prints a per-page overview after the parse pass: bundle,
// id, language, final URL and how many labels the page defines. The table
// goes straight to stdout instead of through the handler, which would quote
// the newlines away; the debug gate keeps normal runs quiet.
func logSummaryTable(ctx context.Context, pages []*bundle.Page) {
	if !slog.Default().Enabled(ctx, slog.LevelDebug) {
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "Bundle\tID\tLang\tURL\tLabels")
	for _, p := range pages {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
			p.Bundle.Dir, p.ID, p.Lang, p.URL(), len(p.Labels))
	}
	w.Flush()
}
