// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package review

import (
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/review-engine/pkg/types"
)

// FormatTable writes a human-readable run digest to w: one row per section
// with metrics and gate outcome, then the edit and demotion counts.
func FormatTable(result *types.ReviewResult, tree *types.KnowledgeTree, w io.Writer) {
	byID := make(map[string]types.Section, len(tree.Sections))
	for _, s := range tree.Sections {
		byID[s.ID] = s
	}

	fmt.Fprintf(w, "%-20s  %-12s  %-5s  %-7s  %-5s  %s\n",
		"Section", "Type", "Items", "Clarity", "Iters", "Gate")
	fmt.Fprintln(w, strings.Repeat("-", 70))

	for _, b := range result.Bundles {
		sec := byID[b.SectionID]
		gate := "accepted"
		if b.Quality.Degraded {
			gate = "degraded"
		}
		fmt.Fprintf(w, "%-20s  %-12s  %-5d  %-7.2f  %-5d  %s\n",
			b.SectionID, sec.Type, len(b.Items), b.Metrics.Clarity,
			b.Quality.Iterations, gate)
	}

	fmt.Fprintf(w, "\n%d edits", len(result.Edits))
	if n := len(result.DocumentComments); n > 0 {
		fmt.Fprintf(w, " (%d document-level comments)", n)
	}
	fmt.Fprintln(w)
}
