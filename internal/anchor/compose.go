// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package anchor

import (
	"fmt"
	"sort"

	"github.com/pdiddy/review-engine/internal/document"
	"github.com/pdiddy/review-engine/pkg/types"
)

// severityRank orders severities for overlap resolution.
var severityRank = map[types.Severity]int{
	types.SeverityHigh:   3,
	types.SeverityMedium: 2,
	types.SeverityLow:    1,
}

// Composed is the outcome of edit composition: the ordered conflict-free
// edit set plus the items demoted to document level.
type Composed struct {
	Edits    types.EditSet
	Demoted  []types.DocumentComment
	Resolved int
	Merged   int
}

// Compose resolves every accepted review item against its owning section
// and builds the final edit set. Unresolved items demote to document-level
// comments; overlapping anchors within a paragraph merge into the winning
// edit's notes. The result is ordered by (paragraph index, start offset)
// ascending. Compose runs single-threaded per document, after every
// section's review has completed.
func Compose(tree *types.KnowledgeTree, bundles []types.ReviewBundle) Composed {
	paraIndex := make(map[string]int, len(tree.Document.Paragraphs))
	for _, p := range tree.Document.Paragraphs {
		paraIndex[p.ID] = p.Index
	}

	var out Composed
	var edits []types.Edit

	for _, bundle := range bundles {
		sec, ok := document.SectionByID(tree, bundle.SectionID)
		if !ok {
			// A bundle for an unknown section cannot be anchored at all.
			for _, item := range bundle.Items {
				out.Demoted = append(out.Demoted, demote(item, "unknown section"))
			}
			continue
		}
		for _, item := range bundle.Items {
			a, err := Resolve(item, sec, tree.Document)
			if err != nil {
				out.Demoted = append(out.Demoted, demote(item, "unresolved anchor"))
				continue
			}
			out.Resolved++
			edits = append(edits, editFor(item, a))
		}
	}

	edits = mergeOverlaps(edits, paraIndex, &out.Merged)

	sort.SliceStable(edits, func(i, j int) bool {
		pi, pj := paraIndex[edits[i].Anchor.ParagraphID], paraIndex[edits[j].Anchor.ParagraphID]
		if pi != pj {
			return pi < pj
		}
		return edits[i].Anchor.Start < edits[j].Anchor.Start
	})

	out.Edits = edits
	return out
}

// editFor builds the edit entry for a resolved item.
func editFor(item types.ReviewItem, a types.Anchor) types.Edit {
	op := types.OpComment
	if item.Revision != "" {
		op = types.OpReplace
	}
	return types.Edit{
		Anchor:    a,
		Op:        op,
		SectionID: item.SectionID,
		MatchText: item.MatchText,
		Comment:   item.Comment,
		Revision:  item.Revision,
		Severity:  item.Severity,
		Category:  item.Category,
	}
}

// demote converts an unanchorable item into a document-level comment.
func demote(item types.ReviewItem, reason string) types.DocumentComment {
	comment := item.Comment
	if item.Revision != "" {
		comment = fmt.Sprintf("%s (suggested revision: %s)", comment, item.Revision)
	}
	return types.DocumentComment{
		SectionID: item.SectionID,
		Comment:   comment,
		Severity:  item.Severity,
		Reason:    reason,
	}
}

// mergeOverlaps resolves span conflicts within each paragraph. The higher
// severity edit wins; ties go to the longer span, then to the earlier edit.
// The loser's feedback folds into the winner's notes so nothing is lost.
func mergeOverlaps(edits []types.Edit, paraIndex map[string]int, merged *int) []types.Edit {
	sort.SliceStable(edits, func(i, j int) bool {
		pi, pj := paraIndex[edits[i].Anchor.ParagraphID], paraIndex[edits[j].Anchor.ParagraphID]
		if pi != pj {
			return pi < pj
		}
		return edits[i].Anchor.Start < edits[j].Anchor.Start
	})

	var out []types.Edit
	for _, e := range edits {
		conflict := -1
		for i := range out {
			if out[i].Anchor.ParagraphID == e.Anchor.ParagraphID && overlaps(out[i].Anchor, e.Anchor) {
				conflict = i
				break
			}
		}
		if conflict < 0 {
			out = append(out, e)
			continue
		}

		*merged++
		if beats(e, out[conflict]) {
			e.Notes = append(e.Notes, noteFor(out[conflict]))
			e.Notes = append(e.Notes, out[conflict].Notes...)
			out[conflict] = e
		} else {
			out[conflict].Notes = append(out[conflict].Notes, noteFor(e))
		}
	}
	return out
}

func overlaps(a, b types.Anchor) bool {
	return a.Start < b.End && b.Start < a.End
}

// beats reports whether a should win the span over b.
func beats(a, b types.Edit) bool {
	ra, rb := severityRank[a.Severity], severityRank[b.Severity]
	if ra != rb {
		return ra > rb
	}
	// More specific means the longer span.
	la, lb := a.Anchor.End-a.Anchor.Start, b.Anchor.End-b.Anchor.Start
	return la > lb
}

// noteFor renders a losing edit's feedback as a secondary note.
func noteFor(e types.Edit) string {
	if e.Revision != "" {
		return fmt.Sprintf("also (%s): %s (suggested revision: %s)", e.Severity, e.Comment, e.Revision)
	}
	return fmt.Sprintf("also (%s): %s", e.Severity, e.Comment)
}
