// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package anchor resolves review items to exact spans of the original
// document and composes the final non-overlapping edit set. All offsets are
// original-document rune coordinates; the external writer recomputes shifts
// as it applies edits in order.
package anchor

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/pdiddy/review-engine/pkg/types"
)

// UnresolvedAnchor reports a review item whose match text has no exact or
// normalized occurrence within its owning section. Non-fatal: the item is
// demoted to a document-level comment, never dropped and never given a
// wrong span.
type UnresolvedAnchor struct {
	SectionID string
	MatchText string
}

func (e *UnresolvedAnchor) Error() string {
	return fmt.Sprintf("no occurrence of %q in section %s", e.MatchText, e.SectionID)
}

// Resolve locates item.MatchText within the owning section's paragraphs
// only — never outside, to avoid cross-section false matches. Exact
// substring match is tried first, then a normalized (case, whitespace and
// punctuation insensitive) match; multiple occurrences resolve to the first
// in paragraph order. Resolve is a pure function: the same item against the
// same section yields the same anchor. Total failure returns an unresolved
// anchor and *UnresolvedAnchor.
func Resolve(item types.ReviewItem, sec types.Section, doc types.Document) (types.Anchor, error) {
	match := strings.TrimSpace(item.MatchText)
	if match == "" {
		return types.Anchor{}, &UnresolvedAnchor{SectionID: sec.ID, MatchText: item.MatchText}
	}

	paragraphs := sectionParagraphs(sec, doc)

	// Exact pass over every paragraph before any normalized attempt, so a
	// verbatim occurrence later in the section beats an earlier fuzzy one.
	for _, p := range paragraphs {
		if byteIdx := strings.Index(p.Text, match); byteIdx >= 0 {
			start := p.Start + runeLen(p.Text[:byteIdx])
			return types.Anchor{
				ParagraphID: p.ID,
				Start:       start,
				End:         start + runeLen(match),
				Resolved:    true,
			}, nil
		}
	}

	normMatch, _ := normalize(match)
	if normMatch != "" {
		for _, p := range paragraphs {
			normText, indexMap := normalize(p.Text)
			if idx := strings.Index(normText, normMatch); idx >= 0 {
				// Map normalized rune positions back to original offsets.
				runeIdx := runeLen(normText[:idx])
				runeEnd := runeIdx + runeLen(normMatch)
				start := p.Start + indexMap[runeIdx]
				end := p.Start + indexMap[runeEnd-1] + 1
				return types.Anchor{
					ParagraphID: p.ID,
					Start:       start,
					End:         end,
					Resolved:    true,
				}, nil
			}
		}
	}

	return types.Anchor{}, &UnresolvedAnchor{SectionID: sec.ID, MatchText: item.MatchText}
}

// sectionParagraphs returns the section's paragraphs in document order.
func sectionParagraphs(sec types.Section, doc types.Document) []types.Paragraph {
	member := make(map[string]bool, len(sec.ParagraphIDs))
	for _, id := range sec.ParagraphIDs {
		member[id] = true
	}
	var out []types.Paragraph
	for _, p := range doc.Paragraphs {
		if member[p.ID] {
			out = append(out, p)
		}
	}
	return out
}

// normalize lowercases text and drops whitespace and punctuation. The index
// map records, per kept rune, the rune offset of its source in the original
// text, so normalized match positions translate back to document offsets.
func normalize(text string) (string, []int) {
	var b strings.Builder
	var indexMap []int
	for i, r := range []rune(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
			indexMap = append(indexMap, i)
		}
	}
	return b.String(), indexMap
}

func runeLen(s string) int {
	return len([]rune(s))
}
