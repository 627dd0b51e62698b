// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package anchor

import (
	"errors"
	"testing"

	"github.com/pdiddy/review-engine/pkg/types"
)

// fixture builds a document with one paragraph per text, offsets laid out
// as if the texts were joined with blank lines, plus one section over ids.
func fixture(texts ...string) (types.Document, types.Section) {
	var doc types.Document
	var sec types.Section
	sec.ID = "s01-other"
	offset := 0
	for i, text := range texts {
		id := []string{"p0001", "p0002", "p0003", "p0004"}[i]
		doc.Paragraphs = append(doc.Paragraphs, types.Paragraph{
			ID:    id,
			Index: i,
			Text:  text,
			Start: offset,
			End:   offset + len([]rune(text)),
		})
		offset += len([]rune(text)) + 2
		sec.ParagraphIDs = append(sec.ParagraphIDs, id)
	}
	return doc, sec
}

func TestResolveExact(t *testing.T) {
	doc, sec := fixture("The quick brown fox.", "It jumps over the lazy dog.")

	item := types.ReviewItem{SectionID: sec.ID, MatchText: "the lazy dog"}
	a, err := Resolve(item, sec, doc)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !a.Resolved || a.ParagraphID != "p0002" {
		t.Errorf("anchor = %+v", a)
	}

	// The span slices the original coordinates back to the match text.
	p := doc.Paragraphs[1]
	text := []rune(p.Text)
	if got := string(text[a.Start-p.Start : a.End-p.Start]); got != "the lazy dog" {
		t.Errorf("span text = %q", got)
	}
}

func TestResolveFirstOccurrenceWins(t *testing.T) {
	doc, sec := fixture("alpha beta alpha", "alpha")
	a, err := Resolve(types.ReviewItem{MatchText: "alpha"}, sec, doc)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if a.ParagraphID != "p0001" || a.Start != 0 {
		t.Errorf("anchor = %+v, want first occurrence in p0001", a)
	}
}

func TestResolveNormalized(t *testing.T) {
	doc, sec := fixture("The model achieves state-of-the-art  results, surprisingly.")

	// Whitespace and punctuation differences are folded away.
	item := types.ReviewItem{MatchText: "state of the art results"}
	a, err := Resolve(item, sec, doc)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !a.Resolved {
		t.Fatal("anchor unresolved")
	}
	text := []rune(doc.Paragraphs[0].Text)
	got := string(text[a.Start:a.End])
	if got != "state-of-the-art  results" {
		t.Errorf("span text = %q", got)
	}
}

func TestResolveUnresolved(t *testing.T) {
	doc, sec := fixture("A perfectly ordinary paragraph.")

	for _, match := range []string{"the the results", "", "entirely absent text"} {
		a, err := Resolve(types.ReviewItem{MatchText: match}, sec, doc)
		var ua *UnresolvedAnchor
		if !errors.As(err, &ua) {
			t.Fatalf("Resolve(%q) err = %v, want *UnresolvedAnchor", match, err)
		}
		if a.Resolved {
			t.Errorf("Resolve(%q) produced a resolved anchor", match)
		}
	}
}

func TestResolveIdempotent(t *testing.T) {
	doc, sec := fixture("Alpha beta gamma.", "Delta epsilon zeta.")
	item := types.ReviewItem{MatchText: "epsilon"}

	a1, err1 := Resolve(item, sec, doc)
	a2, err2 := Resolve(item, sec, doc)
	if err1 != nil || err2 != nil {
		t.Fatalf("Resolve: %v, %v", err1, err2)
	}
	if a1 != a2 {
		t.Errorf("anchors differ: %+v vs %+v", a1, a2)
	}

	// Unresolved outcomes repeat identically too.
	missing := types.ReviewItem{MatchText: "nope"}
	_, e1 := Resolve(missing, sec, doc)
	_, e2 := Resolve(missing, sec, doc)
	if (e1 == nil) != (e2 == nil) {
		t.Error("unresolved outcome not idempotent")
	}
}

func TestResolveStaysInsideSection(t *testing.T) {
	// The match text exists only in a paragraph outside the section; the
	// resolver must not find it.
	doc, _ := fixture("Inside text.", "Outside secret phrase.")
	sec := types.Section{ID: "s01-other", ParagraphIDs: []string{"p0001"}}

	_, err := Resolve(types.ReviewItem{MatchText: "secret phrase"}, sec, doc)
	var ua *UnresolvedAnchor
	if !errors.As(err, &ua) {
		t.Fatalf("Resolve = %v, want *UnresolvedAnchor", err)
	}
}
