// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package document

import (
	"errors"
	"strings"
	"testing"

	"github.com/pdiddy/review-engine/pkg/types"
)

func TestClassifyHeading(t *testing.T) {
	tests := []struct {
		heading string
		want    types.SectionType
		ok      bool
	}{
		{"## Abstract", types.SectionAbstract, true},
		{"Summary", types.SectionAbstract, true},
		{"# Introduction", types.SectionIntroduction, true},
		{"Background", types.SectionIntroduction, true},
		{"### Materials and Methods", types.SectionMethods, true},
		{"2. Methodology", types.SectionMethods, true},
		{"Findings", types.SectionResults, true},
		{"Discussion:", types.SectionDiscussion, true},
		{"References", types.SectionOther, true},
		{"Our Novel Architecture", "", false},
	}
	for _, tt := range tests {
		got, ok := classifyHeading(tt.heading)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("classifyHeading(%q) = %v, %v; want %v, %v", tt.heading, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNormalizeSectionType(t *testing.T) {
	if got := normalizeSectionType(" Results "); got != types.SectionResults {
		t.Errorf("got %v", got)
	}
	if got := normalizeSectionType("appendix"); got != types.SectionOther {
		t.Errorf("unknown type = %v, want other", got)
	}
}

func treeWith(sections ...types.Section) *types.KnowledgeTree {
	var doc types.Document
	for _, s := range sections {
		for _, pid := range s.ParagraphIDs {
			doc.Paragraphs = append(doc.Paragraphs, types.Paragraph{ID: pid, Index: len(doc.Paragraphs)})
		}
	}
	return &types.KnowledgeTree{Document: doc, Sections: sections}
}

func TestValidatePartition(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		tree := treeWith(
			types.Section{ID: "s01-abstract", ParagraphIDs: []string{"p0001"}},
			types.Section{ID: "s02-other", ParagraphIDs: []string{"p0002", "p0003"}},
		)
		if err := Validate(tree); err != nil {
			t.Errorf("Validate: %v", err)
		}
	})

	t.Run("orphan paragraph", func(t *testing.T) {
		tree := treeWith(types.Section{ID: "s01-other", ParagraphIDs: []string{"p0001"}})
		tree.Document.Paragraphs = append(tree.Document.Paragraphs, types.Paragraph{ID: "p0099", Index: 1})
		err := Validate(tree)
		if err == nil || !strings.Contains(err.Error(), "p0099 belongs to no section") {
			t.Errorf("Validate = %v", err)
		}
	})

	t.Run("duplicated paragraph", func(t *testing.T) {
		tree := treeWith(
			types.Section{ID: "s01-other", ParagraphIDs: []string{"p0001"}},
			types.Section{ID: "s02-other", ParagraphIDs: []string{"p0001"}},
		)
		// Second section owns no fresh paragraph, so fix the document up.
		tree.Document.Paragraphs = tree.Document.Paragraphs[:1]
		err := Validate(tree)
		if err == nil || !strings.Contains(err.Error(), "in both") {
			t.Errorf("Validate = %v", err)
		}
	})
}

func TestValidateDetectsCycle(t *testing.T) {
	tree := treeWith(
		types.Section{ID: "a", ParagraphIDs: []string{"p0001"}, Dependencies: []string{"b"}},
		types.Section{ID: "b", ParagraphIDs: []string{"p0002"}, Dependencies: []string{"c"}},
		types.Section{ID: "c", ParagraphIDs: []string{"p0003"}, Dependencies: []string{"a"}},
	)
	err := Validate(tree)
	var cycle *DependencyCycle
	if !errors.As(err, &cycle) {
		t.Fatalf("Validate = %v, want *DependencyCycle", err)
	}
	if len(cycle.Path) != 4 || cycle.Path[0] != cycle.Path[len(cycle.Path)-1] {
		t.Errorf("cycle path = %v", cycle.Path)
	}
}

func TestValidateAcyclicDiamond(t *testing.T) {
	// Diamond-shaped dependencies are fine; only true cycles fail.
	tree := treeWith(
		types.Section{ID: "a", ParagraphIDs: []string{"p0001"}, Dependencies: []string{"b", "c"}},
		types.Section{ID: "b", ParagraphIDs: []string{"p0002"}, Dependencies: []string{"d"}},
		types.Section{ID: "c", ParagraphIDs: []string{"p0003"}, Dependencies: []string{"d"}},
		types.Section{ID: "d", ParagraphIDs: []string{"p0004"}},
	)
	if err := Validate(tree); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestSectionText(t *testing.T) {
	doc := types.Document{Paragraphs: []types.Paragraph{
		{ID: "p0001", Text: "First."},
		{ID: "p0002", Text: "Second."},
		{ID: "p0003", Text: "Third."},
	}}
	sec := types.Section{ParagraphIDs: []string{"p0002", "p0003"}}
	if got := SectionText(doc, sec); got != "Second.\n\nThird." {
		t.Errorf("SectionText = %q", got)
	}
}
