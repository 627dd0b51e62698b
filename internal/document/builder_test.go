// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package document

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/pdiddy/review-engine/internal/llm"
	"github.com/pdiddy/review-engine/pkg/types"
)

// scriptedGenerator routes prompts to canned responses by task marker.
type scriptedGenerator struct {
	outline  string
	analyze  string
	crossref string
	err      error
}

func (g *scriptedGenerator) Generate(_ context.Context, req llm.Request) (llm.Response, error) {
	if g.err != nil {
		return llm.Response{}, g.err
	}
	switch {
	case strings.Contains(req.Prompt, "Paragraph digest"):
		return llm.Response{Text: g.outline}, nil
	case strings.Contains(req.Prompt, "Analyze one section"):
		return llm.Response{Text: g.analyze}, nil
	case strings.Contains(req.Prompt, "cross-section dependencies"):
		return llm.Response{Text: g.crossref}, nil
	}
	return llm.Response{}, fmt.Errorf("unexpected prompt: %.60s", req.Prompt)
}

const fiveSectionManuscript = `# Deep Widgets

## Abstract

We study widgets at depth and report gains.

## Introduction

Widgets matter. Prior work missed depth.

## Methods

We trained a deep widget on the standard corpus.

## Results

Accuracy improved by 12 points over the baseline.

## Discussion

The 12 point gain confirms the depth hypothesis.
`

func fiveSectionOutline() string {
	return `{"summary": "A paper about deep widgets.",
		"problem_statement": "Do deeper widgets perform better?",
		"hypotheses": ["Depth improves widgets"],
		"sections": [
			{"start_paragraph": 1, "type": "abstract", "title": "Abstract"},
			{"start_paragraph": 3, "type": "introduction", "title": "Introduction"},
			{"start_paragraph": 5, "type": "methods", "title": "Methods"},
			{"start_paragraph": 7, "type": "results", "title": "Results"},
			{"start_paragraph": 9, "type": "discussion", "title": "Discussion"}
		]}`
}

const analysisJSON = `{"summary": "Section summary.", "role": "Sets up the work.",
	"key_points": ["point one"],
	"metrics": {"clarity": 0.8, "methodology": 0.7, "novelty": 0.6, "impact": 0.5, "presentation": 0.9, "literature_integration": 1.4}}`

func TestBuilderBuildsFiveSectionTree(t *testing.T) {
	gen := &scriptedGenerator{
		outline: fiveSectionOutline(),
		analyze: analysisJSON,
		crossref: `[{"section_id": "s06-discussion", "depends_on": ["s05-results"]},
			{"section_id": "s05-results", "depends_on": ["s04-methods"]}]`,
	}
	doc := Parse("doc1", fiveSectionManuscript)
	b := NewBuilder(gen, types.AIConfig{Model: "test"}, nil)

	tree, err := b.Build(context.Background(), doc)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// The leading title paragraph becomes its own section, then the five
	// classified ones.
	if len(tree.Sections) != 6 {
		t.Fatalf("sections = %d, want 6", len(tree.Sections))
	}
	wantTypes := []types.SectionType{
		types.SectionOther, types.SectionAbstract, types.SectionIntroduction,
		types.SectionMethods, types.SectionResults, types.SectionDiscussion,
	}
	for i, want := range wantTypes {
		if tree.Sections[i].Type != want {
			t.Errorf("section %d type = %v, want %v", i, tree.Sections[i].Type, want)
		}
	}

	if tree.Summary != "A paper about deep widgets." {
		t.Errorf("Summary = %q", tree.Summary)
	}
	if len(tree.Hypotheses) != 1 {
		t.Errorf("Hypotheses = %v", tree.Hypotheses)
	}

	// Partition invariant holds by construction.
	if err := Validate(tree); err != nil {
		t.Errorf("Validate: %v", err)
	}

	// Metrics are clamped to [0,1].
	for _, s := range tree.Sections {
		if s.Metrics.LiteratureIntegration > 1 {
			t.Errorf("section %s metrics not clamped: %v", s.ID, s.Metrics.LiteratureIntegration)
		}
	}

	// Crossref edges present and mirrored.
	discussion := tree.Sections[5]
	if len(discussion.Dependencies) != 1 || discussion.Dependencies[0] != "s05-results" {
		t.Errorf("discussion dependencies = %v", discussion.Dependencies)
	}
	results := tree.Sections[4]
	if len(results.Supports) != 1 || results.Supports[0] != "s06-discussion" {
		t.Errorf("results supports = %v", results.Supports)
	}
}

func TestBuilderHeadingOverridesProposedType(t *testing.T) {
	// The model proposes "other" for a section whose heading says Methods;
	// the synonym pre-classification wins.
	gen := &scriptedGenerator{
		outline: `{"summary": "s", "sections": [
			{"start_paragraph": 0, "type": "other", "title": "whatever"},
			{"start_paragraph": 1, "type": "other", "title": "mystery"}
		]}`,
		analyze:  analysisJSON,
		crossref: `[]`,
	}
	doc := Parse("doc1", "## Abstract\n\n## Methodology\n\nText.")
	b := NewBuilder(gen, types.AIConfig{}, nil)

	tree, err := b.Build(context.Background(), doc)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if tree.Sections[0].Type != types.SectionAbstract {
		t.Errorf("section 0 type = %v", tree.Sections[0].Type)
	}
	if tree.Sections[1].Type != types.SectionMethods {
		t.Errorf("section 1 type = %v", tree.Sections[1].Type)
	}
}

func TestBuilderInsufficientStructure(t *testing.T) {
	t.Run("empty document", func(t *testing.T) {
		b := NewBuilder(&scriptedGenerator{}, types.AIConfig{}, nil)
		_, err := b.Build(context.Background(), types.Document{ID: "empty"})
		var insufficient *InsufficientStructure
		if !errors.As(err, &insufficient) {
			t.Fatalf("Build = %v, want *InsufficientStructure", err)
		}
	})

	t.Run("no valid boundaries", func(t *testing.T) {
		gen := &scriptedGenerator{
			outline: `{"summary": "s", "sections": [{"start_paragraph": 99, "type": "abstract"}]}`,
		}
		b := NewBuilder(gen, types.AIConfig{}, nil)
		_, err := b.Build(context.Background(), Parse("doc1", "Only one paragraph."))
		var insufficient *InsufficientStructure
		if !errors.As(err, &insufficient) {
			t.Fatalf("Build = %v, want *InsufficientStructure", err)
		}
	})
}

func TestBuilderCrossrefDropsUnknownIDs(t *testing.T) {
	gen := &scriptedGenerator{
		outline:  `{"summary": "s", "sections": [{"start_paragraph": 0, "type": "abstract", "title": "Abstract"}]}`,
		analyze:  analysisJSON,
		crossref: `[{"section_id": "s01-abstract", "depends_on": ["s99-ghost", "s01-abstract"]}]`,
	}
	b := NewBuilder(gen, types.AIConfig{}, nil)
	tree, err := b.Build(context.Background(), Parse("doc1", "Some abstract text."))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(tree.Sections[0].Dependencies) != 0 {
		t.Errorf("dependencies = %v, want none (unknown and self edges dropped)", tree.Sections[0].Dependencies)
	}
}

func TestBuilderGenerationFailureIsStepFailure(t *testing.T) {
	gen := &scriptedGenerator{err: fmt.Errorf("model down")}
	b := NewBuilder(gen, types.AIConfig{}, nil)
	_, err := b.Build(context.Background(), Parse("doc1", "Text."))
	if err == nil || !strings.Contains(err.Error(), "step outline") {
		t.Fatalf("Build = %v, want step failure naming outline", err)
	}
}
