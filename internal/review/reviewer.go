// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package review

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/pdiddy/review-engine/internal/document"
	"github.com/pdiddy/review-engine/internal/llm"
	"github.com/pdiddy/review-engine/pkg/logger"
	"github.com/pdiddy/review-engine/pkg/types"
)

// PersonaSource supplies ranked prior reviewer comments for a query. The
// reviewer injects them as read-only persona context; an absent source or
// empty result means generic review with no persona weighting.
type PersonaSource interface {
	Retrieve(ctx context.Context, query string, k int) ([]string, error)
}

// Reviewer generates one section's review bundle against the section-type
// rubric, the global paper summary, and optional persona context. It never
// mutates the knowledge tree.
type Reviewer struct {
	gen     llm.Generator
	cfg     types.ReviewConfig
	rubrics RubricTable
	log     logger.Logger
}

// NewReviewer constructs a Reviewer. A nil rubric table uses the defaults.
func NewReviewer(gen llm.Generator, cfg types.ReviewConfig, rubrics RubricTable, log logger.Logger) *Reviewer {
	if rubrics == nil {
		rubrics = DefaultRubrics()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Reviewer{gen: gen, cfg: cfg.WithDefaults(), rubrics: rubrics, log: log}
}

// reviewResponse is the model's output contract for one section review.
type reviewResponse struct {
	Items   []reviewItemJSON     `json:"items"`
	Metrics types.ScoringMetrics `json:"metrics"`
}

// reviewItemJSON is one item as returned by the model.
type reviewItemJSON struct {
	MatchText string `json:"match_text"`
	Comment   string `json:"comment"`
	Revision  string `json:"revision"`
	Severity  string `json:"severity"`
	Category  string `json:"category"`
}

// validSeverities is the accepted severity set; anything else defaults to
// medium.
var validSeverities = map[types.Severity]bool{
	types.SeverityHigh:   true,
	types.SeverityMedium: true,
	types.SeverityLow:    true,
}

// ReviewSection produces a draft bundle for the section: one model call,
// decoded, with every item's match_text checked against the section text.
// Items without a verbatim (or whitespace-folded) occurrence are rejected
// here, not deferred to anchoring, and reported in the bundle's quality
// notes. Constraints carry the previous draft's gate failures.
func (r *Reviewer) ReviewSection(ctx context.Context, tree *types.KnowledgeTree, sectionID string, persona, constraints []string) (types.ReviewBundle, error) {
	sec, ok := document.SectionByID(tree, sectionID)
	if !ok {
		return types.ReviewBundle{}, fmt.Errorf("unknown section %s", sectionID)
	}
	rubric := r.rubrics.For(sec.Type)
	sectionText := document.SectionText(tree.Document, sec)

	prompt, err := renderPrompt(reviewPromptTmpl, map[string]any{
		"Persona":      persona,
		"PaperSummary": tree.Summary,
		"SectionType":  string(sec.Type),
		"SectionTitle": sec.Title,
		"Focus":        rubric.Focus,
		"Avoid":        rubric.Avoid,
		"KeyQuestions": rubric.KeyQuestions,
		"Constraints":  constraints,
		"SectionText":  sectionText,
	})
	if err != nil {
		return types.ReviewBundle{}, err
	}

	callCtx := ctx
	if r.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.cfg.CallTimeout)
		defer cancel()
	}
	resp, err := r.gen.Generate(callCtx, llm.Request{
		Model:  r.cfg.ModelFor("review"),
		Prompt: prompt,
	})
	if err != nil {
		return types.ReviewBundle{}, fmt.Errorf("reviewing section %s: %w", sectionID, err)
	}

	var decoded reviewResponse
	if err := llm.DecodeJSON(resp.Text, &decoded); err != nil {
		return types.ReviewBundle{}, fmt.Errorf("decoding review for section %s: %w", sectionID, err)
	}

	items, notes := convertItems(decoded.Items, sectionID, sectionText)
	return types.ReviewBundle{
		SectionID: sectionID,
		Items:     items,
		Metrics:   clampMetrics(decoded.Metrics),
		Quality:   types.QualityReport{Notes: notes},
	}, nil
}

// convertItems validates model items and converts the survivors. Rejections
// are reported as notes, one per item, not errors: a bad item must not sink
// the whole draft.
func convertItems(items []reviewItemJSON, sectionID, sectionText string) ([]types.ReviewItem, []string) {
	var result []types.ReviewItem
	var notes []string

	for i, item := range items {
		if strings.TrimSpace(item.MatchText) == "" {
			notes = append(notes, fmt.Sprintf("item %d: empty match_text", i))
			continue
		}
		if strings.TrimSpace(item.Comment) == "" {
			notes = append(notes, fmt.Sprintf("item %d: empty comment", i))
			continue
		}
		if !occursVerbatim(sectionText, item.MatchText) {
			notes = append(notes, fmt.Sprintf("item %d: match_text not verbatim in section: %.60q", i, item.MatchText))
			continue
		}

		severity := types.Severity(strings.ToLower(strings.TrimSpace(item.Severity)))
		if !validSeverities[severity] {
			severity = types.SeverityMedium
		}

		result = append(result, types.ReviewItem{
			SectionID: sectionID,
			MatchText: item.MatchText,
			Comment:   item.Comment,
			Revision:  item.Revision,
			Severity:  severity,
			Category:  strings.ToLower(strings.TrimSpace(item.Category)),
		})
	}
	return result, notes
}

// occursVerbatim reports whether match occurs in text exactly, or exactly
// after folding runs of whitespace. Anything looser is a paraphrase and is
// rejected.
func occursVerbatim(text, match string) bool {
	if strings.Contains(text, match) {
		return true
	}
	return strings.Contains(foldSpace(text), foldSpace(match))
}

// foldSpace collapses every whitespace run to a single space.
func foldSpace(s string) string {
	var b strings.Builder
	inSpace := false
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if inSpace {
			b.WriteByte(' ')
			inSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// clamp01 bounds v to [0,1].
func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// clampMetrics bounds every metric field to [0,1].
func clampMetrics(m types.ScoringMetrics) types.ScoringMetrics {
	m.Clarity = clamp01(m.Clarity)
	m.Methodology = clamp01(m.Methodology)
	m.Novelty = clamp01(m.Novelty)
	m.Impact = clamp01(m.Impact)
	m.Presentation = clamp01(m.Presentation)
	m.LiteratureIntegration = clamp01(m.LiteratureIntegration)
	return m
}
