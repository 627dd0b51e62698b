// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package review

import (
	"context"
	"fmt"

	"github.com/pdiddy/review-engine/internal/llm"
	"github.com/pdiddy/review-engine/pkg/types"
)

// summarySection is one section's digest fed to the summary prompt.
type summarySection struct {
	ID       string
	Type     types.SectionType
	Summary  string
	Degraded bool
	Comments []string
}

// summaryCommentLimit caps per-section comments in the summary digest so a
// comment-heavy section does not crowd out the rest.
const summaryCommentLimit = 5

// generateSummary produces the document-level assessment from the tree and
// the per-section bundles. Degraded bundles are marked in the digest so the
// assessment can weigh lower-confidence feedback accordingly.
func (e *Engine) generateSummary(ctx context.Context, tree *types.KnowledgeTree, bundles []types.ReviewBundle) (types.ReviewSummary, error) {
	byID := make(map[string]types.ReviewBundle, len(bundles))
	for _, b := range bundles {
		byID[b.SectionID] = b
	}

	sections := make([]summarySection, 0, len(tree.Sections))
	for _, sec := range tree.Sections {
		s := summarySection{ID: sec.ID, Type: sec.Type, Summary: sec.Summary}
		if b, ok := byID[sec.ID]; ok {
			s.Degraded = b.Quality.Degraded
			for i, item := range b.Items {
				if i == summaryCommentLimit {
					break
				}
				s.Comments = append(s.Comments, item.Comment)
			}
		}
		sections = append(sections, s)
	}

	prompt, err := renderPrompt(summaryPromptTmpl, map[string]any{
		"PaperSummary":     tree.Summary,
		"ProblemStatement": tree.ProblemStatement,
		"Sections":         sections,
	})
	if err != nil {
		return types.ReviewSummary{}, err
	}

	callCtx := ctx
	if e.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.cfg.CallTimeout)
		defer cancel()
	}
	resp, err := e.gen.Generate(callCtx, llm.Request{
		Model:  e.cfg.ModelFor("summary"),
		Prompt: prompt,
	})
	if err != nil {
		return types.ReviewSummary{}, err
	}

	var summary types.ReviewSummary
	if err := llm.DecodeJSON(resp.Text, &summary); err != nil {
		return types.ReviewSummary{}, fmt.Errorf("decoding summary: %w", err)
	}
	return summary, nil
}
