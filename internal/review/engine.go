// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/review-engine/internal/anchor"
	"github.com/pdiddy/review-engine/internal/llm"
	"github.com/pdiddy/review-engine/internal/workflow"
	"github.com/pdiddy/review-engine/pkg/logger"
	"github.com/pdiddy/review-engine/pkg/types"
)

// State keys of the per-section review pipeline.
const (
	keySectionID = "section_id" // string
	keyPersona   = "persona"    // []string
	keyBundle    = "bundle"     // types.ReviewBundle
)

// Engine drives the whole-document review: per-section quality-gated
// review pipelines fanned out under a parallelism limit, then the document
// summary and the single-threaded edit composition.
type Engine struct {
	reviewer *Reviewer
	gen      llm.Generator
	cfg      types.ReviewConfig
	persona  PersonaSource
	log      logger.Logger
}

// NewEngine constructs an Engine. persona may be nil; reviews then run with
// the generic rubric only.
func NewEngine(gen llm.Generator, cfg types.ReviewConfig, rubrics RubricTable, persona PersonaSource, log logger.Logger) *Engine {
	cfg = cfg.WithDefaults()
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{
		reviewer: NewReviewer(gen, cfg, rubrics, log),
		gen:      gen,
		cfg:      cfg,
		persona:  persona,
		log:      log,
	}
}

// sectionOutcome is one section's result, kept in section order.
type sectionOutcome struct {
	bundle   types.ReviewBundle
	degraded error // *QualityExhausted or a recorded hard failure
}

// ReviewDocument runs the full review over a built knowledge tree. Each
// section gets its own pipeline instance over its own state — state is
// never shared across concurrent steps — and the tree is read-only
// throughout. The engine returns only once every section reached accepted
// or exhausted; cancelling ctx discards in-flight sections and fails the
// run. Per-section failures degrade that section rather than blocking the
// document.
func (e *Engine) ReviewDocument(ctx context.Context, tree *types.KnowledgeTree) (*types.ReviewResult, error) {
	if tree == nil || len(tree.Sections) == 0 {
		return nil, fmt.Errorf("knowledge tree has no sections")
	}

	outcomes := make([]sectionOutcome, len(tree.Sections))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Parallelism)

	for i, sec := range tree.Sections {
		i, sec := i, sec
		g.Go(func() error {
			outcome, err := e.reviewSection(gctx, tree, sec)
			if err != nil {
				// Only cancellation propagates; anything else degrades the
				// section and the run continues.
				if gctx.Err() != nil {
					return err
				}
				e.log.Warn("section review failed", "section", sec.ID, "error", err)
				outcome = sectionOutcome{
					bundle: types.ReviewBundle{
						SectionID: sec.ID,
						Metrics:   sec.Metrics,
						Quality: types.QualityReport{
							Degraded: true,
							Notes:    []string{fmt.Sprintf("review failed: %v", err)},
						},
					},
					degraded: err,
				}
			}
			outcomes[i] = outcome
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("document review cancelled: %w", err)
	}

	bundles := make([]types.ReviewBundle, len(outcomes))
	for i, o := range outcomes {
		bundles[i] = o.bundle
	}

	summary, err := e.generateSummary(ctx, tree, bundles)
	if err != nil {
		return nil, fmt.Errorf("generating document summary: %w", err)
	}

	// Anchoring runs single-threaded after all sections completed, since
	// overlap resolution reasons about the whole document.
	composed := anchor.Compose(tree, bundles)
	e.log.Info("edit set composed", "edits", len(composed.Edits),
		"demoted", len(composed.Demoted), "merged", composed.Merged)

	return &types.ReviewResult{
		RunID:            uuid.NewString(),
		DocumentID:       tree.Document.ID,
		Title:            tree.Document.Title,
		CreatedAt:        time.Now().UTC(),
		Model:            e.cfg.ModelFor("review"),
		Summary:          summary,
		Bundles:          bundles,
		Edits:            composed.Edits,
		DocumentComments: composed.Demoted,
	}, nil
}

// reviewSection runs one section's pipeline: persona context retrieval,
// then the quality-gate loop. One pipeline, one state, one section.
func (e *Engine) reviewSection(ctx context.Context, tree *types.KnowledgeTree, sec types.Section) (sectionOutcome, error) {
	var outcome sectionOutcome

	st := workflow.NewState(map[string]any{keySectionID: sec.ID})

	p := workflow.NewPipeline("section-review", e.log,
		workflow.StepFunc{StepName: "persona-context", Fn: func(ctx context.Context, st workflow.State) error {
			st.Set(keyPersona, e.personaContext(ctx, sec))
			return nil
		}},
		workflow.StepFunc{StepName: "quality-gate", Fn: func(ctx context.Context, st workflow.State) error {
			persona, _ := st.Strings(keyPersona)
			bundle, err := e.reviewer.ReviewWithGate(ctx, tree, sec.ID, persona)
			var exhausted *QualityExhausted
			if err != nil && !errors.As(err, &exhausted) {
				return err
			}
			if exhausted != nil {
				e.log.Warn("section kept degraded", "section", sec.ID, "iterations", exhausted.Iterations)
				outcome.degraded = exhausted
			}
			st.Set(keyBundle, bundle)
			return nil
		}},
	)

	if err := p.Run(ctx, st); err != nil {
		return sectionOutcome{}, err
	}

	v, _ := st.Value(keyBundle)
	bundle, ok := v.(types.ReviewBundle)
	if !ok {
		return sectionOutcome{}, fmt.Errorf("section %s pipeline produced no bundle", sec.ID)
	}
	outcome.bundle = bundle
	return outcome, nil
}

// personaContext fetches prior reviewer comments for the section. Retrieval
// failures downgrade to a generic review rather than failing the section.
func (e *Engine) personaContext(ctx context.Context, sec types.Section) []string {
	if e.persona == nil {
		return nil
	}
	query := strings.TrimSpace(sec.Title + " " + strings.Join(sec.KeyPoints, " "))
	if query == "" {
		query = string(sec.Type)
	}
	snippets, err := e.persona.Retrieve(ctx, query, e.cfg.Persona.MaxSnippets)
	if err != nil {
		e.log.Warn("persona retrieval failed", "section", sec.ID, "error", err)
		return nil
	}
	return snippets
}
