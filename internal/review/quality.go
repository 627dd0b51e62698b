// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/review-engine/internal/document"
	"github.com/pdiddy/review-engine/pkg/types"
)

// QualityExhausted reports a section whose review never passed every gate
// criterion within the iteration budget. Non-fatal: the best-scoring bundle
// is kept, flagged degraded.
type QualityExhausted struct {
	SectionID  string
	Iterations int
}

func (e *QualityExhausted) Error() string {
	return fmt.Sprintf("section %s: quality gate not passed after %d iterations", e.SectionID, e.Iterations)
}

// gateState names the quality-gate states. The loop is the bounded explicit
// machine Draft → Validating → {Accepted, Revising → Draft}, terminal
// Exhausted.
type gateState string

const (
	stateDraft      gateState = "draft"
	stateValidating gateState = "validating"
	stateAccepted   gateState = "accepted"
	stateRevising   gateState = "revising"
	stateExhausted  gateState = "exhausted"
)

// depthTerms signal theoretical or methodological substance in a comment.
var depthTerms = []string{
	"method", "assumption", "theoretical", "mechanism", "validity",
	"confound", "statistic", "evidence", "rationale", "limitation",
	"hypothes", "causal", "sample", "bias", "control",
}

// integrationTerms signal explicit cross-section or literature connections.
var integrationTerms = []string{
	"section", "literature", "prior work", "cite", "citation", "reference",
	"consistent with", "contradict", "compared to", "earlier", "elsewhere",
	"introduction", "methods", "results", "discussion", "abstract",
}

// stockPhrases are generic filler that disqualifies a comment from counting
// as specific.
var stockPhrases = []string{
	"good job", "well written", "well-written", "nice work", "looks good",
	"needs improvement", "could be better", "please revise", "interesting",
}

// evaluate scores a bundle against the three gate criteria and returns the
// report. Each criterion is a deterministic term/structure heuristic; a
// criterion passes when its score reaches half the item count (minimum 1).
func evaluate(bundle types.ReviewBundle, rubric Rubric) types.QualityReport {
	report := types.QualityReport{Notes: bundle.Quality.Notes}
	n := len(bundle.Items)
	threshold := float64(max(1, n/2))

	if n == 0 {
		for _, name := range []string{"depth", "integration", "specificity"} {
			report.Criteria = append(report.Criteria, types.CriterionResult{
				Name:      name,
				Passed:    false,
				Threshold: threshold,
				Rationale: "no review items were produced",
			})
		}
		return report
	}

	depth := 0
	for _, item := range bundle.Items {
		if containsAny(item.Comment, depthTerms) || item.Revision != "" {
			depth++
		}
	}
	report.Criteria = append(report.Criteria, criterion("depth", float64(depth), threshold,
		fmt.Sprintf("%d of %d items show methodological or theoretical substance", depth, n),
		"comments lack theoretical or methodological substance; engage with assumptions, evidence, and validity"))

	if rubric.CrossSection {
		integration := 0
		for _, item := range bundle.Items {
			if containsAny(item.Comment, integrationTerms) {
				integration++
			}
		}
		report.Criteria = append(report.Criteria, criterion("integration", float64(integration), threshold,
			fmt.Sprintf("%d of %d items connect across sections or to the literature", integration, n),
			"comments make no explicit cross-section or literature connections; tie feedback to other sections or prior work"))
	} else {
		report.Criteria = append(report.Criteria, types.CriterionResult{
			Name:      "integration",
			Passed:    true,
			Threshold: 0,
			Rationale: "rubric does not call for cross-section connections",
		})
	}

	specific := 0
	for _, item := range bundle.Items {
		if isSpecific(item) {
			specific++
		}
	}
	report.Criteria = append(report.Criteria, criterion("specificity", float64(specific), threshold,
		fmt.Sprintf("%d of %d items are concrete and actionable", specific, n),
		"comments are generic; give concrete, actionable suggestions tied to the quoted text"))

	return report
}

// criterion builds a pass/fail result with the appropriate rationale.
func criterion(name string, score, threshold float64, passRationale, failRationale string) types.CriterionResult {
	passed := score >= threshold
	rationale := passRationale
	if !passed {
		rationale = failRationale
	}
	return types.CriterionResult{
		Name:      name,
		Passed:    passed,
		Score:     score,
		Threshold: threshold,
		Rationale: rationale,
	}
}

// isSpecific accepts items that propose a revision or carry a substantive,
// non-stock comment.
func isSpecific(item types.ReviewItem) bool {
	if containsAny(item.Comment, stockPhrases) {
		return false
	}
	if item.Revision != "" {
		return true
	}
	return len(item.Comment) >= 60
}

func containsAny(s string, terms []string) bool {
	lower := strings.ToLower(s)
	for _, t := range terms {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

// allPassed reports whether every criterion passed.
func allPassed(report types.QualityReport) bool {
	for _, c := range report.Criteria {
		if !c.Passed {
			return false
		}
	}
	return len(report.Criteria) > 0
}

// gateScore totals criterion scores for best-bundle tracking on exhaustion.
func gateScore(report types.QualityReport) float64 {
	var total float64
	for _, c := range report.Criteria {
		total += c.Score
		if c.Passed {
			total++
		}
	}
	return total
}

// ReviewWithGate runs the quality-gate loop for one section: draft, validate,
// and revise with the failures appended as constraints, up to
// MaxIterations. On acceptance the bundle reports all criteria passing. On
// exhaustion the best-scoring bundle is returned flagged degraded together
// with *QualityExhausted — a section always yields output, never silently
// drops.
func (r *Reviewer) ReviewWithGate(ctx context.Context, tree *types.KnowledgeTree, sectionID string, persona []string) (types.ReviewBundle, error) {
	sec, ok := document.SectionByID(tree, sectionID)
	if !ok {
		return types.ReviewBundle{}, fmt.Errorf("unknown section %s", sectionID)
	}
	rubric := r.rubrics.For(sec.Type)

	var (
		best        types.ReviewBundle
		bestScore   = -1.0
		constraints []string
	)

	for iteration := 1; iteration <= r.cfg.MaxIterations; iteration++ {
		r.log.Debug("gate transition", "section", sectionID, "state", stateDraft, "iteration", iteration)
		bundle, err := r.ReviewSection(ctx, tree, sectionID, persona, constraints)
		if err != nil {
			return types.ReviewBundle{}, err
		}

		r.log.Debug("gate transition", "section", sectionID, "state", stateValidating, "iteration", iteration)
		report := evaluate(bundle, rubric)
		report.Iterations = iteration
		bundle.Quality = report

		if allPassed(report) {
			r.log.Debug("gate transition", "section", sectionID, "state", stateAccepted, "iteration", iteration)
			return bundle, nil
		}

		if score := gateScore(report); score > bestScore {
			best = bundle
			bestScore = score
		}

		constraints = failedRationales(report)
		r.log.Debug("gate transition", "section", sectionID, "state", stateRevising,
			"iteration", iteration, "constraints", len(constraints))
	}

	r.log.Debug("gate transition", "section", sectionID, "state", stateExhausted)
	best.Quality.Iterations = r.cfg.MaxIterations
	best.Quality.Degraded = true
	return best, &QualityExhausted{SectionID: sectionID, Iterations: r.cfg.MaxIterations}
}

// failedRationales collects the failing criteria's rationales as revision
// constraints for the next draft.
func failedRationales(report types.QualityReport) []string {
	var out []string
	for _, c := range report.Criteria {
		if !c.Passed {
			out = append(out, fmt.Sprintf("%s: %s", c.Name, c.Rationale))
		}
	}
	return out
}

