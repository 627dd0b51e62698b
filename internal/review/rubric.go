// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package review generates section-scoped reviews against fixed per-type
// rubrics, gates them through the depth/integration/specificity quality
// loop, and orchestrates the whole-document review run.
package review

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/review-engine/pkg/types"
)

// Rubric is the fixed review contract for one section type: required focus
// areas, explicitly excluded concerns, and the key questions each comment
// should help answer.
type Rubric struct {
	// Focus lists the areas the review must address.
	Focus []string `json:"focus" yaml:"focus"`

	// Avoid lists concerns the review must not raise for this section type.
	Avoid []string `json:"avoid" yaml:"avoid"`

	// KeyQuestions lists the questions the review should help answer.
	KeyQuestions []string `json:"key_questions" yaml:"key_questions"`

	// CrossSection marks rubrics that demand explicit cross-section or
	// literature connections; the integration criterion only applies when
	// set.
	CrossSection bool `json:"cross_section" yaml:"cross_section"`
}

// RubricTable maps section types to rubrics. Unlisted types fall back to
// the generic other rubric.
type RubricTable map[types.SectionType]Rubric

// For returns the rubric for t, falling back to the generic rubric.
func (rt RubricTable) For(t types.SectionType) Rubric {
	if r, ok := rt[t]; ok {
		return r
	}
	return rt[types.SectionOther]
}

// DefaultRubrics returns the compiled-in rubric table covering the five
// section families plus the generic fallback.
func DefaultRubrics() RubricTable {
	return RubricTable{
		types.SectionAbstract: {
			Focus: []string{
				"accuracy of the summary against the paper's actual content",
				"clarity of the stated contribution and findings",
				"completeness: problem, approach, key result, implication",
			},
			Avoid: []string{
				"methodological detail and statistical critique",
				"literature coverage complaints",
			},
			KeyQuestions: []string{
				"Does the abstract state what was done and what was found?",
				"Could a reader judge relevance from the abstract alone?",
			},
		},
		types.SectionIntroduction: {
			Focus: []string{
				"motivation and significance of the problem",
				"positioning against prior work",
				"clarity of the stated hypotheses or research questions",
			},
			Avoid: []string{
				"detailed results critique",
			},
			KeyQuestions: []string{
				"Is the gap in the literature convincing?",
				"Are the research questions answerable by the described study?",
			},
			CrossSection: true,
		},
		types.SectionMethods: {
			Focus: []string{
				"reproducibility: could a peer repeat the study from this text",
				"appropriateness of the design for the stated questions",
				"stated assumptions, controls, and limitations",
			},
			Avoid: []string{
				"novelty judgments that belong to the discussion",
			},
			KeyQuestions: []string{
				"Are the methods sufficient to support the claimed results?",
				"Which choices need justification or a citation?",
			},
		},
		types.SectionResults: {
			Focus: []string{
				"support of each claim by the presented evidence",
				"statistical reporting and effect sizes",
				"consistency with the methods actually described",
			},
			Avoid: []string{
				"speculative interpretation beyond the data",
			},
			KeyQuestions: []string{
				"Does every stated finding trace to presented data?",
				"Are the comparisons fair and fully reported?",
			},
			CrossSection: true,
		},
		types.SectionDiscussion: {
			Focus: []string{
				"interpretation anchored to the reported results",
				"engagement with alternative explanations and limitations",
				"connection back to the introduction's questions and the literature",
			},
			Avoid: []string{
				"re-reviewing methodological minutiae already covered",
			},
			KeyQuestions: []string{
				"Do the conclusions follow from the results section?",
				"Are limitations acknowledged honestly?",
			},
			CrossSection: true,
		},
		types.SectionOther: {
			Focus: []string{
				"clarity and internal consistency",
				"contribution of the section to the paper's argument",
			},
			Avoid: []string{
				"type-specific demands that may not apply",
			},
			KeyQuestions: []string{
				"Does this section earn its place in the paper?",
			},
		},
	}
}

// LoadRubrics reads per-type rubric overrides from a YAML file and merges
// them field-by-field over the defaults. Unknown section types are
// rejected. An empty path returns the defaults unchanged.
func LoadRubrics(path string) (RubricTable, error) {
	table := DefaultRubrics()
	if path == "" {
		return table, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rubric file %s: %w", path, err)
	}

	var overrides map[string]Rubric
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parsing rubric file %s: %w", path, err)
	}

	var findings []string
	for name, override := range overrides {
		t := types.SectionType(strings.ToLower(strings.TrimSpace(name)))
		base, ok := table[t]
		if !ok {
			findings = append(findings, fmt.Sprintf("unknown section type %q", name))
			continue
		}
		if len(override.Focus) > 0 {
			base.Focus = override.Focus
		}
		if len(override.Avoid) > 0 {
			base.Avoid = override.Avoid
		}
		if len(override.KeyQuestions) > 0 {
			base.KeyQuestions = override.KeyQuestions
		}
		base.CrossSection = base.CrossSection || override.CrossSection
		table[t] = base
	}
	if len(findings) > 0 {
		return nil, fmt.Errorf("invalid rubric file %s: %s", path, strings.Join(findings, "; "))
	}
	return table, nil
}
