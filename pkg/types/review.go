// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Severity ranks how strongly a review item should be weighted when edits
// compete for the same span.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// ReviewItem is one reviewer finding tied to a verbatim span of the source.
// Items are immutable once their bundle has been accepted by the quality
// gate.
type ReviewItem struct {
	// SectionID is the owning section.
	SectionID string `json:"section_id" yaml:"section_id"`

	// MatchText is the verbatim source substring the comment refers to.
	MatchText string `json:"match_text" yaml:"match_text"`

	// Comment is the reviewer feedback on the matched text.
	Comment string `json:"comment" yaml:"comment"`

	// Revision is an optional proposed replacement for the matched text.
	Revision string `json:"revision,omitempty" yaml:"revision,omitempty"`

	// Severity weights the item for overlap resolution.
	Severity Severity `json:"severity" yaml:"severity"`

	// Category labels the concern (e.g. "clarity", "methodology",
	// "evidence", "style").
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
}

// CriterionResult records one quality-gate criterion's outcome for a bundle.
type CriterionResult struct {
	// Name identifies the criterion: "depth", "integration", or
	// "specificity".
	Name string `json:"name" yaml:"name"`

	// Passed reports whether the criterion met its threshold.
	Passed bool `json:"passed" yaml:"passed"`

	// Score is the raw criterion score.
	Score float64 `json:"score" yaml:"score"`

	// Threshold is the score required to pass.
	Threshold float64 `json:"threshold" yaml:"threshold"`

	// Rationale explains the outcome in one or two sentences.
	Rationale string `json:"rationale,omitempty" yaml:"rationale,omitempty"`
}

// QualityReport summarizes the quality-gate outcome for one section's review.
type QualityReport struct {
	// Criteria holds the per-criterion results in gate order.
	Criteria []CriterionResult `json:"criteria" yaml:"criteria"`

	// Iterations is the number of draft iterations consumed.
	Iterations int `json:"iterations" yaml:"iterations"`

	// Degraded is true when the iteration budget ran out before every
	// criterion passed; the best-scoring bundle is kept regardless.
	Degraded bool `json:"degraded" yaml:"degraded"`

	// Notes carries diagnostics such as items rejected for non-verbatim
	// match text.
	Notes []string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// ReviewBundle is one section's review: the accepted items, the post-review
// metrics, and the quality-gate report.
type ReviewBundle struct {
	// SectionID is the reviewed section.
	SectionID string `json:"section_id" yaml:"section_id"`

	// Items holds the reviewer findings for the section.
	Items []ReviewItem `json:"items" yaml:"items"`

	// Metrics is the section's scoring after review.
	Metrics ScoringMetrics `json:"metrics" yaml:"metrics"`

	// Quality is the gate outcome for this bundle.
	Quality QualityReport `json:"quality" yaml:"quality"`
}

// CommunicationReview assesses the manuscript's writing and narrative.
type CommunicationReview struct {
	// WritingAssessment summarizes prose quality overall.
	WritingAssessment string `json:"writing_assessment" yaml:"writing_assessment"`

	// NarrativeStrengths lists what the storyline does well.
	NarrativeStrengths []string `json:"narrative_strengths,omitempty" yaml:"narrative_strengths,omitempty"`

	// NarrativeWeaknesses lists where the storyline loses the reader.
	NarrativeWeaknesses []string `json:"narrative_weaknesses,omitempty" yaml:"narrative_weaknesses,omitempty"`

	// StyleRecommendations lists concrete style improvements.
	StyleRecommendations []string `json:"style_recommendations,omitempty" yaml:"style_recommendations,omitempty"`
}

// ReviewSummary is the document-level assessment emitted alongside the edit
// set.
type ReviewSummary struct {
	// OverallAssessment is the top-level verdict paragraph.
	OverallAssessment string `json:"overall_assessment" yaml:"overall_assessment"`

	// KeyStrengths lists the paper's main strengths.
	KeyStrengths []string `json:"key_strengths" yaml:"key_strengths"`

	// KeyWeaknesses lists the paper's main weaknesses.
	KeyWeaknesses []string `json:"key_weaknesses" yaml:"key_weaknesses"`

	// Recommendations lists prioritized improvement recommendations.
	Recommendations []string `json:"recommendations" yaml:"recommendations"`

	// Communication reviews writing and narrative quality.
	Communication CommunicationReview `json:"communication_review" yaml:"communication_review"`
}

// DocumentComment is feedback kept at document level rather than anchored to
// a span, either by origin or after anchor demotion.
type DocumentComment struct {
	// SectionID is the section the comment came from, if any.
	SectionID string `json:"section_id,omitempty" yaml:"section_id,omitempty"`

	// Comment is the feedback text.
	Comment string `json:"comment" yaml:"comment"`

	// Severity weights the comment for presentation.
	Severity Severity `json:"severity,omitempty" yaml:"severity,omitempty"`

	// Reason records why the comment is document-level (e.g.
	// "unresolved anchor").
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// ReviewResult is the complete output artifact for one manuscript review
// run, consumed by the external document writer.
type ReviewResult struct {
	// RunID uniquely identifies the review run.
	RunID string `json:"run_id" yaml:"run_id"`

	// DocumentID is the reviewed document's stable identifier.
	DocumentID string `json:"document_id" yaml:"document_id"`

	// Title is the reviewed document's title, if detected.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// CreatedAt is the run completion time.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// Model is the language model that produced the review.
	Model string `json:"model,omitempty" yaml:"model,omitempty"`

	// Summary is the document-level assessment.
	Summary ReviewSummary `json:"summary" yaml:"summary"`

	// Bundles holds the per-section reviews in document order.
	Bundles []ReviewBundle `json:"bundles" yaml:"bundles"`

	// Edits is the final ordered, non-overlapping edit set.
	Edits EditSet `json:"edits" yaml:"edits"`

	// DocumentComments holds non-anchored feedback, including items demoted
	// after anchor resolution failed.
	DocumentComments []DocumentComment `json:"document_comments,omitempty" yaml:"document_comments,omitempty"`
}
