// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SectionType classifies a section of a manuscript.
// Ambiguous sections are assigned SectionOther rather than a guessed type.
type SectionType string

const (
	SectionAbstract     SectionType = "abstract"
	SectionIntroduction SectionType = "introduction"
	SectionMethods      SectionType = "methods"
	SectionResults      SectionType = "results"
	SectionDiscussion   SectionType = "discussion"
	SectionOther        SectionType = "other"
)

// Paragraph is one block of the original document. Paragraphs are immutable
// once parsed; all downstream anchors reference them by ID and offset.
type Paragraph struct {
	// ID is the stable paragraph identifier (e.g. "p0007"), assigned in
	// document order at ingest time.
	ID string `json:"id" yaml:"id"`

	// Index is the zero-based position of the paragraph in the document.
	Index int `json:"index" yaml:"index"`

	// Text is the raw paragraph text.
	Text string `json:"text" yaml:"text"`

	// Start is the rune offset of the paragraph's first character in the
	// original document.
	Start int `json:"start" yaml:"start"`

	// End is the rune offset one past the paragraph's last character.
	End int `json:"end" yaml:"end"`
}

// Document is an ordered sequence of paragraphs plus identifying metadata.
type Document struct {
	// ID is a stable identifier derived from the source (first 12 hex chars
	// of SHA-256 over the source name and content).
	ID string `json:"id" yaml:"id"`

	// Title is the best-effort document title (first heading, if any).
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Paragraphs holds the document body in order.
	Paragraphs []Paragraph `json:"paragraphs" yaml:"paragraphs"`
}

// ScoringMetrics is the six-dimension quality assessment of a section.
// Every field is in [0,1]; producers clamp out-of-range model output.
type ScoringMetrics struct {
	// Clarity scores how clearly the section communicates its content.
	Clarity float64 `json:"clarity" yaml:"clarity"`

	// Methodology scores the soundness of methods described or relied on.
	Methodology float64 `json:"methodology" yaml:"methodology"`

	// Novelty scores the originality of the contribution.
	Novelty float64 `json:"novelty" yaml:"novelty"`

	// Impact scores the significance of the findings.
	Impact float64 `json:"impact" yaml:"impact"`

	// Presentation scores structure, figures, and prose quality.
	Presentation float64 `json:"presentation" yaml:"presentation"`

	// LiteratureIntegration scores engagement with prior work.
	LiteratureIntegration float64 `json:"literature_integration" yaml:"literature_integration"`
}

// Section is a contiguous run of paragraphs sharing a section type.
// Sections partition the document: every paragraph belongs to exactly one
// section, with no gaps or overlaps.
type Section struct {
	// ID is the stable section identifier (e.g. "s02-methods").
	ID string `json:"id" yaml:"id"`

	// Type is the section classification.
	Type SectionType `json:"type" yaml:"type"`

	// Title is the section heading text, if one was detected.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Summary is a short content summary produced during tree construction.
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`

	// Role describes the section's role in the paper's argument.
	Role string `json:"role,omitempty" yaml:"role,omitempty"`

	// KeyPoints lists the section's main claims in order.
	KeyPoints []string `json:"key_points,omitempty" yaml:"key_points,omitempty"`

	// Dependencies holds IDs of sections this section relies on.
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`

	// Supports holds IDs of sections this section substantiates.
	Supports []string `json:"supports,omitempty" yaml:"supports,omitempty"`

	// Metrics is the section's scoring assessment.
	Metrics ScoringMetrics `json:"metrics" yaml:"metrics"`

	// ParagraphIDs lists the member paragraphs in document order.
	ParagraphIDs []string `json:"paragraph_ids" yaml:"paragraph_ids"`
}

// KnowledgeTree is the document plus its sections and the holistic analysis
// produced by the outline pass. The section dependency graph (directed,
// section to section) is derived from each section's Dependencies and must
// be acyclic.
type KnowledgeTree struct {
	// Document is the immutable source document.
	Document Document `json:"document" yaml:"document"`

	// Summary is the whole-paper summary from the holistic pass.
	Summary string `json:"summary" yaml:"summary"`

	// ProblemStatement is the paper's stated problem or research question.
	ProblemStatement string `json:"problem_statement,omitempty" yaml:"problem_statement,omitempty"`

	// Hypotheses lists stated hypotheses or claims under test.
	Hypotheses []string `json:"hypotheses,omitempty" yaml:"hypotheses,omitempty"`

	// Sections holds the section decomposition in document order.
	Sections []Section `json:"sections" yaml:"sections"`
}
