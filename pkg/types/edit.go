// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// EditOp is the operation an edit applies at its anchor.
type EditOp string

const (
	// OpComment attaches a comment to the anchored span.
	OpComment EditOp = "comment"

	// OpReplace attaches a comment and replaces the anchored span with the
	// revision text.
	OpReplace EditOp = "replace"
)

// Anchor is the resolved position of a review item's match text, expressed
// in original-document rune offsets. Anchors own no text; they reference
// document spans by position only.
type Anchor struct {
	// ParagraphID is the paragraph containing the span.
	ParagraphID string `json:"paragraph_id" yaml:"paragraph_id"`

	// Start is the rune offset of the span within the original document.
	Start int `json:"start" yaml:"start"`

	// End is the rune offset one past the span's last character.
	End int `json:"end" yaml:"end"`

	// Resolved is false when no unambiguous occurrence of the match text
	// was found; unresolved items are demoted to document-level comments.
	Resolved bool `json:"resolved" yaml:"resolved"`
}

// Edit is one entry of the final edit set: an anchored operation plus the
// feedback it carries.
type Edit struct {
	// Anchor locates the edit in the original document.
	Anchor Anchor `json:"anchor" yaml:"anchor"`

	// Op selects comment-only or comment-plus-replace.
	Op EditOp `json:"op" yaml:"op"`

	// SectionID is the section the underlying review item belonged to.
	SectionID string `json:"section_id" yaml:"section_id"`

	// MatchText is the matched source substring, kept for writer-side
	// verification.
	MatchText string `json:"match_text" yaml:"match_text"`

	// Comment is the reviewer feedback.
	Comment string `json:"comment" yaml:"comment"`

	// Revision is the replacement text for OpReplace edits.
	Revision string `json:"revision,omitempty" yaml:"revision,omitempty"`

	// Severity is the winning item's severity.
	Severity Severity `json:"severity" yaml:"severity"`

	// Category labels the concern.
	Category string `json:"category,omitempty" yaml:"category,omitempty"`

	// Notes holds secondary feedback merged in from overlapping items.
	Notes []string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// EditSet is the ordered, non-overlapping edit list the document writer
// applies. Order is (paragraph index, start offset) ascending, in
// original-document coordinates throughout.
type EditSet []Edit
