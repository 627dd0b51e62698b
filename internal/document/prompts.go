// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package document

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/pdiddy/review-engine/pkg/types"
)

// outlinePromptTmpl asks for the holistic pass: whole-paper summary, stated
// problem, hypotheses, and candidate section boundaries over a
// paragraph-indexed digest.
var outlinePromptTmpl = template.Must(template.New("outline").Parse(`You are a manuscript structure analyst. Read the paragraph-indexed digest of an academic manuscript and produce a holistic analysis.

Identify:
- summary: a 3-5 sentence summary of the whole paper
- problem_statement: the problem or research question the paper addresses
- hypotheses: the stated hypotheses or central claims under test
- sections: the section boundaries. For each section give the index of its first paragraph, its type (one of "abstract", "introduction", "methods", "results", "discussion", "other"), and its title. When a section's type is ambiguous, use "other" rather than guessing.

Respond with a JSON object only, no text outside it:
{"summary": "...", "problem_statement": "...", "hypotheses": ["..."], "sections": [{"start_paragraph": 0, "type": "abstract", "title": "Abstract"}]}

Paragraph digest (one line per paragraph, "[index] text"):
{{.Digest}}
`))

// analyzePromptTmpl drives the section-scoped pass for summary, role, key
// points, and initial scoring metrics.
var analyzePromptTmpl = template.Must(template.New("analyze").Parse(`You are a manuscript structure analyst. Analyze one section of an academic manuscript in the context of the whole paper.

Paper summary:
{{.PaperSummary}}

Section type: {{.SectionType}}
Section title: {{.SectionTitle}}

Produce:
- summary: a 2-3 sentence summary of this section's content
- role: one sentence on the section's role in the paper's argument
- key_points: the section's main claims, in order
- metrics: scores in [0,1] for clarity, methodology, novelty, impact, presentation, literature_integration

Respond with a JSON object only:
{"summary": "...", "role": "...", "key_points": ["..."], "metrics": {"clarity": 0.8, "methodology": 0.7, "novelty": 0.6, "impact": 0.6, "presentation": 0.8, "literature_integration": 0.5}}

Section text:
{{.SectionText}}
`))

// crossrefPromptTmpl maps claims and results across sections into a directed
// dependency relation.
var crossrefPromptTmpl = template.Must(template.New("crossref").Parse(`You are a manuscript structure analyst. Given the sections of a paper with their key points, identify cross-section dependencies.

A section A depends on section B when A relies on content established in B (for example, a discussion referencing a results metric, or results relying on the described methods). A section B supports section A in the same relation, seen from B.

Sections:
{{range .Sections}}- id: {{.ID}} ({{.Type}}) {{.Title}}
{{range .KeyPoints}}  - {{.}}
{{end}}{{end}}

Respond with a JSON array only, one element per section that has relations:
[{"section_id": "s01-abstract", "depends_on": ["s04-results"], "supports": ["s02-introduction"]}]

Only use the section ids listed above.
`))

// renderPrompt executes tmpl with data.
func renderPrompt(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// digest renders the paragraph-indexed digest the outline pass reads. Long
// paragraphs are truncated; indexes refer to Document.Paragraphs positions.
func digest(doc types.Document, maxRunes int) string {
	var buf bytes.Buffer
	for _, p := range doc.Paragraphs {
		text := p.Text
		if runes := []rune(text); len(runes) > maxRunes {
			text = string(runes[:maxRunes]) + "…"
		}
		fmt.Fprintf(&buf, "[%d] %s\n", p.Index, text)
	}
	return buf.String()
}
