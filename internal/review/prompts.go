// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package review

import (
	"bytes"
	"fmt"
	"text/template"
)

// reviewPromptTmpl generates one section's review items and updated metrics.
// The verbatim constraint on match_text is enforced again after decoding;
// paraphrased matches are rejected before they can reach anchoring.
var reviewPromptTmpl = template.Must(template.New("review").Parse(`You are an expert peer reviewer for an academic journal.{{if .Persona}} Emulate the tone and priorities evident in these prior comments by the reviewer you are standing in for:
{{range .Persona}}- {{.}}
{{end}}{{end}}
Paper summary (for cross-section consistency):
{{.PaperSummary}}

You are reviewing one section of the manuscript.
Section type: {{.SectionType}}
Section title: {{.SectionTitle}}

Focus on:
{{range .Focus}}- {{.}}
{{end}}
Do NOT raise:
{{range .Avoid}}- {{.}}
{{end}}
Your comments should help answer:
{{range .KeyQuestions}}- {{.}}
{{end}}
{{if .Constraints}}A previous draft of this review was rejected. Address these failures in the new draft:
{{range .Constraints}}- {{.}}
{{end}}{{end}}
Produce review items. For each item:
- match_text: text copied VERBATIM from the section below. This is critical: it must be an exact substring, character for character, not a paraphrase. Items whose match_text does not occur in the section are discarded.
- comment: specific, actionable feedback on that text
- revision: a proposed replacement for match_text, when you can offer one (otherwise omit)
- severity: "high", "medium", or "low"
- category: one of "clarity", "methodology", "evidence", "style", "structure"

Also rescore the section: metrics in [0,1] for clarity, methodology, novelty, impact, presentation, literature_integration.

Respond with a JSON object only:
{"items": [{"match_text": "...", "comment": "...", "revision": "...", "severity": "medium", "category": "clarity"}], "metrics": {"clarity": 0.7, "methodology": 0.7, "novelty": 0.5, "impact": 0.5, "presentation": 0.7, "literature_integration": 0.5}}

Section text:
{{.SectionText}}
`))

// summaryPromptTmpl produces the document-level assessment, including the
// communication review block.
var summaryPromptTmpl = template.Must(template.New("summary").Parse(`You are an expert peer reviewer writing the top-level assessment of a manuscript after completing the per-section review.

Paper summary:
{{.PaperSummary}}

Problem statement:
{{.ProblemStatement}}

Per-section review digest:
{{range .Sections}}- {{.ID}} ({{.Type}}): {{.Summary}}{{if .Degraded}} [review degraded]{{end}}
{{range .Comments}}  - {{.}}
{{end}}{{end}}
Produce:
- overall_assessment: a verdict paragraph weighing strengths against weaknesses
- key_strengths: the paper's main strengths
- key_weaknesses: the paper's main weaknesses
- recommendations: prioritized, concrete recommendations
- communication_review: writing_assessment (a paragraph), narrative_strengths, narrative_weaknesses, style_recommendations

Respond with a JSON object only:
{"overall_assessment": "...", "key_strengths": ["..."], "key_weaknesses": ["..."], "recommendations": ["..."], "communication_review": {"writing_assessment": "...", "narrative_strengths": ["..."], "narrative_weaknesses": ["..."], "style_recommendations": ["..."]}}
`))

// renderPrompt executes tmpl with data.
func renderPrompt(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
