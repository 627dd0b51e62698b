// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package document

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/pdiddy/review-engine/internal/llm"
	"github.com/pdiddy/review-engine/internal/workflow"
	"github.com/pdiddy/review-engine/pkg/logger"
	"github.com/pdiddy/review-engine/pkg/types"
)

// State keys used by the builder pipeline. Each step's doc comment lists the
// keys it reads and writes.
const (
	keyDocument = "document" // types.Document
	keyDigest   = "digest"   // string
	keyOutline  = "outline"  // outlineResponse
	keySections = "sections" // []types.Section
	keyTree     = "tree"     // *types.KnowledgeTree
)

// digestMaxRunes truncates long paragraphs in the outline digest.
const digestMaxRunes = 400

// Builder turns an ingested Document into a validated KnowledgeTree by
// running the outline, boundaries, analyze, crossref, and validate steps as
// one workflow pipeline.
type Builder struct {
	gen llm.Generator
	cfg types.AIConfig
	log logger.Logger
}

// NewBuilder constructs a Builder. A nil log discards step records.
func NewBuilder(gen llm.Generator, cfg types.AIConfig, log logger.Logger) *Builder {
	if log == nil {
		log = logger.Nop()
	}
	return &Builder{gen: gen, cfg: cfg, log: log}
}

// outlineResponse is the holistic pass output.
type outlineResponse struct {
	Summary          string             `json:"summary"`
	ProblemStatement string             `json:"problem_statement"`
	Hypotheses       []string           `json:"hypotheses"`
	Sections         []outlineCandidate `json:"sections"`
}

// outlineCandidate is one proposed section boundary.
type outlineCandidate struct {
	StartParagraph int    `json:"start_paragraph"`
	Type           string `json:"type"`
	Title          string `json:"title"`
}

// analyzeResponse is the section-scoped analysis output.
type analyzeResponse struct {
	Summary   string               `json:"summary"`
	Role      string               `json:"role"`
	KeyPoints []string             `json:"key_points"`
	Metrics   types.ScoringMetrics `json:"metrics"`
}

// crossrefRelation is one section's dependency declaration.
type crossrefRelation struct {
	SectionID string   `json:"section_id"`
	DependsOn []string `json:"depends_on"`
	Supports  []string `json:"supports"`
}

// Build runs the knowledge-tree pipeline over doc. Degenerate documents fail
// with *InsufficientStructure; a dependency cycle fails with
// *DependencyCycle. Other failures surface as *workflow.StepFailure with the
// step name attached.
func (b *Builder) Build(ctx context.Context, doc types.Document) (*types.KnowledgeTree, error) {
	if len(doc.Paragraphs) == 0 {
		return nil, &InsufficientStructure{DocumentID: doc.ID, Reason: "no paragraphs"}
	}

	st := workflow.NewState(map[string]any{
		keyDocument: doc,
		keyDigest:   digest(doc, digestMaxRunes),
	})

	p := workflow.NewPipeline("knowledge-tree", b.log,
		workflow.ProcessorStep{StepName: "outline", Processor: outlineProcessor{b: b}},
		workflow.StepFunc{StepName: "boundaries", Fn: b.boundariesStep},
		workflow.StepFunc{StepName: "analyze", Fn: b.analyzeStep},
		workflow.StepFunc{StepName: "crossref", Fn: b.crossrefStep},
		workflow.StepFunc{StepName: "validate", Fn: b.validateStep},
	)

	if err := p.Run(ctx, st); err != nil {
		// Structural failures surface as their own types, not step failures.
		var insufficient *InsufficientStructure
		if errors.As(err, &insufficient) {
			return nil, insufficient
		}
		var cycle *DependencyCycle
		if errors.As(err, &cycle) {
			return nil, cycle
		}
		return nil, err
	}

	tree, _ := st.Value(keyTree)
	kt, ok := tree.(*types.KnowledgeTree)
	if !ok {
		return nil, fmt.Errorf("pipeline completed without a knowledge tree")
	}
	return kt, nil
}

// generate issues one model call for task with the configured per-call
// timeout and per-task model routing.
func (b *Builder) generate(ctx context.Context, task, prompt string) (string, error) {
	if b.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.CallTimeout)
		defer cancel()
	}
	resp, err := b.gen.Generate(ctx, llm.Request{
		Model:  b.cfg.ModelFor(task),
		Prompt: prompt,
	})
	if err != nil {
		return "", fmt.Errorf("%s generation: %w", task, err)
	}
	return resp.Text, nil
}

// outlineProcessor is the holistic pass: digest in, outline out.
type outlineProcessor struct {
	b *Builder
}

// Contract declares the outline signature: reads the paragraph digest,
// produces the outline.
func (p outlineProcessor) Contract() workflow.Contract {
	return workflow.Contract{Inputs: []string{keyDigest}, Outputs: []string{keyOutline}}
}

// Process runs the outline prompt and decodes the response.
func (p outlineProcessor) Process(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	prompt, err := renderPrompt(outlinePromptTmpl, struct{ Digest string }{Digest: inputs[keyDigest].(string)})
	if err != nil {
		return nil, err
	}
	text, err := p.b.generate(ctx, "outline", prompt)
	if err != nil {
		return nil, err
	}
	var out outlineResponse
	if err := llm.DecodeJSON(text, &out); err != nil {
		return nil, fmt.Errorf("decoding outline: %w", err)
	}
	return map[string]any{keyOutline: out}, nil
}

// boundariesStep validates outline candidates against paragraph boundaries
// and materializes the section partition. Reads document and outline; writes
// sections. Deterministic.
func (b *Builder) boundariesStep(_ context.Context, st workflow.State) error {
	doc := mustDocument(st)
	out, _ := st.Value(keyOutline)
	outline, ok := out.(outlineResponse)
	if !ok {
		return fmt.Errorf("state key %q holds no outline", keyOutline)
	}

	sections, err := buildSections(doc, outline.Sections)
	if err != nil {
		return err
	}
	st.Set(keySections, sections)
	return nil
}

// buildSections snaps candidate boundaries to paragraph starts and produces
// the ordered partition. Heading synonyms pre-classify their sections;
// ambiguous types become other. Gaps are annexed to the preceding section;
// a gap before the first candidate becomes its own other section.
func buildSections(doc types.Document, candidates []outlineCandidate) ([]types.Section, error) {
	n := len(doc.Paragraphs)

	// Keep in-range candidates, sorted, one per start paragraph.
	byStart := make(map[int]outlineCandidate)
	for _, c := range candidates {
		if c.StartParagraph < 0 || c.StartParagraph >= n {
			continue
		}
		if _, dup := byStart[c.StartParagraph]; !dup {
			byStart[c.StartParagraph] = c
		}
	}
	if len(byStart) == 0 {
		return nil, &InsufficientStructure{DocumentID: doc.ID, Reason: "no valid section boundaries detected"}
	}

	starts := make([]int, 0, len(byStart))
	for s := range byStart {
		starts = append(starts, s)
	}
	sort.Ints(starts)

	// A leading gap becomes its own section rather than shifting the first
	// candidate's type onto content it did not cover.
	if starts[0] > 0 {
		byStart[0] = outlineCandidate{StartParagraph: 0, Type: string(types.SectionOther), Title: "Front matter"}
		starts = append([]int{0}, starts...)
	}

	sections := make([]types.Section, 0, len(starts))
	for i, start := range starts {
		end := n
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		c := byStart[start]

		secType := normalizeSectionType(c.Type)
		title := c.Title
		if t, ok := classifyHeading(doc.Paragraphs[start].Text); ok {
			secType = t
			if title == "" {
				title = doc.Paragraphs[start].Text
			}
		}

		ids := make([]string, 0, end-start)
		for _, p := range doc.Paragraphs[start:end] {
			ids = append(ids, p.ID)
		}
		sections = append(sections, types.Section{
			ID:           fmt.Sprintf("s%02d-%s", i+1, secType),
			Type:         secType,
			Title:        title,
			ParagraphIDs: ids,
		})
	}
	return sections, nil
}

// analyzeStep runs the section-scoped analysis for every section. Reads
// document, outline, and sections; rewrites sections with summaries, roles,
// key points, and clamped metrics.
func (b *Builder) analyzeStep(ctx context.Context, st workflow.State) error {
	doc := mustDocument(st)
	out, _ := st.Value(keyOutline)
	outline := out.(outlineResponse)
	secs, _ := st.Value(keySections)
	sections := secs.([]types.Section)

	for i := range sections {
		prompt, err := renderPrompt(analyzePromptTmpl, map[string]string{
			"PaperSummary": outline.Summary,
			"SectionType":  string(sections[i].Type),
			"SectionTitle": sections[i].Title,
			"SectionText":  SectionText(doc, sections[i]),
		})
		if err != nil {
			return err
		}
		text, err := b.generate(ctx, "analyze", prompt)
		if err != nil {
			return fmt.Errorf("analyzing section %s: %w", sections[i].ID, err)
		}
		var analysis analyzeResponse
		if err := llm.DecodeJSON(text, &analysis); err != nil {
			return fmt.Errorf("decoding analysis for section %s: %w", sections[i].ID, err)
		}
		sections[i].Summary = analysis.Summary
		sections[i].Role = analysis.Role
		sections[i].KeyPoints = analysis.KeyPoints
		sections[i].Metrics = clampMetrics(analysis.Metrics)
	}
	st.Set(keySections, sections)
	return nil
}

// crossrefStep populates Dependencies and Supports from the cross-reference
// pass. Edges naming unknown section ids are dropped. Reads sections;
// rewrites sections.
func (b *Builder) crossrefStep(ctx context.Context, st workflow.State) error {
	secs, _ := st.Value(keySections)
	sections := secs.([]types.Section)

	prompt, err := renderPrompt(crossrefPromptTmpl, struct{ Sections []types.Section }{Sections: sections})
	if err != nil {
		return err
	}
	text, err := b.generate(ctx, "crossref", prompt)
	if err != nil {
		return err
	}
	var relations []crossrefRelation
	if err := llm.DecodeJSON(text, &relations); err != nil {
		return fmt.Errorf("decoding crossref relations: %w", err)
	}

	known := make(map[string]int, len(sections))
	for i, s := range sections {
		known[s.ID] = i
	}

	for _, rel := range relations {
		i, ok := known[rel.SectionID]
		if !ok {
			continue
		}
		for _, dep := range rel.DependsOn {
			if j, ok := known[dep]; ok && dep != rel.SectionID {
				sections[i].Dependencies = appendUnique(sections[i].Dependencies, dep)
				sections[j].Supports = appendUnique(sections[j].Supports, rel.SectionID)
			}
		}
		for _, sup := range rel.Supports {
			if j, ok := known[sup]; ok && sup != rel.SectionID {
				sections[i].Supports = appendUnique(sections[i].Supports, sup)
				sections[j].Dependencies = appendUnique(sections[j].Dependencies, rel.SectionID)
			}
		}
	}
	st.Set(keySections, sections)
	return nil
}

// validateStep checks the partition invariant and acyclicity, then
// assembles the final tree. Reads document, outline, and sections; writes
// tree.
func (b *Builder) validateStep(_ context.Context, st workflow.State) error {
	doc := mustDocument(st)
	out, _ := st.Value(keyOutline)
	outline := out.(outlineResponse)
	secs, _ := st.Value(keySections)
	sections := secs.([]types.Section)

	tree := &types.KnowledgeTree{
		Document:         doc,
		Summary:          outline.Summary,
		ProblemStatement: outline.ProblemStatement,
		Hypotheses:       outline.Hypotheses,
		Sections:         sections,
	}
	if err := Validate(tree); err != nil {
		return err
	}
	st.Set(keyTree, tree)
	return nil
}

func mustDocument(st workflow.State) types.Document {
	v, _ := st.Value(keyDocument)
	doc, _ := v.(types.Document)
	return doc
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
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
