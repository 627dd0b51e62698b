// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package document

import (
	"fmt"
	"strings"

	"github.com/pdiddy/review-engine/pkg/types"
)

// InsufficientStructure reports a document the builder could not decompose
// into at least one section. Fatal for the document; the builder never
// fabricates a catch-all section.
type InsufficientStructure struct {
	DocumentID string
	Reason     string
}

func (e *InsufficientStructure) Error() string {
	return fmt.Sprintf("document %s has insufficient structure: %s", e.DocumentID, e.Reason)
}

// DependencyCycle reports a cycle in the section dependency graph. The tree
// is rejected rather than silently repaired.
type DependencyCycle struct {
	Path []string
}

func (e *DependencyCycle) Error() string {
	return fmt.Sprintf("section dependency cycle: %s", strings.Join(e.Path, " -> "))
}

// sectionSynonyms maps normalized heading text to a section type. Headings
// not listed stay unclassified and fall back to the outline pass's proposal.
var sectionSynonyms = map[string]types.SectionType{
	"abstract":              types.SectionAbstract,
	"summary":               types.SectionAbstract,
	"introduction":          types.SectionIntroduction,
	"background":            types.SectionIntroduction,
	"methods":               types.SectionMethods,
	"methodology":           types.SectionMethods,
	"materials and methods": types.SectionMethods,
	"experimental":          types.SectionMethods,
	"results":               types.SectionResults,
	"findings":              types.SectionResults,
	"observations":          types.SectionResults,
	"discussion":            types.SectionDiscussion,
	"interpretation":        types.SectionDiscussion,
	"conclusions":           types.SectionOther,
	"conclusion":            types.SectionOther,
	"references":            types.SectionOther,
	"bibliography":          types.SectionOther,
	"acknowledgements":      types.SectionOther,
}

// classifyHeading returns the section type a heading pre-classifies, if any.
func classifyHeading(text string) (types.SectionType, bool) {
	h := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(text), "#"))
	h = strings.ToLower(strings.TrimRight(h, ".:"))
	// Numbered headings like "3. Results".
	h = strings.TrimLeft(h, "0123456789. ")
	t, ok := sectionSynonyms[h]
	return t, ok
}

// validSectionTypes is the accepted SectionType set; anything else from the
// model is treated as other.
var validSectionTypes = map[types.SectionType]bool{
	types.SectionAbstract:     true,
	types.SectionIntroduction: true,
	types.SectionMethods:      true,
	types.SectionResults:      true,
	types.SectionDiscussion:   true,
	types.SectionOther:        true,
}

// normalizeSectionType maps model output onto the accepted set, defaulting
// ambiguous or unknown values to other.
func normalizeSectionType(s string) types.SectionType {
	t := types.SectionType(strings.ToLower(strings.TrimSpace(s)))
	if validSectionTypes[t] {
		return t
	}
	return types.SectionOther
}

// SectionText joins the paragraphs of section in document order.
func SectionText(doc types.Document, sec types.Section) string {
	byID := make(map[string]types.Paragraph, len(doc.Paragraphs))
	for _, p := range doc.Paragraphs {
		byID[p.ID] = p
	}
	parts := make([]string, 0, len(sec.ParagraphIDs))
	for _, id := range sec.ParagraphIDs {
		if p, ok := byID[id]; ok {
			parts = append(parts, p.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// SectionByID returns the section with the given id.
func SectionByID(tree *types.KnowledgeTree, id string) (types.Section, bool) {
	for _, s := range tree.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return types.Section{}, false
}

// validatePartition checks that the sections cover every paragraph exactly
// once, in document order, returning one finding per violation.
func validatePartition(doc types.Document, sections []types.Section) []string {
	var findings []string
	seen := make(map[string]string, len(doc.Paragraphs)) // paragraph id → section id

	for _, sec := range sections {
		for _, pid := range sec.ParagraphIDs {
			if owner, dup := seen[pid]; dup {
				findings = append(findings, fmt.Sprintf("paragraph %s in both %s and %s", pid, owner, sec.ID))
				continue
			}
			seen[pid] = sec.ID
		}
	}
	for _, p := range doc.Paragraphs {
		if _, ok := seen[p.ID]; !ok {
			findings = append(findings, fmt.Sprintf("paragraph %s belongs to no section", p.ID))
		}
	}
	return findings
}

// findCycle runs a depth-first search over the dependency edges and returns
// the first cycle path found, or nil.
func findCycle(sections []types.Section) []string {
	edges := make(map[string][]string, len(sections))
	for _, s := range sections {
		edges[s.ID] = s.Dependencies
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(sections))
	var stack []string
	var cycle []string

	var visit func(id string) bool
	visit = func(id string) bool {
		state[id] = visiting
		stack = append(stack, id)
		for _, dep := range edges[id] {
			switch state[dep] {
			case visiting:
				// Slice the stack from the first occurrence of dep.
				for i, s := range stack {
					if s == dep {
						cycle = append(append([]string{}, stack[i:]...), dep)
						return true
					}
				}
			case unvisited:
				if visit(dep) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = done
		return false
	}

	for _, s := range sections {
		if state[s.ID] == unvisited && visit(s.ID) {
			return cycle
		}
	}
	return nil
}

// Validate checks the partition invariant and acyclicity of a built tree.
// Partition violations join into a single error; a cycle returns
// *DependencyCycle.
func Validate(tree *types.KnowledgeTree) error {
	if findings := validatePartition(tree.Document, tree.Sections); len(findings) > 0 {
		return fmt.Errorf("section partition invalid: %s", strings.Join(findings, "; "))
	}
	if cycle := findCycle(tree.Sections); cycle != nil {
		return &DependencyCycle{Path: cycle}
	}
	return nil
}
