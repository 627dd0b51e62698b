// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package document builds the knowledge tree: paragraph ingest, section
// decomposition, per-section analysis, and the cross-section dependency
// graph. It consumes plain text or markdown only; binary formats are the
// parsing collaborator's problem.
package document

import (
	"crypto/sha256"
	"fmt"
	"os"
	"strings"

	"github.com/pdiddy/review-engine/pkg/types"
)

// Load reads a plain-text or markdown manuscript from path and parses it
// into a Document.
func Load(path string) (types.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Document{}, fmt.Errorf("reading manuscript %s: %w", path, err)
	}
	return Parse(stableID(path, string(data)), string(data)), nil
}

// Parse splits text into paragraphs on blank lines, assigning stable ids
// and rune offsets into the original text. Headings stay as their own
// paragraphs so boundary detection can use them. The Document is immutable
// once parsed; anchors reference its offsets for the rest of the run.
func Parse(docID, text string) types.Document {
	doc := types.Document{ID: docID}

	runes := []rune(text)
	start := -1 // rune index where the current paragraph began

	flush := func(end int) {
		if start < 0 {
			return
		}
		// Trim offsets along with the text so the span matches Text exactly.
		pStart := start
		pEnd := end
		for pStart < pEnd && isSpace(runes[pStart]) {
			pStart++
		}
		for pEnd > pStart && isSpace(runes[pEnd-1]) {
			pEnd--
		}
		if pStart == pEnd {
			start = -1
			return
		}
		idx := len(doc.Paragraphs)
		doc.Paragraphs = append(doc.Paragraphs, types.Paragraph{
			ID:    fmt.Sprintf("p%04d", idx+1),
			Index: idx,
			Text:  string(runes[pStart:pEnd]),
			Start: pStart,
			End:   pEnd,
		})
		start = -1
	}

	lineStart := 0
	for i := 0; i <= len(runes); i++ {
		atEnd := i == len(runes)
		if !atEnd && runes[i] != '\n' {
			continue
		}
		line := strings.TrimSpace(string(runes[lineStart:i]))
		switch {
		case line == "":
			flush(lineStart)
		case start < 0:
			start = lineStart
		}
		if atEnd {
			flush(i)
		}
		lineStart = i + 1
	}

	if doc.Title == "" {
		for _, p := range doc.Paragraphs {
			if strings.HasPrefix(p.Text, "# ") {
				doc.Title = strings.TrimSpace(strings.TrimPrefix(p.Text, "# "))
				break
			}
		}
	}
	return doc
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// stableID generates a deterministic document ID from the source name and
// content: the first 12 hex characters of SHA-256(name + content).
func stableID(name, content string) string {
	h := sha256.New()
	h.Write([]byte(name))
	h.Write([]byte(content))
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}
