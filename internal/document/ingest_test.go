// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package document

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParse(t *testing.T) {
	text := "# A Study of Things\n\nFirst paragraph text.\n\n\nSecond paragraph\nspanning two lines.\n"
	doc := Parse("doc1", text)

	if doc.Title != "A Study of Things" {
		t.Errorf("Title = %q", doc.Title)
	}
	if len(doc.Paragraphs) != 3 {
		t.Fatalf("paragraphs = %d, want 3", len(doc.Paragraphs))
	}

	runes := []rune(text)
	for i, p := range doc.Paragraphs {
		if p.Index != i {
			t.Errorf("paragraph %d Index = %d", i, p.Index)
		}
		// Offsets must slice the original text back to the paragraph.
		if got := string(runes[p.Start:p.End]); got != p.Text {
			t.Errorf("paragraph %s: offsets [%d,%d) yield %q, want %q", p.ID, p.Start, p.End, got, p.Text)
		}
	}

	if doc.Paragraphs[0].ID != "p0001" || doc.Paragraphs[2].ID != "p0003" {
		t.Errorf("ids = %q, %q", doc.Paragraphs[0].ID, doc.Paragraphs[2].ID)
	}
	if doc.Paragraphs[2].Text != "Second paragraph\nspanning two lines." {
		t.Errorf("paragraph 3 text = %q", doc.Paragraphs[2].Text)
	}
}

func TestParseUnicodeOffsets(t *testing.T) {
	text := "Résumé of naïve methods — ☃ symbols.\n\nSecond paragraph."
	doc := Parse("doc1", text)
	if len(doc.Paragraphs) != 2 {
		t.Fatalf("paragraphs = %d, want 2", len(doc.Paragraphs))
	}
	runes := []rune(text)
	p := doc.Paragraphs[1]
	if got := string(runes[p.Start:p.End]); got != "Second paragraph." {
		t.Errorf("offsets yield %q", got)
	}
}

func TestParseEmpty(t *testing.T) {
	for _, text := range []string{"", "\n\n\n", "   \n  \n"} {
		doc := Parse("doc1", text)
		if len(doc.Paragraphs) != 0 {
			t.Errorf("Parse(%q) paragraphs = %d, want 0", text, len(doc.Paragraphs))
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "paper.md")
	if err := os.WriteFile(path, []byte("# Title\n\nBody."), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(doc.Paragraphs) != 2 {
		t.Errorf("paragraphs = %d", len(doc.Paragraphs))
	}
	if len(doc.ID) != 12 {
		t.Errorf("ID = %q, want 12 hex chars", doc.ID)
	}

	// Same content from the same path yields the same id.
	doc2, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if doc2.ID != doc.ID {
		t.Errorf("ID not stable: %q vs %q", doc.ID, doc2.ID)
	}

	if _, err := Load(filepath.Join(dir, "missing.md")); err == nil {
		t.Error("Load(missing) should fail")
	}
}
