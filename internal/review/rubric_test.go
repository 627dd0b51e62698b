// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package review

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/review-engine/pkg/types"
)

func TestDefaultRubricsCoverAllTypes(t *testing.T) {
	table := DefaultRubrics()
	for _, st := range []types.SectionType{
		types.SectionAbstract, types.SectionIntroduction, types.SectionMethods,
		types.SectionResults, types.SectionDiscussion, types.SectionOther,
	} {
		r, ok := table[st]
		if !ok {
			t.Errorf("no rubric for %s", st)
			continue
		}
		if len(r.Focus) == 0 || len(r.KeyQuestions) == 0 {
			t.Errorf("rubric for %s is incomplete: %+v", st, r)
		}
	}

	// The abstract rubric excludes methodological critique.
	abstract := table[types.SectionAbstract]
	found := false
	for _, a := range abstract.Avoid {
		if strings.Contains(a, "methodological") {
			found = true
		}
	}
	if !found {
		t.Error("abstract rubric should exclude methodological detail")
	}
}

func TestRubricTableFallsBackToOther(t *testing.T) {
	table := DefaultRubrics()
	r := table.For(types.SectionType("appendix"))
	if len(r.Focus) == 0 {
		t.Error("unknown type should fall back to the generic rubric")
	}
}

func TestLoadRubrics(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		table, err := LoadRubrics("")
		if err != nil {
			t.Fatalf("LoadRubrics: %v", err)
		}
		if len(table) != 6 {
			t.Errorf("table size = %d", len(table))
		}
	})

	t.Run("override merges field by field", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rubrics.yaml")
		content := "methods:\n  focus:\n    - custom focus area\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}

		table, err := LoadRubrics(path)
		if err != nil {
			t.Fatalf("LoadRubrics: %v", err)
		}
		methods := table[types.SectionMethods]
		if len(methods.Focus) != 1 || methods.Focus[0] != "custom focus area" {
			t.Errorf("Focus = %v", methods.Focus)
		}
		// Unlisted fields keep their defaults.
		if len(methods.KeyQuestions) == 0 {
			t.Error("KeyQuestions should keep the default")
		}
		// Other types untouched.
		if len(table[types.SectionResults].Focus) == 0 {
			t.Error("results rubric lost its defaults")
		}
	})

	t.Run("unknown section type rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rubrics.yaml")
		if err := os.WriteFile(path, []byte("appendix:\n  focus: [x]\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := LoadRubrics(path)
		if err == nil || !strings.Contains(err.Error(), `unknown section type "appendix"`) {
			t.Errorf("LoadRubrics = %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadRubrics(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
			t.Error("LoadRubrics should fail on a missing file")
		}
	})
}
