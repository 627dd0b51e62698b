package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// recordStep appends its name to the "trace" key so tests can verify order.
type recordStep struct {
	name string
	err  error
}

func (s recordStep) Name() string { return s.name }

func (s recordStep) Run(_ context.Context, st State) error {
	trace, _ := st.Strings("trace")
	st.Set("trace", append(trace, s.name))
	return s.err
}

func TestPipelineRunsStepsInOrder(t *testing.T) {
	p := NewPipeline("build", nil,
		recordStep{name: "one"},
		recordStep{name: "two"},
		recordStep{name: "three"},
	)

	st := NewState()
	if err := p.Run(context.Background(), st); err != nil {
		t.Fatalf("Run: %v", err)
	}

	trace, _ := st.Strings("trace")
	want := []string{"one", "two", "three"}
	if len(trace) != len(want) {
		t.Fatalf("trace = %v, want %v", trace, want)
	}
	for i := range want {
		if trace[i] != want[i] {
			t.Errorf("trace[%d] = %q, want %q", i, trace[i], want[i])
		}
	}
}

func TestPipelineAbortsOnFailure(t *testing.T) {
	boom := errors.New("boom")
	p := NewPipeline("build", nil,
		recordStep{name: "one"},
		recordStep{name: "two", err: boom},
		recordStep{name: "never"},
	)

	st := NewState()
	err := p.Run(context.Background(), st)
	if err == nil {
		t.Fatal("Run: expected error")
	}

	var sf *StepFailure
	if !errors.As(err, &sf) {
		t.Fatalf("error %T is not *StepFailure", err)
	}
	if sf.Pipeline != "build" || sf.Step != "two" {
		t.Errorf("failure = %s/%s, want build/two", sf.Pipeline, sf.Step)
	}
	if !errors.Is(err, boom) {
		t.Error("failure does not wrap the cause")
	}

	// Partially populated state is attached for diagnostics.
	trace, _ := sf.State.Strings("trace")
	if len(trace) != 2 {
		t.Errorf("trace = %v, want steps one and two only", trace)
	}
}

func TestPipelineNests(t *testing.T) {
	inner := NewPipeline("inner", nil,
		recordStep{name: "a"},
		recordStep{name: "b", err: errors.New("inner boom")},
	)
	outer := NewPipeline("outer", nil, recordStep{name: "pre"}, inner)

	st := NewState()
	err := outer.Run(context.Background(), st)

	var sf *StepFailure
	if !errors.As(err, &sf) {
		t.Fatalf("error %T is not *StepFailure", err)
	}
	// The innermost failure context is preserved, not rewrapped.
	if sf.Pipeline != "inner" || sf.Step != "b" {
		t.Errorf("failure = %s/%s, want inner/b", sf.Pipeline, sf.Step)
	}
}

func TestPipelineHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPipeline("build", nil, recordStep{name: "one"})
	err := p.Run(ctx, NewState())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v, want context.Canceled", err)
	}
}

func TestStateAccessors(t *testing.T) {
	st := NewState(map[string]any{"s": "hello", "n": 42})

	if v, ok := st.String("s"); !ok || v != "hello" {
		t.Errorf("String(s) = %q, %v", v, ok)
	}
	if _, ok := st.String("n"); ok {
		t.Error("String(n) should fail on non-string value")
	}
	if _, ok := st.Value("missing"); ok {
		t.Error("Value(missing) should report absence")
	}

	st.Set("list", []string{"x"})
	if v, ok := st.Strings("list"); !ok || len(v) != 1 {
		t.Errorf("Strings(list) = %v, %v", v, ok)
	}

	st.Delete("s")
	if _, ok := st.Value("s"); ok {
		t.Error("Delete(s) left the key behind")
	}
}

func TestProcessorStepContract(t *testing.T) {
	double := ProcessorFunc{
		Spec: Contract{Inputs: []string{"text"}, Outputs: []string{"doubled"}},
		Fn: func(_ context.Context, in map[string]any) (map[string]any, error) {
			s := in["text"].(string)
			return map[string]any{"doubled": s + s}, nil
		},
	}

	t.Run("writes declared outputs", func(t *testing.T) {
		st := NewState(map[string]any{"text": "ab"})
		step := ProcessorStep{StepName: "double", Processor: double}
		if err := step.Run(context.Background(), st); err != nil {
			t.Fatalf("Run: %v", err)
		}
		if v, _ := st.String("doubled"); v != "abab" {
			t.Errorf("doubled = %q, want abab", v)
		}
	})

	t.Run("rejects missing inputs", func(t *testing.T) {
		step := ProcessorStep{StepName: "double", Processor: double}
		err := step.Run(context.Background(), NewState())
		if err == nil || !strings.Contains(err.Error(), "missing required state keys: text") {
			t.Fatalf("Run = %v, want missing-key error", err)
		}
	})

	t.Run("rejects undeclared output omission", func(t *testing.T) {
		bad := ProcessorFunc{
			Spec: Contract{Outputs: []string{"result"}},
			Fn: func(_ context.Context, _ map[string]any) (map[string]any, error) {
				return map[string]any{}, nil
			},
		}
		step := ProcessorStep{StepName: "bad", Processor: bad}
		err := step.Run(context.Background(), NewState())
		if err == nil {
			t.Fatal("Run: expected error for missing declared output")
		}
	})
}

func TestProcessorStepPropagatesProcessError(t *testing.T) {
	failing := ProcessorFunc{
		Spec: Contract{},
		Fn: func(_ context.Context, _ map[string]any) (map[string]any, error) {
			return nil, fmt.Errorf("model unavailable")
		},
	}
	step := ProcessorStep{StepName: "gen", Processor: failing}
	err := step.Run(context.Background(), NewState())
	if err == nil || err.Error() != "model unavailable" {
		t.Fatalf("Run = %v, want model unavailable", err)
	}
}
