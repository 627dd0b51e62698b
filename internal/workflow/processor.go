// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workflow

import (
	"context"
	"fmt"
	"strings"
)

// Contract declares a processor's input/output signature: the state keys it
// requires and the keys it produces. The contract is checked before the
// processor runs so missing inputs fail the step instead of surfacing as
// nil-map lookups deep inside a prompt.
type Contract struct {
	// Inputs lists required input keys.
	Inputs []string

	// Outputs lists the keys the processor produces. Every listed key is
	// written back to state after a successful run.
	Outputs []string
}

// Processor is a unit of computation with a declared Contract, typically a
// language-model call. A processor reads a plain map and returns a plain
// map; it never touches the pipeline State directly.
type Processor interface {
	Contract() Contract
	Process(ctx context.Context, inputs map[string]any) (map[string]any, error)
}

// ProcessorFunc adapts a function plus a Contract into a Processor.
type ProcessorFunc struct {
	Spec Contract
	Fn   func(ctx context.Context, inputs map[string]any) (map[string]any, error)
}

// Contract returns the declared signature.
func (p ProcessorFunc) Contract() Contract { return p.Spec }

// Process invokes the wrapped function.
func (p ProcessorFunc) Process(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	return p.Fn(ctx, inputs)
}

// ProcessorStep adapts a Processor into a Step: it collects the contract's
// required keys from State (a missing key fails the step), invokes the
// processor, and writes every declared output key back into State.
type ProcessorStep struct {
	StepName  string
	Processor Processor
}

// Name returns the step name.
func (s ProcessorStep) Name() string { return s.StepName }

// Run validates inputs against the contract, runs the processor, and stores
// its outputs.
func (s ProcessorStep) Run(ctx context.Context, st State) error {
	contract := s.Processor.Contract()

	inputs := make(map[string]any, len(contract.Inputs))
	var missing []string
	for _, key := range contract.Inputs {
		v, ok := st.Value(key)
		if !ok {
			missing = append(missing, key)
			continue
		}
		inputs[key] = v
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required state keys: %s", strings.Join(missing, ", "))
	}

	outputs, err := s.Processor.Process(ctx, inputs)
	if err != nil {
		return err
	}

	for _, key := range contract.Outputs {
		v, ok := outputs[key]
		if !ok {
			return fmt.Errorf("processor did not produce declared output %q", key)
		}
		st.Set(key, v)
	}
	return nil
}
