package aggregate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

// wasmInput is the JSON document handed to a combiner module on stdin.
type wasmInput struct {
	Current       []byte         `json:"current"`
	Contributions []Contribution `json:"contributions"`
	Weights       []float64      `json:"weights"`
}

type wasmOutput struct {
	Parameters []byte `json:"parameters"`
	Error      string `json:"error,omitempty"`
}

// WasmCombiner executes a WASI combiner module for each combination,
// letting operators plug in alternative combination methods, e.g.
// homomorphic addition over encrypted shares, without rebuilding the
// coordinator. The module reads the combination request as JSON on
// stdin and writes the aggregate as JSON on stdout.
type WasmCombiner struct {
	binary []byte
}

func NewWasmCombiner(binary []byte) (*WasmCombiner, error) {
	if len(binary) == 0 {
		return nil, fmt.Errorf("empty combiner module")
	}

	return &WasmCombiner{binary: binary}, nil
}

func (w *WasmCombiner) Combine(current []byte, contribs []Contribution, weights []float64) ([]byte, error) {
	return w.CombineContext(context.Background(), current, contribs, weights)
}

func (w *WasmCombiner) CombineContext(ctx context.Context, current []byte, contribs []Contribution, weights []float64) ([]byte, error) {
	in, err := json.Marshal(wasmInput{
		Current:       current,
		Contributions: contribs,
		Weights:       weights,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal combiner input: %w", err)
	}

	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	wasi_snapshot_preview1.MustInstantiate(ctx, r)

	var stdout bytes.Buffer
	cfg := wazero.NewModuleConfig().
		WithName("combiner").
		WithStdin(bytes.NewReader(in)).
		WithStdout(&stdout).
		WithArgs("combiner")

	mod, err := r.InstantiateWithConfig(ctx, w.binary, cfg)
	if err != nil {
		return nil, fmt.Errorf("combiner module execution failed: %w", err)
	}
	defer mod.Close(ctx)

	return parseOutput(stdout.Bytes(), len(current))
}

func parseOutput(data []byte, expected int) ([]byte, error) {
	var out wasmOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode combiner output: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("combiner module rejected input: %s", out.Error)
	}
	if len(out.Parameters) != expected {
		return nil, fmt.Errorf("combiner module returned %d parameters, expected %d", len(out.Parameters), expected)
	}

	return out.Parameters, nil
}
