package aggregate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWasmCombinerEmpty(t *testing.T) {
	t.Parallel()

	_, err := NewWasmCombiner(nil)
	assert.Error(t, err)
}

func TestWasmCombinerInvalidModule(t *testing.T) {
	t.Parallel()

	w, err := NewWasmCombiner([]byte("not a wasm module"))
	require.NoError(t, err)

	_, err = w.Combine([]byte{1, 2}, nil, nil)
	assert.ErrorContains(t, err, "combiner module execution failed")
}

func TestParseOutput(t *testing.T) {
	t.Parallel()

	encode := func(out wasmOutput) []byte {
		data, err := json.Marshal(out)
		require.NoError(t, err)

		return data
	}

	params, err := parseOutput(encode(wasmOutput{Parameters: []byte{1, 2, 3}}), 3)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, params)

	cases := []struct {
		name     string
		data     []byte
		expected int
	}{
		{"not json", []byte("garbage"), 3},
		{"module error", encode(wasmOutput{Error: "rejected payload"}), 3},
		{"wrong length", encode(wasmOutput{Parameters: []byte{1, 2}}), 3},
		{"empty output", nil, 3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := parseOutput(tc.data, tc.expected)
			assert.Error(t, err)
		})
	}
}
