package aggregate_test

import (
	"testing"

	"github.com/absmach/fusion/pkg/aggregate"
	"github.com/absmach/fusion/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contribs() []aggregate.Contribution {
	return []aggregate.Contribution{
		{ParticipantID: "a", DataSize: 100, Accuracy: 0.5},
		{ParticipantID: "b", DataSize: 300, Accuracy: 0.9},
		{ParticipantID: "c", DataSize: 100, Accuracy: 0.6},
	}
}

func TestSchemeSpecValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		spec aggregate.SchemeSpec
		err  error
	}{
		{"uniform", aggregate.SchemeSpec{Kind: aggregate.Uniform}, nil},
		{"data size", aggregate.SchemeSpec{Kind: aggregate.DataSize}, nil},
		{"validation metrics", aggregate.SchemeSpec{Kind: aggregate.ValidationMetrics}, nil},
		{"custom", aggregate.SchemeSpec{Kind: aggregate.Custom, Weights: map[string]float64{"a": 1}, NormalizationFactor: 1}, nil},
		{"custom without weights", aggregate.SchemeSpec{Kind: aggregate.Custom, NormalizationFactor: 1}, errors.ErrInvalidConfig},
		{"custom zero normalization", aggregate.SchemeSpec{Kind: aggregate.Custom, Weights: map[string]float64{"a": 1}}, errors.ErrInvalidConfig},
		{"unknown kind", aggregate.SchemeSpec{Kind: "bogus"}, errors.ErrInvalidConfig},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.spec.Validate()
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestUniformWeights(t *testing.T) {
	t.Parallel()

	scheme, err := aggregate.SchemeSpec{Kind: aggregate.Uniform}.Build()
	require.NoError(t, err)

	weights, err := scheme.Weights(contribs())
	require.NoError(t, err)

	third := 1.0 / 3.0
	for _, w := range weights {
		assert.InDelta(t, third, w, 1e-12)
	}
}

func TestDataSizeWeights(t *testing.T) {
	t.Parallel()

	scheme, err := aggregate.SchemeSpec{Kind: aggregate.DataSize}.Build()
	require.NoError(t, err)

	weights, err := scheme.Weights(contribs())
	require.NoError(t, err)

	assert.InDelta(t, 0.2, weights[0], 1e-12)
	assert.InDelta(t, 0.6, weights[1], 1e-12)
	assert.InDelta(t, 0.2, weights[2], 1e-12)
}

func TestAccuracyWeights(t *testing.T) {
	t.Parallel()

	scheme, err := aggregate.SchemeSpec{Kind: aggregate.ValidationMetrics}.Build()
	require.NoError(t, err)

	weights, err := scheme.Weights(contribs())
	require.NoError(t, err)

	assert.InDelta(t, 0.25, weights[0], 1e-12)
	assert.InDelta(t, 0.45, weights[1], 1e-12)
	assert.InDelta(t, 0.30, weights[2], 1e-12)
}

func TestCustomWeights(t *testing.T) {
	t.Parallel()

	spec := aggregate.SchemeSpec{
		Kind:                aggregate.Custom,
		Weights:             map[string]float64{"a": 2, "b": 6},
		NormalizationFactor: 2,
	}
	scheme, err := spec.Build()
	require.NoError(t, err)

	weights, err := scheme.Weights(contribs())
	require.NoError(t, err)

	// Participant c is absent from the map and weighs zero.
	assert.InDelta(t, 0.25, weights[0], 1e-12)
	assert.InDelta(t, 0.75, weights[1], 1e-12)
	assert.Zero(t, weights[2])
}

func TestWeightsSumToOne(t *testing.T) {
	t.Parallel()

	for _, kind := range []aggregate.SchemeKind{aggregate.Uniform, aggregate.DataSize, aggregate.ValidationMetrics} {
		scheme, err := aggregate.SchemeSpec{Kind: kind}.Build()
		require.NoError(t, err)

		weights, err := scheme.Weights(contribs())
		require.NoError(t, err)

		var sum float64
		for _, w := range weights {
			sum += w
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "scheme %s", kind)
	}
}

func TestWeightsDegenerate(t *testing.T) {
	t.Parallel()

	scheme, err := aggregate.SchemeSpec{Kind: aggregate.DataSize}.Build()
	require.NoError(t, err)

	_, err = scheme.Weights(nil)
	assert.ErrorIs(t, err, errors.ErrWeightCalculation)

	// An all-zero batch has no meaningful normalization.
	_, err = scheme.Weights([]aggregate.Contribution{{ParticipantID: "a"}, {ParticipantID: "b"}})
	assert.ErrorIs(t, err, errors.ErrWeightCalculation)
}
