package aggregate_test

import (
	"math"
	"testing"

	"github.com/absmach/fusion/pkg/aggregate"
	"github.com/absmach/fusion/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccountantInvalidFactor(t *testing.T) {
	t.Parallel()

	_, err := aggregate.NewAccountant(101)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
}

func TestAccountantZeroFactor(t *testing.T) {
	t.Parallel()

	acct, err := aggregate.NewAccountant(0)
	require.NoError(t, err)

	raw := []byte{0, 100, 255}
	noisy, epsilon := acct.Apply(raw, 10)

	assert.Equal(t, raw, noisy)
	assert.Zero(t, epsilon)
}

func TestAccountantNoiseBounded(t *testing.T) {
	t.Parallel()

	acct, err := aggregate.NewAccountant(100)
	require.NoError(t, err)

	raw := make([]byte, 1000)
	for i := range raw {
		raw[i] = 128
	}

	// Per-element noise scale with factor 100 is 1.0, so after
	// rounding each element stays within one step of its input.
	noisy, _ := acct.Apply(raw, 4)
	require.Len(t, noisy, len(raw))
	for i, b := range noisy {
		diff := int(b) - int(raw[i])
		assert.LessOrEqual(t, diff, 1)
		assert.GreaterOrEqual(t, diff, -1)
	}
}

func TestEpsilon(t *testing.T) {
	t.Parallel()

	cases := []struct {
		factor       uint8
		participants int
		want         float64
	}{
		{0, 10, 0},
		{50, 9, 1.5},
		{100, 4, 2},
		{100, 2, math.Sqrt2},
	}

	for _, tc := range cases {
		acct, err := aggregate.NewAccountant(tc.factor)
		require.NoError(t, err)
		assert.InDelta(t, tc.want, acct.Epsilon(tc.participants), 1e-12)
	}
}
