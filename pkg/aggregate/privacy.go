package aggregate

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/absmach/fusion/pkg/errors"
)

// Accountant perturbs the raw aggregate and meters privacy budget
// consumption. The epsilon formula, sqrt(participants) * factor / 100,
// is a moments-accountant style approximation carried over from the
// protocol definition; it is NOT a rigorous differential-privacy
// composition and callers must not treat it as a formal guarantee.
type Accountant struct {
	factor uint8
	rng    *rand.Rand
}

// NewAccountant builds an accountant for a privacy factor in [0, 100];
// 0 disables noise entirely, 100 is the maximum configured scale.
func NewAccountant(factor uint8) (*Accountant, error) {
	if factor > 100 {
		return nil, fmt.Errorf("%w: privacy factor %d out of range [0, 100]", errors.ErrInvalidConfig, factor)
	}

	return &Accountant{
		factor: factor,
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}, nil
}

// Apply draws zero-centered noise with scale factor/100 independently
// per element and returns the perturbed aggregate together with the
// epsilon consumed by this round. The budget itself is charged by the
// caller, and only on a committed aggregation.
func (a *Accountant) Apply(raw []byte, participants int) ([]byte, float64) {
	noisy := make([]byte, len(raw))
	scale := float64(a.factor) / 100
	for i, b := range raw {
		n := (a.rng.Float64()*2 - 1) * scale
		noisy[i] = clamp(float64(b) + n)
	}

	return noisy, a.Epsilon(participants)
}

// Epsilon is the budget consumed by one committed round with the given
// participant count.
func (a *Accountant) Epsilon(participants int) float64 {
	return math.Sqrt(float64(participants)) * float64(a.factor) / 100
}
