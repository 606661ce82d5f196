package aggregate

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/absmach/fusion/pkg/errors"
)

// Combiner merges the accepted contributions into one raw aggregate
// vector using the normalized weights. Implementations must either
// return a complete aggregate or an error; partial output is never
// visible to callers. The actual combination method is a strategy so
// that cryptographic schemes can be swapped in behind the same
// contract.
type Combiner interface {
	Combine(current []byte, contribs []Contribution, weights []float64) ([]byte, error)
}

type weightedDelta struct{}

// NewWeightedDelta returns the plaintext combination strategy: each
// payload is decoded as a little-endian float32 delta vector of the
// same length as the current parameter vector, accumulated into the
// parameters under its weight, and clamped to the quantized [0, 255]
// storage range.
func NewWeightedDelta() Combiner {
	return weightedDelta{}
}

func (weightedDelta) Combine(current []byte, contribs []Contribution, weights []float64) ([]byte, error) {
	if len(contribs) != len(weights) {
		return nil, fmt.Errorf("%w: %d contributions, %d weights", errors.ErrWeightCalculation, len(contribs), len(weights))
	}

	acc := make([]float64, len(current))
	for i, c := range contribs {
		delta, err := DecodeVector(c.Payload)
		if err != nil {
			return nil, err
		}
		if len(delta) != len(current) {
			return nil, fmt.Errorf("%w: participant %s sent %d elements, model has %d",
				errors.ErrDimensionMismatch, c.ParticipantID, len(delta), len(current))
		}
		for j, d := range delta {
			acc[j] += d * weights[i]
		}
	}

	next := make([]byte, len(current))
	for i, p := range current {
		next[i] = clamp(float64(p) + acc[i])
	}

	return next, nil
}

// DecodeVector decodes an update payload into its delta vector. The
// wire format is a dense sequence of little-endian IEEE 754 float32
// values.
func DecodeVector(payload []byte) ([]float64, error) {
	if len(payload) == 0 || len(payload)%4 != 0 {
		return nil, fmt.Errorf("%w: payload length %d is not a float32 vector", errors.ErrDimensionMismatch, len(payload))
	}

	out := make([]float64, len(payload)/4)
	for i := range out {
		bits := binary.LittleEndian.Uint32(payload[i*4:])
		v := float64(math.Float32frombits(bits))
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite element at index %d", errors.ErrWeightCalculation, i)
		}
		out[i] = v
	}

	return out, nil
}

// EncodeVector is the inverse of DecodeVector; participants and tests
// use it to build payloads.
func EncodeVector(vec []float64) []byte {
	out := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(float32(v)))
	}

	return out
}

func clamp(v float64) byte {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return byte(math.Round(v))
	}
}
