package aggregate

import (
	"fmt"
	"math"

	"github.com/absmach/fusion/pkg/errors"
)

// Contribution is a single accepted update as seen by the weighting
// and combination stages, stripped of proof material.
type Contribution struct {
	ParticipantID string  `json:"participant_id"`
	Payload       []byte  `json:"payload"`
	DataSize      uint64  `json:"data_size"`
	Accuracy      float64 `json:"accuracy"`
}

type SchemeKind string

const (
	DataSize          SchemeKind = "data_size"
	ValidationMetrics SchemeKind = "validation_metrics"
	Uniform           SchemeKind = "uniform"
	Custom            SchemeKind = "custom"
)

// SchemeSpec is the wire-level description of a weighting policy. It
// is carried inside the session configuration and built into a Scheme
// at aggregation time.
type SchemeSpec struct {
	Kind SchemeKind `json:"kind"`
	// Weights and NormalizationFactor apply to the custom scheme only.
	// Participants absent from the map weigh zero.
	Weights             map[string]float64 `json:"weights,omitempty"`
	NormalizationFactor float64            `json:"normalization_factor,omitempty"`
}

func (s SchemeSpec) Validate() error {
	switch s.Kind {
	case DataSize, ValidationMetrics, Uniform:
		return nil
	case Custom:
		if len(s.Weights) == 0 {
			return fmt.Errorf("%w: custom scheme requires a weight map", errors.ErrInvalidConfig)
		}
		if s.NormalizationFactor == 0 || math.IsNaN(s.NormalizationFactor) || math.IsInf(s.NormalizationFactor, 0) {
			return fmt.Errorf("%w: custom scheme requires a finite, non-zero normalization factor", errors.ErrInvalidConfig)
		}

		return nil
	default:
		return fmt.Errorf("%w: unknown weight scheme %q", errors.ErrInvalidConfig, s.Kind)
	}
}

// Build resolves the descriptor into its Scheme implementation.
func (s SchemeSpec) Build() (Scheme, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	switch s.Kind {
	case DataSize:
		return dataSizeScheme{}, nil
	case ValidationMetrics:
		return accuracyScheme{}, nil
	case Uniform:
		return uniformScheme{}, nil
	default:
		return customScheme{weights: s.Weights, normalization: s.NormalizationFactor}, nil
	}
}

// Scheme maps accepted contributions to normalized weights. The
// returned vector is index-aligned with the input and sums to one.
type Scheme interface {
	Weights(contribs []Contribution) ([]float64, error)
}

type dataSizeScheme struct{}

func (dataSizeScheme) Weights(contribs []Contribution) ([]float64, error) {
	raw := make([]float64, len(contribs))
	for i := range contribs {
		raw[i] = float64(contribs[i].DataSize)
	}

	return normalize(raw)
}

type accuracyScheme struct{}

func (accuracyScheme) Weights(contribs []Contribution) ([]float64, error) {
	raw := make([]float64, len(contribs))
	for i := range contribs {
		raw[i] = contribs[i].Accuracy
	}

	return normalize(raw)
}

type uniformScheme struct{}

func (uniformScheme) Weights(contribs []Contribution) ([]float64, error) {
	raw := make([]float64, len(contribs))
	for i := range raw {
		raw[i] = 1
	}

	return normalize(raw)
}

type customScheme struct {
	weights       map[string]float64
	normalization float64
}

func (s customScheme) Weights(contribs []Contribution) ([]float64, error) {
	raw := make([]float64, len(contribs))
	for i := range contribs {
		raw[i] = s.weights[contribs[i].ParticipantID] / s.normalization
	}

	return normalize(raw)
}

// normalize divides every raw weight by the vector sum. A zero or
// non-finite sum means the scheme produced a degenerate vector, e.g.
// an all-zero custom map or an all-zero data-size batch.
func normalize(raw []float64) ([]float64, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty contribution set", errors.ErrWeightCalculation)
	}

	var sum float64
	for _, w := range raw {
		sum += w
	}
	if sum == 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return nil, fmt.Errorf("%w: weight sum is %v", errors.ErrWeightCalculation, sum)
	}

	out := make([]float64, len(raw))
	for i, w := range raw {
		out[i] = w / sum
	}

	return out, nil
}
