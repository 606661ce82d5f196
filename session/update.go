package session

import "time"

// ValidationMetrics are the participant-reported evaluation results
// for one local training run.
type ValidationMetrics struct {
	Accuracy float64            `json:"accuracy"`
	Loss     float64            `json:"loss"`
	Custom   map[string]float64 `json:"custom,omitempty"`
}

// ModelUpdate is one participant's contribution for a round. The
// payload is an opaque blob whose semantics belong to the configured
// combiner; the engine never mutates an update after acceptance.
type ModelUpdate struct {
	ParticipantID string            `json:"participant_id"`
	Payload       []byte            `json:"payload"`
	DataSize      uint64            `json:"data_size"`
	Metrics       ValidationMetrics `json:"metrics"`
	Proof         []byte            `json:"proof"`
	SubmittedAt   time.Time         `json:"submitted_at"`
}
