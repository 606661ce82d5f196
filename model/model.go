package model

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/absmach/fusion/pkg/errors"
)

// Metadata describes how a model version was produced.
type Metadata struct {
	ParticipantCount   uint64    `json:"participant_count"`
	MeanAccuracy       float64   `json:"mean_accuracy"`
	PrivacyBudgetSpent float64   `json:"privacy_budget_spent"`
	LastUpdated        time.Time `json:"last_updated"`
}

// GlobalModel is one committed version of the aggregate. Parameters
// are quantized to one byte per element for compact, deterministic
// storage; the hash covers the parameter vector only.
type GlobalModel struct {
	Version    uint64   `json:"version"`
	Parameters []byte   `json:"parameters"`
	Hash       []byte   `json:"hash"`
	Metadata   Metadata `json:"metadata"`
}

type Page struct {
	Offset uint64        `json:"offset"`
	Limit  uint64        `json:"limit"`
	Total  uint64        `json:"total"`
	Models []GlobalModel `json:"models"`
}

// ComputeHash digests a parameter vector.
func ComputeHash(parameters []byte) []byte {
	sum := sha256.Sum256(parameters)

	return sum[:]
}

// Seed builds version zero from an initial parameter vector.
func Seed(parameters []byte, now time.Time) GlobalModel {
	return GlobalModel{
		Version:    0,
		Parameters: parameters,
		Hash:       ComputeHash(parameters),
		Metadata: Metadata{
			LastUpdated: now,
		},
	}
}

// Next derives the successor version from freshly aggregated
// parameters. Versions increment by exactly one per committed round.
func (g GlobalModel) Next(parameters []byte, meta Metadata) GlobalModel {
	return GlobalModel{
		Version:    g.Version + 1,
		Parameters: parameters,
		Hash:       ComputeHash(parameters),
		Metadata:   meta,
	}
}

// Verify recomputes the content hash and rejects a record whose stored
// digest disagrees with its parameters.
func (g GlobalModel) Verify() error {
	if !bytes.Equal(g.Hash, ComputeHash(g.Parameters)) {
		return fmt.Errorf("%w: version %d", errors.ErrHashMismatch, g.Version)
	}

	return nil
}
