package model_test

import (
	"testing"
	"time"

	"github.com/absmach/fusion/model"
	"github.com/absmach/fusion/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeed(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	params := []byte{1, 2, 3, 4}

	m := model.Seed(params, now)

	assert.Equal(t, uint64(0), m.Version)
	assert.Equal(t, params, m.Parameters)
	assert.Equal(t, model.ComputeHash(params), m.Hash)
	assert.Equal(t, now, m.Metadata.LastUpdated)
	require.NoError(t, m.Verify())
}

func TestNext(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m := model.Seed([]byte{1, 2, 3}, now)

	meta := model.Metadata{
		ParticipantCount:   5,
		MeanAccuracy:       0.87,
		PrivacyBudgetSpent: 0.25,
		LastUpdated:        now.Add(time.Hour),
	}
	next := m.Next([]byte{4, 5, 6}, meta)

	assert.Equal(t, uint64(1), next.Version)
	assert.Equal(t, []byte{4, 5, 6}, next.Parameters)
	assert.Equal(t, meta, next.Metadata)
	require.NoError(t, next.Verify())

	// Each round moves the version by exactly one.
	assert.Equal(t, uint64(2), next.Next([]byte{7}, meta).Version)
}

func TestVerifyTampered(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m := model.Seed([]byte{1, 2, 3}, now)

	m.Parameters[0] = 99
	assert.ErrorIs(t, m.Verify(), errors.ErrHashMismatch)
}
