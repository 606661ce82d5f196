package session

import (
	"fmt"
	"time"

	"github.com/absmach/fusion/pkg/errors"
	"github.com/absmach/fusion/pkg/proof"
)

// ValidateUpdates gatekeeps a batch of updates before any weighting
// happens. Validation is fail-closed: one invalid update aborts the
// whole round, because dropping submissions must be an explicit,
// audited policy decision rather than a silent side effect. The
// batch-level participant minimum is evaluated before any per-item
// check.
func ValidateUpdates(cfg Config, sessionID string, updates []ModelUpdate, now time.Time, verifier proof.Verifier) error {
	if uint64(len(updates)) < cfg.MinParticipants {
		return fmt.Errorf("%w: got %d, need %d", errors.ErrInsufficientParticipants, len(updates), cfg.MinParticipants)
	}

	for _, u := range updates {
		// The boundary is inclusive: an update aged exactly
		// MaxUpdateAge is still fresh.
		if now.Sub(u.SubmittedAt) > cfg.MaxUpdateAge {
			return fmt.Errorf("%w: participant %s submitted %s ago", errors.ErrStaleUpdate, u.ParticipantID, now.Sub(u.SubmittedAt))
		}
	}

	for _, u := range updates {
		if !verifier.Verify(proof.Digest(u.Payload), u.Proof, sessionID) {
			return fmt.Errorf("%w: participant %s", errors.ErrProofRejected, u.ParticipantID)
		}
	}

	return nil
}
