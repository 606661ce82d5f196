package coordinator

import (
	"context"

	"github.com/absmach/fusion/model"
	"github.com/absmach/fusion/session"
)

// Submission is the wire form of a participant's round contribution.
// CBOR tags mirror the JSON ones so edge clients can post either
// encoding.
type Submission struct {
	ParticipantID string                    `json:"participant_id" cbor:"participant_id"`
	Payload       []byte                    `json:"payload"        cbor:"payload"`
	DataSize      uint64                    `json:"data_size"      cbor:"data_size"`
	Metrics       session.ValidationMetrics `json:"metrics"        cbor:"metrics"`
	Proof         []byte                    `json:"proof"          cbor:"proof"`
	Shares        []session.SecretShare     `json:"shares"         cbor:"shares"`
}

type Service interface {
	CreateSession(ctx context.Context, name, creator string, cfg session.Config) (session.Session, error)
	GetSession(ctx context.Context, sessionID string) (session.Session, error)
	ListSessions(ctx context.Context, offset, limit uint64) (session.Page, error)
	AddParticipant(ctx context.Context, sessionID, participantID string) (session.Session, error)
	AdvanceSession(ctx context.Context, sessionID string) (session.Session, error)
	SubmitUpdate(ctx context.Context, sessionID string, sub Submission) (session.Session, error)
	SubmitUpdateCBOR(ctx context.Context, sessionID string, data []byte) (session.Session, error)
	Aggregate(ctx context.Context, sessionID string) (model.GlobalModel, error)
	AbortSession(ctx context.Context, sessionID, reason string) (session.Session, error)

	SeedModel(ctx context.Context, parameters []byte) (model.GlobalModel, error)
	GetModel(ctx context.Context, version uint64) (model.GlobalModel, error)
	ListModels(ctx context.Context, offset, limit uint64) (model.Page, error)

	Subscribe(ctx context.Context) error
}
