package middleware

import (
	"context"

	"github.com/absmach/fusion/coordinator"
	"github.com/absmach/fusion/model"
	"github.com/absmach/fusion/session"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var _ coordinator.Service = (*tracing)(nil)

type tracing struct {
	tracer trace.Tracer
	svc    coordinator.Service
}

func Tracing(tracer trace.Tracer, svc coordinator.Service) coordinator.Service {
	return &tracing{tracer, svc}
}

func (tm *tracing) CreateSession(ctx context.Context, name, creator string, cfg session.Config) (session.Session, error) {
	ctx, span := tm.tracer.Start(ctx, "create-session", trace.WithAttributes(
		attribute.String("name", name),
		attribute.String("creator", creator),
	))
	defer span.End()

	return tm.svc.CreateSession(ctx, name, creator, cfg)
}

func (tm *tracing) GetSession(ctx context.Context, sessionID string) (session.Session, error) {
	ctx, span := tm.tracer.Start(ctx, "get-session", trace.WithAttributes(
		attribute.String("id", sessionID),
	))
	defer span.End()

	return tm.svc.GetSession(ctx, sessionID)
}

func (tm *tracing) ListSessions(ctx context.Context, offset, limit uint64) (session.Page, error) {
	ctx, span := tm.tracer.Start(ctx, "list-sessions", trace.WithAttributes(
		attribute.Int64("offset", int64(offset)),
		attribute.Int64("limit", int64(limit)),
	))
	defer span.End()

	return tm.svc.ListSessions(ctx, offset, limit)
}

func (tm *tracing) AddParticipant(ctx context.Context, sessionID, participantID string) (session.Session, error) {
	ctx, span := tm.tracer.Start(ctx, "add-participant", trace.WithAttributes(
		attribute.String("id", sessionID),
		attribute.String("participant_id", participantID),
	))
	defer span.End()

	return tm.svc.AddParticipant(ctx, sessionID, participantID)
}

func (tm *tracing) AdvanceSession(ctx context.Context, sessionID string) (session.Session, error) {
	ctx, span := tm.tracer.Start(ctx, "advance-session", trace.WithAttributes(
		attribute.String("id", sessionID),
	))
	defer span.End()

	return tm.svc.AdvanceSession(ctx, sessionID)
}

func (tm *tracing) SubmitUpdate(ctx context.Context, sessionID string, sub coordinator.Submission) (session.Session, error) {
	ctx, span := tm.tracer.Start(ctx, "submit-update", trace.WithAttributes(
		attribute.String("id", sessionID),
		attribute.String("participant_id", sub.ParticipantID),
	))
	defer span.End()

	return tm.svc.SubmitUpdate(ctx, sessionID, sub)
}

func (tm *tracing) SubmitUpdateCBOR(ctx context.Context, sessionID string, data []byte) (session.Session, error) {
	ctx, span := tm.tracer.Start(ctx, "submit-update-cbor", trace.WithAttributes(
		attribute.String("id", sessionID),
		attribute.Int("payload_bytes", len(data)),
	))
	defer span.End()

	return tm.svc.SubmitUpdateCBOR(ctx, sessionID, data)
}

func (tm *tracing) Aggregate(ctx context.Context, sessionID string) (model.GlobalModel, error) {
	ctx, span := tm.tracer.Start(ctx, "aggregate", trace.WithAttributes(
		attribute.String("id", sessionID),
	))
	defer span.End()

	return tm.svc.Aggregate(ctx, sessionID)
}

func (tm *tracing) AbortSession(ctx context.Context, sessionID, reason string) (session.Session, error) {
	ctx, span := tm.tracer.Start(ctx, "abort-session", trace.WithAttributes(
		attribute.String("id", sessionID),
		attribute.String("reason", reason),
	))
	defer span.End()

	return tm.svc.AbortSession(ctx, sessionID, reason)
}

func (tm *tracing) SeedModel(ctx context.Context, parameters []byte) (model.GlobalModel, error) {
	ctx, span := tm.tracer.Start(ctx, "seed-model", trace.WithAttributes(
		attribute.Int("parameter_bytes", len(parameters)),
	))
	defer span.End()

	return tm.svc.SeedModel(ctx, parameters)
}

func (tm *tracing) GetModel(ctx context.Context, version uint64) (model.GlobalModel, error) {
	ctx, span := tm.tracer.Start(ctx, "get-model", trace.WithAttributes(
		attribute.Int64("version", int64(version)),
	))
	defer span.End()

	return tm.svc.GetModel(ctx, version)
}

func (tm *tracing) ListModels(ctx context.Context, offset, limit uint64) (model.Page, error) {
	ctx, span := tm.tracer.Start(ctx, "list-models", trace.WithAttributes(
		attribute.Int64("offset", int64(offset)),
		attribute.Int64("limit", int64(limit)),
	))
	defer span.End()

	return tm.svc.ListModels(ctx, offset, limit)
}

func (tm *tracing) Subscribe(ctx context.Context) error {
	ctx, span := tm.tracer.Start(ctx, "subscribe")
	defer span.End()

	return tm.svc.Subscribe(ctx)
}
