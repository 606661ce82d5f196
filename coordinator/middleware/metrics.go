package middleware

import (
	"context"
	"time"

	"github.com/absmach/fusion/coordinator"
	"github.com/absmach/fusion/model"
	"github.com/absmach/fusion/session"
	"github.com/go-kit/kit/metrics"
)

var _ coordinator.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	svc     coordinator.Service
}

func Metrics(counter metrics.Counter, latency metrics.Histogram, svc coordinator.Service) coordinator.Service {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		svc:     svc,
	}
}

func (mm *metricsMiddleware) CreateSession(ctx context.Context, name, creator string, cfg session.Config) (session.Session, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "create-session").Add(1)
		mm.latency.With("method", "create-session").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.CreateSession(ctx, name, creator, cfg)
}

func (mm *metricsMiddleware) GetSession(ctx context.Context, sessionID string) (session.Session, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-session").Add(1)
		mm.latency.With("method", "get-session").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.GetSession(ctx, sessionID)
}

func (mm *metricsMiddleware) ListSessions(ctx context.Context, offset, limit uint64) (session.Page, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "list-sessions").Add(1)
		mm.latency.With("method", "list-sessions").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.ListSessions(ctx, offset, limit)
}

func (mm *metricsMiddleware) AddParticipant(ctx context.Context, sessionID, participantID string) (session.Session, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "add-participant").Add(1)
		mm.latency.With("method", "add-participant").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.AddParticipant(ctx, sessionID, participantID)
}

func (mm *metricsMiddleware) AdvanceSession(ctx context.Context, sessionID string) (session.Session, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "advance-session").Add(1)
		mm.latency.With("method", "advance-session").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.AdvanceSession(ctx, sessionID)
}

func (mm *metricsMiddleware) SubmitUpdate(ctx context.Context, sessionID string, sub coordinator.Submission) (session.Session, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "submit-update").Add(1)
		mm.latency.With("method", "submit-update").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.SubmitUpdate(ctx, sessionID, sub)
}

func (mm *metricsMiddleware) SubmitUpdateCBOR(ctx context.Context, sessionID string, data []byte) (session.Session, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "submit-update-cbor").Add(1)
		mm.latency.With("method", "submit-update-cbor").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.SubmitUpdateCBOR(ctx, sessionID, data)
}

func (mm *metricsMiddleware) Aggregate(ctx context.Context, sessionID string) (model.GlobalModel, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "aggregate").Add(1)
		mm.latency.With("method", "aggregate").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Aggregate(ctx, sessionID)
}

func (mm *metricsMiddleware) AbortSession(ctx context.Context, sessionID, reason string) (session.Session, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "abort-session").Add(1)
		mm.latency.With("method", "abort-session").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.AbortSession(ctx, sessionID, reason)
}

func (mm *metricsMiddleware) SeedModel(ctx context.Context, parameters []byte) (model.GlobalModel, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "seed-model").Add(1)
		mm.latency.With("method", "seed-model").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.SeedModel(ctx, parameters)
}

func (mm *metricsMiddleware) GetModel(ctx context.Context, version uint64) (model.GlobalModel, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-model").Add(1)
		mm.latency.With("method", "get-model").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.GetModel(ctx, version)
}

func (mm *metricsMiddleware) ListModels(ctx context.Context, offset, limit uint64) (model.Page, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "list-models").Add(1)
		mm.latency.With("method", "list-models").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.ListModels(ctx, offset, limit)
}

func (mm *metricsMiddleware) Subscribe(ctx context.Context) error {
	defer func(begin time.Time) {
		mm.counter.With("method", "subscribe").Add(1)
		mm.latency.With("method", "subscribe").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Subscribe(ctx)
}
