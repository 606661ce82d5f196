package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/absmach/fusion/coordinator"
	"github.com/absmach/fusion/model"
	"github.com/absmach/fusion/session"
)

type loggingMiddleware struct {
	logger *slog.Logger
	svc    coordinator.Service
}

func Logging(logger *slog.Logger, svc coordinator.Service) coordinator.Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}

func (lm *loggingMiddleware) CreateSession(ctx context.Context, name, creator string, cfg session.Config) (resp session.Session, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("session",
				slog.String("id", resp.ID),
				slog.String("name", resp.Name),
				slog.String("creator", creator),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Create session failed", args...)

			return
		}
		lm.logger.Info("Create session completed successfully", args...)
	}(time.Now())

	return lm.svc.CreateSession(ctx, name, creator, cfg)
}

func (lm *loggingMiddleware) GetSession(ctx context.Context, sessionID string) (resp session.Session, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("session",
				slog.String("id", sessionID),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get session failed", args...)

			return
		}
		lm.logger.Info("Get session completed successfully", args...)
	}(time.Now())

	return lm.svc.GetSession(ctx, sessionID)
}

func (lm *loggingMiddleware) ListSessions(ctx context.Context, offset, limit uint64) (resp session.Page, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Uint64("offset", offset),
			slog.Uint64("limit", limit),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List sessions failed", args...)

			return
		}
		lm.logger.Info("List sessions completed successfully", args...)
	}(time.Now())

	return lm.svc.ListSessions(ctx, offset, limit)
}

func (lm *loggingMiddleware) AddParticipant(ctx context.Context, sessionID, participantID string) (resp session.Session, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("session",
				slog.String("id", sessionID),
			),
			slog.String("participant_id", participantID),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Add participant failed", args...)

			return
		}
		lm.logger.Info("Add participant completed successfully", args...)
	}(time.Now())

	return lm.svc.AddParticipant(ctx, sessionID, participantID)
}

func (lm *loggingMiddleware) AdvanceSession(ctx context.Context, sessionID string) (resp session.Session, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("session",
				slog.String("id", sessionID),
				slog.String("phase", resp.Phase.String()),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Advance session failed", args...)

			return
		}
		lm.logger.Info("Advance session completed successfully", args...)
	}(time.Now())

	return lm.svc.AdvanceSession(ctx, sessionID)
}

func (lm *loggingMiddleware) SubmitUpdate(ctx context.Context, sessionID string, sub coordinator.Submission) (resp session.Session, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("session",
				slog.String("id", sessionID),
			),
			slog.String("participant_id", sub.ParticipantID),
			slog.Uint64("data_size", sub.DataSize),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Submit update failed", args...)

			return
		}
		lm.logger.Info("Submit update completed successfully", args...)
	}(time.Now())

	return lm.svc.SubmitUpdate(ctx, sessionID, sub)
}

func (lm *loggingMiddleware) SubmitUpdateCBOR(ctx context.Context, sessionID string, data []byte) (resp session.Session, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("session",
				slog.String("id", sessionID),
			),
			slog.Int("payload_bytes", len(data)),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Submit CBOR update failed", args...)

			return
		}
		lm.logger.Info("Submit CBOR update completed successfully", args...)
	}(time.Now())

	return lm.svc.SubmitUpdateCBOR(ctx, sessionID, data)
}

func (lm *loggingMiddleware) Aggregate(ctx context.Context, sessionID string) (resp model.GlobalModel, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("session",
				slog.String("id", sessionID),
			),
			slog.Group("model",
				slog.Uint64("version", resp.Version),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Aggregate failed", args...)

			return
		}
		lm.logger.Info("Aggregate completed successfully", args...)
	}(time.Now())

	return lm.svc.Aggregate(ctx, sessionID)
}

func (lm *loggingMiddleware) AbortSession(ctx context.Context, sessionID, reason string) (resp session.Session, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("session",
				slog.String("id", sessionID),
			),
			slog.String("reason", reason),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Abort session failed", args...)

			return
		}
		lm.logger.Info("Abort session completed successfully", args...)
	}(time.Now())

	return lm.svc.AbortSession(ctx, sessionID, reason)
}

func (lm *loggingMiddleware) SeedModel(ctx context.Context, parameters []byte) (resp model.GlobalModel, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Int("parameter_bytes", len(parameters)),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Seed model failed", args...)

			return
		}
		lm.logger.Info("Seed model completed successfully", args...)
	}(time.Now())

	return lm.svc.SeedModel(ctx, parameters)
}

func (lm *loggingMiddleware) GetModel(ctx context.Context, version uint64) (resp model.GlobalModel, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("model",
				slog.Uint64("version", version),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get model failed", args...)

			return
		}
		lm.logger.Info("Get model completed successfully", args...)
	}(time.Now())

	return lm.svc.GetModel(ctx, version)
}

func (lm *loggingMiddleware) ListModels(ctx context.Context, offset, limit uint64) (resp model.Page, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Uint64("offset", offset),
			slog.Uint64("limit", limit),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List models failed", args...)

			return
		}
		lm.logger.Info("List models completed successfully", args...)
	}(time.Now())

	return lm.svc.ListModels(ctx, offset, limit)
}

func (lm *loggingMiddleware) Subscribe(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Subscribe to MQTT topic failed", args...)

			return
		}
		lm.logger.Info("Subscribe to MQTT topic completed successfully", args...)
	}(time.Now())

	return lm.svc.Subscribe(ctx)
}
