package coordinator

import (
	"context"
	"fmt"
	"sync"

	"github.com/0x6flab/namegenerator"
	"github.com/absmach/fusion/model"
	"github.com/absmach/fusion/pkg/clock"
	"github.com/absmach/fusion/pkg/errors"
	"github.com/absmach/fusion/pkg/mqtt"
	"github.com/absmach/fusion/pkg/storage"
	"github.com/absmach/fusion/session"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// Sessions, model versions and round bookkeeping share one store under
// distinct key prefixes, so a round commit can cover all three in a
// single transaction.
const (
	sessionKeyPrefix  = "sessions/"
	modelKeyPrefix    = "models/"
	currentVersionKey = "state/current_version"

	defModelRetention = 10
)

type service struct {
	store     storage.Storage
	engine    session.Engine
	clock     clock.Clock
	publisher mqtt.PubSub
	baseTopic string
	retention uint64
	namegen   namegenerator.NameGenerator

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewService(store storage.Storage, engine session.Engine, clk clock.Clock, publisher mqtt.PubSub, baseTopic string, retention uint64) Service {
	if retention == 0 {
		retention = defModelRetention
	}

	return &service{
		store:     store,
		engine:    engine,
		clock:     clk,
		publisher: publisher,
		baseTopic: baseTopic,
		retention: retention,
		namegen:   namegenerator.NewGenerator(),
		locks:     make(map[string]*sync.Mutex),
	}
}

// sessionLock serializes mutating operations per session. The round
// engine itself is not safe for concurrent use on a single session.
func (svc *service) sessionLock(sessionID string) *sync.Mutex {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	l, ok := svc.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		svc.locks[sessionID] = l
	}

	return l
}

func (svc *service) CreateSession(ctx context.Context, name, creator string, cfg session.Config) (session.Session, error) {
	if name == "" {
		name = svc.namegen.Generate()
	}

	s, err := session.New(name, creator, cfg, svc.clock.Now())
	if err != nil {
		return session.Session{}, err
	}
	s.ID = uuid.NewString()

	if err := svc.store.Create(ctx, sessionKey(s.ID), s); err != nil {
		return session.Session{}, err
	}

	svc.publishEvent(ctx, roundStartTopic, map[string]any{
		"session_id":       s.ID,
		"name":             s.Name,
		"min_participants": s.Config.MinParticipants,
		"threshold":        s.Config.Threshold,
		"submission_end":   s.Deadlines.SubmissionEnd,
	})

	return s, nil
}

func (svc *service) GetSession(ctx context.Context, sessionID string) (session.Session, error) {
	data, err := svc.store.Get(ctx, sessionKey(sessionID))
	if err != nil {
		return session.Session{}, err
	}
	s, ok := data.(session.Session)
	if !ok {
		return session.Session{}, errors.ErrInvalidData
	}

	return s, nil
}

func (svc *service) ListSessions(ctx context.Context, offset, limit uint64) (session.Page, error) {
	data, total, err := svc.store.List(ctx, sessionKeyPrefix, offset, limit)
	if err != nil {
		return session.Page{}, err
	}
	sessions := make([]session.Session, len(data))
	for i := range data {
		s, ok := data[i].(session.Session)
		if !ok {
			return session.Page{}, errors.ErrInvalidData
		}
		sessions[i] = s
	}

	return session.Page{
		Offset:   offset,
		Limit:    limit,
		Total:    total,
		Sessions: sessions,
	}, nil
}

func (svc *service) AddParticipant(ctx context.Context, sessionID, participantID string) (session.Session, error) {
	if participantID == "" {
		return session.Session{}, errors.ErrInvalidData
	}

	l := svc.sessionLock(sessionID)
	l.Lock()
	defer l.Unlock()

	s, err := svc.GetSession(ctx, sessionID)
	if err != nil {
		return session.Session{}, err
	}

	if err := s.AddParticipant(participantID, svc.clock.Now()); err != nil {
		return session.Session{}, err
	}

	if err := svc.store.Update(ctx, sessionKey(s.ID), s); err != nil {
		return session.Session{}, err
	}

	return s, nil
}

func (svc *service) AdvanceSession(ctx context.Context, sessionID string) (session.Session, error) {
	l := svc.sessionLock(sessionID)
	l.Lock()
	defer l.Unlock()

	s, err := svc.GetSession(ctx, sessionID)
	if err != nil {
		return session.Session{}, err
	}

	phase, err := s.Advance(svc.clock.Now())
	if err != nil {
		return session.Session{}, err
	}

	if err := svc.store.Update(ctx, sessionKey(s.ID), s); err != nil {
		return session.Session{}, err
	}

	svc.publishEvent(ctx, roundPhaseTopic, map[string]any{
		"session_id": s.ID,
		"phase":      phase.String(),
	})

	return s, nil
}

func (svc *service) SubmitUpdate(ctx context.Context, sessionID string, sub Submission) (session.Session, error) {
	if sub.ParticipantID == "" {
		return session.Session{}, errors.ErrInvalidData
	}

	l := svc.sessionLock(sessionID)
	l.Lock()
	defer l.Unlock()

	s, err := svc.GetSession(ctx, sessionID)
	if err != nil {
		return session.Session{}, err
	}

	u := session.ModelUpdate{
		ParticipantID: sub.ParticipantID,
		Payload:       sub.Payload,
		DataSize:      sub.DataSize,
		Metrics:       sub.Metrics,
		Proof:         sub.Proof,
		SubmittedAt:   svc.clock.Now(),
	}
	if err := s.SubmitParameters(u, sub.Shares, svc.engine.Verifier, svc.clock.Now()); err != nil {
		return session.Session{}, err
	}

	if err := svc.store.Update(ctx, sessionKey(s.ID), s); err != nil {
		return session.Session{}, err
	}

	return s, nil
}

func (svc *service) SubmitUpdateCBOR(ctx context.Context, sessionID string, data []byte) (session.Session, error) {
	var sub Submission
	if err := cbor.Unmarshal(data, &sub); err != nil {
		return session.Session{}, errors.ErrInvalidData
	}

	return svc.SubmitUpdate(ctx, sessionID, sub)
}

func (svc *service) Aggregate(ctx context.Context, sessionID string) (model.GlobalModel, error) {
	l := svc.sessionLock(sessionID)
	l.Lock()
	defer l.Unlock()

	s, err := svc.GetSession(ctx, sessionID)
	if err != nil {
		return model.GlobalModel{}, err
	}

	current, err := svc.currentModel(ctx)
	if err != nil {
		return model.GlobalModel{}, err
	}

	next, err := s.Aggregate(current, svc.engine, svc.clock.Now())
	if err != nil {
		return model.GlobalModel{}, err
	}

	// The new model version, the Completed session and the version
	// pointer become visible together or not at all. A failed commit
	// leaves the previous version current and the session in
	// Aggregation, so a retry recomputes from the old model and the
	// budget is charged exactly once per round.
	ops := []storage.Op{
		{Key: modelKey(next.Version), Value: next, Create: true},
		{Key: sessionKey(s.ID), Value: s},
		{Key: currentVersionKey, Value: next.Version},
	}
	if err := svc.store.Commit(ctx, ops); err != nil {
		return model.GlobalModel{}, err
	}

	svc.sweepModels(ctx, next.Version)

	svc.publishEvent(ctx, roundNextTopic, map[string]any{
		"session_id":    s.ID,
		"model_version": next.Version,
		"participants":  next.Metadata.ParticipantCount,
		"epsilon_spent": next.Metadata.PrivacyBudgetSpent,
	})

	return next, nil
}

func (svc *service) AbortSession(ctx context.Context, sessionID, reason string) (session.Session, error) {
	l := svc.sessionLock(sessionID)
	l.Lock()
	defer l.Unlock()

	s, err := svc.GetSession(ctx, sessionID)
	if err != nil {
		return session.Session{}, err
	}

	if err := s.Abort(reason); err != nil {
		return session.Session{}, err
	}

	if err := svc.store.Update(ctx, sessionKey(s.ID), s); err != nil {
		return session.Session{}, err
	}

	svc.publishEvent(ctx, roundAbortTopic, map[string]any{
		"session_id": s.ID,
		"reason":     reason,
	})

	return s, nil
}

func (svc *service) SeedModel(ctx context.Context, parameters []byte) (model.GlobalModel, error) {
	if len(parameters) == 0 {
		return model.GlobalModel{}, errors.ErrInvalidData
	}

	seed := model.Seed(parameters, svc.clock.Now())

	ops := []storage.Op{
		{Key: currentVersionKey, Value: seed.Version, Create: true},
		{Key: modelKey(seed.Version), Value: seed, Create: true},
	}
	if err := svc.store.Commit(ctx, ops); err != nil {
		return model.GlobalModel{}, err
	}

	return seed, nil
}

func (svc *service) GetModel(ctx context.Context, version uint64) (model.GlobalModel, error) {
	data, err := svc.store.Get(ctx, modelKey(version))
	if err != nil {
		return model.GlobalModel{}, err
	}
	m, ok := data.(model.GlobalModel)
	if !ok {
		return model.GlobalModel{}, errors.ErrInvalidData
	}

	if err := m.Verify(); err != nil {
		return model.GlobalModel{}, err
	}

	return m, nil
}

func (svc *service) ListModels(ctx context.Context, offset, limit uint64) (model.Page, error) {
	data, total, err := svc.store.List(ctx, modelKeyPrefix, offset, limit)
	if err != nil {
		return model.Page{}, err
	}
	models := make([]model.GlobalModel, len(data))
	for i := range data {
		m, ok := data[i].(model.GlobalModel)
		if !ok {
			return model.Page{}, errors.ErrInvalidData
		}
		models[i] = m
	}

	return model.Page{
		Offset: offset,
		Limit:  limit,
		Total:  total,
		Models: models,
	}, nil
}

func (svc *service) currentModel(ctx context.Context) (model.GlobalModel, error) {
	data, err := svc.store.Get(ctx, currentVersionKey)
	if err != nil {
		return model.GlobalModel{}, err
	}
	version, ok := data.(uint64)
	if !ok {
		return model.GlobalModel{}, errors.ErrInvalidData
	}

	return svc.GetModel(ctx, version)
}

// sweepModels drops versions older than the retention window. Sweep
// failures are non-fatal; the next commit retries them.
func (svc *service) sweepModels(ctx context.Context, latest uint64) {
	if latest < svc.retention {
		return
	}

	for v := uint64(0); v <= latest-svc.retention; v++ {
		_ = svc.store.Delete(ctx, modelKey(v))
	}
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

// modelKey pads versions so lexicographic key order matches numeric
// version order.
func modelKey(version uint64) string {
	return fmt.Sprintf("%sv%020d", modelKeyPrefix, version)
}
