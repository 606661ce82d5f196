package coordinator_test

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/absmach/fusion/coordinator"
	"github.com/absmach/fusion/pkg/aggregate"
	"github.com/absmach/fusion/pkg/errors"
	"github.com/absmach/fusion/pkg/mqtt"
	"github.com/absmach/fusion/pkg/mqtt/mocks"
	"github.com/absmach/fusion/pkg/proof"
	"github.com/absmach/fusion/pkg/storage"
	"github.com/absmach/fusion/session"
	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var errWriteFailed = stderrors.New("write failed")

// failingStore passes everything through until armed, then fails the
// next commit.
type failingStore struct {
	storage.Storage

	failNext bool
}

func (f *failingStore) Commit(ctx context.Context, ops []storage.Op) error {
	if f.failNext {
		f.failNext = false

		return errWriteFailed
	}

	return f.Storage.Commit(ctx, ops)
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func setupTestService(t *testing.T) (coordinator.Service, *testClock) {
	t.Helper()

	accountant, err := aggregate.NewAccountant(0)
	require.NoError(t, err)

	eng := session.Engine{
		Verifier:   proof.NewNonEmpty(),
		Combiner:   aggregate.NewWeightedDelta(),
		Accountant: accountant,
	}
	clk := &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}

	svc := coordinator.NewService(
		storage.NewInMemoryStorage(),
		eng,
		clk,
		nil,
		"",
		0,
	)

	return svc, clk
}

func testConfig() session.Config {
	return session.Config{
		MinParticipants: 2,
		MaxUpdateAge:    time.Hour,
		PrivacyFactor:   0,
		WeightScheme:    aggregate.SchemeSpec{Kind: aggregate.Uniform},
		Threshold:       1,
	}
}

func testSubmission(participantID string, payload []byte) coordinator.Submission {
	return coordinator.Submission{
		ParticipantID: participantID,
		Payload:       payload,
		DataSize:      100,
		Metrics:       session.ValidationMetrics{Accuracy: 0.9},
		Proof:         []byte("proof"),
		Shares: []session.SecretShare{
			{Recipient: "peer", EncryptedShare: []byte{1}, Nonce: []byte{2}},
		},
	}
}

func TestCreateSession(t *testing.T) {
	t.Parallel()
	svc, _ := setupTestService(t)
	ctx := context.Background()

	s, err := svc.CreateSession(ctx, "round-1", "creator-1", testConfig())
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "round-1", s.Name)
	assert.Equal(t, session.Initialization, s.Phase)

	got, err := svc.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
}

func TestCreateSessionGeneratesName(t *testing.T) {
	t.Parallel()
	svc, _ := setupTestService(t)

	s, err := svc.CreateSession(context.Background(), "", "creator-1", testConfig())
	require.NoError(t, err)
	assert.NotEmpty(t, s.Name)
}

func TestCreateSessionInvalidConfig(t *testing.T) {
	t.Parallel()
	svc, _ := setupTestService(t)

	cfg := testConfig()
	cfg.Threshold = 3

	_, err := svc.CreateSession(context.Background(), "round-1", "creator-1", cfg)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
}

func TestGetSessionNotFound(t *testing.T) {
	t.Parallel()
	svc, _ := setupTestService(t)

	_, err := svc.GetSession(context.Background(), "missing")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestListSessions(t *testing.T) {
	t.Parallel()
	svc, _ := setupTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.CreateSession(ctx, "", "creator-1", testConfig())
		require.NoError(t, err)
	}

	page, err := svc.ListSessions(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), page.Total)
	assert.Len(t, page.Sessions, 3)
}

func TestAddParticipant(t *testing.T) {
	t.Parallel()
	svc, _ := setupTestService(t)
	ctx := context.Background()

	s, err := svc.CreateSession(ctx, "round-1", "creator-1", testConfig())
	require.NoError(t, err)

	s, err = svc.AddParticipant(ctx, s.ID, "client-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"client-1"}, s.Participants)

	_, err = svc.AddParticipant(ctx, s.ID, "client-1")
	assert.ErrorIs(t, err, errors.ErrDuplicateParticipant)
}

func TestFullRound(t *testing.T) {
	t.Parallel()
	svc, _ := setupTestService(t)
	ctx := context.Background()

	seedParams := []byte{10, 10, 10, 10}
	seed, err := svc.SeedModel(ctx, seedParams)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), seed.Version)

	s, err := svc.CreateSession(ctx, "round-1", "creator-1", testConfig())
	require.NoError(t, err)

	_, err = svc.AddParticipant(ctx, s.ID, "client-1")
	require.NoError(t, err)
	_, err = svc.AddParticipant(ctx, s.ID, "client-2")
	require.NoError(t, err)

	s, err = svc.AdvanceSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ParameterSubmission, s.Phase)

	delta := aggregate.EncodeVector([]float64{2, 2, 2, 2})
	_, err = svc.SubmitUpdate(ctx, s.ID, testSubmission("client-1", delta))
	require.NoError(t, err)
	_, err = svc.SubmitUpdate(ctx, s.ID, testSubmission("client-2", delta))
	require.NoError(t, err)

	_, err = svc.AdvanceSession(ctx, s.ID)
	require.NoError(t, err)
	_, err = svc.AdvanceSession(ctx, s.ID)
	require.NoError(t, err)
	s, err = svc.AdvanceSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, session.Aggregation, s.Phase)

	next, err := svc.Aggregate(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), next.Version)
	assert.Equal(t, uint64(2), next.Metadata.ParticipantCount)
	require.NoError(t, next.Verify())

	// Uniform weights over identical deltas: 10 + 2 per parameter.
	assert.Equal(t, []byte{12, 12, 12, 12}, next.Parameters)

	s, err = svc.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, session.Completed, s.Phase)
	assert.NotEmpty(t, s.Result)

	got2, err := svc.GetModel(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, next.Hash, got2.Hash)
}

func TestSubmitUpdateCBOR(t *testing.T) {
	t.Parallel()
	svc, _ := setupTestService(t)
	ctx := context.Background()

	s, err := svc.CreateSession(ctx, "round-1", "creator-1", testConfig())
	require.NoError(t, err)
	_, err = svc.AddParticipant(ctx, s.ID, "client-1")
	require.NoError(t, err)
	_, err = svc.AddParticipant(ctx, s.ID, "client-2")
	require.NoError(t, err)
	_, err = svc.AdvanceSession(ctx, s.ID)
	require.NoError(t, err)

	sub := testSubmission("client-1", aggregate.EncodeVector([]float64{1, 2}))
	data, err := cbor.Marshal(sub)
	require.NoError(t, err)

	s, err = svc.SubmitUpdateCBOR(ctx, s.ID, data)
	require.NoError(t, err)
	assert.Equal(t, session.Submitted, s.Records["client-1"].Status)

	_, err = svc.SubmitUpdateCBOR(ctx, s.ID, []byte("not cbor"))
	assert.ErrorIs(t, err, errors.ErrInvalidData)
}

func TestAggregateWithoutSeed(t *testing.T) {
	t.Parallel()
	svc, _ := setupTestService(t)
	ctx := context.Background()

	s, err := svc.CreateSession(ctx, "round-1", "creator-1", testConfig())
	require.NoError(t, err)

	_, err = svc.Aggregate(ctx, s.ID)
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestAbortSession(t *testing.T) {
	t.Parallel()
	svc, _ := setupTestService(t)
	ctx := context.Background()

	s, err := svc.CreateSession(ctx, "round-1", "creator-1", testConfig())
	require.NoError(t, err)

	s, err = svc.AbortSession(ctx, s.ID, "operator requested")
	require.NoError(t, err)
	assert.Equal(t, session.Aborted, s.Phase)
	assert.Equal(t, "operator requested", s.AbortReason)

	_, err = svc.AbortSession(ctx, s.ID, "again")
	assert.ErrorIs(t, err, errors.ErrInvalidPhase)
}

func TestAdvanceSessionExpired(t *testing.T) {
	t.Parallel()
	svc, clk := setupTestService(t)
	ctx := context.Background()

	s, err := svc.CreateSession(ctx, "round-1", "creator-1", testConfig())
	require.NoError(t, err)

	clk.now = s.Deadlines.AggregationEnd.Add(time.Second)

	_, err = svc.AdvanceSession(ctx, s.ID)
	assert.ErrorIs(t, err, errors.ErrExpired)
}

func TestRoundEventsPublished(t *testing.T) {
	t.Parallel()

	accountant, err := aggregate.NewAccountant(0)
	require.NoError(t, err)
	eng := session.Engine{
		Verifier:   proof.NewNonEmpty(),
		Combiner:   aggregate.NewWeightedDelta(),
		Accountant: accountant,
	}
	clk := &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}

	publisher := new(mocks.PubSub)
	publisher.On("Publish", mock.Anything, "fl/rounds/start", mock.Anything).Return(nil)
	publisher.On("Publish", mock.Anything, "fl/rounds/abort", mock.Anything).Return(nil)

	svc := coordinator.NewService(
		storage.NewInMemoryStorage(),
		eng,
		clk,
		publisher,
		"",
		0,
	)
	ctx := context.Background()

	s, err := svc.CreateSession(ctx, "round-1", "creator-1", testConfig())
	require.NoError(t, err)

	_, err = svc.AbortSession(ctx, s.ID, "test")
	require.NoError(t, err)

	publisher.AssertExpectations(t)
}

func TestSeedModelTwice(t *testing.T) {
	t.Parallel()
	svc, _ := setupTestService(t)
	ctx := context.Background()

	params := []byte{1, 2, 3}
	_, err := svc.SeedModel(ctx, params)
	require.NoError(t, err)

	_, err = svc.SeedModel(ctx, params)
	assert.ErrorIs(t, err, errors.ErrEntityExists)
}

func TestListModels(t *testing.T) {
	t.Parallel()
	svc, _ := setupTestService(t)
	ctx := context.Background()

	_, err := svc.SeedModel(ctx, []byte{1, 2, 3})
	require.NoError(t, err)

	page, err := svc.ListModels(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), page.Total)
	assert.Equal(t, uint64(0), page.Models[0].Version)
}

func TestAggregateCommitAtomicity(t *testing.T) {
	t.Parallel()

	eng := session.Engine{
		Verifier: proof.NewNonEmpty(),
		Combiner: aggregate.NewWeightedDelta(),
	}
	clk := &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	store := &failingStore{Storage: storage.NewInMemoryStorage()}
	svc := coordinator.NewService(store, eng, clk, nil, "", 0)
	ctx := context.Background()

	_, err := svc.SeedModel(ctx, []byte{100, 100})
	require.NoError(t, err)

	cfg := testConfig()
	cfg.PrivacyFactor = 50
	s, err := svc.CreateSession(ctx, "round-1", "creator-1", cfg)
	require.NoError(t, err)
	_, err = svc.AddParticipant(ctx, s.ID, "client-1")
	require.NoError(t, err)
	_, err = svc.AddParticipant(ctx, s.ID, "client-2")
	require.NoError(t, err)

	_, err = svc.AdvanceSession(ctx, s.ID)
	require.NoError(t, err)
	delta := aggregate.EncodeVector([]float64{1, 1})
	_, err = svc.SubmitUpdate(ctx, s.ID, testSubmission("client-1", delta))
	require.NoError(t, err)
	_, err = svc.SubmitUpdate(ctx, s.ID, testSubmission("client-2", delta))
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = svc.AdvanceSession(ctx, s.ID)
		require.NoError(t, err)
	}

	store.failNext = true
	_, err = svc.Aggregate(ctx, s.ID)
	require.ErrorIs(t, err, errWriteFailed)

	// Nothing from the failed round is visible: no new version, no
	// budget spent, session still aggregatable.
	_, err = svc.GetModel(ctx, 1)
	assert.ErrorIs(t, err, errors.ErrNotFound)
	s, err = svc.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, session.Aggregation, s.Phase)

	// The retry recomputes from version zero and charges the round's
	// budget exactly once.
	next, err := svc.Aggregate(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), next.Version)
	assert.InDelta(t, 0.7071067811865476, next.Metadata.PrivacyBudgetSpent, 1e-9)

	s, err = svc.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, session.Completed, s.Phase)

	// A second aggregation of the same round is rejected outright.
	_, err = svc.Aggregate(ctx, s.ID)
	assert.ErrorIs(t, err, errors.ErrInvalidPhase)
}

func TestSubscribeHandlesJoin(t *testing.T) {
	t.Parallel()

	accountant, err := aggregate.NewAccountant(0)
	require.NoError(t, err)
	eng := session.Engine{
		Verifier:   proof.NewNonEmpty(),
		Combiner:   aggregate.NewWeightedDelta(),
		Accountant: accountant,
	}
	clk := &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}

	var handler mqtt.Handler
	publisher := new(mocks.PubSub)
	publisher.On("Subscribe", mock.Anything, coordinator.ParticipantJoinTopic, mock.Anything).
		Run(func(args mock.Arguments) {
			handler = args.Get(2).(mqtt.Handler)
		}).
		Return(nil)
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := coordinator.NewService(storage.NewInMemoryStorage(), eng, clk, publisher, "", 0)
	ctx := context.Background()

	require.NoError(t, svc.Subscribe(ctx))
	require.NotNil(t, handler)

	s, err := svc.CreateSession(ctx, "round-1", "creator-1", testConfig())
	require.NoError(t, err)

	msg := map[string]any{
		"session_id":     s.ID,
		"participant_id": "client-1",
	}
	require.NoError(t, handler(coordinator.ParticipantJoinTopic, msg))

	got, err := svc.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"client-1"}, got.Participants)

	err = handler(coordinator.ParticipantJoinTopic, map[string]any{"participant_id": "client-2"})
	assert.ErrorIs(t, err, errors.ErrInvalidData)

	err = handler(coordinator.ParticipantJoinTopic, map[string]any{"session_id": s.ID})
	assert.ErrorIs(t, err, errors.ErrInvalidData)

	publisher.AssertExpectations(t)
}
