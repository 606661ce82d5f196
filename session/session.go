package session

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/absmach/fusion/model"
	"github.com/absmach/fusion/pkg/aggregate"
	"github.com/absmach/fusion/pkg/errors"
	"github.com/absmach/fusion/pkg/proof"
)

// MaxParticipants caps session membership.
const MaxParticipants = 100

// Default phase windows, measured from session creation.
const (
	DefSubmissionWindow   = time.Hour
	DefVerificationWindow = 2 * time.Hour
	DefAggregationWindow  = 3 * time.Hour
)

type Phase uint8

const (
	Initialization Phase = iota
	ParameterSubmission
	ShareDistribution
	Verification
	Aggregation
	Completed
	Aborted
)

func (p Phase) String() string {
	switch p {
	case Initialization:
		return "Initialization"
	case ParameterSubmission:
		return "ParameterSubmission"
	case ShareDistribution:
		return "ShareDistribution"
	case Verification:
		return "Verification"
	case Aggregation:
		return "Aggregation"
	case Completed:
		return "Completed"
	case Aborted:
		return "Aborted"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (p Phase) Terminal() bool {
	return p == Completed || p == Aborted
}

// Config carries the immutable per-round parameters.
type Config struct {
	MinParticipants uint64 `json:"min_participants"`
	// MaxUpdateAge is the freshness window. It shares the wall-clock
	// unit of every deadline in the session; Validate rejects
	// non-positive windows so the unit match is asserted at parse time.
	MaxUpdateAge time.Duration `json:"max_update_age"`
	// PrivacyFactor amplifies aggregation noise, 0 (none) to 100 (max).
	PrivacyFactor uint8                `json:"privacy_factor"`
	WeightScheme  aggregate.SchemeSpec `json:"weight_scheme"`
	// Threshold is the minimum number of secret shares a submission
	// must distribute for later reconstruction.
	Threshold uint64 `json:"threshold"`
	// AllowedParticipants restricts admission; empty means open.
	AllowedParticipants []string `json:"allowed_participants,omitempty"`

	SubmissionWindow   time.Duration `json:"submission_window,omitempty"`
	VerificationWindow time.Duration `json:"verification_window,omitempty"`
	AggregationWindow  time.Duration `json:"aggregation_window,omitempty"`
}

func (c Config) Validate() error {
	if c.MinParticipants == 0 {
		return fmt.Errorf("%w: min_participants must be positive", errors.ErrInvalidConfig)
	}
	if c.Threshold == 0 {
		return fmt.Errorf("%w: threshold must be positive", errors.ErrInvalidConfig)
	}
	if c.Threshold > c.MinParticipants {
		return fmt.Errorf("%w: threshold %d exceeds min_participants %d", errors.ErrInvalidConfig, c.Threshold, c.MinParticipants)
	}
	if c.PrivacyFactor > 100 {
		return fmt.Errorf("%w: privacy_factor %d out of range [0, 100]", errors.ErrInvalidConfig, c.PrivacyFactor)
	}
	if c.MaxUpdateAge <= 0 {
		return fmt.Errorf("%w: max_update_age must be positive", errors.ErrInvalidConfig)
	}

	return c.WeightScheme.Validate()
}

func (c Config) allows(participantID string) bool {
	if len(c.AllowedParticipants) == 0 {
		return true
	}
	for _, id := range c.AllowedParticipants {
		if id == participantID {
			return true
		}
	}

	return false
}

// Deadlines time-box the protocol phases.
type Deadlines struct {
	Start           time.Time `json:"start"`
	SubmissionEnd   time.Time `json:"submission_end"`
	VerificationEnd time.Time `json:"verification_end"`
	AggregationEnd  time.Time `json:"aggregation_end"`
}

// Session is one aggregation round. It is pure state: every operation
// is a plain method taking the caller's clock reading, performs no
// locking and spawns no background work. The host must serialize
// mutating operations per session; distinct sessions share nothing.
type Session struct {
	ID           string                        `json:"id"`
	Name         string                        `json:"name"`
	Creator      string                        `json:"creator"`
	Phase        Phase                         `json:"phase"`
	Participants []string                      `json:"participants"`
	Records      map[string]*ParticipantRecord `json:"records"`
	Config       Config                        `json:"config"`
	Deadlines    Deadlines                     `json:"deadlines"`
	// Result holds the aggregated parameters; nil until Completed.
	Result      []byte    `json:"result,omitempty"`
	Nonce       []byte    `json:"nonce"`
	AbortReason string    `json:"abort_reason,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Page struct {
	Offset   uint64    `json:"offset"`
	Limit    uint64    `json:"limit"`
	Total    uint64    `json:"total"`
	Sessions []Session `json:"sessions"`
}

// New opens a round in Initialization with deadlines anchored at now.
// Zero windows fall back to the defaults.
func New(name, creator string, cfg Config, now time.Time) (Session, error) {
	if err := cfg.Validate(); err != nil {
		return Session{}, err
	}

	if cfg.SubmissionWindow == 0 {
		cfg.SubmissionWindow = DefSubmissionWindow
	}
	if cfg.VerificationWindow == 0 {
		cfg.VerificationWindow = DefVerificationWindow
	}
	if cfg.AggregationWindow == 0 {
		cfg.AggregationWindow = DefAggregationWindow
	}
	if cfg.VerificationWindow <= cfg.SubmissionWindow || cfg.AggregationWindow <= cfg.VerificationWindow {
		return Session{}, fmt.Errorf("%w: phase windows must be strictly increasing", errors.ErrInvalidConfig)
	}

	nonce := make([]byte, 32)
	if _, err := rand.Read(nonce); err != nil {
		return Session{}, fmt.Errorf("failed to draw session nonce: %w", err)
	}

	return Session{
		Name:    name,
		Creator: creator,
		Phase:   Initialization,
		Records: make(map[string]*ParticipantRecord),
		Config:  cfg,
		Deadlines: Deadlines{
			Start:           now,
			SubmissionEnd:   now.Add(cfg.SubmissionWindow),
			VerificationEnd: now.Add(cfg.VerificationWindow),
			AggregationEnd:  now.Add(cfg.AggregationWindow),
		},
		Nonce:     nonce,
		CreatedAt: now,
	}, nil
}

// AddParticipant admits a candidate during Initialization. Duplicate
// admission is an explicit error, never silently ignored.
func (s *Session) AddParticipant(participantID string, now time.Time) error {
	if s.Phase != Initialization {
		return fmt.Errorf("%w: add participant during %s", errors.ErrInvalidPhase, s.Phase)
	}
	if !s.Config.allows(participantID) {
		return fmt.Errorf("%w: %s", errors.ErrUnauthorized, participantID)
	}
	if now.After(s.Deadlines.SubmissionEnd) {
		return fmt.Errorf("%w: submission window closed", errors.ErrExpired)
	}
	if _, ok := s.Records[participantID]; ok {
		return fmt.Errorf("%w: %s", errors.ErrDuplicateParticipant, participantID)
	}
	if len(s.Participants) >= MaxParticipants {
		return errors.ErrMaxParticipants
	}

	s.Participants = append(s.Participants, participantID)
	s.Records[participantID] = &ParticipantRecord{
		ID:     participantID,
		Status: NotSubmitted,
	}

	return nil
}

// Advance drives the round one phase forward. Phases are explicit and
// externally driven: the engine never moves a session on its own, and
// expiry is detected lazily here and in the other operations. Each
// phase is gated by its own deadline. The Aggregation phase leaves
// only through Aggregate or Abort.
func (s *Session) Advance(now time.Time) (Phase, error) {
	if s.Phase.Terminal() {
		return s.Phase, fmt.Errorf("%w: session is %s", errors.ErrInvalidPhase, s.Phase)
	}

	switch s.Phase {
	case Initialization, ParameterSubmission:
		if now.After(s.Deadlines.SubmissionEnd) {
			return s.Phase, fmt.Errorf("%w: submission window closed", errors.ErrExpired)
		}
	case ShareDistribution, Verification:
		if now.After(s.Deadlines.VerificationEnd) {
			return s.Phase, fmt.Errorf("%w: verification window closed", errors.ErrExpired)
		}
	}

	switch s.Phase {
	case Initialization:
		s.Phase = ParameterSubmission
	case ParameterSubmission:
		s.Phase = ShareDistribution
	case ShareDistribution:
		s.Phase = Verification
	case Verification:
		s.Phase = Aggregation
	default:
		return s.Phase, fmt.Errorf("%w: %s leaves only through aggregate or abort", errors.ErrInvalidPhase, s.Phase)
	}

	return s.Phase, nil
}

// SubmitParameters records a contribution during ParameterSubmission.
// Re-submission by the same participant overwrites the earlier record:
// last write wins, by policy.
func (s *Session) SubmitParameters(u ModelUpdate, shares []SecretShare, verifier proof.Verifier, now time.Time) error {
	if s.Phase != ParameterSubmission {
		return fmt.Errorf("%w: submit parameters during %s", errors.ErrInvalidPhase, s.Phase)
	}
	if now.After(s.Deadlines.SubmissionEnd) {
		return fmt.Errorf("%w: submission window closed", errors.ErrExpired)
	}
	rec, ok := s.Records[u.ParticipantID]
	if !ok {
		return fmt.Errorf("%w: %s was not admitted", errors.ErrUnauthorized, u.ParticipantID)
	}
	if !verifier.Verify(proof.Digest(u.Payload), u.Proof, s.ID) {
		return fmt.Errorf("%w: participant %s", errors.ErrProofRejected, u.ParticipantID)
	}
	if uint64(len(shares)) < s.Config.Threshold {
		return fmt.Errorf("%w: got %d, threshold %d", errors.ErrInsufficientShares, len(shares), s.Config.Threshold)
	}

	rec.Update = u
	rec.Shares = shares
	rec.Status = Submitted

	return nil
}

// Engine bundles the capabilities Aggregate consumes.
type Engine struct {
	Verifier proof.Verifier
	Combiner aggregate.Combiner
	// Accountant overrides the per-session accountant when set.
	// Left nil, noise scale follows the session's privacy factor.
	Accountant *aggregate.Accountant
}

// Aggregate runs admission validation, weighting, combination and
// privacy accounting over the submitted records and returns the next
// model version. On success the session moves to Completed with the
// result set; on any failure the session state is untouched, so the
// caller can commit the returned model and the session transition
// atomically. Budget is charged inside the returned metadata only.
func (s *Session) Aggregate(current model.GlobalModel, eng Engine, now time.Time) (model.GlobalModel, error) {
	if s.Phase != Aggregation {
		return model.GlobalModel{}, fmt.Errorf("%w: aggregate during %s", errors.ErrInvalidPhase, s.Phase)
	}
	if now.After(s.Deadlines.AggregationEnd) {
		return model.GlobalModel{}, fmt.Errorf("%w: aggregation window closed", errors.ErrExpired)
	}

	updates := make([]ModelUpdate, 0, len(s.Participants))
	contributors := make([]*ParticipantRecord, 0, len(s.Participants))
	for _, id := range s.Participants {
		rec := s.Records[id]
		if rec.Status == NotSubmitted {
			continue
		}
		updates = append(updates, rec.Update)
		contributors = append(contributors, rec)
	}

	if err := ValidateUpdates(s.Config, s.ID, updates, now, eng.Verifier); err != nil {
		return model.GlobalModel{}, err
	}

	scheme, err := s.Config.WeightScheme.Build()
	if err != nil {
		return model.GlobalModel{}, err
	}

	contribs := make([]aggregate.Contribution, len(updates))
	var meanAccuracy float64
	for i, u := range updates {
		contribs[i] = aggregate.Contribution{
			ParticipantID: u.ParticipantID,
			Payload:       u.Payload,
			DataSize:      u.DataSize,
			Accuracy:      u.Metrics.Accuracy,
		}
		meanAccuracy += u.Metrics.Accuracy
	}
	meanAccuracy /= float64(len(updates))

	weights, err := scheme.Weights(contribs)
	if err != nil {
		return model.GlobalModel{}, err
	}

	raw, err := eng.Combiner.Combine(current.Parameters, contribs, weights)
	if err != nil {
		return model.GlobalModel{}, err
	}

	acct := eng.Accountant
	if acct == nil {
		acct, err = aggregate.NewAccountant(s.Config.PrivacyFactor)
		if err != nil {
			return model.GlobalModel{}, err
		}
	}
	noisy, epsilon := acct.Apply(raw, len(updates))

	next := current.Next(noisy, model.Metadata{
		ParticipantCount:   uint64(len(updates)),
		MeanAccuracy:       meanAccuracy,
		PrivacyBudgetSpent: current.Metadata.PrivacyBudgetSpent + epsilon,
		LastUpdated:        now,
	})

	for _, rec := range contributors {
		rec.Status = Verified
	}
	s.Result = noisy
	s.Phase = Completed

	return next, nil
}

// Abort terminates the round from any non-terminal phase, discarding
// any partial result.
func (s *Session) Abort(reason string) error {
	if s.Phase.Terminal() {
		return fmt.Errorf("%w: session is %s", errors.ErrInvalidPhase, s.Phase)
	}

	s.Phase = Aborted
	s.Result = nil
	s.AbortReason = reason

	return nil
}
