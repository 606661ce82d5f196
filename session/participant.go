package session

// SecretShare is one encrypted share of a participant's masking
// secret, addressed to another session member. The engine only counts
// shares against the reconstruction threshold; it never opens them.
type SecretShare struct {
	Recipient      string `json:"recipient"`
	EncryptedShare []byte `json:"encrypted_share"`
	Nonce          []byte `json:"nonce"`
}

// SubmissionStatus tracks how far a participant got within a round.
type SubmissionStatus uint8

const (
	NotSubmitted SubmissionStatus = iota
	Submitted
	Verified
)

func (s SubmissionStatus) String() string {
	switch s {
	case NotSubmitted:
		return "NotSubmitted"
	case Submitted:
		return "Submitted"
	case Verified:
		return "Verified"
	default:
		return "Unknown"
	}
}

// ParticipantRecord is a participant's membership in one session. It
// is created at admission, rewritten only by parameter submission, and
// expires with the session.
type ParticipantRecord struct {
	ID     string           `json:"id"`
	Update ModelUpdate      `json:"update"`
	Shares []SecretShare    `json:"shares,omitempty"`
	Status SubmissionStatus `json:"status"`
}
