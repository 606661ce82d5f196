package proof

import "crypto/sha256"

// Verifier is the external proof-verification capability. The engine
// never inspects proof internals; it treats verification as an opaque
// predicate over the payload digest, the proof bytes, and the session
// the submission belongs to.
type Verifier interface {
	Verify(payloadDigest, proof []byte, sessionID string) bool
}

// Digest computes the payload digest handed to the verifier.
func Digest(payload []byte) []byte {
	sum := sha256.Sum256(payload)

	return sum[:]
}

type nonEmpty struct{}

// NewNonEmpty returns a development verifier that accepts any
// submission carrying a non-empty payload and proof. It provides no
// cryptographic guarantee and exists for local rounds and tests.
func NewNonEmpty() Verifier {
	return nonEmpty{}
}

func (nonEmpty) Verify(payloadDigest, proof []byte, _ string) bool {
	return len(payloadDigest) > 0 && len(proof) > 0
}
