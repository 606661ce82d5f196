package proof_test

import (
	"testing"

	"github.com/absmach/fusion/pkg/proof"
	"github.com/stretchr/testify/assert"
)

func TestDigest(t *testing.T) {
	t.Parallel()

	d1 := proof.Digest([]byte("payload"))
	d2 := proof.Digest([]byte("payload"))
	d3 := proof.Digest([]byte("other"))

	assert.Len(t, d1, 32)
	assert.Equal(t, d1, d2)
	assert.NotEqual(t, d1, d3)
}

func TestNonEmpty(t *testing.T) {
	t.Parallel()

	v := proof.NewNonEmpty()
	digest := proof.Digest([]byte("payload"))

	assert.True(t, v.Verify(digest, []byte("proof"), "session-1"))
	assert.False(t, v.Verify(digest, nil, "session-1"))
	assert.False(t, v.Verify(nil, []byte("proof"), "session-1"))
}
