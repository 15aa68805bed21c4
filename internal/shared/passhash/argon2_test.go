package passhash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	h, err := Hash("password123")
	require.NoError(t, err)
	assert.True(t, len(h) > 0)

	ok, err := Verify(h, "password123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Verify(h, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashesAreSalted(t *testing.T) {
	a, err := Hash("same")
	require.NoError(t, err)
	b, err := Hash("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerifyErrors(t *testing.T) {
	_, err := Verify("", "x")
	assert.Error(t, err)
	_, err = Verify("$argon2id$bad", "x")
	assert.Error(t, err)
	_, err = Verify("$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA", "x")
	assert.Error(t, err)
}
