package session

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sampleToken() Token {
	return Token{
		ID:                   "session-1",
		AccessToken:          "access",
		RefreshToken:         "refresh",
		AccessTokenExpiresAt: t0.Add(5 * time.Minute),
		User:                 User{ID: "u1", Name: "Ada", Email: "ada@example.com"},
		IssuedAt:             t0,
		ExpiresAt:            t0.Add(720 * time.Hour),
	}
}

func TestCodecRoundTrip(t *testing.T) {
	codec, err := NewCodec(testSecret, fixedClock(t0))
	require.NoError(t, err)

	tok := sampleToken()
	value, err := codec.Seal(tok)
	require.NoError(t, err)
	assert.NotContains(t, value, "access")

	got, err := codec.Open(value)
	require.NoError(t, err)
	assert.Equal(t, tok.ID, got.ID)
	assert.Equal(t, tok.AccessToken, got.AccessToken)
	assert.Equal(t, tok.RefreshToken, got.RefreshToken)
	assert.Equal(t, tok.User, got.User)
	assert.True(t, tok.AccessTokenExpiresAt.Equal(got.AccessTokenExpiresAt))
	assert.True(t, tok.ExpiresAt.Equal(got.ExpiresAt))
	assert.Empty(t, got.Error)
}

func TestCodecUnknownExpiryStaysZero(t *testing.T) {
	codec, err := NewCodec(testSecret, fixedClock(t0))
	require.NoError(t, err)

	tok := sampleToken()
	tok.AccessTokenExpiresAt = time.Time{}
	value, err := codec.Seal(tok)
	require.NoError(t, err)

	got, err := codec.Open(value)
	require.NoError(t, err)
	assert.True(t, got.AccessTokenExpiresAt.IsZero())
}

func TestCodecNonceIsRandom(t *testing.T) {
	codec, err := NewCodec(testSecret, fixedClock(t0))
	require.NoError(t, err)

	a, err := codec.Seal(sampleToken())
	require.NoError(t, err)
	b, err := codec.Seal(sampleToken())
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCodecRejects(t *testing.T) {
	codec, err := NewCodec(testSecret, fixedClock(t0))
	require.NoError(t, err)
	value, err := codec.Seal(sampleToken())
	require.NoError(t, err)

	other, err := NewCodec(strings.Repeat("z", 32), fixedClock(t0))
	require.NoError(t, err)

	later, err := NewCodec(testSecret, fixedClock(t0.Add(721*time.Hour)))
	require.NoError(t, err)

	flipped := []byte(value)
	if flipped[len(flipped)-3] == 'A' {
		flipped[len(flipped)-3] = 'B'
	} else {
		flipped[len(flipped)-3] = 'A'
	}

	tests := []struct {
		name  string
		codec *Codec
		value string
	}{
		{name: "not base64", codec: codec, value: "***"},
		{name: "too short", codec: codec, value: "AQID"},
		{name: "tampered", codec: codec, value: string(flipped)},
		{name: "different secret", codec: other, value: value},
		{name: "past ceiling", codec: later, value: value},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.codec.Open(tt.value)
			assert.Error(t, err)
		})
	}
}
