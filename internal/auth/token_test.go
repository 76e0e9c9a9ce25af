package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func newSigner(t *testing.T, c *clock) *Signer {
	t.Helper()
	s, err := NewSigner([]byte("test-secret"), "HS256", c.Now)
	require.NoError(t, err)
	return s
}

func TestSigner_RoundTripAndExpiry(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	s := newSigner(t, c)

	tok, err := s.Sign("alice", "", 30*time.Minute)
	require.NoError(t, err)

	claims, err := s.Parse(tok, true)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, c.t.Add(30*time.Minute).Unix(), claims.ExpiresAt.Unix())

	c.t = c.t.Add(29 * time.Minute)
	_, err = s.Parse(tok, true)
	require.NoError(t, err)

	c.t = c.t.Add(2 * time.Minute)
	_, err = s.Parse(tok, true)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestSigner_Deterministic(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	s := newSigner(t, c)

	a, err := s.Sign("alice", "", time.Minute)
	require.NoError(t, err)
	b, err := s.Sign("alice", "", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSigner_TamperedSignature(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	s := newSigner(t, c)

	tok, err := s.Sign("alice", "", time.Minute)
	require.NoError(t, err)

	tampered := tamper(tok)
	_, err = s.Parse(tampered, true)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	// an expired token with a bad signature is still invalid, not expired
	c.t = c.t.Add(time.Hour)
	_, err = s.Parse(tampered, true)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestSigner_RejectsForeignTokens(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	s := newSigner(t, c)

	other, err := NewSigner([]byte("other-secret"), "HS256", c.Now)
	require.NoError(t, err)
	foreign, err := other.Sign("alice", "", time.Minute)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(c.t.Add(time.Minute)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(c.t.Add(time.Minute)),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"other key":   foreign,
		"alg none":    none,
		"wrong alg":   hs512,
		"garbage":     "not.a.jwt",
		"empty":       "",
		"two segment": "abc.def",
	} {
		_, err := s.Parse(tok, true)
		assert.ErrorIs(t, err, ErrTokenInvalid, name)
	}
}

func TestSigner_ExpRequired(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	s := newSigner(t, c)

	tok, err := s.Sign("alice", "jti-1", 0)
	require.NoError(t, err)

	_, err = s.Parse(tok, true)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	claims, err := s.Parse(tok, false)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, "jti-1", claims.ID)
	assert.True(t, claims.ExpiresAt.IsZero())
}

func TestNewSigner_Validation(t *testing.T) {
	_, err := NewSigner([]byte("k"), "RS256", nil)
	assert.ErrorIs(t, err, ErrAlgorithm)

	_, err = NewSigner(nil, "HS256", nil)
	assert.Error(t, err)

	assert.True(t, SupportedAlgorithm("HS384"))
	assert.False(t, SupportedAlgorithm("none"))
}

// tamper flips the first character of the signature segment.
func tamper(tok string) string {
	i := strings.LastIndexByte(tok, '.') + 1
	repl := byte('A')
	if tok[i] == 'A' {
		repl = 'B'
	}
	return tok[:i] + string(repl) + tok[i+1:]
}
