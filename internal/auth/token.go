package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domainauth "github.com/NordCoder/Taskgate/internal/domain/auth"
)

var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrAlgorithm    = errors.New("unsupported signing algorithm")
)

var signingMethods = map[string]*jwt.SigningMethodHMAC{
	"HS256": jwt.SigningMethodHS256,
	"HS384": jwt.SigningMethodHS384,
	"HS512": jwt.SigningMethodHS512,
}

// SupportedAlgorithm reports whether alg can be used by a Signer.
func SupportedAlgorithm(alg string) bool {
	_, ok := signingMethods[alg]
	return ok
}

// Signer signs and parses HMAC JWTs with a single key and algorithm.
type Signer struct {
	key    []byte
	method *jwt.SigningMethodHMAC
	now    func() time.Time
}

func NewSigner(key []byte, alg string, now func() time.Time) (*Signer, error) {
	m, ok := signingMethods[alg]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrAlgorithm, alg)
	}
	if len(key) == 0 {
		return nil, errors.New("empty signing key")
	}
	if now == nil {
		now = time.Now
	}
	return &Signer{key: key, method: m, now: now}, nil
}

// Sign produces a token for subject. A zero ttl omits the exp claim; a
// non-empty id is stored as jti.
func (s *Signer) Sign(subject, id string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:  subject,
		ID:       id,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse checks the signature and, when requireExp is set, the expiry.
// Any failure other than expiry is ErrTokenInvalid.
func (s *Signer) Parse(token string, requireExp bool) (*domainauth.Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if requireExp {
		opts = append(opts, jwt.WithExpirationRequired())
	}

	var rc jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &rc, func(*jwt.Token) (any, error) { return s.key, nil }, opts...)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	default:
		return nil, ErrTokenInvalid
	}
	if rc.Subject == "" {
		return nil, ErrTokenInvalid
	}

	out := &domainauth.Claims{Subject: rc.Subject, ID: rc.ID}
	if rc.IssuedAt != nil {
		out.IssuedAt = rc.IssuedAt.Time
	}
	if rc.ExpiresAt != nil {
		out.ExpiresAt = rc.ExpiresAt.Time
	}
	return out, nil
}
