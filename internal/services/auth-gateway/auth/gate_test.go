package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// echoUser is a protected handler that reports who the gate let through.
type echoUser struct {
	calls int
	user  string
}

func (h *echoUser) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.calls++
	h.user, _ = UsernameFromCtx(r.Context())
	w.Header().Set("X-Handler", "yes")
	w.WriteHeader(http.StatusTeapot)
	_, _ = w.Write([]byte(h.user))
}

func serveGate(g *Gate, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	g.Middleware(h).ServeHTTP(rec, req)
	return rec
}

func protectedReq(auth, refresh string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	if auth != "" {
		r.Header.Set("Authorization", auth)
	}
	if refresh != "" {
		r.Header.Set(RefreshTokenHeader, refresh)
	}
	return r
}

func TestGate_States(t *testing.T) {
	e := newEnv(t)
	g := NewGate(e.tokens, nil, zap.NewNop())
	access, refresh := e.login(t, "alice", "pw")

	t.Run("no header", func(t *testing.T) {
		h := &echoUser{}
		rec := serveGate(g, h, protectedReq("", ""))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid credentials")
		assert.Zero(t, h.calls)
	})

	t.Run("malformed scheme", func(t *testing.T) {
		for _, hdr := range []string{"Basic " + access, "Token " + access, "Bearer", "Bearer   ", access} {
			h := &echoUser{}
			rec := serveGate(g, h, protectedReq(hdr, ""))
			assert.Equal(t, http.StatusBadRequest, rec.Code, hdr)
			assert.Zero(t, h.calls)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		h := &echoUser{}
		rec := serveGate(g, h, protectedReq("Bearer "+access, refresh))
		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.Equal(t, "alice", h.user)
		assert.Equal(t, "yes", rec.Header().Get("X-Handler"))
		assert.Empty(t, rec.Header().Get("Authorization"))
	})

	t.Run("tampered token", func(t *testing.T) {
		for _, refreshHdr := range []string{"", refresh} {
			h := &echoUser{}
			rec := serveGate(g, h, protectedReq("Bearer "+tamper(access), refreshHdr))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), "invalid token")
			assert.Empty(t, rec.Header().Get("Authorization"))
			assert.Zero(t, h.calls)
		}
	})
}

func TestGate_ExpiredToken(t *testing.T) {
	e := newEnv(t)
	g := NewGate(e.tokens, nil, zap.NewNop())
	access, refresh := e.login(t, "alice", "pw")
	e.clock.Advance(testAccessTTL + time.Second)

	t.Run("renewed", func(t *testing.T) {
		h := &echoUser{}
		rec := serveGate(g, h, protectedReq("Bearer "+access, refresh))
		require.Equal(t, http.StatusTeapot, rec.Code)
		assert.Equal(t, "alice", h.user)

		tok, ok := bearerToken(rec.Header().Get("Authorization"))
		require.True(t, ok)
		assert.NotEqual(t, access, tok)
		claims, err := e.tokens.VerifyAccessToken(tok)
		require.NoError(t, err)
		assert.Equal(t, "alice", claims.Subject)
	})

	t.Run("no refresh header", func(t *testing.T) {
		h := &echoUser{}
		rec := serveGate(g, h, protectedReq("Bearer "+access, ""))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid refresh token")
		assert.Zero(t, h.calls)
	})

	t.Run("invalid refresh", func(t *testing.T) {
		for _, bad := range []string{"garbage", tamper(refresh), access} {
			h := &echoUser{}
			rec := serveGate(g, h, protectedReq("Bearer "+access, bad))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), "invalid refresh token")
			assert.Zero(t, h.calls)
		}
	})

	t.Run("session expired", func(t *testing.T) {
		e.mr.FastForward(testRefreshTTL + time.Second)
		h := &echoUser{}
		rec := serveGate(g, h, protectedReq("Bearer "+access, refresh))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Zero(t, h.calls)
	})
}

func TestGate_RenewalStoreFailure(t *testing.T) {
	e := newEnv(t)
	access, refresh := e.login(t, "alice", "pw")
	e.clock.Advance(testAccessTTL + time.Second)

	broken, err := NewTokenService(brokenSessions{}, Config{
		Secret:    []byte("test-secret"),
		Algorithm: "HS256",
		AccessTTL: testAccessTTL,
		Now:       e.clock.Now,
	})
	require.NoError(t, err)

	h := &echoUser{}
	rec := serveGate(NewGate(broken, nil, zap.NewNop()), h, protectedReq("Bearer "+access, refresh))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), errStoreDown.Error())
	assert.Zero(t, h.calls)
}

func TestGate_RenewedHeaderSurvivesHandlerOverwrite(t *testing.T) {
	e := newEnv(t)
	g := NewGate(e.tokens, nil, zap.NewNop())
	access, refresh := e.login(t, "alice", "pw")
	e.clock.Advance(testAccessTTL + time.Second)

	overwrite := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Authorization", "Bearer stale")
		_, _ = w.Write([]byte("ok"))
	})
	rec := serveGate(g, overwrite, protectedReq("Bearer "+access, refresh))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, "Bearer stale", rec.Header().Get("Authorization"))

	silent := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	rec = serveGate(g, silent, protectedReq("Bearer "+access, refresh))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Authorization"))
}

func TestGate_PublicPrefixes(t *testing.T) {
	e := newEnv(t)
	g := NewGate(e.tokens, nil, zap.NewNop())

	for _, path := range []string{"/auth/login", "/auth", "/healthz", "/metrics"} {
		h := &echoUser{}
		rec := serveGate(g, h, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusTeapot, rec.Code, path)
		assert.Empty(t, h.user, path)
	}

	for _, path := range []string{"/authors", "/tasks", "/", "/healthzz"} {
		h := &echoUser{}
		rec := serveGate(g, h, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		assert.Zero(t, h.calls, path)
	}
}

func TestUsernameFromCtx(t *testing.T) {
	_, ok := UsernameFromCtx(context.Background())
	assert.False(t, ok)

	u, ok := UsernameFromCtx(WithUsername(context.Background(), "alice"))
	assert.True(t, ok)
	assert.Equal(t, "alice", u)
}
