package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	coreauth "github.com/NordCoder/Taskgate/internal/auth"
	"github.com/NordCoder/Taskgate/internal/httpjson"
	"github.com/NordCoder/Taskgate/internal/obs"
)

const (
	RefreshTokenHeader = "refresh_token"
	bearerPrefix       = "Bearer "
)

var DefaultPublicPrefixes = []string{"/auth", "/healthz", "/readyz", "/metrics"}

var gateDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "gate_decisions_total",
	Help: "Authorization gate outcomes.",
}, []string{"outcome"})

const (
	outcomePublic            = "public"
	outcomeAllowed           = "allowed"
	outcomeRenewed           = "renewed"
	outcomeBadCredentials    = "bad_credentials"
	outcomeInvalidToken      = "invalid_token"
	outcomeNoRefresh         = "expired_no_refresh"
	outcomeInvalidRefresh    = "invalid_refresh"
	outcomeRenewalStoreError = "renewal_error"
)

type ctxKey int

const usernameKey ctxKey = 1

func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, usernameKey, username)
}

func UsernameFromCtx(ctx context.Context) (string, bool) {
	u, ok := ctx.Value(usernameKey).(string)
	return u, ok && u != ""
}

type Gate struct {
	tokens *TokenService
	public []string
	log    *zap.Logger
}

func NewGate(tokens *TokenService, publicPrefixes []string, log *zap.Logger) *Gate {
	if publicPrefixes == nil {
		publicPrefixes = DefaultPublicPrefixes
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Gate{tokens: tokens, public: publicPrefixes, log: log}
}

// Middleware authenticates every non-public request. An expired access
// token is renewed once from the refresh_token header; the new token is
// returned to the client in the Authorization response header.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.isPublic(r.URL.Path) {
			g.decide(r, outcomePublic)
			next.ServeHTTP(w, r)
			return
		}

		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			g.deny(w, r, outcomeBadCredentials, http.StatusBadRequest, "invalid_credentials", "invalid credentials")
			return
		}

		claims, err := g.tokens.VerifyAccessToken(token)
		if err == nil {
			g.decide(r, outcomeAllowed)
			next.ServeHTTP(w, r.WithContext(WithUsername(r.Context(), claims.Subject)))
			return
		}
		if !errors.Is(err, coreauth.ErrTokenExpired) {
			g.deny(w, r, outcomeInvalidToken, http.StatusUnauthorized, "invalid_token", "invalid token")
			return
		}

		refresh := r.Header.Get(RefreshTokenHeader)
		if refresh == "" {
			g.deny(w, r, outcomeNoRefresh, http.StatusUnauthorized, "invalid_refresh_token", "invalid refresh token")
			return
		}

		renewed, err := g.tokens.RenewAccessToken(r.Context(), refresh)
		if err != nil {
			if errors.Is(err, ErrRefreshTokenInvalid) {
				g.deny(w, r, outcomeInvalidRefresh, http.StatusUnauthorized, "invalid_refresh_token", "invalid refresh token")
				return
			}
			obs.WithTrace(r.Context(), g.log).Error("gate.renew", zap.Error(err))
			g.deny(w, r, outcomeRenewalStoreError, http.StatusInternalServerError, "internal", "internal error")
			return
		}
		claims, err = g.tokens.VerifyAccessToken(renewed)
		if err != nil {
			obs.WithTrace(r.Context(), g.log).Error("gate.renew.verify", zap.Error(err))
			g.deny(w, r, outcomeRenewalStoreError, http.StatusInternalServerError, "internal", "internal error")
			return
		}

		g.decide(r, outcomeRenewed)
		rw := &renewedWriter{ResponseWriter: w, header: bearerPrefix + renewed}
		next.ServeHTTP(rw, r.WithContext(WithUsername(r.Context(), claims.Subject)))
		rw.flushHeader()
	})
}

func (g *Gate) isPublic(path string) bool {
	for _, p := range g.public {
		if path == p || strings.HasPrefix(path, strings.TrimSuffix(p, "/")+"/") {
			return true
		}
	}
	return false
}

func (g *Gate) decide(r *http.Request, outcome string) {
	gateDecisions.WithLabelValues(outcome).Inc()
	if ce := g.log.Check(zap.DebugLevel, "gate.decision"); ce != nil {
		ce.Write(zap.String("outcome", outcome), zap.String("path", r.URL.Path), zap.String("request_id", obs.RequestIDFromCtx(r.Context())))
	}
}

func (g *Gate) deny(w http.ResponseWriter, r *http.Request, outcome string, status int, code, msg string) {
	g.decide(r, outcome)
	httpjson.WriteError(w, status, code, msg)
}

// bearerToken extracts the token from "Bearer <token>". The scheme is
// matched case-sensitively.
func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	tok := strings.TrimSpace(header[len(bearerPrefix):])
	return tok, tok != ""
}

// renewedWriter forces the Authorization header onto the response right
// before the status line is written, whatever the handler set.
type renewedWriter struct {
	http.ResponseWriter
	header      string
	wroteHeader bool
}

func (w *renewedWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.wroteHeader = true
		w.ResponseWriter.Header().Set("Authorization", w.header)
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *renewedWriter) Write(p []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(p)
}

// flushHeader covers handlers that return without writing anything.
func (w *renewedWriter) flushHeader() {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
}

func (w *renewedWriter) Flush() {
	w.flushHeader()
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *renewedWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
