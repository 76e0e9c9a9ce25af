package main

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	coreauth "github.com/NordCoder/Taskgate/internal/auth"
	config "github.com/NordCoder/Taskgate/internal/config/auth-gateway"
	"github.com/NordCoder/Taskgate/internal/obs"
	pg "github.com/NordCoder/Taskgate/internal/repository/postgres"
	redisrepo "github.com/NordCoder/Taskgate/internal/repository/redis"
	"github.com/NordCoder/Taskgate/internal/services/auth-gateway/auth"
	"github.com/NordCoder/Taskgate/internal/services/auth-gateway/task"
)

type deps struct {
	db         *pg.DB
	sessions   *redisrepo.SessionStore
	tasksReady func(context.Context) error
}

func buildHTTPServer(cfg *config.Config, logger *zap.Logger, d deps) (*http.Server, error) {
	users := pg.NewUserRepo(d.db)

	tokens, err := auth.NewTokenService(d.sessions, auth.Config{
		Secret:     []byte(cfg.Auth.SecretKey),
		Algorithm:  cfg.Auth.Algorithm,
		AccessTTL:  cfg.Auth.AccessTTL(),
		RefreshTTL: cfg.Auth.RefreshTTL(),
	})
	if err != nil {
		return nil, err
	}
	hasher := coreauth.NewHasher(cfg.Password.BcryptCost, cfg.Password.MaxConcurrency)
	authUC := auth.NewUsecase(users, hasher, tokens)

	limiter := auth.NewRateLimiter(auth.RateLimitConfig{
		Enable:  cfg.RateLimit.Enable,
		RPS:     cfg.RateLimit.RPS,
		Burst:   cfg.RateLimit.Burst,
		IdleTTL: cfg.RateLimit.IdleTTL,
	})
	authMux := http.NewServeMux()
	auth.NewController(authUC, logger).Routes(authMux)

	taskClient := task.NewClient(task.ClientConfig{BaseURL: cfg.Tasks.BaseURL, Timeout: cfg.Tasks.Timeout}, nil)

	root := http.NewServeMux()
	root.Handle("/auth/", limiter.Middleware(authMux))
	task.NewController(taskClient, users, logger).Routes(root)
	root.Handle("GET /metrics", obs.MetricsHandler())
	root.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	root.Handle("GET /readyz", obs.HealthHandler(time.Second, d.db.Ping, d.sessions.Ping, d.tasksReady))

	gate := auth.NewGate(tokens, cfg.Auth.PublicPrefixes, logger)
	handler := obs.HTTPHandler(obs.WithRequestLogging(gate.Middleware(root), logger), "auth-gateway")

	return &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}, nil
}

func serveHTTP(srv *http.Server, logger *zap.Logger) error {
	logger.Info("http listening", zap.String("addr", srv.Addr))
	return srv.ListenAndServe()
}
