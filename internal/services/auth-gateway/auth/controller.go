package auth

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/NordCoder/Taskgate/internal/httpjson"
	"github.com/NordCoder/Taskgate/internal/obs"
)

type Controller struct {
	uc  *Usecase
	log *zap.Logger
}

func NewController(uc *Usecase, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{uc: uc, log: log}
}

// Routes mounts the credential endpoints on mux under /auth.
func (c *Controller) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/register", c.Register)
	mux.HandleFunc("POST /auth/login", c.Login)
	mux.HandleFunc("POST /auth/refresh", c.Refresh)
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerResponse struct {
	Msg string `json:"msg"`
	ID  int64  `json:"id"`
}

type loginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken string `json:"access_token"`
}

func (c *Controller) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		c.writeErr(w, r, err)
		return
	}

	id, err := c.uc.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		c.writeErr(w, r, err)
		return
	}

	obs.WithTrace(r.Context(), c.log).Info("auth.register", zap.String("username", req.Username), zap.Int64("id", id))
	httpjson.WriteJSON(w, http.StatusCreated, registerResponse{Msg: "user registered successfully", ID: id})
}

func (c *Controller) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		c.writeErr(w, r, err)
		return
	}

	access, refresh, err := c.uc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		c.writeErr(w, r, err)
		return
	}

	obs.WithTrace(r.Context(), c.log).Info("auth.login", zap.String("username", req.Username))
	httpjson.WriteJSON(w, http.StatusOK, loginResponse{AccessToken: access, RefreshToken: refresh})
}

func (c *Controller) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		c.writeErr(w, r, err)
		return
	}

	access, err := c.uc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		c.writeErr(w, r, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, refreshResponse{AccessToken: access})
}

func (c *Controller) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, httpjson.ErrBadBody):
		httpjson.WriteError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
	case errors.Is(err, ErrMissingCredentials):
		httpjson.WriteError(w, http.StatusBadRequest, "missing_credentials", "missing username or password")
	case errors.Is(err, ErrUserExists):
		httpjson.WriteError(w, http.StatusBadRequest, "user_exists", "user already exists")
	case errors.Is(err, ErrInvalidCredentials):
		httpjson.WriteError(w, http.StatusBadRequest, "invalid_credentials", "invalid credentials")
	case errors.Is(err, ErrRefreshTokenInvalid):
		httpjson.WriteError(w, http.StatusUnauthorized, "invalid_refresh_token", "invalid refresh token")
	default:
		obs.WithTrace(r.Context(), c.log).Error("auth.handler", zap.String("path", r.URL.Path), zap.Error(err))
		httpjson.WriteError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
