package task

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/NordCoder/Taskgate/internal/domain/user"
	"github.com/NordCoder/Taskgate/internal/httpjson"
	"github.com/NordCoder/Taskgate/internal/obs"
	"github.com/NordCoder/Taskgate/internal/services/auth-gateway/auth"
)

var errBadID = errors.New("invalid task id")

type Controller struct {
	client *Client
	users  user.Repo
	log    *zap.Logger
}

func NewController(client *Client, users user.Repo, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{client: client, users: users, log: log}
}

// Routes mounts the task proxy on mux. The routes expect the gate to have
// run first.
func (c *Controller) Routes(mux *http.ServeMux) {
	mux.Handle("POST /tasks", c.handle(c.create))
	mux.Handle("GET /tasks", c.handle(c.list))
	mux.Handle("GET /tasks/{id}", c.handle(c.get))
	mux.Handle("PUT /tasks/{id}", c.handle(c.update))
	mux.Handle("DELETE /tasks/{id}", c.handle(c.delete))
}

type taskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

func (c *Controller) create(w http.ResponseWriter, r *http.Request) error {
	uid, err := c.userID(r.Context())
	if err != nil {
		return err
	}
	var req taskRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		return err
	}

	t, err := c.client.Create(r.Context(), Input{Title: req.Title, Description: req.Description, Status: req.Status, UserID: uid})
	if err != nil {
		return err
	}
	httpjson.WriteJSON(w, http.StatusCreated, t)
	return nil
}

func (c *Controller) list(w http.ResponseWriter, r *http.Request) error {
	uid, err := c.userID(r.Context())
	if err != nil {
		return err
	}

	tasks, err := c.client.List(r.Context(), uid, r.URL.Query().Get("status"))
	if err != nil {
		return err
	}
	httpjson.WriteJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
	return nil
}

func (c *Controller) get(w http.ResponseWriter, r *http.Request) error {
	uid, err := c.userID(r.Context())
	if err != nil {
		return err
	}
	id, err := pathID(r)
	if err != nil {
		return err
	}

	t, err := c.client.Get(r.Context(), uid, id)
	if err != nil {
		return err
	}
	httpjson.WriteJSON(w, http.StatusOK, t)
	return nil
}

func (c *Controller) update(w http.ResponseWriter, r *http.Request) error {
	uid, err := c.userID(r.Context())
	if err != nil {
		return err
	}
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var req taskRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		return err
	}

	t, err := c.client.Update(r.Context(), id, Input{Title: req.Title, Description: req.Description, Status: req.Status, UserID: uid})
	if err != nil {
		return err
	}
	httpjson.WriteJSON(w, http.StatusOK, t)
	return nil
}

func (c *Controller) delete(w http.ResponseWriter, r *http.Request) error {
	uid, err := c.userID(r.Context())
	if err != nil {
		return err
	}
	id, err := pathID(r)
	if err != nil {
		return err
	}

	if err := c.client.Delete(r.Context(), uid, id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// userID resolves the gate's username to the caller's user id.
func (c *Controller) userID(ctx context.Context) (int64, error) {
	name, ok := auth.UsernameFromCtx(ctx)
	if !ok {
		return 0, auth.ErrUnauthenticated
	}
	u, err := c.users.GetByUsername(ctx, name)
	if errors.Is(err, user.ErrNotFound) {
		return 0, auth.ErrUnauthenticated
	}
	if err != nil {
		return 0, err
	}
	return u.ID, nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errBadID
	}
	return id, nil
}

// handle adapts an error-returning handler and renders its error.
func (c *Controller) handle(fn func(http.ResponseWriter, *http.Request) error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}

		var up *UpstreamError
		switch {
		case errors.As(err, &up):
			if up.ContentType != "" {
				w.Header().Set("Content-Type", up.ContentType)
			}
			w.WriteHeader(up.Status)
			_, _ = w.Write(up.Body)
		case errors.Is(err, auth.ErrUnauthenticated):
			httpjson.WriteError(w, http.StatusUnauthorized, "unauthenticated", "unauthenticated")
		case errors.Is(err, httpjson.ErrBadBody):
			httpjson.WriteError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		case errors.Is(err, errBadID):
			httpjson.WriteError(w, http.StatusBadRequest, "invalid_argument", "invalid task id")
		case errors.Is(err, ErrUnavailable):
			obs.WithTrace(r.Context(), c.log).Warn("tasks.upstream", zap.Error(err))
			httpjson.WriteError(w, http.StatusBadGateway, "bad_gateway", "task service unavailable")
		case errors.Is(err, context.Canceled):
			// client went away; nothing useful to write
		default:
			obs.WithTrace(r.Context(), c.log).Error("tasks.handler", zap.String("path", r.URL.Path), zap.Error(err))
			httpjson.WriteError(w, http.StatusInternalServerError, "internal", "internal error")
		}
	})
}
