package task_service

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"

	"github.com/NordCoder/Taskgate/internal/domain/task"
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

// Register mounts the task routes on mux. runtime.ServeMux tries the most
// recently registered pattern first, so /tasks/filter goes after /tasks/{id}.
func (c *Controller) Register(mux *runtime.ServeMux) error {
	routes := []struct {
		method, path string
		h            func(http.ResponseWriter, *http.Request, map[string]string) error
	}{
		{http.MethodPost, "/tasks", c.create},
		{http.MethodGet, "/tasks", c.list},
		{http.MethodGet, "/tasks/{id}", c.get},
		{http.MethodPut, "/tasks/{id}", c.update},
		{http.MethodDelete, "/tasks/{id}", c.delete},
		{http.MethodGet, "/tasks/filter", c.filter},
	}
	for _, rt := range routes {
		if err := mux.HandlePath(rt.method, rt.path, c.handle(rt.h)); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) create(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	var in Input
	if err := httpjson.Decode(w, r, &in); err != nil {
		return err
	}
	t, err := c.uc.Create(r.Context(), in)
	if err != nil {
		return err
	}
	httpjson.WriteJSON(w, http.StatusCreated, t)
	return nil
}

func (c *Controller) list(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	uid, err := queryUserID(r)
	if err != nil {
		return err
	}
	tasks, err := c.uc.List(r.Context(), task.Filter{UserID: uid, Status: r.URL.Query().Get("status")})
	if err != nil {
		return err
	}
	httpjson.WriteJSON(w, http.StatusOK, tasks)
	return nil
}

// filter is list with a mandatory status.
func (c *Controller) filter(w http.ResponseWriter, r *http.Request, p map[string]string) error {
	if r.URL.Query().Get("status") == "" {
		return fmt.Errorf("%w: status is required", task.ErrInvalid)
	}
	return c.list(w, r, p)
}

func (c *Controller) get(w http.ResponseWriter, r *http.Request, p map[string]string) error {
	id, err := pathID(p)
	if err != nil {
		return err
	}
	uid, err := queryUserID(r)
	if err != nil {
		return err
	}
	t, err := c.uc.Get(r.Context(), uid, id)
	if err != nil {
		return err
	}
	httpjson.WriteJSON(w, http.StatusOK, t)
	return nil
}

func (c *Controller) update(w http.ResponseWriter, r *http.Request, p map[string]string) error {
	id, err := pathID(p)
	if err != nil {
		return err
	}
	var in Input
	if err := httpjson.Decode(w, r, &in); err != nil {
		return err
	}
	t, err := c.uc.Update(r.Context(), id, in)
	if err != nil {
		return err
	}
	httpjson.WriteJSON(w, http.StatusOK, t)
	return nil
}

func (c *Controller) delete(w http.ResponseWriter, r *http.Request, p map[string]string) error {
	id, err := pathID(p)
	if err != nil {
		return err
	}
	uid, err := queryUserID(r)
	if err != nil {
		return err
	}
	if err := c.uc.Delete(r.Context(), uid, id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func pathID(p map[string]string) (int64, error) {
	id, err := strconv.ParseInt(p["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid task id", task.ErrInvalid)
	}
	return id, nil
}

func queryUserID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: user_id must be a positive integer", task.ErrInvalid)
	}
	return id, nil
}

func (c *Controller) handle(fn func(http.ResponseWriter, *http.Request, map[string]string) error) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, p map[string]string) {
		err := fn(w, r, p)
		switch {
		case err == nil:
		case errors.Is(err, httpjson.ErrBadBody):
			httpjson.WriteError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		case errors.Is(err, task.ErrInvalid):
			httpjson.WriteError(w, http.StatusBadRequest, "invalid_argument", err.Error())
		case errors.Is(err, task.ErrNotFound):
			httpjson.WriteError(w, http.StatusNotFound, "not_found", "task not found")
		case errors.Is(err, task.ErrForbidden):
			httpjson.WriteError(w, http.StatusForbidden, "forbidden", "forbidden")
		default:
			obs.WithTrace(r.Context(), c.log).Error("tasks.handler", zap.String("path", r.URL.Path), zap.Error(err))
			httpjson.WriteError(w, http.StatusInternalServerError, "internal", "internal error")
		}
	}
}
