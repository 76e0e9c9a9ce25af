package task

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/NordCoder/Taskgate/internal/domain/task"
	"github.com/NordCoder/Taskgate/internal/domain/user"
	"github.com/NordCoder/Taskgate/internal/services/auth-gateway/auth"
)

type stubUsers struct {
	user.Repo
	byName map[string]int64
}

func (s stubUsers) GetByUsername(_ context.Context, name string) (*user.User, error) {
	id, ok := s.byName[name]
	if !ok {
		return nil, user.ErrNotFound
	}
	return &user.User{ID: id, Username: name}, nil
}

// upstream records what the gateway sent to the task service.
type upstream struct {
	mu     sync.Mutex
	method string
	path   string
	query  string
	body   map[string]any

	status int
	reply  string
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.method, u.path, u.query = r.Method, r.URL.Path, r.URL.RawQuery
	u.body = nil
	if b, _ := io.ReadAll(r.Body); len(b) > 0 {
		_ = json.Unmarshal(b, &u.body)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(u.status)
	_, _ = io.WriteString(w, u.reply)
}

func setup(t *testing.T, up *upstream) http.Handler {
	t.Helper()
	srv := httptest.NewServer(up)
	t.Cleanup(srv.Close)

	client := NewClient(ClientConfig{BaseURL: srv.URL + "/", Timeout: 2 * time.Second}, nil)
	mux := http.NewServeMux()
	NewController(client, stubUsers{byName: map[string]int64{"alice": 7}}, zap.NewNop()).Routes(mux)
	return mux
}

func call(h http.Handler, username, method, target, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if username != "" {
		req = req.WithContext(auth.WithUsername(req.Context(), username))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestProxy_CreateInjectsUserID(t *testing.T) {
	up := &upstream{status: http.StatusCreated, reply: `{"id":1,"title":"t","description":"d","status":"new","user_id":7}`}
	h := setup(t, up)

	rec := call(h, "alice", http.MethodPost, "/tasks", `{"title":"t","description":"d","status":"new","user_id":99}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, http.MethodPost, up.method)
	assert.Equal(t, "/tasks", up.path)
	assert.EqualValues(t, 7, up.body["user_id"])

	var got task.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(7), got.UserID)
}

func TestProxy_ListScopesToUser(t *testing.T) {
	up := &upstream{status: http.StatusOK, reply: `[{"id":1,"title":"t","status":"done","user_id":7}]`}
	h := setup(t, up)

	rec := call(h, "alice", http.MethodGet, "/tasks?status=done", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "status=done&user_id=7", up.query)

	var body struct {
		Tasks []task.Task `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Tasks, 1)
	assert.Equal(t, "done", body.Tasks[0].Status)

	up.reply = `[]`
	rec = call(h, "alice", http.MethodGet, "/tasks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user_id=7", up.query)
	assert.JSONEq(t, `{"tasks":[]}`, rec.Body.String())
}

func TestProxy_GetUpdateDelete(t *testing.T) {
	up := &upstream{status: http.StatusOK, reply: `{"id":3,"title":"t","status":"new","user_id":7}`}
	h := setup(t, up)

	rec := call(h, "alice", http.MethodGet, "/tasks/3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/tasks/3", up.path)
	assert.Equal(t, "user_id=7", up.query)

	rec = call(h, "alice", http.MethodPut, "/tasks/3", `{"title":"t2","description":"","status":"done"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.MethodPut, up.method)
	assert.EqualValues(t, 7, up.body["user_id"])
	assert.Equal(t, "t2", up.body["title"])

	up.status, up.reply = http.StatusNoContent, ""
	rec = call(h, "alice", http.MethodDelete, "/tasks/3", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, http.MethodDelete, up.method)
	assert.Equal(t, "user_id=7", up.query)
}

func TestProxy_RelaysUpstreamErrors(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusForbidden, http.StatusBadRequest} {
		reply := `{"error":{"code":"x","message":"y"}}`
		h := setup(t, &upstream{status: status, reply: reply})

		rec := call(h, "alice", http.MethodGet, "/tasks/3", "")
		assert.Equal(t, status, rec.Code)
		assert.JSONEq(t, reply, rec.Body.String())
	}
}

func TestProxy_Unauthenticated(t *testing.T) {
	up := &upstream{status: http.StatusOK, reply: `[]`}
	h := setup(t, up)

	for _, name := range []string{"", "ghost"} {
		rec := call(h, name, http.MethodGet, "/tasks", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, name)
	}
	assert.Empty(t, up.method)
}

func TestProxy_BadInput(t *testing.T) {
	h := setup(t, &upstream{status: http.StatusOK, reply: `{}`})

	assert.Equal(t, http.StatusBadRequest, call(h, "alice", http.MethodGet, "/tasks/abc", "").Code)
	assert.Equal(t, http.StatusBadRequest, call(h, "alice", http.MethodPost, "/tasks", `{"title":`).Code)
}

func TestProxy_UpstreamDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client := NewClient(ClientConfig{BaseURL: base, Timeout: time.Second}, nil)
	mux := http.NewServeMux()
	NewController(client, stubUsers{byName: map[string]int64{"alice": 7}}, zap.NewNop()).Routes(mux)

	rec := call(mux, "alice", http.MethodGet, "/tasks", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "bad_gateway")
}

func TestClient_PropagatesCancellation(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() { close(block); srv.Close() })

	client := NewClient(ClientConfig{BaseURL: srv.URL, Timeout: 5 * time.Second}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	_, err := client.List(ctx, 1, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_Timeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() { close(block); srv.Close() })

	client := NewClient(ClientConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, nil)
	_, err := client.Get(context.Background(), 1, 2)
	assert.ErrorIs(t, err, ErrUnavailable)
}
