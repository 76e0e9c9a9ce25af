package task

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/NordCoder/Taskgate/internal/domain/task"
	"github.com/NordCoder/Taskgate/internal/obs"
)

var ErrUnavailable = errors.New("task service unavailable")

// UpstreamError is a non-2xx answer from the task service, kept verbatim so
// it can be relayed to the caller.
type UpstreamError struct {
	Status      int
	ContentType string
	Body        []byte
}

func (e *UpstreamError) Error() string { return fmt.Sprintf("task service returned %d", e.Status) }

type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the task service over HTTP. Every call is bounded by the
// configured timeout and by the caller's context.
type Client struct {
	base    string
	timeout time.Duration
	http    *http.Client
}

func NewClient(cfg ClientConfig, transport http.RoundTripper) *Client {
	return &Client{
		base:    strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout,
		http:    &http.Client{Transport: obs.HTTPTransport(transport)},
	}
}

type Input struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	UserID      int64  `json:"user_id"`
}

func (c *Client) Create(ctx context.Context, in Input) (*task.Task, error) {
	var out task.Task
	if err := c.do(ctx, http.MethodPost, "/tasks", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) List(ctx context.Context, userID int64, status string) ([]task.Task, error) {
	q := url.Values{"user_id": {strconv.FormatInt(userID, 10)}}
	if status != "" {
		q.Set("status", status)
	}
	out := []task.Task{}
	if err := c.do(ctx, http.MethodGet, "/tasks", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Get(ctx context.Context, userID, id int64) (*task.Task, error) {
	var out task.Task
	if err := c.do(ctx, http.MethodGet, taskPath(id), userQuery(userID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Update(ctx context.Context, id int64, in Input) (*task.Task, error) {
	var out task.Task
	if err := c.do(ctx, http.MethodPut, taskPath(id), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Delete(ctx context.Context, userID, id int64) error {
	return c.do(ctx, http.MethodDelete, taskPath(id), userQuery(userID), nil, nil)
}

func taskPath(id int64) string { return "/tasks/" + strconv.FormatInt(id, 10) }

func userQuery(userID int64) url.Values {
	return url.Values{"user_id": {strconv.FormatInt(userID, 10)}}
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, in, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := obs.RequestIDFromCtx(ctx); id != "" {
		req.Header.Set(obs.RequestIDHeader, id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read body: %w", ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &UpstreamError{Status: resp.StatusCode, ContentType: resp.Header.Get("Content-Type"), Body: raw}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrUnavailable, err)
	}
	return nil
}
