package auth

import (
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	coreauth "github.com/NordCoder/Taskgate/internal/auth"
	domainauth "github.com/NordCoder/Taskgate/internal/domain/auth"
	"github.com/NordCoder/Taskgate/internal/domain/user"
	redisrepo "github.com/NordCoder/Taskgate/internal/repository/redis"
)

const (
	testAccessTTL  = 30 * time.Minute
	testRefreshTTL = 7 * 24 * time.Hour
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type memUsers struct {
	mu     sync.Mutex
	nextID int64
	byName map[string]*user.User
	err    error
}

func newMemUsers() *memUsers { return &memUsers{byName: map[string]*user.User{}} }

func (m *memUsers) Create(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.byName[u.Username]; ok {
		return user.ErrExists
	}
	m.nextID++
	u.ID = m.nextID
	cp := *u
	m.byName[u.Username] = &cp
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id int64) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byName {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, user.ErrNotFound
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.byName[username]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) Update(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byName[u.Username] = u
	return nil
}

func (m *memUsers) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, u := range m.byName {
		if u.ID == id {
			delete(m.byName, k)
			return nil
		}
	}
	return user.ErrNotFound
}

func (m *memUsers) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byName)
}

// countingSessions records writes on top of another store.
type countingSessions struct {
	domainauth.SessionStore
	mu   sync.Mutex
	sets int
}

func (c *countingSessions) Set(ctx context.Context, token, username string, ttl time.Duration) error {
	c.mu.Lock()
	c.sets++
	c.mu.Unlock()
	return c.SessionStore.Set(ctx, token, username, ttl)
}

func (c *countingSessions) Sets() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sets
}

var errStoreDown = errors.New("store down")

type brokenSessions struct{}

func (brokenSessions) Set(context.Context, string, string, time.Duration) error { return errStoreDown }
func (brokenSessions) Get(context.Context, string) (string, error)             { return "", errStoreDown }

type env struct {
	clock    *testClock
	mr       *miniredis.Miniredis
	sessions *countingSessions
	users    *memUsers
	tokens   *TokenService
	uc       *Usecase
}

func newEnv(t *testing.T) *env {
	t.Helper()

	mr := miniredis.RunT(t)
	host, portStr, err := net.SplitHostPort(mr.Addr())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	store := redisrepo.New(redisrepo.Config{Host: host, Port: port, DialTimeout: time.Second, ReadTimeout: time.Second, WriteTimeout: time.Second})
	t.Cleanup(func() { _ = store.Close() })

	clock := &testClock{t: time.Unix(1_700_000_000, 0).UTC()}
	sessions := &countingSessions{SessionStore: store}
	tokens, err := NewTokenService(sessions, Config{
		Secret:     []byte("test-secret"),
		Algorithm:  "HS256",
		AccessTTL:  testAccessTTL,
		RefreshTTL: testRefreshTTL,
		Now:        clock.Now,
	})
	require.NoError(t, err)

	users := newMemUsers()
	return &env{
		clock:    clock,
		mr:       mr,
		sessions: sessions,
		users:    users,
		tokens:   tokens,
		uc:       NewUsecase(users, coreauth.NewHasher(bcrypt.MinCost, 2), tokens),
	}
}

func (e *env) login(t *testing.T, username, password string) (string, string) {
	t.Helper()
	_, err := e.uc.Register(context.Background(), username, password)
	require.NoError(t, err)
	access, refresh, err := e.uc.Login(context.Background(), username, password)
	require.NoError(t, err)
	return access, refresh
}

func tamper(tok string) string {
	i := strings.LastIndexByte(tok, '.') + 1
	repl := byte('A')
	if tok[i] == 'A' {
		repl = 'B'
	}
	return tok[:i] + string(repl) + tok[i+1:]
}
