package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/HSousa1987/Lavandaria-sub001/internal/auth"
	"github.com/HSousa1987/Lavandaria-sub001/internal/credentials"
	"github.com/HSousa1987/Lavandaria-sub001/internal/db/bunx"
	"github.com/HSousa1987/Lavandaria-sub001/internal/db/dbtest"
	"github.com/HSousa1987/Lavandaria-sub001/internal/db/models"
	"github.com/HSousa1987/Lavandaria-sub001/internal/policy"
	"github.com/HSousa1987/Lavandaria-sub001/internal/repository"
	"github.com/HSousa1987/Lavandaria-sub001/internal/sessions"
)

const (
	adminPassword  = "admin-pass"
	workerPassword = "worker-pass"
	clientPassword = "client-pass"
	clientPhone    = "+351910000001"
)

type testEnv struct {
	handler  http.Handler
	db       *bun.DB
	backend  sessions.Backend
	sessions *sessions.Manager
	cookie   auth.CookieConfig

	adminID, workerID, otherWorkerID string
	clientID, otherClientID          string
}

type envOption func(*envConfig)

type envConfig struct {
	backend   sessions.Backend
	routes    *policy.Table
	readiness []ReadinessCheck
	cookie    auth.CookieConfig
}

func withBackend(b sessions.Backend) envOption {
	return func(c *envConfig) { c.backend = b }
}

func withRoutes(t *policy.Table) envOption {
	return func(c *envConfig) { c.routes = t }
}

func withReadiness(checks ...ReadinessCheck) envOption {
	return func(c *envConfig) { c.readiness = checks }
}

func withCookie(cfg auth.CookieConfig) envOption {
	return func(c *envConfig) { c.cookie = cfg }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	ctx := context.Background()

	cfg := envConfig{backend: sessions.NewMemoryBackend()}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.routes == nil {
		table, err := policy.DefaultTable()
		require.NoError(t, err)
		cfg.routes = table
	}

	db := dbtest.NewSQLite(t)
	staffRepo := repository.NewBunStaffRepository(db)
	clientRepo := repository.NewBunClientRepository(db)
	jobRepo := repository.NewBunJobRepository(db)
	paymentRepo := repository.NewBunPaymentRepository(db)

	env := &testEnv{db: db, backend: cfg.backend, cookie: cfg.cookie}
	env.adminID = createStaff(t, staffRepo, "ana", "Ana Admin", "admin", adminPassword)
	env.workerID = createStaff(t, staffRepo, "wendy", "Wendy Worker", "worker", workerPassword)
	env.otherWorkerID = createStaff(t, staffRepo, "walter", "Walter Worker", "worker", workerPassword)
	env.clientID = createClient(t, clientRepo, clientPhone, "Carla Client")
	env.otherClientID = createClient(t, clientRepo, "+351910000002", "Other Client")

	now := time.Now().UTC()
	for _, j := range []*models.Job{
		{ID: 1, ClientID: env.clientID, AssignedTo: &env.workerID, Kind: "laundry", Status: "scheduled", CreatedAt: now},
		{ID: 2, ClientID: env.otherClientID, Kind: "cleaning", Status: "pending", CreatedAt: now},
		{ID: 3, ClientID: env.clientID, AssignedTo: &env.otherWorkerID, Kind: "cleaning", Status: "done", CreatedAt: now},
	} {
		require.NoError(t, jobRepo.Create(ctx, j))
	}
	require.NoError(t, paymentRepo.Create(ctx, &models.Payment{
		ID: 1, JobID: 3, ClientID: env.clientID, AmountCents: 4500, Method: "card", PaidAt: now,
	}))

	verifier, err := credentials.NewVerifier(staffRepo, clientRepo)
	require.NoError(t, err)

	env.sessions = sessions.NewManager(cfg.backend, sessions.Config{
		StaffTTL:  time.Hour,
		ClientTTL: time.Hour,
		Sliding:   true,
		Backend:   "test",
	}, nil)

	readiness := cfg.readiness
	if readiness == nil {
		readiness = []ReadinessCheck{
			{Name: "database", Check: db.PingContext},
			{Name: "sessions", Check: env.sessions.Ping},
		}
	}

	env.handler = NewRouter(RouterOptions{
		Sessions:  env.sessions,
		Routes:    cfg.routes,
		Verifier:  verifier,
		Staff:     staffRepo,
		Clients:   clientRepo,
		Jobs:      jobRepo,
		Payments:  paymentRepo,
		Readiness: readiness,
		Cookie:    cfg.cookie,
	})
	return env
}

func createStaff(t *testing.T, repo *repository.BunStaffRepository, username, name, role, password string) string {
	t.Helper()
	hash, err := credentials.HashPassword(password, credentials.MinHashCost)
	require.NoError(t, err)
	now := time.Now().UTC()
	s := &models.StaffUser{
		ID: bunx.NewUUIDv7(), Username: username, DisplayName: name, Role: role,
		PasswordHash: hash, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repo.Create(context.Background(), s))
	return s.ID
}

func createClient(t *testing.T, repo *repository.BunClientRepository, phone, name string) string {
	t.Helper()
	hash, err := credentials.HashPassword(clientPassword, credentials.MinHashCost)
	require.NoError(t, err)
	now := time.Now().UTC()
	c := &models.Client{
		ID: bunx.NewUUIDv7(), Phone: phone, Name: name,
		PasswordHash: hash, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repo.Create(context.Background(), c))
	return c.ID
}

func (e *testEnv) do(t *testing.T, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) cookieName() string {
	if e.cookie.Name != "" {
		return e.cookie.Name
	}
	return auth.DefaultSessionCookieName
}

func (e *testEnv) sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == e.cookieName() {
			return c
		}
	}
	return nil
}

func (e *testEnv) loginStaff(t *testing.T, username, password string) *http.Cookie {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/login/staff",
		`{"username":"`+username+`","password":"`+password+`"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	c := e.sessionCookie(rec)
	require.NotNil(t, c)
	return &http.Cookie{Name: c.Name, Value: c.Value}
}

func (e *testEnv) loginClient(t *testing.T, phone, password string) *http.Cookie {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/login/client",
		`{"phone":"`+phone+`","password":"`+password+`"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	c := e.sessionCookie(rec)
	require.NotNil(t, c)
	return &http.Cookie{Name: c.Name, Value: c.Value}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

// requireError asserts an error envelope with the given status and code.
func requireError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) map[string]any {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	require.Equal(t, false, body["success"])
	require.Equal(t, code, body["code"])
	require.NotEmpty(t, body["error"])
	return body
}

func requireSuccess(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	require.Equal(t, true, body["success"])
	return body
}

// failingBackend fails every call.
type failingBackend struct{}

var errBackendDown = errors.New("connection refused")

func (failingBackend) Put(context.Context, *sessions.Record) error { return errBackendDown }
func (failingBackend) Get(context.Context, string) (*sessions.Record, error) {
	return nil, errBackendDown
}
func (failingBackend) Touch(context.Context, string, time.Time) (bool, error) {
	return false, errBackendDown
}
func (failingBackend) Delete(context.Context, string) error { return errBackendDown }
func (failingBackend) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, errBackendDown
}
func (failingBackend) Ping(context.Context) error { return errBackendDown }
