package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/planopia/leave_service/internal/config"
	"github.com/planopia/leave_service/internal/controllers"
	"github.com/planopia/leave_service/internal/entity"
	"github.com/planopia/leave_service/internal/i18n"
	"github.com/planopia/leave_service/internal/notify"
)

const testPassword = "Secr3t!pass"

type testAPI struct {
	router *chi.Mux
	users  *MockUserStore
	plans  *MockLeavePlanStore
	confs  *MockConfirmationStore
	redis  *memRedis
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	tr, err := i18n.New()
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Server.JWTSecret = "access-secret"
	cfg.Server.RefreshSecret = "refresh-secret"
	cfg.Server.AccessTokenTTL = 15 * time.Minute
	cfg.Server.RefreshTokenTTL = 7 * 24 * time.Hour
	cfg.Server.LoginAttempts = 5
	cfg.Server.LoginWindow = 15 * time.Minute

	audit := new(MockAuditStore)
	audit.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()

	api := &testAPI{
		router: chi.NewRouter(),
		users:  new(MockUserStore),
		plans:  new(MockLeavePlanStore),
		confs:  new(MockConfirmationStore),
		redis:  &memRedis{data: map[string]string{}},
	}

	deps := &controllers.Dependens{
		Users:         api.users,
		LeavePlans:    api.plans,
		Confirmations: api.confs,
		AuditLogs:     audit,
		Redis:         api.redis,
		Notifier:      nopNotifier{},
		Translator:    tr,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config:        cfg,
	}

	NewServer(deps, tr).Routes(api.router)

	return api
}

// login registers u with the user mock and returns its session cookies.
func (a *testAPI) login(t *testing.T, u *entity.User) []*http.Cookie {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	h := string(hash)
	u.PasswordHash = &h

	a.users.On("FindByUsername", mock.Anything, u.Username).Return(u, nil)
	a.users.On("FindByID", mock.Anything, u.ID).Return(u, nil).Maybe()

	rec := a.do(t, http.MethodPost, "/api/users/login", `{"username":"`+u.Username+`","password":"`+testPassword+`"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	return rec.Result().Cookies()
}

func (a *testAPI) do(t *testing.T, method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "192.0.2.10:51234"
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	return rec
}

type envelope struct {
	Status int             `json:"status"`
	Type   string          `json:"type"`
	Data   json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, rec.Code, env.Status)

	return env
}

func newUser(username string, roles ...entity.RoleName) *entity.User {
	return &entity.User{ID: uuid.New(), Username: username, FirstName: "Jan", LastName: "Kowalski", Roles: roles}
}

func TestLogin_SetsCookiesAndEnvelope(t *testing.T) {
	api := newTestAPI(t)
	u := newUser("jan@example.com", entity.RoleIT)

	cookies := api.login(t, u)

	names := map[string]*http.Cookie{}
	for _, c := range cookies {
		names[c.Name] = c
	}
	require.Contains(t, names, "token")
	require.Contains(t, names, "refreshToken")
	assert.True(t, names["token"].HttpOnly)
	assert.Equal(t, 900, names["token"].MaxAge)

	rec := api.do(t, http.MethodGet, "/api/users/me", "", cookies)
	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeEnvelope(t, rec)
	assert.Equal(t, "success", env.Type)

	var me entity.MeResponse
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "jan@example.com", me.Username)
	assert.Equal(t, entity.Roles{entity.RoleIT}, me.Roles)
}

func TestLogin_WrongPassword(t *testing.T) {
	api := newTestAPI(t)
	u := newUser("jan@example.com", entity.RoleIT)
	api.login(t, u)

	rec := api.do(t, http.MethodPost, "/api/users/login", `{"username":"jan@example.com","password":"nope"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "error", decodeEnvelope(t, rec).Type)
}

func TestLogin_BadBody(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/users/login", `{`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{"/api/users/me", "/api/users/leave-plans", "/api/users/" + uuid.NewString()} {
		rec := api.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestLogout_RevokesSession(t *testing.T) {
	api := newTestAPI(t)
	cookies := api.login(t, newUser("jan@example.com", entity.RoleIT))

	rec := api.do(t, http.MethodPost, "/api/users/logout", "", cookies)
	require.Equal(t, http.StatusOK, rec.Code)

	for _, c := range rec.Result().Cookies() {
		assert.Equal(t, "", c.Value)
		assert.Negative(t, c.MaxAge)
	}

	rec = api.do(t, http.MethodGet, "/api/users/me", "", cookies)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshToken(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/users/refresh-token", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/users/refresh-token", "", []*http.Cookie{{Name: "refreshToken", Value: "garbage"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	cookies := api.login(t, newUser("jan@example.com", entity.RoleIT))
	rec = api.do(t, http.MethodPost, "/api/users/refresh-token", "", cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, rec.Result().Cookies(), 2)
}

func TestErrorMapping(t *testing.T) {
	api := newTestAPI(t)
	u := newUser("jan@example.com", entity.RoleIT)
	cookies := api.login(t, u)

	api.plans.On("Add", mock.Anything, mock.Anything).Return(entity.ErrConflict)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"admin only", http.MethodGet, "/api/users/users", "", http.StatusForbidden},
		{"invalid uuid", http.MethodGet, "/api/users/not-a-uuid/roles", "", http.StatusBadRequest},
		{"validation", http.MethodPost, "/api/users/leave-plans", `{"date":"someday"}`, http.StatusBadRequest},
		{"duplicate plan", http.MethodPost, "/api/users/leave-plans", `{"date":"2024-07-01"}`, http.StatusConflict},
		{"privileged listing", http.MethodGet, "/api/users/admin/all-leave-plans", "", http.StatusForbidden},
		{"confirmation status without month", http.MethodGet, "/api/users/workdays/confirmation-status?year=2024", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(t, tt.method, tt.path, tt.body, cookies)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.Equal(t, "error", decodeEnvelope(t, rec).Type)
		})
	}
}

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	api := newTestAPI(t)
	u := newUser("jan@example.com", entity.RoleIT)
	cookies := api.login(t, u)

	api.plans.On("ListDates", mock.Anything, u.ID).Return(nil, assert.AnError)

	rec := api.do(t, http.MethodGet, "/api/users/leave-plans", "", cookies)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}

func TestConfirmationStatusRoutes(t *testing.T) {
	api := newTestAPI(t)
	u := newUser("jan@example.com", entity.RoleIT)
	other := uuid.New()
	cookies := api.login(t, u)

	api.confs.On("Find", mock.Anything, u.ID, 3, 2024).Return(nil, entity.ErrNotFound)

	rec := api.do(t, http.MethodGet, "/api/users/workdays/confirmation-status?month=3&year=2024", "", cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"isConfirmed":false}`, string(decodeEnvelope(t, rec).Data))

	rec = api.do(t, http.MethodGet, "/api/users/workdays/confirmation-status/"+other.String()+"?month=3&year=2024", "", cookies)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestStaticRoutesWinOverUserID(t *testing.T) {
	api := newTestAPI(t)
	u := newUser("jan@example.com", entity.RoleIT)
	u.VacationDays = 26
	cookies := api.login(t, u)

	rec := api.do(t, http.MethodGet, "/api/users/vacation-days", "", cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"vacationDays":26}`, string(decodeEnvelope(t, rec).Data))

	rec = api.do(t, http.MethodGet, "/api/users/profile", "", cookies)
	require.Equal(t, http.StatusOK, rec.Code)
}

type nopNotifier struct{}

func (nopNotifier) Dispatch(...notify.EmailMessage) {}

// memRedis covers the commands used by the session and rate-limit code.
type memRedis struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memRedis) Set(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key], _ = value.(string)
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (m *memRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()

	cmd := redis.NewStringCmd(ctx)
	v, ok := m.data[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(v)
	return cmd
}

func (m *memRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			n++
		}
	}
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(n)
	return cmd
}

func (m *memRedis) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, _ := strconv.ParseInt(m.data[key], 10, 64)
	n++
	m.data[key] = strconv.FormatInt(n, 10)
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(n)
	return cmd
}

func (m *memRedis) Expire(ctx context.Context, _ string, _ time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx)
	cmd.SetVal(true)
	return cmd
}

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) Create(ctx context.Context, u *entity.User) (*entity.User, error) {
	args := m.Called(ctx, u)
	out, _ := args.Get(0).(*entity.User)
	return out, args.Error(1)
}

func (m *MockUserStore) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).(*entity.User)
	return out, args.Error(1)
}

func (m *MockUserStore) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	args := m.Called(ctx, username)
	out, _ := args.Get(0).(*entity.User)
	return out, args.Error(1)
}

func (m *MockUserStore) List(ctx context.Context, roles []entity.RoleName) ([]entity.UserSummary, error) {
	args := m.Called(ctx, roles)
	out, _ := args.Get(0).([]entity.UserSummary)
	return out, args.Error(1)
}

func (m *MockUserStore) FindByRole(ctx context.Context, role entity.RoleName) ([]entity.UserSummary, error) {
	args := m.Called(ctx, role)
	out, _ := args.Get(0).([]entity.UserSummary)
	return out, args.Error(1)
}

func (m *MockUserStore) SetPassword(ctx context.Context, id uuid.UUID, hash string, position *string, now time.Time) error {
	return m.Called(ctx, id, hash, position, now).Error(0)
}

func (m *MockUserStore) UpdatePosition(ctx context.Context, id uuid.UUID, position string, now time.Time) error {
	return m.Called(ctx, id, position, now).Error(0)
}

func (m *MockUserStore) UpdateRoles(ctx context.Context, id uuid.UUID, roles entity.Roles, now time.Time) (*entity.User, error) {
	args := m.Called(ctx, id, roles, now)
	out, _ := args.Get(0).(*entity.User)
	return out, args.Error(1)
}

func (m *MockUserStore) UpdateVacationDays(ctx context.Context, id uuid.UUID, days int, now time.Time) (*entity.User, error) {
	args := m.Called(ctx, id, days, now)
	out, _ := args.Get(0).(*entity.User)
	return out, args.Error(1)
}

func (m *MockUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockLeavePlanStore struct {
	mock.Mock
}

func (m *MockLeavePlanStore) ListDates(ctx context.Context, userID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, userID)
	out, _ := args.Get(0).([]string)
	return out, args.Error(1)
}

func (m *MockLeavePlanStore) Add(ctx context.Context, plan *entity.LeavePlan) error {
	return m.Called(ctx, plan).Error(0)
}

func (m *MockLeavePlanStore) Remove(ctx context.Context, userID uuid.UUID, date string) error {
	return m.Called(ctx, userID, date).Error(0)
}

func (m *MockLeavePlanStore) ListAll(ctx context.Context) ([]entity.LeavePlanEntry, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]entity.LeavePlanEntry)
	return out, args.Error(1)
}

type MockConfirmationStore struct {
	mock.Mock
}

func (m *MockConfirmationStore) Upsert(ctx context.Context, userID uuid.UUID, month, year int, confirmed bool, now time.Time) (*entity.CalendarConfirmation, error) {
	args := m.Called(ctx, userID, month, year, confirmed, now)
	out, _ := args.Get(0).(*entity.CalendarConfirmation)
	return out, args.Error(1)
}

func (m *MockConfirmationStore) Find(ctx context.Context, userID uuid.UUID, month, year int) (*entity.CalendarConfirmation, error) {
	args := m.Called(ctx, userID, month, year)
	out, _ := args.Get(0).(*entity.CalendarConfirmation)
	return out, args.Error(1)
}

type MockAuditStore struct {
	mock.Mock
}

func (m *MockAuditStore) Create(ctx context.Context, e *entity.AuditLogEntry) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockAuditStore) List(ctx context.Context) ([]entity.AuditLogEntry, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]entity.AuditLogEntry)
	return out, args.Error(1)
}

func (m *MockAuditStore) ListBySubject(ctx context.Context, subject uuid.UUID) ([]entity.AuditLogEntry, error) {
	args := m.Called(ctx, subject)
	out, _ := args.Get(0).([]entity.AuditLogEntry)
	return out, args.Error(1)
}
