package controllers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/planopia/leave_service/internal/config"
	"github.com/planopia/leave_service/internal/entity"
	"github.com/planopia/leave_service/internal/i18n"
	"github.com/planopia/leave_service/internal/notify"
)

var testNow = time.Date(2024, 4, 15, 9, 30, 0, 0, time.UTC)

func init() {
	PasswordCost = bcrypt.MinCost
}

type testEnv struct {
	deps          *Dependens
	users         *MockUserStore
	leaveRequests *MockLeaveRequestStore
	leavePlans    *MockLeavePlanStore
	workdays      *MockWorkdayStore
	confirmations *MockConfirmationStore
	audit         *MockAuditStore
	redis         *fakeRedis
	notifier      *recordingNotifier
	controllers   *Controllers
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tr, err := i18n.New()
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Server.AppURL = "http://localhost:3001"
	cfg.Server.JWTSecret = "access-secret"
	cfg.Server.RefreshSecret = "refresh-secret"
	cfg.Server.AccessTokenTTL = 15 * time.Minute
	cfg.Server.RefreshTokenTTL = 7 * 24 * time.Hour
	cfg.Server.ActivationTokenTTL = 24 * time.Hour
	cfg.Server.ResetTokenTTL = time.Hour
	cfg.Server.LoginAttempts = 5
	cfg.Server.LoginWindow = 15 * time.Minute

	env := &testEnv{
		users:         new(MockUserStore),
		leaveRequests: new(MockLeaveRequestStore),
		leavePlans:    new(MockLeavePlanStore),
		workdays:      new(MockWorkdayStore),
		confirmations: new(MockConfirmationStore),
		audit:         new(MockAuditStore),
		redis:         newFakeRedis(),
		notifier:      &recordingNotifier{},
	}

	env.deps = &Dependens{
		Users:         env.users,
		LeaveRequests: env.leaveRequests,
		LeavePlans:    env.leavePlans,
		Workdays:      env.workdays,
		Confirmations: env.confirmations,
		AuditLogs:     env.audit,
		Redis:         env.redis,
		Notifier:      env.notifier,
		Translator:    tr,
		Clock:         func() time.Time { return testNow },
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config:        cfg,
	}
	env.controllers = NewControllers(env.deps)

	return env
}

// allowAudit accepts any audit write.
func (e *testEnv) allowAudit() {
	e.audit.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()
}

func claimsFor(u *entity.User) *entity.Claims {
	return &entity.Claims{UserID: u.ID, Username: u.Username, Roles: u.Roles}
}

func newUser(username string, roles ...entity.RoleName) *entity.User {
	return &entity.User{
		ID:        uuid.New(),
		Username:  username,
		FirstName: "First",
		LastName:  "Last",
		Roles:     roles,
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
}

func withPassword(u *entity.User, password string) *entity.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	h := string(hash)
	u.PasswordHash = &h
	return u
}

func summaryOf(u *entity.User) entity.UserSummary {
	return entity.UserSummary{ID: u.ID, Username: u.Username, FirstName: u.FirstName, LastName: u.LastName, Roles: u.Roles}
}

// recordingNotifier keeps every dispatched message.
type recordingNotifier struct {
	mu   sync.Mutex
	msgs []notify.EmailMessage
}

func (n *recordingNotifier) Dispatch(msgs ...notify.EmailMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msgs...)
}

func (n *recordingNotifier) sent() []notify.EmailMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.EmailMessage(nil), n.msgs...)
}

func (n *recordingNotifier) recipients(kind notify.Kind) []string {
	var to []string
	for _, m := range n.sent() {
		if m.Kind == kind {
			to = append(to, m.To)
		}
	}
	return to
}

// fakeRedis is an in-memory stand-in for the commands the controllers use.
type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
	ttl  map[string]time.Duration
	err  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttl: map[string]time.Duration{}}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	cmd := redis.NewStatusCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}

	f.data[key] = toString(value)
	f.ttl[key] = expiration
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	cmd := redis.NewStringCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}

	v, ok := f.data[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(v)
	return cmd
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}

	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func (f *fakeRedis) Incr(ctx context.Context, key string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}

	n, _ := strconv.ParseInt(f.data[key], 10, 64)
	n++
	f.data[key] = strconv.FormatInt(n, 10)
	cmd.SetVal(n)
	return cmd
}

func (f *fakeRedis) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	cmd := redis.NewBoolCmd(ctx)
	f.ttl[key] = expiration
	cmd.SetVal(true)
	return cmd
}

func (f *fakeRedis) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[key]
	return ok
}

func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) Create(ctx context.Context, u *entity.User) (*entity.User, error) {
	args := m.Called(ctx, u)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *MockUserStore) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	args := m.Called(ctx, id)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *MockUserStore) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	args := m.Called(ctx, username)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *MockUserStore) List(ctx context.Context, roles []entity.RoleName) ([]entity.UserSummary, error) {
	args := m.Called(ctx, roles)
	users, _ := args.Get(0).([]entity.UserSummary)
	return users, args.Error(1)
}

func (m *MockUserStore) FindByRole(ctx context.Context, role entity.RoleName) ([]entity.UserSummary, error) {
	args := m.Called(ctx, role)
	users, _ := args.Get(0).([]entity.UserSummary)
	return users, args.Error(1)
}

func (m *MockUserStore) SetPassword(ctx context.Context, id uuid.UUID, hash string, position *string, now time.Time) error {
	args := m.Called(ctx, id, hash, position, now)
	return args.Error(0)
}

func (m *MockUserStore) UpdatePosition(ctx context.Context, id uuid.UUID, position string, now time.Time) error {
	args := m.Called(ctx, id, position, now)
	return args.Error(0)
}

func (m *MockUserStore) UpdateRoles(ctx context.Context, id uuid.UUID, roles entity.Roles, now time.Time) (*entity.User, error) {
	args := m.Called(ctx, id, roles, now)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *MockUserStore) UpdateVacationDays(ctx context.Context, id uuid.UUID, days int, now time.Time) (*entity.User, error) {
	args := m.Called(ctx, id, days, now)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *MockUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func userOrNil(v any) *entity.User {
	u, _ := v.(*entity.User)
	return u
}

type MockLeaveRequestStore struct {
	mock.Mock
}

func (m *MockLeaveRequestStore) Create(ctx context.Context, lr *entity.LeaveRequest) (*entity.LeaveRequest, error) {
	args := m.Called(ctx, lr)
	out, _ := args.Get(0).(*entity.LeaveRequest)
	return out, args.Error(1)
}

func (m *MockLeaveRequestStore) FindByID(ctx context.Context, id uuid.UUID) (*entity.LeaveRequest, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).(*entity.LeaveRequest)
	return out, args.Error(1)
}

func (m *MockLeaveRequestStore) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.LeaveStatus, reviewer uuid.UUID, now time.Time) (*entity.LeaveRequest, error) {
	args := m.Called(ctx, id, status, reviewer, now)
	out, _ := args.Get(0).(*entity.LeaveRequest)
	return out, args.Error(1)
}

func (m *MockLeaveRequestStore) MarkProcessed(ctx context.Context, id uuid.UUID, now time.Time) (*entity.LeaveRequest, error) {
	args := m.Called(ctx, id, now)
	out, _ := args.Get(0).(*entity.LeaveRequest)
	return out, args.Error(1)
}

func (m *MockLeaveRequestStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.LeaveRequestView, error) {
	args := m.Called(ctx, userID)
	out, _ := args.Get(0).([]entity.LeaveRequestView)
	return out, args.Error(1)
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
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockLeavePlanStore) Remove(ctx context.Context, userID uuid.UUID, date string) error {
	args := m.Called(ctx, userID, date)
	return args.Error(0)
}

func (m *MockLeavePlanStore) ListAll(ctx context.Context) ([]entity.LeavePlanEntry, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]entity.LeavePlanEntry)
	return out, args.Error(1)
}

type MockWorkdayStore struct {
	mock.Mock
}

func (m *MockWorkdayStore) Create(ctx context.Context, w *entity.Workday) (*entity.Workday, error) {
	args := m.Called(ctx, w)
	out, _ := args.Get(0).(*entity.Workday)
	return out, args.Error(1)
}

func (m *MockWorkdayStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Workday, error) {
	args := m.Called(ctx, userID)
	out, _ := args.Get(0).([]entity.Workday)
	return out, args.Error(1)
}

func (m *MockWorkdayStore) Delete(ctx context.Context, id, userID uuid.UUID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
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
	args := m.Called(ctx, e)
	return args.Error(0)
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

func auditAction(action entity.AuditAction) any {
	return mock.MatchedBy(func(e *entity.AuditLogEntry) bool { return e.Action == action })
}
