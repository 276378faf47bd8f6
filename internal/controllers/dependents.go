package controllers

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/text/language"

	"github.com/planopia/leave_service/internal/config"
	"github.com/planopia/leave_service/internal/entity"
	"github.com/planopia/leave_service/internal/notify"
)

type Controllers struct {
	AuthController         *AuthController
	AuditController        *AuditController
	UserController         *UserController
	LeaveRequestController *LeaveRequestController
	LeavePlanController    *LeavePlanController
	WorkdayController      *WorkdayController
}

func NewControllers(deps *Dependens) *Controllers {
	auth := NewAuthController(deps)
	audit := NewAuditController(deps)

	return &Controllers{
		AuthController:         auth,
		AuditController:        audit,
		UserController:         NewUserController(deps, auth, audit),
		LeaveRequestController: NewLeaveRequestController(deps),
		LeavePlanController:    NewLeavePlanController(deps),
		WorkdayController:      NewWorkdayController(deps),
	}
}

type UserStore interface {
	Create(ctx context.Context, u *entity.User) (*entity.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	List(ctx context.Context, roles []entity.RoleName) ([]entity.UserSummary, error)
	FindByRole(ctx context.Context, role entity.RoleName) ([]entity.UserSummary, error)
	SetPassword(ctx context.Context, id uuid.UUID, hash string, position *string, now time.Time) error
	UpdatePosition(ctx context.Context, id uuid.UUID, position string, now time.Time) error
	UpdateRoles(ctx context.Context, id uuid.UUID, roles entity.Roles, now time.Time) (*entity.User, error)
	UpdateVacationDays(ctx context.Context, id uuid.UUID, days int, now time.Time) (*entity.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type LeaveRequestStore interface {
	Create(ctx context.Context, lr *entity.LeaveRequest) (*entity.LeaveRequest, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.LeaveRequest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.LeaveStatus, reviewer uuid.UUID, now time.Time) (*entity.LeaveRequest, error)
	MarkProcessed(ctx context.Context, id uuid.UUID, now time.Time) (*entity.LeaveRequest, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.LeaveRequestView, error)
}

type LeavePlanStore interface {
	ListDates(ctx context.Context, userID uuid.UUID) ([]string, error)
	Add(ctx context.Context, plan *entity.LeavePlan) error
	Remove(ctx context.Context, userID uuid.UUID, date string) error
	ListAll(ctx context.Context) ([]entity.LeavePlanEntry, error)
}

type WorkdayStore interface {
	Create(ctx context.Context, w *entity.Workday) (*entity.Workday, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Workday, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

type ConfirmationStore interface {
	Upsert(ctx context.Context, userID uuid.UUID, month, year int, confirmed bool, now time.Time) (*entity.CalendarConfirmation, error)
	Find(ctx context.Context, userID uuid.UUID, month, year int) (*entity.CalendarConfirmation, error)
}

type AuditStore interface {
	Create(ctx context.Context, e *entity.AuditLogEntry) error
	List(ctx context.Context) ([]entity.AuditLogEntry, error)
	ListBySubject(ctx context.Context, subject uuid.UUID) ([]entity.AuditLogEntry, error)
}

type Notifier interface {
	Dispatch(msgs ...notify.EmailMessage)
}

type Translator interface {
	T(lang language.Tag, key string, params map[string]any) string
}

type Dependens struct {
	Users         UserStore
	LeaveRequests LeaveRequestStore
	LeavePlans    LeavePlanStore
	Workdays      WorkdayStore
	Confirmations ConfirmationStore
	AuditLogs     AuditStore

	Redis interface {
		Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
		Get(ctx context.Context, key string) *redis.StringCmd
		Del(ctx context.Context, keys ...string) *redis.IntCmd
		Incr(ctx context.Context, key string) *redis.IntCmd
		Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	}

	Notifier   Notifier
	Translator Translator
	Metrics    *Metrics
	Clock      func() time.Time
	Logger     *slog.Logger
	Config     *config.Config
}

func (d *Dependens) now() time.Time {
	if d.Clock != nil {
		return d.Clock()
	}

	return time.Now()
}

type Metrics struct {
	StatusChanges *prometheus.CounterVec
}

// NewMetrics registers the workflow counters on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StatusChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leave_requests_status_changes_total",
				Help: "Total number of leave request status changes",
			},
			[]string{"status"},
		),
	}
	reg.MustRegister(m.StatusChanges)

	return m
}

func (m *Metrics) statusChanged(status entity.LeaveStatus) {
	if m == nil {
		return
	}

	m.StatusChanges.WithLabelValues(string(status)).Inc()
}
