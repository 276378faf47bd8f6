package controllers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/planopia/leave_service/internal/entity"
	"github.com/planopia/leave_service/internal/notify"
)

func day(s string) time.Time {
	t, _ := time.Parse(entity.DateLayout, s)
	return t
}

func storedRequest(owner *entity.User, status entity.LeaveStatus) *entity.LeaveRequest {
	return &entity.LeaveRequest{
		ID:            uuid.New(),
		UserID:        owner.ID,
		Type:          entity.LeaveAnnual,
		StartDate:     day("2024-05-06"),
		EndDate:       day("2024-05-10"),
		DaysRequested: 5,
		Status:        status,
		CreatedAt:     testNow,
		UpdatedAt:     testNow,
	}
}

func TestLeaveRequestController_SubmitNotifiesSupervisors(t *testing.T) {
	env := newTestEnv(t)
	owner := newUser("bet@example.com", entity.RoleBukmacher)
	boss1 := newUser("boss1@example.com", entity.RoleKierownikBukmacher)
	boss2 := newUser("boss2@example.com", entity.RoleKierownikBukmacher)

	env.leaveRequests.On("Create", mock.Anything, mock.MatchedBy(func(lr *entity.LeaveRequest) bool {
		return lr.UserID == owner.ID && lr.Status == entity.StatusPending &&
			lr.StartDate.Equal(day("2024-05-06")) && lr.EndDate.Equal(day("2024-05-10")) && lr.Replacement == nil
	})).Return(storedRequest(owner, entity.StatusPending), nil).Once()
	env.users.On("FindByID", mock.Anything, owner.ID).Return(owner, nil)
	env.users.On("FindByRole", mock.Anything, entity.RoleKierownikBukmacher).
		Return([]entity.UserSummary{summaryOf(boss1), summaryOf(boss2)}, nil).Once()

	blank := "  "
	lr, err := env.controllers.LeaveRequestController.Submit(context.Background(), claimsFor(owner), &entity.SubmitLeaveRequest{
		Type:          entity.LeaveAnnual,
		StartDate:     "2024-05-06",
		EndDate:       "2024-05-10T00:00:00Z",
		DaysRequested: 5,
		Replacement:   &blank,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, lr.Status)

	assert.ElementsMatch(t, []string{"boss1@example.com", "boss2@example.com"}, env.notifier.recipients(notify.KindLeaveSubmitted))
	env.leaveRequests.AssertExpectations(t)
	env.users.AssertExpectations(t)
}

func TestLeaveRequestController_SubmitWithoutSupervisor(t *testing.T) {
	env := newTestEnv(t)
	owner := newUser("admin@example.com", entity.RoleAdmin)

	env.leaveRequests.On("Create", mock.Anything, mock.Anything).Return(storedRequest(owner, entity.StatusPending), nil)
	env.users.On("FindByID", mock.Anything, owner.ID).Return(owner, nil)

	_, err := env.controllers.LeaveRequestController.Submit(context.Background(), claimsFor(owner), &entity.SubmitLeaveRequest{
		Type: entity.LeaveOther, StartDate: "2024-05-06", EndDate: "2024-05-06", DaysRequested: 1,
	})
	require.NoError(t, err)

	assert.Empty(t, env.notifier.sent())
	env.users.AssertNotCalled(t, "FindByRole", mock.Anything, mock.Anything)
}

func TestLeaveRequestController_SubmitValidation(t *testing.T) {
	tests := []struct {
		name string
		req  entity.SubmitLeaveRequest
	}{
		{"unknown type", entity.SubmitLeaveRequest{Type: "sabbatical", StartDate: "2024-05-06", EndDate: "2024-05-07", DaysRequested: 2}},
		{"bad start", entity.SubmitLeaveRequest{Type: entity.LeaveAnnual, StartDate: "06.05.2024", EndDate: "2024-05-07", DaysRequested: 2}},
		{"missing end", entity.SubmitLeaveRequest{Type: entity.LeaveAnnual, StartDate: "2024-05-06", DaysRequested: 2}},
		{"end before start", entity.SubmitLeaveRequest{Type: entity.LeaveAnnual, StartDate: "2024-05-06", EndDate: "2024-05-01", DaysRequested: 2}},
		{"zero days", entity.SubmitLeaveRequest{Type: entity.LeaveUnpaid, StartDate: "2024-05-06", EndDate: "2024-05-07"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			_, err := env.controllers.LeaveRequestController.Submit(context.Background(),
				claimsFor(newUser("jan@example.com", entity.RoleIT)), &tt.req)
			assert.ErrorIs(t, err, entity.ErrValidation)
			env.leaveRequests.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestLeaveRequestController_AcceptNotifiesOwnerAndTeam(t *testing.T) {
	env := newTestEnv(t)
	reg := prometheus.NewRegistry()
	env.deps.Metrics = NewMetrics(reg)

	owner := newUser("jan@example.com", entity.RoleIT)
	reviewer := newUser("hr@example.com", entity.RoleKierownikIT, entity.RoleUrlopyCzasPracy)
	colleague := newUser("hr2@example.com", entity.RoleUrlopyCzasPracy)

	accepted := storedRequest(owner, entity.StatusAccepted)
	accepted.UpdatedBy = &reviewer.ID

	env.leaveRequests.On("UpdateStatus", mock.Anything, accepted.ID, entity.StatusAccepted, reviewer.ID, testNow).Return(accepted, nil).Once()
	env.users.On("FindByID", mock.Anything, owner.ID).Return(owner, nil)
	env.users.On("FindByID", mock.Anything, reviewer.ID).Return(reviewer, nil)
	env.users.On("FindByRole", mock.Anything, entity.RoleUrlopyCzasPracy).
		Return([]entity.UserSummary{summaryOf(reviewer), summaryOf(colleague)}, nil).Once()

	lr, err := env.controllers.LeaveRequestController.ChangeStatus(context.Background(), claimsFor(reviewer), accepted.ID,
		&entity.ChangeStatusRequest{Status: "status.accepted"})
	require.NoError(t, err)
	assert.Equal(t, reviewer.ID, *lr.UpdatedBy)

	assert.Equal(t, []string{"jan@example.com"}, env.notifier.recipients(notify.KindStatusChanged))
	assert.ElementsMatch(t, []string{"hr@example.com", "hr2@example.com"}, env.notifier.recipients(notify.KindLeaveAccepted))
	assert.Contains(t, env.notifier.sent()[0].HTML, reviewer.FullName())

	assert.Equal(t, 1.0, statusChangeCount(t, reg, "accepted"))
	env.users.AssertExpectations(t)
}

func TestLeaveRequestController_RejectNotifiesOwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	owner := newUser("jan@example.com", entity.RoleIT)
	reviewer := newUser("boss@example.com", entity.RoleKierownikIT)
	rejected := storedRequest(owner, entity.StatusRejected)

	env.leaveRequests.On("UpdateStatus", mock.Anything, rejected.ID, entity.StatusRejected, reviewer.ID, testNow).Return(rejected, nil)
	env.users.On("FindByID", mock.Anything, owner.ID).Return(owner, nil)
	env.users.On("FindByID", mock.Anything, reviewer.ID).Return(nil, entity.ErrNotFound)

	_, err := env.controllers.LeaveRequestController.ChangeStatus(context.Background(), claimsFor(reviewer), rejected.ID,
		&entity.ChangeStatusRequest{Status: entity.StatusRejected})
	require.NoError(t, err)

	sent := env.notifier.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, notify.KindStatusChanged, sent[0].Kind)
	assert.Equal(t, owner.Username, sent[0].To)
	assert.Contains(t, sent[0].HTML, reviewer.Username, "falls back to the reviewer's username")
	env.users.AssertNotCalled(t, "FindByRole", mock.Anything, mock.Anything)
}

func TestLeaveRequestController_ChangeStatusErrors(t *testing.T) {
	reviewer := newUser("boss@example.com", entity.RoleZarzad)
	missing := uuid.New()

	t.Run("base role is forbidden", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.controllers.LeaveRequestController.ChangeStatus(context.Background(),
			claimsFor(newUser("jan@example.com", entity.RoleIT)), missing, &entity.ChangeStatusRequest{Status: entity.StatusAccepted})
		assert.ErrorIs(t, err, entity.ErrForbidden)
	})

	t.Run("pending is not a decision", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.controllers.LeaveRequestController.ChangeStatus(context.Background(),
			claimsFor(reviewer), missing, &entity.ChangeStatusRequest{Status: entity.StatusPending})
		assert.ErrorIs(t, err, entity.ErrValidation)
	})

	t.Run("unknown request", func(t *testing.T) {
		env := newTestEnv(t)
		env.leaveRequests.On("UpdateStatus", mock.Anything, missing, entity.StatusAccepted, reviewer.ID, testNow).Return(nil, entity.ErrNotFound)

		_, err := env.controllers.LeaveRequestController.ChangeStatus(context.Background(),
			claimsFor(reviewer), missing, &entity.ChangeStatusRequest{Status: entity.StatusAccepted})
		assert.ErrorIs(t, err, entity.ErrNotFound)
		assert.Empty(t, env.notifier.sent())
	})
}

func TestLeaveRequestController_Listing(t *testing.T) {
	env := newTestEnv(t)
	worker := newUser("jan@example.com", entity.RoleIT)
	hr := newUser("hr@example.com", entity.RoleUrlopyCzasPracy)

	views := []entity.LeaveRequestView{{LeaveRequest: *storedRequest(worker, entity.StatusPending)}}
	env.leaveRequests.On("ListByUser", mock.Anything, worker.ID).Return(views, nil)

	own, err := env.controllers.LeaveRequestController.ListForUser(context.Background(), claimsFor(worker))
	require.NoError(t, err)
	assert.Len(t, own, 1)

	_, err = env.controllers.LeaveRequestController.ListForSubject(context.Background(), claimsFor(worker), hr.ID)
	assert.ErrorIs(t, err, entity.ErrForbidden)

	other, err := env.controllers.LeaveRequestController.ListForSubject(context.Background(), claimsFor(hr), worker.ID)
	require.NoError(t, err)
	assert.Equal(t, views, other)
}

func TestLeaveRequestController_MarkProcessed(t *testing.T) {
	env := newTestEnv(t)
	worker := newUser("jan@example.com", entity.RoleIT)
	hr := newUser("hr@example.com", entity.RoleUrlopyCzasPracy)
	lr := storedRequest(worker, entity.StatusAccepted)
	processed := *lr
	processed.IsProcessed = true

	_, err := env.controllers.LeaveRequestController.MarkProcessed(context.Background(), claimsFor(worker), lr.ID)
	assert.ErrorIs(t, err, entity.ErrForbidden)

	env.leaveRequests.On("MarkProcessed", mock.Anything, lr.ID, testNow).Return(&processed, nil)
	got, err := env.controllers.LeaveRequestController.MarkProcessed(context.Background(), claimsFor(hr), lr.ID)
	require.NoError(t, err)
	assert.True(t, got.IsProcessed)

	env.leaveRequests.On("MarkProcessed", mock.Anything, worker.ID, testNow).Return(nil, errors.New("connection reset"))
	_, err = env.controllers.LeaveRequestController.MarkProcessed(context.Background(), claimsFor(hr), worker.ID)
	assert.Error(t, err)
}

func statusChangeCount(t *testing.T, reg *prometheus.Registry, status string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != "leave_requests_status_changes_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "status" && l.GetValue() == status {
					return m.GetCounter().GetValue()
				}
			}
		}
	}

	return 0
}
