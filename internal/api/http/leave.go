package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/planopia/leave_service/internal/entity"
)

func (s Server) SubmitLeaveRequest(w http.ResponseWriter, r *http.Request) {
	var req entity.SubmitLeaveRequest
	if !s.decode(w, r, &req) {
		return
	}

	lr, err := s.Controllers.LeaveRequestController.Submit(r.Context(), claimsFrom(r), &req)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.httpResponse(w, http.StatusCreated, lr, "success")
}

func (s Server) GetOwnLeaveRequests(w http.ResponseWriter, r *http.Request) {
	views, err := s.Controllers.LeaveRequestController.ListForUser(r.Context(), claimsFrom(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.httpResponse(w, http.StatusOK, views, "success")
}

// GetUserLeaveRequests lists the requests owned by the user in the path.
func (s Server) GetUserLeaveRequests(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	views, err := s.Controllers.LeaveRequestController.ListForSubject(r.Context(), claimsFrom(r), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.httpResponse(w, http.StatusOK, views, "success")
}

func (s Server) ChangeLeaveRequestStatus(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req entity.ChangeStatusRequest
	if !s.decode(w, r, &req) {
		return
	}

	lr, err := s.Controllers.LeaveRequestController.ChangeStatus(r.Context(), claimsFrom(r), id, &req)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.httpResponse(w, http.StatusOK, lr, "success")
}

func (s Server) MarkLeaveRequestProcessed(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	lr, err := s.Controllers.LeaveRequestController.MarkProcessed(r.Context(), claimsFrom(r), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.httpResponse(w, http.StatusOK, lr, "success")
}

func (s Server) GetLeavePlans(w http.ResponseWriter, r *http.Request) {
	dates, err := s.Controllers.LeavePlanController.List(r.Context(), claimsFrom(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.httpResponse(w, http.StatusOK, dates, "success")
}

func (s Server) AddLeavePlan(w http.ResponseWriter, r *http.Request) {
	var req entity.LeavePlanRequest
	if !s.decode(w, r, &req) {
		return
	}

	plan, err := s.Controllers.LeavePlanController.Add(r.Context(), claimsFrom(r), &req)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.httpResponse(w, http.StatusCreated, plan, "success")
}

func (s Server) RemoveLeavePlan(w http.ResponseWriter, r *http.Request) {
	var req entity.LeavePlanRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.Controllers.LeavePlanController.Remove(r.Context(), claimsFrom(r), &req); err != nil {
		s.fail(w, r, err)
		return
	}

	s.httpResponse(w, http.StatusOK, map[string]string{"message": "Leave plan removed"}, "success")
}

func (s Server) GetUserLeavePlans(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	dates, err := s.Controllers.LeavePlanController.ListForUser(r.Context(), claimsFrom(r), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.httpResponse(w, http.StatusOK, dates, "success")
}

func (s Server) GetAllLeavePlans(w http.ResponseWriter, r *http.Request) {
	entries, err := s.Controllers.LeavePlanController.ListAll(r.Context(), claimsFrom(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.httpResponse(w, http.StatusOK, entries, "success")
}
