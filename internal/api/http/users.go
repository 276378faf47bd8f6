package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/planopia/leave_service/internal/entity"
)

func (s Server) Register(w http.ResponseWriter, r *http.Request) {
	var req entity.RegisterRequest
	if !s.decode(w, r, &req) {
		return
	}

	user, err := s.Controllers.UserController.Register(r.Context(), claimsFrom(r), &req)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.httpResponse(w, http.StatusCreated, user, "success")
}

func (s Server) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	var req entity.UpdatePositionRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.Controllers.UserController.UpdatePosition(r.Context(), claimsFrom(r), &req); err != nil {
		s.fail(w, r, err)
		return
	}

	s.httpResponse(w, http.StatusOK, map[string]string{"message": "Position updated"}, "success")
}

func (s Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.Controllers.UserController.ListUsers(r.Context(), claimsFrom(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.httpResponse(w, http.StatusOK, users, "success")
}

func (s Server) ListVisibleUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.Controllers.UserController.ListVisible(r.Context(), claimsFrom(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.httpResponse(w, http.StatusOK, users, "success")
}

func (s Server) ListPlanUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.Controllers.UserController.ListPlanners(r.Context(), claimsFrom(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.httpResponse(w, http.StatusOK, users, "success")
}

func (s Server) GetUser(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	user, err := s.Controllers.UserController.GetUser(r.Context(), claimsFrom(r), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.httpResponse(w, http.StatusOK, user, "success")
}

func (s Server) DeleteUser(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	if err := s.Controllers.UserController.Delete(r.Context(), claimsFrom(r), userID); err != nil {
		s.fail(w, r, err)
		return
	}

	s.httpResponse(w, http.StatusOK, map[string]string{"message": "User deleted"}, "success")
}

func (s Server) GetRoles(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	roles, err := s.Controllers.UserController.GetRoles(r.Context(), claimsFrom(r), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.httpResponse(w, http.StatusOK, map[string]entity.Roles{"roles": roles}, "success")
}

func (s Server) UpdateRoles(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	var req entity.UpdateRolesRequest
	if !s.decode(w, r, &req) {
		return
	}

	user, err := s.Controllers.UserController.UpdateRoles(r.Context(), claimsFrom(r), userID, &req)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.httpResponse(w, http.StatusOK, user, "success")
}

func (s Server) GetVacationDays(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	days, err := s.Controllers.UserController.GetVacationDays(r.Context(), claimsFrom(r), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.httpResponse(w, http.StatusOK, days, "success")
}

func (s Server) GetOwnVacationDays(w http.ResponseWriter, r *http.Request) {
	s.GetVacationDays(w, r, claimsFrom(r).UserID)
}

func (s Server) UpdateVacationDays(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	var req entity.VacationDaysRequest
	if !s.decode(w, r, &req) {
		return
	}

	days, err := s.Controllers.UserController.UpdateVacationDays(r.Context(), claimsFrom(r), userID, &req)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.httpResponse(w, http.StatusOK, days, "success")
}

func (s Server) GetLogs(w http.ResponseWriter, r *http.Request) {
	entries, err := s.Controllers.AuditController.List(r.Context(), claimsFrom(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.httpResponse(w, http.StatusOK, entries, "success")
}

func (s Server) GetUserLogs(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	entries, err := s.Controllers.AuditController.ListForUser(r.Context(), claimsFrom(r), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.httpResponse(w, http.StatusOK, entries, "success")
}
