package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/planopia/leave_service/internal/entity"
)

func (s Server) CreateWorkday(w http.ResponseWriter, r *http.Request) {
	var req entity.WorkdayRequest
	if !s.decode(w, r, &req) {
		return
	}

	day, err := s.Controllers.WorkdayController.Create(r.Context(), claimsFrom(r), &req)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.httpResponse(w, http.StatusCreated, day, "success")
}

func (s Server) GetWorkdays(w http.ResponseWriter, r *http.Request) {
	days, err := s.Controllers.WorkdayController.List(r.Context(), claimsFrom(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.httpResponse(w, http.StatusOK, days, "success")
}

// GetUserWorkdays lists the timesheet of the user in the path.
func (s Server) GetUserWorkdays(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	days, err := s.Controllers.WorkdayController.ListForUser(r.Context(), claimsFrom(r), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.httpResponse(w, http.StatusOK, days, "success")
}

func (s Server) DeleteWorkday(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := s.Controllers.WorkdayController.Delete(r.Context(), claimsFrom(r), id); err != nil {
		s.fail(w, r, err)
		return
	}

	s.httpResponse(w, http.StatusOK, map[string]string{"message": "Workday deleted"}, "success")
}

func (s Server) ConfirmMonth(w http.ResponseWriter, r *http.Request) {
	var req entity.ConfirmRequest
	if !s.decode(w, r, &req) {
		return
	}

	conf, err := s.Controllers.WorkdayController.Confirm(r.Context(), claimsFrom(r), &req)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.httpResponse(w, http.StatusOK, conf, "success")
}

// GetConfirmationStatus serves both the own and the per-user variant; the
// optional userId path segment selects the latter.
func (s Server) GetConfirmationStatus(w http.ResponseWriter, r *http.Request) {
	var target *uuid.UUID
	if raw := chi.URLParam(r, "userId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			s.httpResponse(w, http.StatusBadRequest, "Invalid userId", "error")
			return
		}
		target = &id
	}

	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil {
		s.logger(r).Warn("Invalid month query", slog.String("error", err.Error()))
		s.httpResponse(w, http.StatusBadRequest, "month and year are required", "error")
		return
	}

	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		s.logger(r).Warn("Invalid year query", slog.String("error", err.Error()))
		s.httpResponse(w, http.StatusBadRequest, "month and year are required", "error")
		return
	}

	status, err := s.Controllers.WorkdayController.ConfirmationStatus(r.Context(), claimsFrom(r), target, month, year)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.httpResponse(w, http.StatusOK, status, "success")
}
