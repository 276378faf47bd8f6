package api

import (
	"net/http"

	"github.com/planopia/leave_service/internal/entity"
)

// Login opens a session and hands both tokens out as cookies.
func (s Server) Login(w http.ResponseWriter, r *http.Request) {
	var req entity.LoginRequest
	if !s.decode(w, r, &req) {
		return
	}

	session, err := s.Controllers.AuthController.Login(r.Context(), &req, clientKey(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.setSessionCookies(w, session)
	s.httpResponse(w, http.StatusOK, entity.LoginResponse{
		Message:  "Logged in",
		Roles:    session.User.Roles,
		Username: session.User.Username,
	}, "success")
}

func (s Server) RefreshToken(w http.ResponseWriter, r *http.Request) {
	session, err := s.Controllers.AuthController.Refresh(r.Context(), cookieValue(r, refreshCookie))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.setSessionCookies(w, session)
	s.httpResponse(w, http.StatusOK, map[string]string{"message": "Token refreshed"}, "success")
}

func (s Server) Logout(w http.ResponseWriter, r *http.Request) {
	if err := s.Controllers.AuthController.Logout(r.Context(), sessionToken(r), cookieValue(r, refreshCookie)); err != nil {
		s.fail(w, r, err)
		return
	}

	s.clearSessionCookies(w)
	s.httpResponse(w, http.StatusOK, map[string]string{"message": "Logged out successfully"}, "success")
}

func (s Server) Me(w http.ResponseWriter, r *http.Request) {
	me, err := s.Controllers.UserController.Me(r.Context(), claimsFrom(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.httpResponse(w, http.StatusOK, me, "success")
}

func (s Server) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.Controllers.UserController.Profile(r.Context(), claimsFrom(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.httpResponse(w, http.StatusOK, profile, "success")
}

func (s Server) SetPassword(w http.ResponseWriter, r *http.Request) {
	var req entity.SetPasswordRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.Controllers.UserController.SetPassword(r.Context(), &req); err != nil {
		s.fail(w, r, err)
		return
	}

	s.httpResponse(w, http.StatusOK, map[string]string{"message": "Password set"}, "success")
}

func (s Server) NewPassword(w http.ResponseWriter, r *http.Request) {
	var req entity.NewPasswordRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.Controllers.UserController.NewPassword(r.Context(), &req); err != nil {
		s.fail(w, r, err)
		return
	}

	s.httpResponse(w, http.StatusOK, map[string]string{"message": "Password changed"}, "success")
}

func (s Server) ResetPasswordRequest(w http.ResponseWriter, r *http.Request) {
	var req entity.ResetPasswordRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.Controllers.UserController.RequestPasswordReset(r.Context(), &req, clientKey(r)); err != nil {
		s.fail(w, r, err)
		return
	}

	s.httpResponse(w, http.StatusOK, map[string]string{"message": "Reset link sent"}, "success")
}

func (s Server) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req entity.ChangePasswordRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.Controllers.UserController.ChangePassword(r.Context(), claimsFrom(r), &req); err != nil {
		s.fail(w, r, err)
		return
	}

	s.httpResponse(w, http.StatusOK, map[string]string{"message": "Password changed"}, "success")
}
