package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"

	"github.com/planopia/leave_service/internal/controllers"
	"github.com/planopia/leave_service/internal/entity"
	"github.com/planopia/leave_service/internal/i18n"
	logging "github.com/planopia/leave_service/internal/utils"
)

const (
	accessCookie  = "token"
	refreshCookie = "refreshToken"
)

type claimsKey struct{}

type Server struct {
	deps        *controllers.Dependens
	translator  *i18n.Translator
	Controllers *controllers.Controllers
}

func NewServer(deps *controllers.Dependens, translator *i18n.Translator) *Server {
	return &Server{
		deps:        deps,
		translator:  translator,
		Controllers: controllers.NewControllers(deps),
	}
}

// Routes mounts the whole API under /api/users on r.
func (s Server) Routes(r chi.Router) {
	r.Route("/api/users", func(r chi.Router) {
		if s.translator != nil {
			r.Use(s.translator.Middleware)
		}

		r.Post("/login", s.Login)
		r.Post("/refresh-token", s.RefreshToken)
		r.Post("/logout", s.Logout)
		r.Post("/set-password", s.SetPassword)
		r.Post("/new-password", s.NewPassword)
		r.Post("/reset-password-request", s.ResetPasswordRequest)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Post("/register", s.Register)
			r.Get("/me", s.Me)
			r.Get("/profile", s.Profile)
			r.Post("/change-password", s.ChangePassword)
			r.Put("/update-position", s.UpdatePosition)

			r.Get("/logs", s.GetLogs)
			r.Get("/logs/{userId}", s.withID("userId", s.GetUserLogs))

			r.Get("/users", s.ListUsers)
			r.Get("/all-users", s.ListVisibleUsers)
			r.Get("/alluserplans", s.ListPlanUsers)
			r.Get("/vacation-days", s.GetOwnVacationDays)

			r.Post("/leave-request", s.SubmitLeaveRequest)
			r.Get("/user-leave-requests", s.GetOwnLeaveRequests)
			r.Get("/leave-requests/{id}", s.withID("id", s.GetUserLeaveRequests))
			r.Patch("/leave-requests/{id}", s.withID("id", s.ChangeLeaveRequestStatus))
			r.Patch("/leave-requests/{id}/mark-processed", s.withID("id", s.MarkLeaveRequestProcessed))

			r.Get("/leave-plans", s.GetLeavePlans)
			r.Post("/leave-plans", s.AddLeavePlan)
			r.Delete("/leave-plans", s.RemoveLeavePlan)
			r.Get("/admin/leave-plans/{userId}", s.withID("userId", s.GetUserLeavePlans))
			r.Get("/admin/all-leave-plans", s.GetAllLeavePlans)

			r.Post("/workdays", s.CreateWorkday)
			r.Get("/workdays", s.GetWorkdays)
			r.Post("/workdays/confirm", s.ConfirmMonth)
			r.Get("/workdays/confirmation-status", s.GetConfirmationStatus)
			r.Get("/workdays/confirmation-status/{userId}", s.GetConfirmationStatus)
			r.Get("/workdays/{id}", s.withID("id", s.GetUserWorkdays))
			r.Delete("/workdays/{id}", s.withID("id", s.DeleteWorkday))

			r.Get("/{userId}", s.withID("userId", s.GetUser))
			r.Delete("/{userId}", s.withID("userId", s.DeleteUser))
			r.Get("/{userId}/roles", s.withID("userId", s.GetRoles))
			r.Patch("/{userId}/roles", s.withID("userId", s.UpdateRoles))
			r.Get("/{userId}/vacation-days", s.withID("userId", s.GetVacationDays))
			r.Patch("/{userId}/vacation-days", s.withID("userId", s.UpdateVacationDays))
		})
	})
}

// authenticate resolves the session from the token cookie, falling back to a
// bearer header, and stores the claims in the request context.
func (s Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.Controllers.AuthController.CheckUserToken(r.Context(), sessionToken(r))
		if err != nil {
			s.fail(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
	})
}

func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(accessCookie); err == nil && c.Value != "" {
		return c.Value
	}

	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func claimsFrom(r *http.Request) *entity.Claims {
	claims, _ := r.Context().Value(claimsKey{}).(*entity.Claims)
	return claims
}

// withID binds a uuid path parameter before calling h.
func (s Server) withID(param string, h func(http.ResponseWriter, *http.Request, uuid.UUID)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var id uuid.UUID

		err := runtime.BindStyledParameterWithOptions("simple", param, chi.URLParam(r, param), &id,
			runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
		if err != nil {
			s.logger(r).Warn("Invalid path parameter", slog.String("param", param), slog.String("error", err.Error()))
			s.httpResponse(w, http.StatusBadRequest, "Invalid "+param, "error")
			return
		}

		h(w, r, id)
	}
}

func (s Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.logger(r).Error("Error decoding request body", slog.String("error", err.Error()))
		s.httpResponse(w, http.StatusBadRequest, "Invalid request body", "error")
		return false
	}

	return true
}

// fail maps a controller error to its HTTP status. Internal errors are logged
// and answered with a generic message.
func (s Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, entity.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, entity.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, entity.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, entity.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, entity.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, entity.ErrTooManyRequests):
		status = http.StatusTooManyRequests
	}

	if status == http.StatusInternalServerError {
		s.logger(r).Error("Internal error", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		s.httpResponse(w, status, "Internal server error", "error")
		return
	}

	s.httpResponse(w, status, err.Error(), "error")
}

func (s Server) setSessionCookies(w http.ResponseWriter, session *entity.Session) {
	cfg := s.deps.Config.Server
	s.setCookie(w, accessCookie, session.AccessToken, cfg.AccessTokenTTL)
	s.setCookie(w, refreshCookie, session.RefreshToken, cfg.RefreshTokenTTL)
}

func (s Server) clearSessionCookies(w http.ResponseWriter) {
	s.setCookie(w, accessCookie, "", -1)
	s.setCookie(w, refreshCookie, "", -1)
}

func (s Server) setCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.deps.Config.Server.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	}
	if ttl < 0 {
		c.MaxAge = -1
	} else {
		c.MaxAge = int(ttl.Seconds())
	}

	http.SetCookie(w, c)
}

func cookieValue(r *http.Request, name string) string {
	if c, err := r.Cookie(name); err == nil {
		return c.Value
	}

	return ""
}

// clientKey identifies the caller for rate limiting. RemoteAddr is already
// rewritten by the RealIP middleware when the service runs behind a proxy.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}

func (s Server) logger(r *http.Request) *slog.Logger {
	return logging.FromContext(r.Context(), s.deps.Logger)
}

func (s Server) httpResponse(w http.ResponseWriter, status int, data any, respType string) {
	resp := map[string]any{
		"status": status,
		"type":   respType,
		"data":   data,
	}

	respData, marshalErr := json.Marshal(resp)
	if marshalErr != nil {
		s.deps.Logger.Error("Error marshaling response", slog.String("error", marshalErr.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if _, err := w.Write(respData); err != nil {
		s.deps.Logger.Error("Error writing response", slog.String("error", err.Error()))
	}
}
