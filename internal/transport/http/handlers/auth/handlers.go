package authhandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"ets/internal/domain/audit"
	"ets/internal/domain/auth"
	"ets/internal/domain/employee"
	"ets/internal/platform/email"
	"ets/internal/platform/jobs"
	"ets/internal/platform/logging"
	"ets/internal/platform/metrics"
	"ets/internal/transport/http/api"
	"ets/internal/transport/http/middleware"
	"ets/internal/transport/http/shared"
)

// Revoker blacklists token ids until they would have expired anyway.
type Revoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
}

type Handler struct {
	Employees *employee.Service
	Options
}

type Options struct {
	Secret       string
	TTL          time.Duration
	Revoker      Revoker
	Mailer       email.Mailer
	From         string
	ResetURLBase string
	Jobs         *jobs.Service
	Audit        audit.Recorder
	Metrics      *metrics.Collector
}

func NewHandler(employees *employee.Service, opts Options) *Handler {
	if opts.Mailer == nil {
		opts.Mailer = email.Noop()
	}
	return &Handler{Employees: employees, Options: opts}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.HandleRegister)
		r.Post("/login", h.HandleLogin)
		r.Post("/logout", h.HandleLogout)
		r.Post("/request-reset", h.HandleRequestReset)
		r.Post("/reset", h.HandleResetPassword)
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type session struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expiresAt"`
	Employee  employee.Employee `json:"employee"`
}

func (h *Handler) issue(emp employee.Employee) (session, error) {
	token, err := auth.GenerateToken(h.Secret, auth.Claims{UserID: emp.ID, Email: emp.Email, Role: emp.Role}, h.TTL)
	if err != nil {
		return session{}, err
	}
	return session{Token: token, ExpiresAt: time.Now().Add(h.TTL), Employee: emp}, nil
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var payload employee.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "is required")
	v.MaxLen("name", payload.Name, 120)
	v.Email("email", payload.Email)
	v.Required("password", payload.Password, "is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	emp, err := h.Employees.Register(r.Context(), payload)
	if err != nil {
		switch {
		case errors.Is(err, employee.ErrEmailTaken):
			api.Fail(w, http.StatusConflict, "email_taken", err.Error(), middleware.GetRequestID(r.Context()))
		case errors.Is(err, employee.ErrInvalidInput), errors.Is(err, employee.ErrWeakPassword):
			api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), middleware.GetRequestID(r.Context()))
		default:
			logging.From(r.Context()).Error().Err(err).Msg("register failed")
			api.Fail(w, http.StatusInternalServerError, "register_failed", "failed to register", middleware.GetRequestID(r.Context()))
		}
		return
	}

	sess, err := h.issue(emp)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", middleware.GetRequestID(r.Context()))
		return
	}
	shared.RecordAudit(r, h.Audit, emp.ID, "auth.register", "employee", emp.ID, nil, emp)
	api.Created(w, sess, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	emp, err := h.Employees.Authenticate(r.Context(), payload.Email, payload.Password)
	if err != nil {
		switch {
		case errors.Is(err, employee.ErrInvalidCredentials):
			h.Metrics.Inc(metrics.LoginsFailed)
			api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", middleware.GetRequestID(r.Context()))
		case errors.Is(err, employee.ErrInactive):
			h.Metrics.Inc(metrics.LoginsFailed)
			api.Fail(w, http.StatusForbidden, "account_inactive", "account is inactive", middleware.GetRequestID(r.Context()))
		default:
			logging.From(r.Context()).Error().Err(err).Msg("login failed")
			api.Fail(w, http.StatusInternalServerError, "login_failed", "failed to login", middleware.GetRequestID(r.Context()))
		}
		return
	}

	sess, err := h.issue(emp)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, sess, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	if h.Revoker != nil && user.TokenID != "" {
		ttl := time.Until(user.ExpiresAt)
		if ttl > 0 {
			if err := h.Revoker.Revoke(r.Context(), user.TokenID, ttl); err != nil {
				logging.From(r.Context()).Error().Err(err).Str("userId", user.UserID).Msg("token revoke failed")
				api.Fail(w, http.StatusInternalServerError, "logout_failed", "failed to logout", middleware.GetRequestID(r.Context()))
				return
			}
			h.Metrics.Inc(metrics.TokensRevoked)
		}
	}
	api.Success(w, map[string]string{"status": "logged_out"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleRequestReset(w http.ResponseWriter, r *http.Request) {
	var payload resetRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	ticket, err := h.Employees.RequestPasswordReset(r.Context(), payload.Email)
	if err != nil {
		logging.From(r.Context()).Error().Err(err).Msg("password reset request failed")
		api.Fail(w, http.StatusInternalServerError, "reset_failed", "failed to request reset", middleware.GetRequestID(r.Context()))
		return
	}
	if ticket != nil {
		h.sendResetEmail(*ticket)
	}
	api.Success(w, map[string]string{"status": "reset_requested"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var payload resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	employeeID, err := h.Employees.ResetPassword(r.Context(), payload.Token, payload.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, employee.ErrInvalidResetToken):
			api.Fail(w, http.StatusBadRequest, "invalid_token", "reset token is invalid or expired", middleware.GetRequestID(r.Context()))
		case errors.Is(err, employee.ErrWeakPassword):
			api.Fail(w, http.StatusBadRequest, "weak_password", err.Error(), middleware.GetRequestID(r.Context()))
		default:
			logging.From(r.Context()).Error().Err(err).Msg("password reset failed")
			api.Fail(w, http.StatusInternalServerError, "reset_failed", "failed to reset password", middleware.GetRequestID(r.Context()))
		}
		return
	}
	shared.RecordAudit(r, h.Audit, employeeID, "auth.password_reset", "employee", employeeID, nil, nil)
	api.Success(w, map[string]string{"status": "password_reset"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) resetLink(token string) string {
	base, err := url.Parse(h.ResetURLBase)
	if err != nil || h.ResetURLBase == "" {
		return token
	}
	q := base.Query()
	q.Set("token", token)
	base.RawQuery = q.Encode()
	return base.String()
}

func (h *Handler) sendResetEmail(ticket employee.ResetTicket) {
	if h.Jobs == nil {
		return
	}
	body := fmt.Sprintf("Hello %s,\n\nUse the link below to reset your password. It expires at %s.\n\n%s\n",
		ticket.Employee.Name, ticket.ExpiresAt.UTC().Format(time.RFC1123), h.resetLink(ticket.Token))
	to := ticket.Employee.Email
	h.Jobs.Enqueue(jobs.JobNotify, func(ctx context.Context) (any, error) {
		return nil, h.Mailer.Send(ctx, h.From, to, "Password reset", body)
	})
}
