package employeehandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ets/internal/domain/audit"
	"ets/internal/domain/auth"
	"ets/internal/domain/employee"
	"ets/internal/platform/logging"
	"ets/internal/transport/http/api"
	"ets/internal/transport/http/middleware"
	"ets/internal/transport/http/shared"
)

type Handler struct {
	Service *employee.Service
	Perms   middleware.PermissionStore
	Audit   audit.Recorder
}

func NewHandler(service *employee.Service, perms middleware.PermissionStore, auditSvc audit.Recorder) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/me", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermProfileRead, h.Perms)).Get("/", h.handleGetProfile)
		r.With(middleware.RequirePermission(auth.PermProfileWrite, h.Perms)).Patch("/", h.handleUpdateProfile)
		r.With(middleware.RequirePermission(auth.PermProfileRead, h.Perms)).Get("/balances", h.handleBalances)
	})
	r.Route("/employees", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/bench", h.handleBench)
		r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/{employeeID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Patch("/{employeeID}/status", h.handleSetStatus)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Post("/{employeeID}/deactivate", h.handleDeactivate)
	})
}

type statusPayload struct {
	WorkingStatus string `json:"workingStatus"`
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, employee.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", reqID)
	case errors.Is(err, employee.ErrInvalidStatus):
		api.Fail(w, http.StatusBadRequest, "invalid_status", err.Error(), reqID)
	case errors.Is(err, employee.ErrInvalidInput):
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), reqID)
	default:
		logging.From(r.Context()).Error().Err(err).Msg("employee request failed")
		api.Fail(w, http.StatusInternalServerError, "employee_failed", "employee request failed", reqID)
	}
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	emp, err := h.Service.Get(r.Context(), user.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload employee.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.OptionalMaxLen("name", payload.Name, 120)
	v.OptionalMaxLen("phone", payload.Phone, 32)
	v.OptionalMaxLen("city", payload.City, 120)
	v.OptionalMaxLen("address", payload.Address, 500)
	v.OptionalMaxLen("technology", payload.Technology, 120)
	v.OptionalMaxLen("profilePicture", payload.ProfilePicture, 1024)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	before, err := h.Service.Get(r.Context(), user.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	emp, err := h.Service.UpdateProfile(r.Context(), user.UserID, payload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user.UserID, "employee.profile.update", "employee", emp.ID, before, emp)
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleBalances(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	balances, err := h.Service.Balances(r.Context(), user.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, balances, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	result, err := h.Service.List(r.Context(), employee.ListFilter{
		Query:         r.URL.Query().Get("q"),
		WorkingStatus: r.URL.Query().Get("status"),
		Limit:         page.Limit,
		Offset:        page.Offset,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(result.Total))
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleBench(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	result, err := h.Service.Bench(r.Context(), page.Limit, page.Offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(result.Total))
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Service.Get(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var payload statusPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	h.changeStatus(w, r, payload.WorkingStatus)
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, employee.StatusInactive)
}

func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request, status string) {
	user, _ := middleware.GetUser(r.Context())
	employeeID := chi.URLParam(r, "employeeID")
	if employeeID == user.UserID && status == employee.StatusInactive {
		api.Fail(w, http.StatusBadRequest, "invalid_status", "cannot deactivate your own account", middleware.GetRequestID(r.Context()))
		return
	}

	before, err := h.Service.Get(r.Context(), employeeID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	emp, err := h.Service.SetWorkingStatus(r.Context(), employeeID, status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user.UserID, "employee.status.update", "employee", emp.ID,
		map[string]any{"workingStatus": before.WorkingStatus, "active": before.Active},
		map[string]any{"workingStatus": emp.WorkingStatus, "active": emp.Active})
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}
