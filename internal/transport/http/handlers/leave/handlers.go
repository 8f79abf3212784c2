package leavehandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"ets/internal/domain/audit"
	"ets/internal/domain/auth"
	"ets/internal/domain/leave"
	"ets/internal/domain/notifications"
	"ets/internal/platform/events"
	"ets/internal/platform/jobs"
	"ets/internal/platform/logging"
	"ets/internal/platform/metrics"
	"ets/internal/transport/http/api"
	"ets/internal/transport/http/middleware"
	"ets/internal/transport/http/shared"
)

// Admins lists the accounts notified about new requests.
type Admins interface {
	AdminIDs(ctx context.Context) ([]string, error)
}

type Handler struct {
	Service *leave.Service
	Admins  Admins
	Perms   middleware.PermissionStore
	Notify  *notifications.Service
	Audit   audit.Recorder
	Jobs    *jobs.Service
	Events  events.Publisher
	Metrics *metrics.Collector
}

func NewHandler(service *leave.Service, admins Admins, perms middleware.PermissionStore, notify *notifications.Service, auditSvc audit.Recorder, jobsSvc *jobs.Service, publisher events.Publisher, collector *metrics.Collector) *Handler {
	if publisher == nil {
		publisher = events.Noop()
	}
	return &Handler{Service: service, Admins: admins, Perms: perms, Notify: notify, Audit: auditSvc, Jobs: jobsSvc, Events: publisher, Metrics: collector}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/types", h.handleListTypes)
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/requests", h.handleListRequests)
		r.With(middleware.RequirePermission(auth.PermLeaveWrite, h.Perms)).Post("/requests", h.handleCreateRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/requests/{requestID}", h.handleGetRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveApprove, h.Perms)).Post("/requests/{requestID}/decision", h.handleDecide)
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/calendar.ics", h.handleCalendar)
	})
}

type createPayload struct {
	LeaveType string `json:"leaveType"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Reason    string `json:"reason"`
}

type decisionPayload struct {
	Decision string `json:"decision"`
	Comments string `json:"comments"`
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, leave.ErrAlreadyDecided):
		api.Fail(w, http.StatusConflict, "already_decided", err.Error(), reqID)
	case errors.Is(err, leave.ErrInsufficientBalance):
		api.Fail(w, http.StatusConflict, "insufficient_balance", err.Error(), reqID)
	case errors.Is(err, leave.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), reqID)
	case errors.Is(err, leave.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, leave.ErrInvalidRange):
		api.Fail(w, http.StatusBadRequest, "invalid_range", err.Error(), reqID)
	case errors.Is(err, leave.ErrPastDateNotAllowed):
		api.Fail(w, http.StatusBadRequest, "past_date_not_allowed", err.Error(), reqID)
	case errors.Is(err, leave.ErrMissingReason):
		api.Fail(w, http.StatusBadRequest, "missing_reason", err.Error(), reqID)
	case errors.Is(err, leave.ErrInvalidType), errors.Is(err, leave.ErrInvalidDecision), errors.Is(err, leave.ErrInvalidStatus):
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), reqID)
	default:
		logging.From(r.Context()).Error().Err(err).Msg("leave request failed")
		api.Fail(w, http.StatusInternalServerError, "leave_failed", "leave request failed", reqID)
	}
}

func (h *Handler) handleListTypes(w http.ResponseWriter, r *http.Request) {
	api.Success(w, leave.Types, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload createPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("leaveType", payload.LeaveType, "is required")
	start, _ := v.Date("startDate", payload.StartDate)
	end, _ := v.Date("endDate", payload.EndDate)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	req, err := h.Service.Submit(r.Context(), leave.SubmitInput{
		EmployeeID: user.UserID,
		Type:       strings.TrimSpace(payload.LeaveType),
		StartDate:  start,
		EndDate:    end,
		Reason:     payload.Reason,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.Metrics.Inc(metrics.LeaveSubmitted)
	shared.RecordAudit(r, h.Audit, user.UserID, "leave.request.create", "leave_request", req.ID, nil, req)
	h.notifyAdmins(req, user.Email)
	api.Created(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	page := shared.ParsePagination(r, 50, 200)
	filter := leave.ListFilter{
		EmployeeID: user.UserID,
		Status:     r.URL.Query().Get("status"),
		Limit:      page.Limit,
		Offset:     page.Offset,
	}
	if user.IsAdmin() {
		filter.EmployeeID = r.URL.Query().Get("employeeId")
	}

	result, err := h.Service.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(result.Total))
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	req, err := h.Service.Get(r.Context(), chi.URLParam(r, "requestID"), user.UserID, user.IsAdmin())
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDecide(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload decisionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	req, err := h.Service.Decide(r.Context(), leave.Decision{
		LeaveID:        chi.URLParam(r, "requestID"),
		Status:         strings.TrimSpace(payload.Decision),
		DeciderID:      user.UserID,
		DeciderIsAdmin: user.IsAdmin(),
		Comments:       payload.Comments,
	})
	if err != nil {
		if errors.Is(err, leave.ErrAlreadyDecided) || errors.Is(err, leave.ErrInsufficientBalance) {
			h.Metrics.Inc(metrics.Conflicts)
		}
		writeError(w, r, err)
		return
	}

	if req.Status == leave.StatusApproved {
		h.Metrics.Inc(metrics.LeaveApproved)
	} else {
		h.Metrics.Inc(metrics.LeaveRejected)
	}
	shared.RecordAudit(r, h.Audit, user.UserID, "leave.request.decide", "leave_request", req.ID,
		map[string]string{"status": leave.StatusPending}, map[string]string{"status": req.Status, "comments": req.Comments})
	h.notifyEmployee(req)
	h.publish(events.Event{Type: events.TypeLeaveDecided, EmployeeID: req.EmployeeID, OccurredAt: time.Now(), Payload: req})
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCalendar(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	now := h.Service.Now()
	from := now.AddDate(0, -1, 0)
	to := now.AddDate(0, 6, 0)
	v := shared.NewValidator()
	if raw := r.URL.Query().Get("from"); raw != "" {
		from, _ = v.Date("from", raw)
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		to, _ = v.Date("to", raw)
	}
	v.DateOrder("from", from, "to", to)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	employeeID := user.UserID
	if user.IsAdmin() {
		employeeID = r.URL.Query().Get("employeeId")
	}
	requests, err := h.Service.Approved(r.Context(), from, to, employeeID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=leave.ics")
	if err := leave.WriteCalendar(w, requests, now); err != nil {
		logging.From(r.Context()).Warn().Err(err).Msg("leave calendar write failed")
	}
}

func (h *Handler) notifyAdmins(req leave.Request, submitter string) {
	if h.Jobs == nil || h.Notify == nil || h.Admins == nil {
		return
	}
	title := fmt.Sprintf("New %s request", req.Type)
	body := fmt.Sprintf("%s requested %d day(s) from %s to %s: %s",
		submitter, req.Days, req.StartDate.Format("2006-01-02"), req.EndDate.Format("2006-01-02"), req.Reason)
	h.Jobs.Enqueue(jobs.JobNotify, func(ctx context.Context) (any, error) {
		ids, err := h.Admins.AdminIDs(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]int{"recipients": len(ids)}, h.Notify.Broadcast(ctx, ids, notifications.TypeLeaveSubmitted, title, body)
	})
}

func (h *Handler) notifyEmployee(req leave.Request) {
	if h.Jobs == nil || h.Notify == nil {
		return
	}
	ntype := notifications.TypeLeaveApproved
	if req.Status == leave.StatusRejected {
		ntype = notifications.TypeLeaveRejected
	}
	title := fmt.Sprintf("Your %s request was %s", req.Type, strings.ToLower(req.Status))
	body := fmt.Sprintf("%s to %s (%d day(s)).", req.StartDate.Format("2006-01-02"), req.EndDate.Format("2006-01-02"), req.Days)
	if req.Comments != "" {
		body += " Comments: " + req.Comments
	}
	h.Jobs.Enqueue(jobs.JobNotify, func(ctx context.Context) (any, error) {
		return nil, h.Notify.Create(ctx, req.EmployeeID, ntype, title, body)
	})
}

func (h *Handler) publish(evt events.Event) {
	if h.Jobs == nil {
		return
	}
	h.Jobs.Enqueue(jobs.JobPublishEvent, func(ctx context.Context) (any, error) {
		return map[string]string{"type": evt.Type}, h.Events.Publish(ctx, evt)
	})
}
