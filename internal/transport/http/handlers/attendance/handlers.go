package attendancehandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"ets/internal/domain/attendance"
	"ets/internal/domain/audit"
	"ets/internal/domain/auth"
	"ets/internal/domain/employee"
	"ets/internal/platform/events"
	"ets/internal/platform/jobs"
	"ets/internal/platform/logging"
	"ets/internal/platform/metrics"
	"ets/internal/transport/http/api"
	"ets/internal/transport/http/middleware"
	"ets/internal/transport/http/shared"
)

// Directory resolves employee names for reports.
type Directory interface {
	Get(ctx context.Context, id string) (employee.Employee, error)
}

type Handler struct {
	Service   *attendance.Service
	Directory Directory
	Perms     middleware.PermissionStore
	Audit     audit.Recorder
	Jobs      *jobs.Service
	Events    events.Publisher
	Metrics   *metrics.Collector
}

func NewHandler(service *attendance.Service, directory Directory, perms middleware.PermissionStore, auditSvc audit.Recorder, jobsSvc *jobs.Service, publisher events.Publisher, collector *metrics.Collector) *Handler {
	if publisher == nil {
		publisher = events.Noop()
	}
	return &Handler{Service: service, Directory: directory, Perms: perms, Audit: auditSvc, Jobs: jobsSvc, Events: publisher, Metrics: collector}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/attendance", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermAttendanceWrite, h.Perms)).Post("/clock-in", h.handleClockIn)
		r.With(middleware.RequirePermission(auth.PermAttendanceWrite, h.Perms)).Post("/clock-out", h.handleClockOut)
		r.With(middleware.RequirePermission(auth.PermAttendanceRead, h.Perms)).Get("/today", h.handleToday)
		r.With(middleware.RequirePermission(auth.PermAttendanceRead, h.Perms)).Get("/me", h.handleMyMonth)
		r.With(middleware.RequirePermission(auth.PermAttendanceRead, h.Perms)).Get("/me/export", h.handleMyExport)
		r.With(middleware.RequirePermission(auth.PermAttendanceAdmin, h.Perms)).Get("/", h.handleRoster)
		r.With(middleware.RequirePermission(auth.PermAttendanceAdmin, h.Perms)).Get("/dashboard", h.handleDashboard)
		r.With(middleware.RequirePermission(auth.PermAttendanceAdmin, h.Perms)).Get("/employees/{employeeID}", h.handleEmployeeMonth)
		r.With(middleware.RequirePermission(auth.PermAttendanceAdmin, h.Perms)).Get("/employees/{employeeID}/export", h.handleEmployeeExport)
	})
}

type clockInPayload struct {
	WorkingFrom string `json:"workingFrom"`
}

var workingFromOptions = []string{"Office", "Home", "Remote", "Client Site"}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, attendance.ErrAlreadyClockedIn):
		api.Fail(w, http.StatusConflict, "already_clocked_in", err.Error(), reqID)
	case errors.Is(err, attendance.ErrNotClockedIn):
		api.Fail(w, http.StatusNotFound, "not_clocked_in", err.Error(), reqID)
	case errors.Is(err, attendance.ErrInvalidInterval):
		api.Fail(w, http.StatusBadRequest, "invalid_interval", err.Error(), reqID)
	case errors.Is(err, attendance.ErrInvalidInput):
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), reqID)
	case errors.Is(err, attendance.ErrNotFound), errors.Is(err, employee.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	default:
		logging.From(r.Context()).Error().Err(err).Msg("attendance request failed")
		api.Fail(w, http.StatusInternalServerError, "attendance_failed", "attendance request failed", reqID)
	}
}

func (h *Handler) handleClockIn(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload clockInPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if strings.TrimSpace(payload.WorkingFrom) == "" {
		payload.WorkingFrom = "Office"
	}
	v := shared.NewValidator()
	v.Enum("workingFrom", payload.WorkingFrom, workingFromOptions, "must be one of Office, Home, Remote, Client Site")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	now := h.Service.Now()
	rec, err := h.Service.ClockIn(r.Context(), attendance.ClockInRequest{
		EmployeeID:  user.UserID,
		Date:        h.Service.Policy.Date(now),
		WorkingFrom: payload.WorkingFrom,
		ClientIP:    shared.ClientIP(r),
		At:          now,
	})
	if err != nil {
		if errors.Is(err, attendance.ErrAlreadyClockedIn) {
			h.Metrics.Inc(metrics.Conflicts)
		}
		writeError(w, r, err)
		return
	}

	h.Metrics.Inc(metrics.ClockIns)
	shared.RecordAudit(r, h.Audit, user.UserID, "attendance.clock_in", "timesheet", rec.ID, nil, rec)
	api.Created(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleClockOut(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	now := h.Service.Now()
	rec, err := h.Service.ClockOut(r.Context(), user.UserID, h.Service.Policy.Date(now), now)
	if err != nil {
		if errors.Is(err, attendance.ErrNotClockedIn) {
			h.Metrics.Inc(metrics.Conflicts)
		}
		writeError(w, r, err)
		return
	}

	h.Metrics.Inc(metrics.ClockOuts)
	shared.RecordAudit(r, h.Audit, user.UserID, "attendance.clock_out", "timesheet", rec.ID, nil, rec)
	h.publish(events.Event{Type: events.TypeClockedOut, EmployeeID: user.UserID, OccurredAt: now, Payload: rec})
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) publish(evt events.Event) {
	if h.Jobs == nil {
		return
	}
	h.Jobs.Enqueue(jobs.JobPublishEvent, func(ctx context.Context) (any, error) {
		return map[string]string{"type": evt.Type}, h.Events.Publish(ctx, evt)
	})
}

func (h *Handler) handleToday(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	rec, found, err := h.Service.Current(r.Context(), user.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := map[string]any{
		"date":       h.Service.Today().Format("2006-01-02"),
		"clockedIn":  found,
		"clockedOut": found && !rec.Open(),
	}
	if found {
		out["record"] = rec
	}
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) month(w http.ResponseWriter, r *http.Request, employeeID string) (attendance.MonthReport, bool) {
	v := shared.NewValidator()
	month, _ := v.Month("month", r.URL.Query().Get("month"), h.Service.Today())
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return attendance.MonthReport{}, false
	}
	report, err := h.Service.Month(r.Context(), employeeID, month)
	if err != nil {
		writeError(w, r, err)
		return attendance.MonthReport{}, false
	}
	return report, true
}

func (h *Handler) handleMyMonth(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	if report, ok := h.month(w, r, user.UserID); ok {
		api.Success(w, report, middleware.GetRequestID(r.Context()))
	}
}

func (h *Handler) handleEmployeeMonth(w http.ResponseWriter, r *http.Request) {
	if report, ok := h.month(w, r, chi.URLParam(r, "employeeID")); ok {
		api.Success(w, report, middleware.GetRequestID(r.Context()))
	}
}

func (h *Handler) handleMyExport(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	h.export(w, r, user.UserID)
}

func (h *Handler) handleEmployeeExport(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, chi.URLParam(r, "employeeID"))
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request, employeeID string) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "xlsx" && format != "pdf" {
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "format", Reason: "must be csv, xlsx or pdf"}})
		return
	}

	emp, err := h.Directory.Get(r.Context(), employeeID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, ok := h.month(w, r, employeeID)
	if !ok {
		return
	}

	filename := fmt.Sprintf("attendance-%s.%s", report.Month, format)
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	switch format {
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		err = h.Service.Policy.WriteXLSX(w, report, emp.Name)
	case "pdf":
		w.Header().Set("Content-Type", "application/pdf")
		err = h.Service.Policy.WritePDF(w, report, emp.Name)
	default:
		w.Header().Set("Content-Type", "text/csv")
		err = h.Service.Policy.WriteCSV(w, report)
	}
	if err != nil {
		logging.From(r.Context()).Warn().Err(err).Str("format", format).Msg("attendance export failed")
	}
}

// day reads ?date=YYYY-MM-DD, defaulting to today in the policy location.
func (h *Handler) day(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return h.Service.Today(), true
	}
	parsed, err := shared.ParseDate(raw)
	if err != nil {
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "date", Reason: "must be a valid date in YYYY-MM-DD format"}})
		return time.Time{}, false
	}
	return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC), true
}

func (h *Handler) handleRoster(w http.ResponseWriter, r *http.Request) {
	day, ok := h.day(w, r)
	if !ok {
		return
	}
	entries, err := h.Service.Roster(r.Context(), day)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, map[string]any{"date": day.Format("2006-01-02"), "entries": entries}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	day, ok := h.day(w, r)
	if !ok {
		return
	}
	dash, err := h.Service.Dashboard(r.Context(), day)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, dash, middleware.GetRequestID(r.Context()))
}
