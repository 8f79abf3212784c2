package noticehandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ets/internal/domain/audit"
	"ets/internal/domain/auth"
	"ets/internal/domain/notice"
	"ets/internal/platform/logging"
	"ets/internal/transport/http/api"
	"ets/internal/transport/http/middleware"
	"ets/internal/transport/http/shared"
)

type Handler struct {
	Service *notice.Service
	Perms   middleware.PermissionStore
	Audit   audit.Recorder
}

func NewHandler(service *notice.Service, perms middleware.PermissionStore, auditSvc audit.Recorder) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/notices", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermNoticesRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermNoticesWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermNoticesRead, h.Perms)).Get("/{noticeID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermNoticesWrite, h.Perms)).Put("/{noticeID}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermNoticesWrite, h.Perms)).Delete("/{noticeID}", h.handleDelete)
	})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, notice.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, notice.ErrInvalidInput), errors.Is(err, notice.ErrInvalidType):
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), reqID)
	default:
		logging.From(r.Context()).Error().Err(err).Msg("notice request failed")
		api.Fail(w, http.StatusInternalServerError, "notice_failed", "notice request failed", reqID)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 50, 200)
	notices, total, err := h.Service.List(r.Context(), user.IsAdmin(), page.Limit, page.Offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, notices, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	n, err := h.Service.Get(r.Context(), chi.URLParam(r, "noticeID"), user.IsAdmin())
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, n, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload notice.Input
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if rejectInput(w, r, payload) {
		return
	}
	n, err := h.Service.Create(r.Context(), user.UserID, payload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user.UserID, "notice.create", "notice", n.ID, nil, n)
	api.Created(w, n, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	noticeID := chi.URLParam(r, "noticeID")
	var payload notice.Input
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if rejectInput(w, r, payload) {
		return
	}
	before, err := h.Service.Get(r.Context(), noticeID, true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	n, err := h.Service.Update(r.Context(), noticeID, payload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user.UserID, "notice.update", "notice", n.ID, before, n)
	api.Success(w, n, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	noticeID := chi.URLParam(r, "noticeID")
	before, err := h.Service.Get(r.Context(), noticeID, true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Service.Delete(r.Context(), noticeID); err != nil {
		writeError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user.UserID, "notice.delete", "notice", noticeID, before, nil)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func rejectInput(w http.ResponseWriter, r *http.Request, in notice.Input) bool {
	v := shared.NewValidator()
	v.Required("title", in.Title, "is required")
	v.MaxLen("title", in.Title, 200)
	v.Required("message", in.Message, "is required")
	v.MaxLen("message", in.Message, 5000)
	return v.Reject(w, middleware.GetRequestID(r.Context()))
}
