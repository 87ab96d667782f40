package leavehandler

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"leavehub/internal/domain/audit"
	"leavehub/internal/domain/auth"
	"leavehub/internal/domain/leave"
	"leavehub/internal/domain/org"
	"leavehub/internal/platform/report"
	"leavehub/internal/transport/http/api"
	"leavehub/internal/transport/http/middleware"
	"leavehub/internal/transport/http/shared"
)

type Handler struct {
	Service *leave.Service
	Org     *org.Store
	Audit   *audit.Recorder
}

func NewHandler(service *leave.Service, orgStore *org.Store, auditRec *audit.Recorder) *Handler {
	return &Handler{Service: service, Org: orgStore, Audit: auditRec}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave", func(r chi.Router) {
		r.Get("/types", h.handleListTypes)
		r.Post("/types", h.handleCreateType)
		r.Get("/types/{typeID}", h.handleGetType)
		r.Put("/types/{typeID}", h.handleUpdateType)
		r.Get("/balances", h.handleListBalances)
		r.Post("/balances/adjust", h.handleAdjustBalance)
		r.Post("/accounts/ensure", h.handleEnsureAccounts)
		r.Get("/requests", h.handleListRequests)
		r.Post("/requests", h.handleSubmitRequest)
		r.Get("/requests/{requestID}", h.handleGetRequest)
		r.Post("/requests/{requestID}/approve", h.handleApprove)
		r.Post("/requests/{requestID}/reject", h.handleReject)
		r.Post("/requests/{requestID}/cancel", h.handleCancel)
		r.Get("/reports/balances", h.handleReportBalances)
		r.Get("/reports/balances/export", h.handleReportExport)
	})
}

// actor resolves the caller's org-graph position. Unauthenticated or unknown
// callers get a zero Actor and ok=false after the response is written.
func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (org.Actor, bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return org.Actor{}, false
	}
	actor, err := h.Org.ActorByID(r.Context(), user.UserID)
	if err != nil {
		if errors.Is(err, org.ErrActorNotFound) {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
			return org.Actor{}, false
		}
		api.ServerError(w, "actor_lookup_failed", "failed to resolve caller", middleware.GetRequestID(r.Context()))
		return org.Actor{}, false
	}
	return actor, true
}

func (h *Handler) failFromError(w http.ResponseWriter, r *http.Request, err error, fallbackCode, fallbackMessage string) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, leave.ErrInvalidRange):
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid date or half-day range", reqID)
	case errors.Is(err, leave.ErrInvalidArgument):
		api.Fail(w, http.StatusBadRequest, "invalid_argument", "missing or invalid request field", reqID)
	case errors.Is(err, leave.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "not permitted", reqID)
	case errors.Is(err, leave.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "leave request not found", reqID)
	case errors.Is(err, leave.ErrNoAllocation):
		api.Fail(w, http.StatusUnprocessableEntity, "no_allocation", "no leave allocation for this type", reqID)
	case errors.Is(err, leave.ErrInsufficientBalance):
		api.Fail(w, http.StatusUnprocessableEntity, "insufficient_balance", "insufficient leave balance", reqID)
	case errors.Is(err, leave.ErrOverlappingRequest):
		api.Fail(w, http.StatusUnprocessableEntity, "overlapping_request", "an overlapping request already exists", reqID)
	case errors.Is(err, leave.ErrInvalidTransition):
		api.Fail(w, http.StatusConflict, "invalid_transition", "request is not in a transitionable state", reqID)
	case errors.Is(err, leave.ErrConflictRetryable):
		api.Fail(w, http.StatusConflict, "conflict_retry", "conflicting update, please retry", reqID)
	default:
		api.ServerError(w, fallbackCode, fallbackMessage, reqID)
	}
}

func isAdminOrHR(role auth.Role) bool {
	return role == auth.RoleAdmin || role == auth.RoleHR
}

func (h *Handler) handleListTypes(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	includeInactive := isAdminOrHR(actor.Role) && r.URL.Query().Get("includeInactive") == "true"
	types, err := h.Service.Store.ListTypes(r.Context(), includeInactive)
	if err != nil {
		api.ServerError(w, "leave_types_failed", "failed to list leave types", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, types, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateType(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	if !isAdminOrHR(actor.Role) {
		api.Fail(w, http.StatusForbidden, "forbidden", "admin or hr role required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload leave.LeaveType
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if strings.TrimSpace(payload.Name) == "" || strings.TrimSpace(payload.Code) == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "name and code required", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.DefaultDaysPerYear.IsNegative() {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "default days must not be negative", middleware.GetRequestID(r.Context()))
		return
	}

	id, err := h.Service.Store.CreateType(r.Context(), payload)
	if err != nil {
		api.ServerError(w, "leave_type_create_failed", "failed to create leave type", middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetType(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.actor(w, r); !ok {
		return
	}
	leaveType, err := h.Service.Store.TypeByID(r.Context(), chi.URLParam(r, "typeID"))
	if err != nil {
		if errors.Is(err, leave.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "leave type not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.ServerError(w, "leave_type_failed", "failed to load leave type", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, leaveType, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateType(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	if !isAdminOrHR(actor.Role) {
		api.Fail(w, http.StatusForbidden, "forbidden", "admin or hr role required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload leave.LeaveType
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	typeID := chi.URLParam(r, "typeID")
	if err := h.Service.Store.UpdateType(r.Context(), typeID, payload); err != nil {
		if errors.Is(err, leave.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "leave type not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.ServerError(w, "leave_type_update_failed", "failed to update leave type", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "updated"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListBalances(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	year := time.Now().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			year = parsed
		}
	}

	accounts, err := h.Service.Balances(r.Context(), actor, r.URL.Query().Get("userId"), year)
	if err != nil {
		h.failFromError(w, r, err, "leave_balances_failed", "failed to list balances")
		return
	}
	api.Success(w, leave.WithBalances(accounts), middleware.GetRequestID(r.Context()))
}

type adjustPayload struct {
	UserID      string           `json:"userId"`
	LeaveTypeID string           `json:"leaveTypeId"`
	Year        int              `json:"year"`
	Allocated   *decimal.Decimal `json:"allocated,omitempty"`
	Adjusted    *decimal.Decimal `json:"adjusted,omitempty"`
	Notes       *string          `json:"notes,omitempty"`
}

func (h *Handler) handleAdjustBalance(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	if !isAdminOrHR(actor.Role) {
		api.Fail(w, http.StatusForbidden, "forbidden", "admin or hr role required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload adjustPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.UserID == "" || payload.LeaveTypeID == "" || payload.Year == 0 {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "userId, leaveTypeId and year required", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.Allocated == nil && payload.Adjusted == nil && payload.Notes == nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "nothing to adjust", middleware.GetRequestID(r.Context()))
		return
	}

	store := h.Service.Store
	if payload.Allocated != nil {
		if err := store.SetAllocated(r.Context(), payload.UserID, payload.LeaveTypeID, payload.Year, *payload.Allocated); err != nil {
			h.failFromError(w, r, err, "leave_adjust_failed", "failed to adjust balance")
			return
		}
	}
	if payload.Adjusted != nil {
		if err := store.SetAdjusted(r.Context(), payload.UserID, payload.LeaveTypeID, payload.Year, *payload.Adjusted); err != nil {
			h.failFromError(w, r, err, "leave_adjust_failed", "failed to adjust balance")
			return
		}
	}
	if payload.Notes != nil {
		if err := store.SetNotes(r.Context(), payload.UserID, payload.LeaveTypeID, payload.Year, *payload.Notes); err != nil {
			h.failFromError(w, r, err, "leave_adjust_failed", "failed to adjust balance")
			return
		}
	}
	api.Success(w, map[string]string{"status": "adjusted"}, middleware.GetRequestID(r.Context()))
}

type ensurePayload struct {
	UserID string `json:"userId"`
	Year   int    `json:"year"`
}

func (h *Handler) handleEnsureAccounts(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	if !isAdminOrHR(actor.Role) {
		api.Fail(w, http.StatusForbidden, "forbidden", "admin or hr role required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload ensurePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.UserID == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "userId required", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.Year == 0 {
		payload.Year = time.Now().Year()
	}

	created, err := h.Service.Store.EnsureAccounts(r.Context(), payload.UserID, payload.Year)
	if err != nil {
		api.ServerError(w, "accounts_ensure_failed", "failed to ensure accounts", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]int{"created": created}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	if mode := r.URL.Query().Get("mode"); mode != "" {
		requests, err := h.Service.PeerLeaves(r.Context(), actor, mode)
		if err != nil {
			h.failFromError(w, r, err, "leave_requests_failed", "failed to list requests")
			return
		}
		api.Success(w, map[string]any{"requests": requests, "scope": mode}, middleware.GetRequestID(r.Context()))
		return
	}

	page := shared.ParsePagination(r, 100, 500)
	result, err := h.Service.List(r.Context(), actor, leave.RequestFilter{
		Status: r.URL.Query().Get("status"),
		UserID: r.URL.Query().Get("userId"),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		h.failFromError(w, r, err, "leave_requests_failed", "failed to list requests")
		return
	}
	api.Success(w, map[string]any{"requests": result.Requests, "scope": result.ScopeLabel}, middleware.GetRequestID(r.Context()))
}

type submitPayload struct {
	LeaveTypeID string `json:"leaveTypeId"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	IsHalfDay   bool   `json:"isHalfDay"`
	HalfDayType string `json:"halfDayType"`
	Reason      string `json:"reason"`
}

func (h *Handler) handleSubmitRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var payload submitPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.LeaveTypeID == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "leave type required", middleware.GetRequestID(r.Context()))
		return
	}

	startDate, err := shared.ParseDate(payload.StartDate)
	if err != nil || startDate.IsZero() {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid start date", middleware.GetRequestID(r.Context()))
		return
	}
	endDate, err := shared.ParseDate(payload.EndDate)
	if err != nil || endDate.IsZero() {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid end date", middleware.GetRequestID(r.Context()))
		return
	}

	created, err := h.Service.Submit(r.Context(), actor.ID, leave.SubmitCommand{
		LeaveTypeID: payload.LeaveTypeID,
		StartDate:   startDate,
		EndDate:     endDate,
		IsHalfDay:   payload.IsHalfDay,
		HalfDayType: payload.HalfDayType,
		Reason:      payload.Reason,
	})
	if err != nil {
		h.failFromError(w, r, err, "leave_request_failed", "failed to create request")
		return
	}
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	req, err := h.Service.GetVisible(r.Context(), actor, chi.URLParam(r, "requestID"))
	if err != nil {
		h.failFromError(w, r, err, "leave_request_failed", "failed to load request")
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

type decisionPayload struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, leave.StatusApproved, audit.ActionApprove)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, leave.StatusRejected, audit.ActionReject)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, leave.StatusCancelled, audit.ActionCancel)
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request, newStatus, auditAction string) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var payload decisionPayload
	if r.Body != nil {
		// reason is optional for approve/cancel; malformed bodies are ignored
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}

	requestID := chi.URLParam(r, "requestID")
	updated, err := h.Service.Transition(r.Context(), actor, requestID, newStatus, payload.Reason)
	if err != nil {
		h.failFromError(w, r, err, "leave_transition_failed", "failed to update request")
		return
	}

	if err := h.Audit.Record(r.Context(), actor.ID, auditAction, audit.EntityLeaveRequest, updated.ID, map[string]any{
		"ownerId": updated.UserID,
		"status":  updated.Status,
		"days":    updated.Days,
	}); err != nil {
		slog.Warn("audit record failed", "action", auditAction, "requestId", updated.ID, "err", err)
	}

	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReportBalances(w http.ResponseWriter, r *http.Request) {
	views, year, ok := h.loadReport(w, r)
	if !ok {
		return
	}
	api.Success(w, map[string]any{"year": year, "balances": views}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReportExport(w http.ResponseWriter, r *http.Request) {
	views, year, ok := h.loadReport(w, r)
	if !ok {
		return
	}

	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "csv"
	}

	if format == "pdf" {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", "attachment; filename=leave-balances.pdf")
		if err := report.WriteBalancePDF(w, year, views); err != nil {
			slog.Warn("balance report pdf write failed", "err", err)
		}
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=leave-balances.csv")
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"user_id", "leave_type_id", "year", "allocated", "carried_over", "adjusted", "used", "balance"}); err != nil {
		slog.Warn("balance report csv header write failed", "err", err)
	}
	for _, v := range views {
		if err := writer.Write([]string{
			v.UserID, v.LeaveTypeID, strconv.Itoa(v.Year),
			v.Allocated.String(), v.CarriedOver.String(), v.Adjusted.String(), v.Used.String(), v.Balance.String(),
		}); err != nil {
			slog.Warn("balance report csv row write failed", "err", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		slog.Warn("balance report csv flush failed", "err", err)
	}
}

func (h *Handler) loadReport(w http.ResponseWriter, r *http.Request) ([]leave.BalanceView, int, bool) {
	actor, ok := h.actor(w, r)
	if !ok {
		return nil, 0, false
	}
	if !isAdminOrHR(actor.Role) {
		api.Fail(w, http.StatusForbidden, "forbidden", "admin or hr role required", middleware.GetRequestID(r.Context()))
		return nil, 0, false
	}

	year := time.Now().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			year = parsed
		}
	}

	accounts, err := h.Service.Store.AllAccounts(r.Context(), year)
	if err != nil {
		api.ServerError(w, "report_failed", "failed to load report", middleware.GetRequestID(r.Context()))
		return nil, 0, false
	}
	return leave.WithBalances(accounts), year, true
}
