package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"coursehub/internal/api/transactions"
	"coursehub/internal/stub/catalog"
	dErrors "coursehub/pkg/domain-errors"
	"coursehub/pkg/platform/httputil"
	authmw "coursehub/pkg/platform/middleware/auth"
	"coursehub/pkg/requestcontext"
)

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"version":   h.version,
		"timestamp": requestcontext.Now(r.Context()).Unix(),
	})
}

func (h *Handler) handleListCourses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := h.catalog.ListCourses(r.Context(), catalog.Query{
		Page:         atoi(q.Get("page")),
		PageSize:     atoi(q.Get("page_size")),
		DepartmentID: q.Get("department_id"),
		Semester:     q.Get("semester"),
		Status:       q.Get("status"),
		Search:       q.Get("search"),
	})
	httputil.WriteData(w, page)
}

func (h *Handler) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	course, err := h.catalog.GetCourse(r.Context(), chi.URLParam(r, "courseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteData(w, course)
}

func (h *Handler) handleUnreadMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	n := h.catalog.Unread(ctx, authmw.GetUserID(ctx)).Messages
	httputil.WriteData(w, map[string]int{"unread_count": n})
}

func (h *Handler) handleUnreadNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	n := h.catalog.Unread(ctx, authmw.GetUserID(ctx)).Notifications
	httputil.WriteData(w, map[string]int{"count": n})
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	acct, err := h.accounts.Lookup(ctx, authmw.GetUserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteData(w, transactions.Balance{
		StudentID:  acct.ID,
		Balance:    acct.Balance,
		DailyLimit: h.catalog.DailyLimit(),
	})
}

type rechargeRequest struct {
	StudentID string  `json:"student_id"`
	Amount    float64 `json:"amount"`
}

func (h *Handler) handleRecharge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	var req rechargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	if req.StudentID == "" || req.Amount <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "student_id and a positive amount are required"))
		return
	}

	balance, err := h.accounts.Credit(ctx, req.StudentID, req.Amount)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	tx := h.catalog.RecordRecharge(ctx, authmw.GetUserID(ctx), req.StudentID, req.Amount, requestcontext.Now(ctx))

	h.logger.InfoContext(ctx, "balance recharged",
		"request_id", requestID,
		"student_id", req.StudentID,
		"amount", req.Amount,
		"balance", balance,
		"transaction_id", tx.TransactionID,
	)
	httputil.WriteData(w, tx)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

