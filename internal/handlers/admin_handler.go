package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jeffleon2/draftea-checkout-service/internal/classifier"
	"github.com/jeffleon2/draftea-checkout-service/internal/ledger"
	"github.com/jeffleon2/draftea-checkout-service/internal/models"
	"github.com/jeffleon2/draftea-checkout-service/internal/models/dto"
	"github.com/jeffleon2/draftea-checkout-service/internal/security"
)

type TransactionLedger interface {
	GetTransactions(ctx context.Context, filter *ledger.Filter) []models.Transaction
	GetTransactionByID(ctx context.Context, id string) (models.Transaction, error)
	GetTransactionStats(ctx context.Context) ledger.Stats
	DetectSuspiciousTransactions(ctx context.Context) []models.Transaction
	ExportTransactions(ctx context.Context, format string) (string, error)
	OverrideTransactionStatus(ctx context.Context, id string, status models.TransactionStatus, reason string) error
	ClearAllTransactions(ctx context.Context) error
}

type ErrorLog interface {
	GetErrorStats() classifier.ErrorStats
	GetRecentErrors(limit int) []models.ErrorRecord
}

type ActivityLog interface {
	GetSuspiciousActivities(limit int) []security.SuspiciousActivity
}

type AdminHandler struct {
	Ledger     TransactionLedger
	Errors     ErrorLog
	Activities ActivityLog
}

func NewAdminHandler(l TransactionLedger, errs ErrorLog, activities ActivityLog) *AdminHandler {
	return &AdminHandler{Ledger: l, Errors: errs, Activities: activities}
}

// GET /api/admin/transactions?status=&date_from=&date_to=&min_amount=&max_amount=
func (h *AdminHandler) ListTransactions(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.Ledger.GetTransactions(c.Request.Context(), filter))
}

// GET /api/admin/transactions/:id
func (h *AdminHandler) GetTransaction(c *gin.Context) {
	tx, err := h.Ledger.GetTransactionByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, tx)
}

// GET /api/admin/transactions/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.Ledger.GetTransactionStats(c.Request.Context()))
}

// GET /api/admin/transactions/suspicious
func (h *AdminHandler) Suspicious(c *gin.Context) {
	c.JSON(http.StatusOK, h.Ledger.DetectSuspiciousTransactions(c.Request.Context()))
}

// GET /api/admin/transactions/export?format=csv|json
func (h *AdminHandler) Export(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", ledger.FormatJSON))
	out, err := h.Ledger.ExportTransactions(c.Request.Context(), format)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	contentType := "application/json"
	if format == ledger.FormatCSV {
		contentType = "text/csv; charset=utf-8"
		c.Header("Content-Disposition", `attachment; filename="transactions.csv"`)
	}
	c.Data(http.StatusOK, contentType, []byte(out))
}

// POST /api/admin/transactions/:id/override
func (h *AdminHandler) Override(c *gin.Context) {
	var req dto.StatusOverride
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	id := c.Param("id")
	err := h.Ledger.OverrideTransactionStatus(c.Request.Context(), id, models.TransactionStatus(strings.ToUpper(req.Status)), req.Reason)
	switch {
	case errors.Is(err, ledger.ErrTransactionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case errors.Is(err, ledger.ErrInvalidStatus), errors.Is(err, ledger.ErrReasonRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	tx, err := h.Ledger.GetTransactionByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, tx)
}

// DELETE /api/admin/transactions
func (h *AdminHandler) Clear(c *gin.Context) {
	if err := h.Ledger.ClearAllTransactions(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/admin/errors/stats
func (h *AdminHandler) ErrorStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.Errors.GetErrorStats())
}

// GET /api/admin/errors/recent?limit=
func (h *AdminHandler) RecentErrors(c *gin.Context) {
	c.JSON(http.StatusOK, h.Errors.GetRecentErrors(queryLimit(c)))
}

// GET /api/admin/security/activities?limit=
func (h *AdminHandler) SuspiciousActivities(c *gin.Context) {
	c.JSON(http.StatusOK, h.Activities.GetSuspiciousActivities(queryLimit(c)))
}

func queryLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 0 {
		return 50
	}
	return limit
}

func parseFilter(c *gin.Context) (*ledger.Filter, error) {
	var f ledger.Filter
	set := false

	if s := c.Query("status"); s != "" {
		f.Status = models.TransactionStatus(strings.ToUpper(s))
		if !f.Status.IsValid() {
			return nil, fmt.Errorf("invalid status %q", s)
		}
		set = true
	}
	for _, d := range []struct {
		key      string
		dst      **time.Time
		endOfDay bool
	}{{"date_from", &f.DateFrom, false}, {"date_to", &f.DateTo, true}} {
		if v := c.Query(d.key); v != "" {
			t, err := parseDate(v, d.endOfDay)
			if err != nil {
				return nil, fmt.Errorf("invalid %s: %w", d.key, err)
			}
			*d.dst = &t
			set = true
		}
	}
	for _, a := range []struct {
		key string
		dst **float64
	}{{"min_amount", &f.MinAmount}, {"max_amount", &f.MaxAmount}} {
		if v := c.Query(a.key); v != "" {
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid %s: %w", a.key, err)
			}
			*a.dst = &n
			set = true
		}
	}

	if !set {
		return nil, nil
	}
	return &f, nil
}

// parseDate accepts RFC3339 or a bare date. A bare upper bound covers the whole day.
func parseDate(v string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
