package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jeffleon2/draftea-checkout-service/internal/gateway"
	"github.com/jeffleon2/draftea-checkout-service/internal/models"
	"github.com/jeffleon2/draftea-checkout-service/internal/models/dto"
)

type PaymentProcessor interface {
	ProcessPayment(ctx context.Context, form models.FormData) gateway.PaymentResult
}

type TokenIssuer interface {
	GenerateSessionToken() string
	ValidateSessionToken(token string) bool
	GenerateCSRFToken(sessionToken string) string
	ValidateCSRFToken(token, sessionToken string) bool
}

type CheckoutHandler struct {
	Payments    PaymentProcessor
	Tokens      TokenIssuer
	RequireCSRF bool
}

func NewCheckoutHandler(p PaymentProcessor, tokens TokenIssuer, requireCSRF bool) *CheckoutHandler {
	return &CheckoutHandler{Payments: p, Tokens: tokens, RequireCSRF: requireCSRF}
}

// POST /api/checkout
func (h *CheckoutHandler) CreateCheckout(c *gin.Context) {
	var req dto.Checkout
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	req.Sanitize()

	if h.RequireCSRF && !(h.Tokens.ValidateSessionToken(req.SessionToken) &&
		h.Tokens.ValidateCSRFToken(req.CSRFToken, req.SessionToken)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid or expired csrf token"})
		return
	}

	result := h.Payments.ProcessPayment(c.Request.Context(), req.ToFormData())
	if result.Success {
		c.JSON(http.StatusCreated, result)
		return
	}
	if result.Error != nil && result.Error.RetryAfter != nil {
		c.Header("Retry-After", strconv.Itoa(*result.Error.RetryAfter))
	}
	c.JSON(failureStatus(result), result)
}

// GET /api/security/session
func (h *CheckoutHandler) IssueSession(c *gin.Context) {
	session := h.Tokens.GenerateSessionToken()
	c.JSON(http.StatusOK, gin.H{
		"session_token": session,
		"csrf_token":    h.Tokens.GenerateCSRFToken(session),
	})
}

// POST /api/security/csrf
func (h *CheckoutHandler) IssueCSRF(c *gin.Context) {
	var req dto.CSRFRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SessionToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_token is required"})
		return
	}
	if !h.Tokens.ValidateSessionToken(req.SessionToken) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"csrf_token": h.Tokens.GenerateCSRFToken(req.SessionToken)})
}

func failureStatus(result gateway.PaymentResult) int {
	if result.Error == nil {
		return http.StatusBadGateway
	}
	switch result.Error.Type {
	case models.ErrorValidation:
		return http.StatusBadRequest
	case models.ErrorRateLimit:
		return http.StatusTooManyRequests
	case models.ErrorPayment:
		return http.StatusPaymentRequired
	default:
		return http.StatusBadGateway
	}
}
