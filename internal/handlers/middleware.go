package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jeffleon2/draftea-checkout-service/internal/security"
)

const AdminTokenHeader = "X-Admin-Token"

type AccessValidator interface {
	ValidateAccessToken(token string) bool
}

// SecurityHeaders sets the content security policy and CORS headers on every response.
func SecurityHeaders(allowOrigin string) gin.HandlerFunc {
	csp := security.GetCSPHeader()
	return func(c *gin.Context) {
		c.Header("Content-Security-Policy", csp)
		c.Header("X-Content-Type-Options", "nosniff")
		if allowOrigin != "" {
			c.Header("Access-Control-Allow-Origin", allowOrigin)
			c.Header("Access-Control-Allow-Headers", "Content-Type, "+AdminTokenHeader+", "+SignatureHeader)
			c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// AdminAuth rejects requests whose X-Admin-Token does not match the configured access token.
func AdminAuth(v AccessValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !v.ValidateAccessToken(c.GetHeader(AdminTokenHeader)) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
