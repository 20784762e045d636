package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jeffleon2/draftea-checkout-service/internal/models"
)

// StatusError is implemented by errors that carry an HTTP status, such as processor API errors.
type StatusError interface {
	error
	HTTPStatus() int
	RetryAfterHeader() string
}

var userMessages = map[models.ErrorType]string{
	models.ErrorValidation:     "Please check the information you entered and try again.",
	models.ErrorNetwork:        "We could not reach the server. Please check your connection and try again.",
	models.ErrorPayment:        "Your payment could not be processed. Please try again or contact support.",
	models.ErrorAuthentication: "Your session has expired. Please sign in again.",
	models.ErrorAuthorization:  "You do not have permission to perform this action.",
	models.ErrorRateLimit:      "Too many attempts. Please wait a moment and try again.",
	models.ErrorServer:         "Our servers are having trouble right now. Please try again shortly.",
	models.ErrorClient:         "Something went wrong with your request. Please try again.",
	models.ErrorUnknown:        "An unexpected error occurred. Please try again.",
}

func userMessageFor(t models.ErrorType) string {
	if msg, ok := userMessages[t]; ok {
		return msg
	}
	return userMessages[models.ErrorUnknown]
}

func classify(raw any) models.ErrorRecord {
	switch v := raw.(type) {
	case nil:
		return unknown(raw, "unknown error")
	case string:
		return models.ErrorRecord{
			Type:        models.ErrorClient,
			Severity:    models.SeverityLow,
			Message:     v,
			UserMessage: v,
			Retryable:   true,
		}
	case models.ErrorRecord:
		return v
	case *http.Response:
		if v == nil {
			return unknown(raw, "nil response")
		}
		return fromStatus(v.StatusCode, v.Header.Get("Retry-After"), v.Status)
	case map[string]any:
		return fromMap(v)
	case error:
		return fromError(v)
	default:
		return unknown(raw, fmt.Sprintf("%v", raw))
	}
}

func fromError(err error) models.ErrorRecord {
	var app *models.AppError
	if errors.As(err, &app) {
		return fromAppError(app)
	}

	var status StatusError
	if errors.As(err, &status) {
		record := fromStatus(status.HTTPStatus(), status.RetryAfterHeader(), "")
		record.Message = err.Error()
		return record
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return models.ErrorRecord{
			Type:      models.ErrorNetwork,
			Severity:  models.SeverityMedium,
			Message:   err.Error(),
			Retryable: true,
		}
	}

	return fromMessage(err.Error())
}

// fromMessage is the heuristic for errors whose origin gives no structured hint.
func fromMessage(message string) models.ErrorRecord {
	lower := strings.ToLower(message)
	record := models.ErrorRecord{
		Type:      models.ErrorClient,
		Severity:  models.SeverityMedium,
		Message:   message,
		Retryable: true,
	}

	switch {
	case strings.Contains(lower, "network") || strings.Contains(lower, "fetch"):
		record.Type = models.ErrorNetwork
	case strings.Contains(lower, "validation") || strings.Contains(lower, "invalid"):
		record.Type = models.ErrorValidation
		record.Severity = models.SeverityLow
		record.Retryable = false
	case strings.Contains(lower, "payment") || strings.Contains(lower, "transaction"):
		record.Type = models.ErrorPayment
		record.Severity = models.SeverityHigh
	case strings.Contains(lower, "auth"):
		record.Type = models.ErrorAuthentication
		record.Severity = models.SeverityHigh
		record.Retryable = false
	case strings.Contains(lower, "rate limit") || strings.Contains(lower, "too many"):
		record.Type = models.ErrorRateLimit
	}
	return record
}

func fromStatus(status int, retryAfter, statusText string) models.ErrorRecord {
	message := fmt.Sprintf("HTTP %d", status)
	if statusText != "" {
		message = "HTTP " + statusText
	}
	record := models.ErrorRecord{
		Type:     models.ErrorClient,
		Severity: models.SeverityMedium,
		Message:  message,
		Code:     "HTTP_" + strconv.Itoa(status),
	}

	switch {
	case status == http.StatusUnauthorized:
		record.Type = models.ErrorAuthentication
		record.Severity = models.SeverityHigh
	case status == http.StatusForbidden:
		record.Type = models.ErrorAuthorization
		record.Severity = models.SeverityHigh
	case status == http.StatusTooManyRequests:
		record.Type = models.ErrorRateLimit
		record.Retryable = true
		if secs, ok := parseRetryAfter(retryAfter, time.Now()); ok {
			record.RetryAfter = models.IntPtr(secs)
		}
	case status >= 400 && status < 500:
		// 400, 404 and the remaining client errors share one verdict.
	case status >= 500:
		record.Type = models.ErrorServer
		record.Severity = models.SeverityHigh
		record.Retryable = true
	default:
		record.Type = models.ErrorUnknown
		record.Retryable = true
	}
	return record
}

// parseRetryAfter accepts both delta-seconds and HTTP-date forms.
func parseRetryAfter(value string, now time.Time) (int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(value); err == nil && secs >= 0 {
		return secs, true
	}
	if at, err := http.ParseTime(value); err == nil {
		secs := int(at.Sub(now).Round(time.Second) / time.Second)
		return max(secs, 0), true
	}
	return 0, false
}

func fromAppError(e *models.AppError) models.ErrorRecord {
	record := models.ErrorRecord{
		Type:        e.Type,
		Severity:    models.SeverityMedium,
		Message:     e.Error(),
		UserMessage: e.UserMessage,
		Code:        e.Code,
		RetryAfter:  e.RetryAfter,
	}
	if record.Type == "" {
		record.Type = models.ErrorUnknown
	}
	if e.Severity != nil {
		record.Severity = *e.Severity
	}
	if e.Retryable != nil {
		record.Retryable = *e.Retryable
	} else {
		record.Retryable = defaultRetryable(record.Type)
	}
	return record
}

// fromMap handles decoded JSON payloads crossing an untyped boundary.
func fromMap(m map[string]any) models.ErrorRecord {
	if t, ok := m["type"].(string); ok && t != "" {
		app := &models.AppError{Type: models.ErrorType(strings.ToUpper(t))}
		app.Message, _ = m["message"].(string)
		app.UserMessage, _ = firstString(m, "userMessage", "user_message")
		app.Code, _ = m["code"].(string)
		if s, ok := m["severity"].(string); ok {
			var sev models.Severity
			if err := sev.UnmarshalText([]byte(strings.ToLower(s))); err == nil {
				app.Severity = &sev
			}
		}
		if r, ok := m["retryable"].(bool); ok {
			app.Retryable = models.BoolPtr(r)
		}
		if secs, ok := numberField(m, "retryAfter", "retry_after"); ok {
			app.RetryAfter = models.IntPtr(secs)
		}
		record := fromAppError(app)
		if app.Message == "" {
			record.Message = string(record.Type)
		}
		return record
	}

	if resp, ok := m["response"].(map[string]any); ok {
		if status, ok := numberField(resp, "status"); ok {
			retryAfter := ""
			if headers, ok := resp["headers"].(map[string]any); ok {
				retryAfter, _ = firstString(headers, "retry-after", "Retry-After")
			}
			statusText, _ := resp["statusText"].(string)
			return fromStatus(status, retryAfter, statusText)
		}
	}

	if msg, ok := m["message"].(string); ok && msg != "" {
		return fromMessage(msg)
	}
	return unknown(m, "unrecognized error payload")
}

func defaultRetryable(t models.ErrorType) bool {
	return t != models.ErrorValidation && t != models.ErrorAuthentication
}

func unknown(raw any, message string) models.ErrorRecord {
	record := models.ErrorRecord{
		Type:      models.ErrorUnknown,
		Severity:  models.SeverityMedium,
		Message:   message,
		Retryable: true,
	}
	if raw != nil {
		if b, err := json.Marshal(raw); err == nil {
			record.Details = string(b)
		} else {
			record.Details = fmt.Sprintf("%#v", raw)
		}
	}
	return record
}

func firstString(m map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

func numberField(m map[string]any, keys ...string) (int, bool) {
	for _, k := range keys {
		switch n := m[k].(type) {
		case float64:
			return int(n), true
		case int:
			return n, true
		case json.Number:
			if i, err := n.Int64(); err == nil {
				return int(i), true
			}
		}
	}
	return 0, false
}
