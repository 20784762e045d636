package models

import (
	"fmt"
	"time"
)

type ErrorType string
type Severity int

const (
	ErrorValidation     ErrorType = "VALIDATION"
	ErrorNetwork        ErrorType = "NETWORK"
	ErrorPayment        ErrorType = "PAYMENT"
	ErrorAuthentication ErrorType = "AUTHENTICATION"
	ErrorAuthorization  ErrorType = "AUTHORIZATION"
	ErrorRateLimit      ErrorType = "RATE_LIMIT"
	ErrorServer         ErrorType = "SERVER"
	ErrorClient         ErrorType = "CLIENT"
	ErrorUnknown        ErrorType = "UNKNOWN"
)

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

var severityNames = map[Severity]string{
	SeverityLow:      "low",
	SeverityMedium:   "medium",
	SeverityHigh:     "high",
	SeverityCritical: "critical",
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	for sev, name := range severityNames {
		if name == string(text) {
			*s = sev
			return nil
		}
	}
	return fmt.Errorf("unknown severity: %s", text)
}

type ErrorRecord struct {
	Type        ErrorType      `json:"type"`
	Severity    Severity       `json:"severity"`
	Message     string         `json:"message"`
	UserMessage string         `json:"user_message"`
	Code        string         `json:"code,omitempty"`
	Details     any            `json:"details,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
	Context     map[string]any `json:"context,omitempty"`
	Retryable   bool           `json:"retryable"`
	RetryAfter  *int           `json:"retry_after,omitempty"`
}

// Error lets a classified record travel through error returns.
func (r ErrorRecord) Error() string {
	return fmt.Sprintf("%s: %s", r.Type, r.Message)
}

// AutoDismiss reports whether a UI may clear the record on its own after a short delay.
func (r ErrorRecord) AutoDismiss() bool {
	return r.Severity == SeverityLow
}

func (r ErrorRecord) CanRetry(retryCount, maxRetries int) bool {
	return r.Retryable && retryCount < maxRetries
}

// AppError is raised by code that already knows how its failure should be classified.
// Unset optional fields fall back to Unknown/Medium/retryable.
type AppError struct {
	Type        ErrorType
	Severity    *Severity
	Message     string
	UserMessage string
	Code        string
	Retryable   *bool
	RetryAfter  *int
	Err         error
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Type)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Type:      ErrorValidation,
		Severity:  SeverityPtr(SeverityLow),
		Message:   message,
		Retryable: BoolPtr(false),
	}
}

func SeverityPtr(s Severity) *Severity { return &s }
func BoolPtr(b bool) *bool             { return &b }
func IntPtr(i int) *int                { return &i }
