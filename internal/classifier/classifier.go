package classifier

import (
	"context"
	"sync"
	"time"

	"github.com/jeffleon2/draftea-checkout-service/internal/models"
	"github.com/jeffleon2/draftea-checkout-service/internal/retry"
	"github.com/sirupsen/logrus"
)

const (
	DefaultHistoryLimit  = 1000
	DefaultReportTimeout = 5 * time.Second
)

// Reporter forwards classified errors to an external sink.
type Reporter interface {
	Report(ctx context.Context, record models.ErrorRecord) error
}

// Classifier normalizes failures into ErrorRecords and keeps a bounded history of them.
type Classifier struct {
	mu      sync.Mutex
	history []models.ErrorRecord
	limit   int

	reporter      Reporter
	reportTimeout time.Duration
	onClassified  func(models.ErrorRecord)
	now           func() time.Time
	wg            sync.WaitGroup
}

type Option func(*Classifier)

func WithReporter(r Reporter) Option {
	return func(c *Classifier) { c.reporter = r }
}

func WithReportTimeout(d time.Duration) Option {
	return func(c *Classifier) {
		if d > 0 {
			c.reportTimeout = d
		}
	}
}

func WithHistoryLimit(limit int) Option {
	return func(c *Classifier) {
		if limit > 0 {
			c.limit = limit
		}
	}
}

func WithObserver(fn func(models.ErrorRecord)) Option {
	return func(c *Classifier) { c.onClassified = fn }
}

func WithClock(now func() time.Time) Option {
	return func(c *Classifier) { c.now = now }
}

func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{
		limit:         DefaultHistoryLimit,
		reportTimeout: DefaultReportTimeout,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HandleError classifies err, stores the record and reports it when severity is at least medium.
// It accepts errors, strings, *http.Response, map payloads and arbitrary values.
func (c *Classifier) HandleError(err any, meta map[string]any) models.ErrorRecord {
	record := classify(err)
	record.Timestamp = c.now()
	if len(meta) > 0 {
		record.Context = meta
	}
	if record.UserMessage == "" {
		record.UserMessage = userMessageFor(record.Type)
	}

	c.mu.Lock()
	c.history = append(c.history, record)
	if over := len(c.history) - c.limit; over > 0 {
		c.history = append(c.history[:0:0], c.history[over:]...)
	}
	c.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"type":      record.Type,
		"severity":  record.Severity.String(),
		"retryable": record.Retryable,
	}).Errorf("classified error: %s", record.Message)

	if c.onClassified != nil {
		c.onClassified(record)
	}
	if record.Severity >= models.SeverityMedium && c.reporter != nil {
		c.wg.Add(1)
		go c.report(record)
	}
	return record
}

func (c *Classifier) report(record models.ErrorRecord) {
	defer c.wg.Done()
	ctx, cancel := context.WithTimeout(context.Background(), c.reportTimeout)
	defer cancel()
	if err := c.reporter.Report(ctx, record); err != nil {
		logrus.Errorf("failed to report error record: %v", err)
	}
}

// Close waits for in-flight reports.
func (c *Classifier) Close() {
	c.wg.Wait()
}

type ErrorStats struct {
	Total      int                      `json:"total"`
	ByType     map[models.ErrorType]int `json:"by_type"`
	BySeverity map[string]int           `json:"by_severity"`
	LastHour   int                      `json:"last_hour"`
}

func (c *Classifier) GetErrorStats() ErrorStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := ErrorStats{
		Total:      len(c.history),
		ByType:     make(map[models.ErrorType]int),
		BySeverity: make(map[string]int),
	}
	cutoff := c.now().Add(-time.Hour)
	for _, r := range c.history {
		stats.ByType[r.Type]++
		stats.BySeverity[r.Severity.String()]++
		if r.Timestamp.After(cutoff) {
			stats.LastHour++
		}
	}
	return stats
}

// GetRecentErrors returns up to limit records, most recent first. Zero or less means all.
func (c *Classifier) GetRecentErrors(limit int) []models.ErrorRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.history)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]models.ErrorRecord, 0, limit)
	for i := n - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, c.history[i])
	}
	return out
}

func (c *Classifier) ClearErrors() {
	c.mu.Lock()
	c.history = nil
	c.mu.Unlock()
}

// CreateRetryFunction binds fn to a fresh retry orchestrator driven by this classifier.
func (c *Classifier) CreateRetryFunction(fn func(ctx context.Context) error, meta map[string]any, opts ...retry.Option) func(ctx context.Context) error {
	orchestrator := retry.New(c, opts...)
	return func(ctx context.Context) error {
		return orchestrator.Run(ctx, fn, meta)
	}
}
