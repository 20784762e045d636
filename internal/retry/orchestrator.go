package retry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jeffleon2/draftea-checkout-service/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 2 * time.Second
)

// Classifier turns a failure into an ErrorRecord carrying the retry verdict.
type Classifier interface {
	HandleError(err any, meta map[string]any) models.ErrorRecord
}

type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// Orchestrator re-runs failed operations while the classifier says they are retryable.
// The attempt counter is shared by every Run on the same Orchestrator: success clears it,
// a terminal failure leaves it in place until Reset.
type Orchestrator struct {
	classifier Classifier
	policy     Policy
	sleep      func(ctx context.Context, d time.Duration) error
	onRetry    func(attempt, maxRetries int, record models.ErrorRecord)

	mu      sync.Mutex
	attempt int
	last    *models.ErrorRecord
}

type Option func(*Orchestrator)

func WithPolicy(p Policy) Option {
	return func(o *Orchestrator) {
		if p.MaxRetries >= 0 {
			o.policy.MaxRetries = p.MaxRetries
		}
		if p.BaseDelay > 0 {
			o.policy.BaseDelay = p.BaseDelay
		}
	}
}

// WithSleeper replaces the context-aware timer used between attempts.
func WithSleeper(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Orchestrator) { o.sleep = fn }
}

// WithRetryObserver is called before each wait with the attempt number about to run.
func WithRetryObserver(fn func(attempt, maxRetries int, record models.ErrorRecord)) Option {
	return func(o *Orchestrator) { o.onRetry = fn }
}

func New(classifier Classifier, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		classifier: classifier,
		policy:     Policy{MaxRetries: DefaultMaxRetries, BaseDelay: DefaultBaseDelay},
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes fn, retrying per the classifier's verdict. The original error is
// returned once the failure is not retryable or the budget is spent.
func (o *Orchestrator) Run(ctx context.Context, fn func(ctx context.Context) error, meta map[string]any) error {
	for {
		err := fn(ctx)
		if err == nil {
			o.Reset()
			return nil
		}

		record := o.classifier.HandleError(err, meta)

		o.mu.Lock()
		o.last = &record
		if !record.Retryable || o.attempt >= o.policy.MaxRetries {
			attempts := o.attempt
			o.mu.Unlock()
			logrus.WithFields(logrus.Fields{
				"type":      record.Type,
				"retryable": record.Retryable,
				"retries":   attempts,
			}).Warnf("giving up on operation: %v", err)
			return err
		}
		o.attempt++
		attempt := o.attempt
		o.mu.Unlock()

		delay := o.policy.BaseDelay * time.Duration(attempt)
		if record.RetryAfter != nil {
			delay = time.Duration(*record.RetryAfter) * time.Second
		}
		if o.onRetry != nil {
			o.onRetry(attempt, o.policy.MaxRetries, record)
		}
		logrus.Infof("%s in %s", o.statusFor(attempt), delay)

		if serr := o.sleep(ctx, delay); serr != nil {
			return fmt.Errorf("retry wait interrupted: %w", serr)
		}
	}
}

// Do is Run for operations that produce a value.
func Do[T any](ctx context.Context, o *Orchestrator, fn func(ctx context.Context) (T, error), meta map[string]any) (T, error) {
	var out T
	err := o.Run(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	}, meta)
	return out, err
}

func (o *Orchestrator) Attempt() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.attempt
}

func (o *Orchestrator) MaxRetries() int {
	return o.policy.MaxRetries
}

func (o *Orchestrator) Reset() {
	o.mu.Lock()
	o.attempt = 0
	o.last = nil
	o.mu.Unlock()
}

// LastRecord is the classification of the most recent failure, so callers can surface it
// without classifying the same error twice.
func (o *Orchestrator) LastRecord() (models.ErrorRecord, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.last == nil {
		return models.ErrorRecord{}, false
	}
	return *o.last, true
}

// Status renders the counter for display, e.g. "Retry attempt 2 of 3".
func (o *Orchestrator) Status() string {
	return o.statusFor(o.Attempt())
}

func (o *Orchestrator) statusFor(attempt int) string {
	return fmt.Sprintf("Retry attempt %d of %d", attempt, o.policy.MaxRetries)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
