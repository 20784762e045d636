package security

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultMaxAttempts        = 5
	DefaultWindow             = 15 * time.Minute
	DefaultBlockDuration      = time.Hour
	DefaultSessionTTL         = 24 * time.Hour
	DefaultSuspiciousLogLimit = 1000

	ActivityRateLimitExceeded = "rate_limit_exceeded"
)

type RateLimitConfig struct {
	MaxAttempts   int
	Window        time.Duration
	BlockDuration time.Duration
}

type RateLimitEntry struct {
	Count        int
	FirstAttempt time.Time
	LastAttempt  time.Time
}

type RateLimitResult struct {
	Allowed           bool      `json:"allowed"`
	RemainingAttempts int       `json:"remaining_attempts"`
	ResetTime         time.Time `json:"reset_time"`
}

// Guard holds the rate limiting state, the block set and the suspicious
// activity log for one process. Construct it with NewGuard and call Close
// to stop pending unblock timers.
type Guard struct {
	mu       sync.Mutex
	limits   RateLimitConfig
	entries  map[string]*RateLimitEntry
	blocked  map[string]*time.Timer
	activity []SuspiciousActivity

	activityLimit int
	sessionTTL    time.Duration
	tokenSecret   []byte
	accessToken   string
	onBlock       func(identifier string)
	now           func() time.Time
}

type Option func(*Guard)

func WithRateLimit(cfg RateLimitConfig) Option {
	return func(g *Guard) {
		if cfg.MaxAttempts > 0 {
			g.limits.MaxAttempts = cfg.MaxAttempts
		}
		if cfg.Window > 0 {
			g.limits.Window = cfg.Window
		}
		if cfg.BlockDuration > 0 {
			g.limits.BlockDuration = cfg.BlockDuration
		}
	}
}

func WithSessionTTL(ttl time.Duration) Option {
	return func(g *Guard) {
		if ttl > 0 {
			g.sessionTTL = ttl
		}
	}
}

// WithTokenSecret switches session and CSRF hashes to HMAC-SHA256 keyed by secret.
func WithTokenSecret(secret string) Option {
	return func(g *Guard) {
		if secret != "" {
			g.tokenSecret = []byte(secret)
		}
	}
}

func WithAccessToken(token string) Option {
	return func(g *Guard) { g.accessToken = token }
}

func WithSuspiciousLogLimit(limit int) Option {
	return func(g *Guard) {
		if limit > 0 {
			g.activityLimit = limit
		}
	}
}

// WithBlockObserver is called every time an identifier enters the block set.
func WithBlockObserver(fn func(identifier string)) Option {
	return func(g *Guard) { g.onBlock = fn }
}

func WithClock(now func() time.Time) Option {
	return func(g *Guard) { g.now = now }
}

func NewGuard(opts ...Option) *Guard {
	g := &Guard{
		limits: RateLimitConfig{
			MaxAttempts:   DefaultMaxAttempts,
			Window:        DefaultWindow,
			BlockDuration: DefaultBlockDuration,
		},
		entries:       make(map[string]*RateLimitEntry),
		blocked:       make(map[string]*time.Timer),
		activityLimit: DefaultSuspiciousLogLimit,
		sessionTTL:    DefaultSessionTTL,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CheckRateLimit counts an attempt for identifier against the guard's default limits.
func (g *Guard) CheckRateLimit(identifier string) RateLimitResult {
	return g.CheckRateLimitWithConfig(identifier, g.limits)
}

// CheckRateLimitWithConfig counts an attempt against cfg. The window restarts once
// it has fully elapsed since the first attempt, independently of any block.
func (g *Guard) CheckRateLimitWithConfig(identifier string, cfg RateLimitConfig) RateLimitResult {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	entry, ok := g.entries[identifier]
	if !ok || now.Sub(entry.FirstAttempt) > cfg.Window {
		g.entries[identifier] = &RateLimitEntry{Count: 1, FirstAttempt: now, LastAttempt: now}
		return RateLimitResult{
			Allowed:           true,
			RemainingAttempts: max(cfg.MaxAttempts-1, 0),
			ResetTime:         now.Add(cfg.Window),
		}
	}

	entry.Count++
	entry.LastAttempt = now
	result := RateLimitResult{
		Allowed:           true,
		RemainingAttempts: max(cfg.MaxAttempts-entry.Count, 0),
		ResetTime:         entry.FirstAttempt.Add(cfg.Window),
	}

	if entry.Count > cfg.MaxAttempts {
		result.Allowed = false
		g.blockLocked(identifier, cfg.BlockDuration)
		g.appendActivityLocked(identifier, ActivityRateLimitExceeded, map[string]any{
			"attempts":     entry.Count,
			"max_attempts": cfg.MaxAttempts,
		})
		logrus.WithFields(logrus.Fields{
			"identifier": identifier,
			"attempts":   entry.Count,
		}).Warn("rate limit exceeded")
	}

	return result
}

func (g *Guard) blockLocked(identifier string, d time.Duration) {
	if _, already := g.blocked[identifier]; already {
		return
	}
	g.blocked[identifier] = time.AfterFunc(d, func() { g.unblock(identifier) })
	if g.onBlock != nil {
		g.onBlock(identifier)
	}
}

func (g *Guard) unblock(identifier string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.blocked, identifier)
	delete(g.entries, identifier)
	logrus.WithField("identifier", identifier).Info("identifier unblocked")
}

func (g *Guard) IsBlocked(identifier string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.blocked[identifier]
	return ok
}

// CleanupRateLimits drops entries whose window has elapsed and returns how many were removed.
func (g *Guard) CleanupRateLimits() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	removed := 0
	for id, entry := range g.entries {
		if now.Sub(entry.FirstAttempt) > g.limits.Window {
			delete(g.entries, id)
			removed++
		}
	}
	return removed
}

// StartCleanup sweeps expired entries every interval until ctx is done.
func (g *Guard) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := g.CleanupRateLimits(); n > 0 {
					logrus.Debugf("rate limit cleanup removed %d entries", n)
				}
			}
		}
	}()
}

// ActiveEntries is the number of identifiers currently tracked by the rate limiter.
func (g *Guard) ActiveEntries() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

// ValidateAccessToken compares token with the configured admin token in constant time.
// An unconfigured token never validates.
func (g *Guard) ValidateAccessToken(token string) bool {
	if g.accessToken == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(g.accessToken)) == 1
}

// Close stops pending unblock timers and clears all in-memory state.
func (g *Guard) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for id, timer := range g.blocked {
		timer.Stop()
		delete(g.blocked, id)
	}
	g.entries = make(map[string]*RateLimitEntry)
}
