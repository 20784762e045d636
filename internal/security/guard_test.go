package security_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jeffleon2/draftea-checkout-service/internal/models"
	"github.com/jeffleon2/draftea-checkout-service/internal/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestCheckRateLimit_FiveAllowedSixthBlocked(t *testing.T) {
	clock := newFakeClock()
	var blockedIDs []string
	guard := security.NewGuard(
		security.WithClock(clock.Now),
		security.WithBlockObserver(func(id string) { blockedIDs = append(blockedIDs, id) }),
	)
	defer guard.Close()

	var last security.RateLimitResult
	for i := 0; i < 5; i++ {
		last = guard.CheckRateLimit("form-1")
		assert.True(t, last.Allowed, "attempt %d should be allowed", i+1)
	}
	assert.Equal(t, 0, last.RemainingAttempts)
	assert.False(t, guard.IsBlocked("form-1"))

	sixth := guard.CheckRateLimit("form-1")

	assert.False(t, sixth.Allowed)
	assert.True(t, guard.IsBlocked("form-1"))
	assert.Equal(t, []string{"form-1"}, blockedIDs)

	activities := guard.GetSuspiciousActivities(0)
	require.Len(t, activities, 1)
	assert.Equal(t, security.ActivityRateLimitExceeded, activities[0].Activity)
	assert.Equal(t, "form-1", activities[0].Identifier)
}

func TestCheckRateLimit_RemainingAndResetTime(t *testing.T) {
	clock := newFakeClock()
	start := clock.Now()
	guard := security.NewGuard(security.WithClock(clock.Now))
	defer guard.Close()

	first := guard.CheckRateLimit("id")
	clock.Advance(time.Minute)
	second := guard.CheckRateLimit("id")

	assert.Equal(t, 4, first.RemainingAttempts)
	assert.Equal(t, 3, second.RemainingAttempts)
	assert.Equal(t, start.Add(security.DefaultWindow), second.ResetTime)
}

func TestCheckRateLimit_WindowResetsIndependentlyOfBlock(t *testing.T) {
	clock := newFakeClock()
	guard := security.NewGuard(security.WithClock(clock.Now))
	defer guard.Close()

	for i := 0; i < 6; i++ {
		guard.CheckRateLimit("id")
	}
	require.True(t, guard.IsBlocked("id"))

	clock.Advance(security.DefaultWindow + time.Second)
	result := guard.CheckRateLimit("id")

	assert.True(t, result.Allowed)
	assert.Equal(t, security.DefaultMaxAttempts-1, result.RemainingAttempts)
	assert.True(t, guard.IsBlocked("id"))
}

func TestCheckRateLimit_UnblocksAfterBlockDuration(t *testing.T) {
	guard := security.NewGuard(security.WithRateLimit(security.RateLimitConfig{
		MaxAttempts:   1,
		Window:        time.Minute,
		BlockDuration: 20 * time.Millisecond,
	}))
	defer guard.Close()

	guard.CheckRateLimit("id")
	result := guard.CheckRateLimit("id")
	require.False(t, result.Allowed)
	require.True(t, guard.IsBlocked("id"))

	assert.Eventually(t, func() bool { return !guard.IsBlocked("id") }, time.Second, 5*time.Millisecond)
	assert.True(t, guard.CheckRateLimit("id").Allowed)
}

func TestCheckRateLimitWithConfig_OverridesDefaults(t *testing.T) {
	guard := security.NewGuard()
	defer guard.Close()

	cfg := security.RateLimitConfig{MaxAttempts: 2, Window: time.Minute, BlockDuration: time.Minute}
	assert.True(t, guard.CheckRateLimitWithConfig("id", cfg).Allowed)
	assert.True(t, guard.CheckRateLimitWithConfig("id", cfg).Allowed)
	assert.False(t, guard.CheckRateLimitWithConfig("id", cfg).Allowed)
}

func TestIsBlocked_DoesNotCountAttempts(t *testing.T) {
	guard := security.NewGuard()
	defer guard.Close()

	for i := 0; i < 10; i++ {
		assert.False(t, guard.IsBlocked("id"))
	}
	assert.Equal(t, 4, guard.CheckRateLimit("id").RemainingAttempts)
}

func TestCleanupRateLimits_RemovesExpiredEntries(t *testing.T) {
	clock := newFakeClock()
	guard := security.NewGuard(security.WithClock(clock.Now))
	defer guard.Close()

	guard.CheckRateLimit("old")
	clock.Advance(10 * time.Minute)
	guard.CheckRateLimit("fresh")
	clock.Advance(6 * time.Minute)

	assert.Equal(t, 2, guard.ActiveEntries())
	assert.Equal(t, 1, guard.CleanupRateLimits())
	assert.Equal(t, 1, guard.ActiveEntries())
	assert.Equal(t, 3, guard.CheckRateLimit("fresh").RemainingAttempts)
	assert.Equal(t, 4, guard.CheckRateLimit("old").RemainingAttempts)
}

func TestStartCleanup_SweepsExpiredEntries(t *testing.T) {
	clock := newFakeClock()
	guard := security.NewGuard(security.WithClock(clock.Now))
	defer guard.Close()

	guard.CheckRateLimit("id")
	clock.Advance(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	guard.StartCleanup(ctx, 5*time.Millisecond)

	assert.Eventually(t, func() bool { return guard.ActiveEntries() == 0 }, time.Second, 5*time.Millisecond)
}

func TestSuspiciousActivities_CappedMostRecentFirst(t *testing.T) {
	guard := security.NewGuard(security.WithSuspiciousLogLimit(3))
	defer guard.Close()

	for _, id := range []string{"a", "b", "c", "d"} {
		guard.LogSuspiciousActivity(id, "payment_failed", nil)
	}

	all := guard.GetSuspiciousActivities(0)
	require.Len(t, all, 3)
	assert.Equal(t, "d", all[0].Identifier)
	assert.Equal(t, "b", all[2].Identifier)

	assert.Len(t, guard.GetSuspiciousActivities(2), 2)
}

func TestValidateAccessToken(t *testing.T) {
	guard := security.NewGuard(security.WithAccessToken("s3cret"))

	assert.True(t, guard.ValidateAccessToken("s3cret"))
	assert.False(t, guard.ValidateAccessToken("S3cret"))
	assert.False(t, guard.ValidateAccessToken(""))

	unconfigured := security.NewGuard()
	assert.False(t, unconfigured.ValidateAccessToken(""))
}

func TestSanitizeInput(t *testing.T) {
	out := security.SanitizeInput("<script>alert(1)</script>")

	assert.NotContains(t, out, "<")
	assert.NotContains(t, out, ">")
	assert.Equal(t, "&lt;script&gt;alert(1)&lt;/script&gt;", out)

	assert.Equal(t, "&amp;&quot;&#x27;", security.SanitizeInput(`  &"'  `))
	assert.Equal(t, "&amp;amp;", security.SanitizeInput("&amp;"))

	long := security.SanitizeInput(strings.Repeat("a", 5000))
	assert.Len(t, long, security.MaxInputLength)
}

func TestValidatePaymentAmount(t *testing.T) {
	tests := []struct {
		name     string
		amount   float64
		currency models.Currency
		valid    bool
		risk     security.RiskLevel
	}{
		{"ordinary amount", 100, models.CurrencyILS, true, security.RiskLow},
		{"upper bound", 10000, models.CurrencyUSD, true, security.RiskMedium},
		{"above high threshold", 10000.01, models.CurrencyUSD, false, security.RiskHigh},
		{"above medium threshold", 1500, models.CurrencyEUR, true, security.RiskMedium},
		{"round amount", 5000, models.CurrencyEUR, true, security.RiskMedium},
		{"round amount above high", 20000, models.CurrencyEUR, false, security.RiskHigh},
		{"tiny amount", 0.5, models.CurrencyILS, true, security.RiskMedium},
		{"zero", 0, models.CurrencyILS, false, security.RiskHigh},
		{"negative", -5, models.CurrencyILS, false, security.RiskHigh},
		{"unsupported currency", 10, models.Currency("GBP"), false, security.RiskHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := security.ValidatePaymentAmount(tt.amount, tt.currency)
			assert.Equal(t, tt.valid, result.Valid)
			assert.Equal(t, tt.risk, result.Risk)
			if tt.risk != security.RiskLow {
				assert.NotEmpty(t, result.Reasons)
			}
		})
	}
}

func TestValidatePaymentAmount_ValidRangeAlwaysValid(t *testing.T) {
	for _, amount := range []float64{0.01, 1, 999.99, 1000, 1000.5, 5000, 7000, 9999.99, 10000} {
		for _, currency := range models.SupportedCurrencies {
			assert.True(t, security.ValidatePaymentAmount(amount, currency).Valid, "%v %s", amount, currency)
		}
	}
}

func TestGetCSPHeader_IsStatic(t *testing.T) {
	header := security.GetCSPHeader()

	assert.Equal(t, header, security.GetCSPHeader())
	assert.Contains(t, header, "lemonsqueezy.com")
	assert.Contains(t, header, "default-src 'self'")
}
