package security_test

import (
	"strings"
	"testing"
	"time"

	"github.com/jeffleon2/draftea-checkout-service/internal/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionToken_RoundTrip(t *testing.T) {
	for name, opts := range map[string][]security.Option{
		"unkeyed": nil,
		"keyed":   {security.WithTokenSecret("server-secret")},
	} {
		t.Run(name, func(t *testing.T) {
			guard := security.NewGuard(opts...)

			token := guard.GenerateSessionToken()

			parts := strings.Split(token, ".")
			require.Len(t, parts, 3)
			assert.Len(t, parts[1], 16)
			assert.True(t, guard.ValidateSessionToken(token))
		})
	}
}

func TestValidateSessionToken_RejectsTampering(t *testing.T) {
	guard := security.NewGuard()
	token := guard.GenerateSessionToken()
	parts := strings.Split(token, ".")

	tampered := parts[0] + "." + strings.Repeat("0", 16) + "." + parts[2]

	assert.False(t, guard.ValidateSessionToken(tampered))
	assert.False(t, guard.ValidateSessionToken("not-a-token"))
	assert.False(t, guard.ValidateSessionToken(parts[0]+"."+parts[1]))
	assert.False(t, guard.ValidateSessionToken(""))
}

func TestValidateSessionToken_Expires(t *testing.T) {
	clock := newFakeClock()
	guard := security.NewGuard(security.WithClock(clock.Now))
	token := guard.GenerateSessionToken()

	clock.Advance(23 * time.Hour)
	assert.True(t, guard.ValidateSessionToken(token))

	clock.Advance(2 * time.Hour)
	assert.False(t, guard.ValidateSessionToken(token))
}

func TestSessionToken_KeyedTokensDoNotCrossValidate(t *testing.T) {
	keyed := security.NewGuard(security.WithTokenSecret("one"))
	other := security.NewGuard(security.WithTokenSecret("two"))
	unkeyed := security.NewGuard()

	token := keyed.GenerateSessionToken()

	assert.False(t, other.ValidateSessionToken(token))
	assert.False(t, unkeyed.ValidateSessionToken(token))
}

func TestCSRFToken_BoundToSession(t *testing.T) {
	guard := security.NewGuard()
	session := guard.GenerateSessionToken()
	otherSession := guard.GenerateSessionToken()

	csrf := guard.GenerateCSRFToken(session)

	assert.True(t, guard.ValidateCSRFToken(csrf, session))
	assert.False(t, guard.ValidateCSRFToken(csrf, otherSession))
	assert.False(t, guard.ValidateCSRFToken(csrf, ""))
	assert.False(t, guard.ValidateCSRFToken("garbage", session))
}

func TestCSRFToken_Expires(t *testing.T) {
	clock := newFakeClock()
	guard := security.NewGuard(security.WithClock(clock.Now), security.WithSessionTTL(time.Hour))
	session := guard.GenerateSessionToken()
	csrf := guard.GenerateCSRFToken(session)

	clock.Advance(61 * time.Minute)

	assert.False(t, guard.ValidateCSRFToken(csrf, session))
}
