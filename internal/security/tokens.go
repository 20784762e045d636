package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Session and CSRF tokens are tamper-evident correlation tokens. Without a
// token secret the hash is unkeyed, so anyone can mint a structurally valid
// token; configure SECURITY_TOKEN_SECRET to key them with HMAC-SHA256.

// GenerateSessionToken returns "timestamp.random.hash".
func (g *Guard) GenerateSessionToken() string {
	ts := strconv.FormatInt(g.now().UnixMilli(), 10)
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	return ts + "." + random + "." + g.sign(ts+random)
}

func (g *Guard) ValidateSessionToken(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return false
	}
	if !g.hashMatches(parts[2], parts[0]+parts[1]) {
		return false
	}
	return g.fresh(parts[0])
}

// GenerateCSRFToken binds a "timestamp.hash" token to sessionToken.
func (g *Guard) GenerateCSRFToken(sessionToken string) string {
	ts := strconv.FormatInt(g.now().UnixMilli(), 10)
	return ts + "." + g.sign(sessionToken+ts)
}

func (g *Guard) ValidateCSRFToken(token, sessionToken string) bool {
	if sessionToken == "" {
		return false
	}
	parts := strings.Split(token, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return false
	}
	if !g.hashMatches(parts[1], sessionToken+parts[0]) {
		return false
	}
	return g.fresh(parts[0])
}

func (g *Guard) fresh(ts string) bool {
	ms, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false
	}
	return g.now().Sub(time.UnixMilli(ms)) <= g.sessionTTL
}

func (g *Guard) hashMatches(got, input string) bool {
	return hmac.Equal([]byte(got), []byte(g.sign(input)))
}

func (g *Guard) sign(input string) string {
	if len(g.tokenSecret) == 0 {
		return weakHash(input)
	}
	mac := hmac.New(sha256.New, g.tokenSecret)
	mac.Write([]byte(input))
	return hex.EncodeToString(mac.Sum(nil))
}

// weakHash is a 32-bit shift-and-add string hash rendered in base 36.
func weakHash(s string) string {
	var h int32
	for _, c := range s {
		h = (h << 5) - h + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return strconv.FormatInt(v, 36)
}
