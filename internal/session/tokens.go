package session

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"
)

// LocallyValid performs the fast-path structural and expiry check on a
// token without verifying its signature: three base64url segments and an
// exp claim still in the future. It exists only to avoid sending
// obviously-dead tokens; it is never an authorization decision.
func LocallyValid(raw string, now time.Time) bool {
	exp, ok := expiryOf(raw)
	if !ok {
		return false
	}
	return now.Before(exp)
}

func expiryOf(raw string) (time.Time, bool) {
	segments := strings.Split(strings.TrimSpace(raw), ".")
	if len(segments) != 3 {
		return time.Time{}, false
	}
	for _, seg := range segments {
		if seg == "" {
			return time.Time{}, false
		}
		if _, err := base64.RawURLEncoding.DecodeString(seg); err != nil {
			return time.Time{}, false
		}
	}
	payload, err := base64.RawURLEncoding.DecodeString(segments[1])
	if err != nil {
		return time.Time{}, false
	}
	var claims struct {
		Exp int64 `json:"exp"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil || claims.Exp == 0 {
		return time.Time{}, false
	}
	return time.Unix(claims.Exp, 0), true
}
