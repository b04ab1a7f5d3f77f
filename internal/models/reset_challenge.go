package models

import (
	"crypto/subtle"
	"time"
)

// ResetChallenge is one outstanding password-reset attempt: a short-lived
// numeric code bound to a single email address. At most one challenge exists
// per email; issuing a new one overwrites any prior unconsumed challenge.
type ResetChallenge struct {
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Usable reports whether the challenge authorizes a reset at the given
// instant: the submitted code must match exactly and the instant must be
// strictly before ExpiresAt. The comparison is constant-time so response
// timing reveals nothing about how many digits matched.
func (c *ResetChallenge) Usable(code string, now time.Time) bool {
	return subtle.ConstantTimeCompare([]byte(c.Code), []byte(code)) == 1 &&
		now.Before(c.ExpiresAt)
}
