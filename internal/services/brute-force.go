package services

import (
	"time"

	"github.com/SundayYogurt/auth_service/internal/domain"
)

const (
	DefaultMaxAttempts   = 5
	DefaultAttemptWindow = 5 * time.Minute
)

// BruteForcePolicy allows at most MaxAttempts failed logins inside Window,
// counted from the most recent failure.
type BruteForcePolicy struct {
	MaxAttempts int
	Window      time.Duration
}

func DefaultBruteForcePolicy() BruteForcePolicy {
	return BruteForcePolicy{MaxAttempts: DefaultMaxAttempts, Window: DefaultAttemptWindow}
}

// Allow reports whether u may try a password now. A stale counter is reset
// on u; the caller persists it.
func (p BruteForcePolicy) Allow(u *domain.User, now time.Time) bool {
	if u.Attempt <= 0 {
		return true
	}
	if u.LastAttemptAt == nil || now.Sub(*u.LastAttemptAt) >= p.Window {
		u.Attempt = 0
		return true
	}
	return u.Attempt < p.MaxAttempts
}

func (p BruteForcePolicy) RecordFailure(u *domain.User, now time.Time) {
	u.Attempt++
	u.LastAttemptAt = &now
}

func (p BruteForcePolicy) Reset(u *domain.User) {
	u.Attempt = 0
	u.LastAttemptAt = nil
}
