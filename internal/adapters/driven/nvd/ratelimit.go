package nvd

import (
	"time"

	"golang.org/x/time/rate"
)

// NVD publishes its quotas per rolling 30 second window.
const (
	quotaWindow    = 30 * time.Second
	anonymousQuota = 5
	keyedQuota     = 50
)

// newLimiter returns a token bucket matching the NVD quota for the key
// state. The burst equals the window quota.
func newLimiter(hasKey bool) *rate.Limiter {
	quota := anonymousQuota
	if hasKey {
		quota = keyedQuota
	}
	return rate.NewLimiter(rate.Every(quotaWindow/time.Duration(quota)), quota)
}
