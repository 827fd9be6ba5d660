package capture

import "time"

// Accept reports whether a frame arriving at now passes the rate limit given
// the last accepted arrival. A zero last always passes.
func Accept(last, now time.Time, interval time.Duration) bool {
	if last.IsZero() {
		return true
	}
	return now.Sub(last) >= interval
}
