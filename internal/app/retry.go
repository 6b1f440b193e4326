package app

// RetryPolicy bounds how many times a failed scenario instance is re-run.
type RetryPolicy struct {
	max int
}

// NewRetryPolicy returns a policy allowing max retries. Negative values mean
// no retries.
func NewRetryPolicy(max int) RetryPolicy {
	if max < 0 {
		max = 0
	}
	return RetryPolicy{max: max}
}

// Max returns the retry budget.
func (p RetryPolicy) Max() int {
	return p.max
}

// ShouldRetry reports whether a run that has just failed for the attempt-th
// time gets another attempt. A budget of max yields at most max+1 attempts.
func (p RetryPolicy) ShouldRetry(attempt int) bool {
	return attempt >= 1 && attempt <= p.max
}
