package automation

import (
	"fmt"
	"time"
)

const (
	DefaultRetryDelay    = 200 * time.Millisecond
	DefaultRetryAttempts = 10
)

// RetryPolicy controls how transient remote failures are retried.
// The zero value is not valid; use [NewRetryPolicy] or [DefaultRetryPolicy].
type RetryPolicy struct {
	delay       time.Duration
	maxAttempts int
}

// NewRetryPolicy returns a policy that waits delay between attempts and
// makes at most maxAttempts attempts in total.
func NewRetryPolicy(delay time.Duration, maxAttempts int) (RetryPolicy, error) {
	if maxAttempts < 1 {
		return RetryPolicy{}, fmt.Errorf("%w: max attempts must be at least 1, got %d", ErrInvalidPolicy, maxAttempts)
	}
	if delay < 0 {
		return RetryPolicy{}, fmt.Errorf("%w: delay must not be negative, got %s", ErrInvalidPolicy, delay)
	}

	return RetryPolicy{delay: delay, maxAttempts: maxAttempts}, nil
}

// DefaultRetryPolicy returns the 200ms, 10 attempt policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{delay: DefaultRetryDelay, maxAttempts: DefaultRetryAttempts}
}

func (p RetryPolicy) Delay() time.Duration {
	return p.delay
}

func (p RetryPolicy) MaxAttempts() int {
	return p.maxAttempts
}

func (p RetryPolicy) String() string {
	return fmt.Sprintf("%d attempts every %s", p.maxAttempts, p.delay)
}
