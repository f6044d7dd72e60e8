//go:build !windows

package automation

import (
	"fmt"
	"runtime"
)

func dial(progID string, _ bool, _ []Option) (*Session, error) {
	return nil, fmt.Errorf("%w: %s: %w", ErrDial, progID,
		fmt.Errorf("%w: %s/%s", ErrUnsupportedPlatform, runtime.GOOS, runtime.GOARCH))
}
