package automation

import (
	"errors"
)

var (
	// ErrMemberNotReady indicates the engine could not resolve a member yet,
	// usually because it is still loading or regenerating. Transient.
	ErrMemberNotReady = errors.New("member not ready")

	// ErrCallRejected indicates the engine rejected an incoming call because
	// it was busy. Transient.
	ErrCallRejected = errors.New("call rejected by callee")

	// ErrInvalidPolicy indicates a [RetryPolicy] that can never succeed.
	ErrInvalidPolicy = errors.New("invalid retry policy")

	// ErrUnexpectedType indicates a remote value had a different type than
	// the caller asked for.
	ErrUnexpectedType = errors.New("unexpected remote value type")

	// ErrUnsupportedPlatform indicates no automation backend exists for the
	// current operating system.
	ErrUnsupportedPlatform = errors.New("automation is not supported on this platform")

	// ErrDial indicates the engine could not be reached.
	ErrDial = errors.New("dial automation server")
)

// Object is a remote automation handle.
//
// Values crossing the boundary are Go scalars (string, bool, integer and
// floating point kinds), []any, [Point], nil, or another Object.
type Object interface {
	// Get reads a property. Parameterized properties take args.
	Get(name string, args ...any) (any, error)
	// Set writes a property.
	Set(name string, value any) error
	// Call invokes a method.
	Call(name string, args ...any) (any, error)
	// Item reads a collection element by index or key.
	Item(key any) (any, error)
	// SetItem writes a collection element by index or key.
	SetItem(key, value any) error
}

// Func is a callable remote member.
type Func func(args ...any) (any, error)

// Point is a coordinate in drawing units.
type Point struct {
	X, Y, Z float64
}

// Origin is the drawing origin.
var Origin = Point{}

// IsTransient reports whether err is one of the retryable failure kinds.
func IsTransient(err error) bool {
	return errors.Is(err, ErrMemberNotReady) || errors.Is(err, ErrCallRejected)
}
