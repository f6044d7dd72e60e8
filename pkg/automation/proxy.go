package automation

import (
	"fmt"
	"log/slog"
	"time"
)

// Observer is notified about retries. Implementations must be safe to call
// from the goroutine that drives the engine.
type Observer interface {
	// Retrying is called after a transient failure that will be retried.
	// Attempt is the 1-based number of the attempt that failed.
	Retrying(member string, attempt int, err error)
	// Exhausted is called when the last attempt failed transiently.
	Exhausted(member string, err error)
}

type nopObserver struct{}

func (nopObserver) Retrying(string, int, error) {}

func (nopObserver) Exhausted(string, error) {}

// Option configures a [Proxy].
type Option func(*retrier)

// WithPolicy sets the retry policy. The default is [DefaultRetryPolicy].
func WithPolicy(p RetryPolicy) Option {
	return func(r *retrier) {
		r.policy = p
	}
}

// WithLogger sets the logger used for the first-failure warning.
func WithLogger(l *slog.Logger) Option {
	return func(r *retrier) {
		r.logger = l
	}
}

// WithObserver registers an [Observer].
func WithObserver(o Observer) Option {
	return func(r *retrier) {
		r.observer = o
	}
}

// WithSleep replaces [time.Sleep] between attempts.
func WithSleep(fn func(time.Duration)) Option {
	return func(r *retrier) {
		r.sleep = fn
	}
}

// retrier holds the settings shared by a proxy and everything it wraps.
type retrier struct {
	logger   *slog.Logger
	observer Observer
	sleep    func(time.Duration)
	policy   RetryPolicy
}

func newRetrier(opts []Option) *retrier {
	r := &retrier{
		policy:   DefaultRetryPolicy(),
		observer: nopObserver{},
		sleep:    time.Sleep,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.policy.maxAttempts < 1 {
		r.policy = DefaultRetryPolicy()
	}

	return r
}

// do runs fn until it succeeds, fails permanently, or the policy is
// exhausted. The final error is returned as produced by fn.
//
// The warning for a first transient failure is logged once per call. A
// chain such as doc.Layouts.Item(name) that fails at every step logs once
// for each member.
func (r *retrier) do(member string, fn func() (any, error)) (any, error) {
	for attempt := 1; ; attempt++ {
		v, err := fn()
		if err == nil {
			return r.wrap(v), nil
		}
		if !IsTransient(err) {
			return nil, err
		}
		if attempt >= r.policy.maxAttempts {
			r.observer.Exhausted(member, err)
			r.logger.Debug("remote call retries exhausted",
				slog.String("member", member),
				slog.Int("attempts", attempt),
			)

			return nil, err
		}
		if attempt == 1 {
			r.logger.Warn("remote call failed, retrying",
				slog.String("member", member),
				slog.Any("err", err),
				slog.String("policy", r.policy.String()),
			)
		}
		r.observer.Retrying(member, attempt, err)
		r.sleep(r.policy.delay)
	}
}

func (r *retrier) wrap(v any) any {
	switch t := v.(type) {
	case *Proxy:
		return t
	case Object:
		return &Proxy{obj: t, r: r}
	case *FuncProxy:
		return t
	case Func:
		return &FuncProxy{f: t, r: r}
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = r.wrap(e)
		}

		return out
	default:
		return v
	}
}

// Wrap returns v protected by the retry loop. An [Object] becomes a
// [*Proxy], a [Func] becomes a [*FuncProxy], existing proxies are
// returned as is, and any other value is returned unchanged.
func Wrap(v any, opts ...Option) any {
	switch v.(type) {
	case *Proxy, *FuncProxy:
		return v
	}

	return newRetrier(opts).wrap(v)
}

// FuncProxy is a retry-protected remote callable.
type FuncProxy struct {
	f Func
	r *retrier
}

// Call invokes the callable.
func (p *FuncProxy) Call(args ...any) (any, error) {
	a := unwrapArgs(args)

	return p.r.do("call", func() (any, error) {
		return p.f(a...)
	})
}

// Func returns [FuncProxy.Call] as a [Func].
func (p *FuncProxy) Func() Func {
	return p.Call
}

// Proxy is a retry-protected remote handle.
type Proxy struct {
	obj Object
	r   *retrier
}

// New wraps obj in a [Proxy].
func New(obj Object, opts ...Option) *Proxy {
	return &Proxy{obj: obj, r: newRetrier(opts)}
}

func (p *Proxy) String() string {
	return fmt.Sprintf("Proxy<%v>", p.obj)
}

// Get reads a property.
func (p *Proxy) Get(name string, args ...any) (any, error) {
	a := unwrapArgs(args)

	return p.r.do(name, func() (any, error) {
		return p.obj.Get(name, a...)
	})
}

// Set writes a property.
func (p *Proxy) Set(name string, value any) error {
	v := unwrap(value)
	_, err := p.r.do(name, func() (any, error) {
		return nil, p.obj.Set(name, v)
	})

	return err
}

// Call invokes a method.
func (p *Proxy) Call(name string, args ...any) (any, error) {
	a := unwrapArgs(args)

	return p.r.do(name, func() (any, error) {
		return p.obj.Call(name, a...)
	})
}

// Method returns a retrying [Func] bound to the named method.
func (p *Proxy) Method(name string) Func {
	return func(args ...any) (any, error) {
		return p.Call(name, args...)
	}
}

// Item reads a collection element.
func (p *Proxy) Item(key any) (any, error) {
	k := unwrap(key)

	return p.r.do("Item", func() (any, error) {
		return p.obj.Item(k)
	})
}

// SetItem writes a collection element.
func (p *Proxy) SetItem(key, value any) error {
	k, v := unwrap(key), unwrap(value)
	_, err := p.r.do("Item", func() (any, error) {
		return nil, p.obj.SetItem(k, v)
	})

	return err
}

func unwrap(v any) any {
	switch t := v.(type) {
	case *Proxy:
		return t.obj
	case *FuncProxy:
		return t.f
	case []any:
		return unwrapArgs(t)
	default:
		return v
	}
}

func unwrapArgs(args []any) []any {
	if len(args) == 0 {
		return args
	}
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = unwrap(a)
	}

	return out
}
