// Package automation talks to a remote drawing engine through its
// automation interface.
//
// Every remote handle handed out by this package is a [Proxy]. A Proxy
// forwards property reads and writes, collection item access and method
// calls to the underlying [Object], retrying the two transient failure
// kinds the engine produces while it is busy ([ErrMemberNotReady] and
// [ErrCallRejected]) according to a [RetryPolicy]. Object-valued results
// are wrapped again as a Proxy and callable results as a [FuncProxy], so
// callers never hold an unprotected handle. Both are unwrapped again when
// passed back as arguments.
//
// A call that first fails transiently logs one warning. Each member of a
// chained access retries on its own, so a chain may log once per member.
//
// All access to one engine must happen from a single goroutine. On Windows
// that goroutine is locked to its OS thread by [Dial] for the lifetime of
// the returned [Session].
package automation
