//go:build windows

package automation

import (
	"errors"
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/windows"

	ole "github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
)

// HRESULTs the engine returns while it is busy.
const (
	hrCallRejected   = 0x80010001 // RPC_E_CALL_REJECTED
	hrRetryLater     = 0x8001010A // RPC_E_SERVERCALL_RETRYLATER
	hrMemberNotFound = 0x80020003 // DISP_E_MEMBERNOTFOUND
	hrUnknownName    = 0x80020006 // DISP_E_UNKNOWNNAME
	hrFalse          = 0x00000001 // S_FALSE
)

var (
	modoleaut32               = windows.NewLazySystemDLL("oleaut32.dll")
	procSafeArrayCreateVector = modoleaut32.NewProc("SafeArrayCreateVector")
	procSafeArrayPutElement   = modoleaut32.NewProc("SafeArrayPutElement")
)

// comError is a failed IDispatch call. It matches [ErrCallRejected] and
// [ErrMemberNotReady] through errors.Is.
type comError struct {
	err    error
	op     string
	member string
}

func (e *comError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.op, e.member, e.err)
}

func (e *comError) Unwrap() error {
	return e.err
}

func (e *comError) Is(target error) bool {
	oe := &ole.OleError{}
	if !errors.As(e.err, &oe) {
		return false
	}

	switch uint32(oe.Code()) {
	case hrCallRejected, hrRetryLater:
		return target == ErrCallRejected
	case hrMemberNotFound, hrUnknownName:
		return target == ErrMemberNotReady
	}

	return false
}

type comObject struct {
	disp *ole.IDispatch
}

func (o *comObject) String() string {
	return "IDispatch"
}

func (o *comObject) Get(name string, args ...any) (any, error) {
	a, err := toCOMArgs(args)
	if err != nil {
		return nil, err
	}
	v, err := oleutil.GetProperty(o.disp, name, a...)
	if err != nil {
		return nil, &comError{op: "get", member: name, err: err}
	}

	return fromVariant(v), nil
}

func (o *comObject) Set(name string, value any) error {
	a, err := toCOMArgs([]any{value})
	if err != nil {
		return err
	}
	if _, err := oleutil.PutProperty(o.disp, name, a...); err != nil {
		return &comError{op: "set", member: name, err: err}
	}

	return nil
}

func (o *comObject) Call(name string, args ...any) (any, error) {
	a, err := toCOMArgs(args)
	if err != nil {
		return nil, err
	}
	v, err := oleutil.CallMethod(o.disp, name, a...)
	if err != nil {
		return nil, &comError{op: "call", member: name, err: err}
	}

	return fromVariant(v), nil
}

func (o *comObject) Item(key any) (any, error) {
	a, err := toCOMArgs([]any{key})
	if err != nil {
		return nil, err
	}
	v, err := oleutil.CallMethod(o.disp, "Item", a...)
	if err != nil {
		return nil, &comError{op: "item", member: fmt.Sprint(key), err: err}
	}

	return fromVariant(v), nil
}

func (o *comObject) SetItem(key, value any) error {
	a, err := toCOMArgs([]any{key, value})
	if err != nil {
		return err
	}
	if _, err := oleutil.PutProperty(o.disp, "Item", a...); err != nil {
		return &comError{op: "set item", member: fmt.Sprint(key), err: err}
	}

	return nil
}

func fromVariant(v *ole.VARIANT) any {
	if v == nil {
		return nil
	}
	switch {
	case v.VT == ole.VT_DISPATCH:
		d := v.ToIDispatch()
		if d == nil {
			return nil
		}

		return &comObject{disp: d}
	case v.VT&ole.VT_ARRAY != 0:
		sa := v.ToArray()
		if sa == nil {
			return nil
		}
		vals := sa.ToValueArray()
		out := make([]any, len(vals))
		for i, e := range vals {
			out[i] = fromValue(e)
		}

		return out
	default:
		return fromValue(v.Value())
	}
}

func fromValue(v any) any {
	if d, ok := v.(*ole.IDispatch); ok {
		return &comObject{disp: d}
	}

	return v
}

func toCOMArgs(args []any) ([]any, error) {
	out := make([]any, len(args))
	for i, a := range args {
		switch t := a.(type) {
		case *comObject:
			out[i] = t.disp
		case Point:
			v, err := pointVariant(t)
			if err != nil {
				return nil, err
			}
			out[i] = v
		case int:
			out[i] = int32(t)
		default:
			out[i] = a
		}
	}

	return out, nil
}

// pointVariant builds the VT_ARRAY|VT_R8 SAFEARRAY the engine expects for
// coordinates.
func pointVariant(p Point) (*ole.VARIANT, error) {
	sa, _, _ := procSafeArrayCreateVector.Call(uintptr(ole.VT_R8), 0, 3)
	if sa == 0 {
		return nil, errors.New("SafeArrayCreateVector returned nil")
	}
	for i, c := range []float64{p.X, p.Y, p.Z} {
		idx := int32(i)
		val := c
		hr, _, _ := procSafeArrayPutElement.Call(sa, uintptr(unsafe.Pointer(&idx)), uintptr(unsafe.Pointer(&val)))
		if hr != 0 {
			return nil, ole.NewError(hr)
		}
	}
	v := ole.NewVariant(ole.VT_ARRAY|ole.VT_R8, int64(sa))

	return &v, nil
}

func dial(progID string, visible bool, opts []Option) (*Session, error) {
	runtime.LockOSThread()

	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		oe := &ole.OleError{}
		if !errors.As(err, &oe) || oe.Code() != hrFalse {
			runtime.UnlockOSThread()

			return nil, fmt.Errorf("%w: initialize COM: %w", ErrDial, err)
		}
	}

	release := func() {
		ole.CoUninitialize()
		runtime.UnlockOSThread()
	}

	unknown, err := oleutil.GetActiveObject(progID)
	if err != nil {
		unknown, err = oleutil.CreateObject(progID)
	}
	if err != nil {
		release()

		return nil, fmt.Errorf("%w: %s: %w", ErrDial, progID, err)
	}

	disp, err := unknown.QueryInterface(ole.IID_IDispatch)
	unknown.Release()
	if err != nil {
		release()

		return nil, fmt.Errorf("%w: %s: query IDispatch: %w", ErrDial, progID, err)
	}

	app := New(&comObject{disp: disp}, opts...)
	if err := app.Set("Visible", visible); err != nil {
		disp.Release()
		release()

		return nil, fmt.Errorf("%w: %s: set Visible: %w", ErrDial, progID, err)
	}

	return NewSession(app, func() error {
		disp.Release()
		release()

		return nil
	}), nil
}
