// Package errs defines the closed error taxonomy shared by every component
// of the execution core. Errors are classified by Kind rather than by Go
// type, so callers can branch on policy ("skip this open", "fatal at
// startup") without importing every producer package.
package errs

import "fmt"

type Kind string

const (
	ConfigInvalid        Kind = "ConfigInvalid"
	ConnectionLost        Kind = "ConnectionLost"
	AuthenticationFailed  Kind = "AuthenticationFailed"
	RequestTimeout        Kind = "RequestTimeout"
	RateLimited           Kind = "RateLimited"
	OrderRejected         Kind = "OrderRejected"
	Emergency             Kind = "Emergency"
	DrawdownLimit         Kind = "DrawdownLimit"
	InsufficientMargin    Kind = "InsufficientMargin"
	SpreadExceeded        Kind = "SpreadExceeded"
	SpreadUnknown         Kind = "SpreadUnknown"
	CircuitBreakerOpen    Kind = "CircuitBreakerOpen"
	OutOfOrderBar         Kind = "OutOfOrderBar"
	ModelLoadFailed       Kind = "ModelLoadFailed"
	UnknownPipValue       Kind = "UnknownPipValue"
)

// E is a typed error carrying a Kind and an optional broker reject code.
type E struct {
	Kind Kind
	Code string
	Msg  string
	Err  error
}

func (e *E) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s(%s): %s", e.Kind, e.Code, e.Msg)
	}
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return string(e.Kind)
}

func (e *E) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *E {
	return &E{Kind: kind, Msg: msg}
}

func Wrap(kind Kind, msg string, err error) *E {
	return &E{Kind: kind, Msg: msg, Err: err}
}

func Rejected(code, msg string) *E {
	return &E{Kind: OrderRejected, Code: code, Msg: msg}
}

// KindOf extracts the Kind of an error if it is (or wraps) an *E.
func KindOf(err error) (Kind, bool) {
	var e *E
	for err != nil {
		if k, ok := err.(*E); ok {
			e = k
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if e == nil {
		return "", false
	}
	return e.Kind, true
}
