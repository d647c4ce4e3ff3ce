package rivet

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorCode uint16

const (
	ErrCodeUnknown ErrorCode = iota
	ErrCodeBindingNotFound
	ErrCodeCircularDependency
	ErrCodeAutowireConfig
	ErrCodeUnsupportedStrategy
	ErrCodeSyncAsyncMismatch
	ErrCodeFactoryFailed
	ErrCodeInvalidConstructor
	ErrCodeContainerDisposed
	ErrCodeDisposeFailed
	ErrCodeValidationFailed
)

var codeNames = map[ErrorCode]string{
	ErrCodeUnknown:             "UNKNOWN",
	ErrCodeBindingNotFound:     "BINDING_NOT_FOUND",
	ErrCodeCircularDependency:  "CIRCULAR_DEPENDENCY",
	ErrCodeAutowireConfig:      "AUTOWIRE_CONFIG",
	ErrCodeUnsupportedStrategy: "UNSUPPORTED_STRATEGY",
	ErrCodeSyncAsyncMismatch:   "SYNC_ASYNC_MISMATCH",
	ErrCodeFactoryFailed:       "FACTORY_FAILED",
	ErrCodeInvalidConstructor:  "INVALID_CONSTRUCTOR",
	ErrCodeContainerDisposed:   "CONTAINER_DISPOSED",
	ErrCodeDisposeFailed:       "DISPOSE_FAILED",
	ErrCodeValidationFailed:    "VALIDATION_FAILED",
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", c)
}

// Error is the failure type for every container operation. Path holds the
// ordered token chain visited before the failure, when one was in flight.
type Error struct {
	Code    ErrorCode
	Message string
	Token   string
	Path    []string
	Cause   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s]", e.Code))

	if e.Token != "" {
		b.WriteString(fmt.Sprintf(" token=%q:", e.Token))
	}

	b.WriteString(" ")
	b.WriteString(e.Message)

	if len(e.Path) > 0 {
		b.WriteString(" (path: ")
		b.WriteString(strings.Join(e.Path, " -> "))
		b.WriteString(")")
	}

	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}

	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

func (e *Error) WithToken(token string) *Error {
	e.Token = token
	return e
}

func (e *Error) WithPath(path []string) *Error {
	e.Path = path
	return e
}

func newError(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func errBindingNotFound(token string, path []string) *Error {
	return newError(
		ErrCodeBindingNotFound,
		fmt.Sprintf("no binding found for %s in this container or any ancestor", token),
		nil,
	).WithToken(token).WithPath(path)
}

func errCircularDependency(path []string) *Error {
	return newError(
		ErrCodeCircularDependency,
		fmt.Sprintf("circular dependency detected: %s", strings.Join(path, " -> ")),
		nil,
	).WithPath(path)
}

func errAutowireConfig(ctor string, message string) *Error {
	return newError(
		ErrCodeAutowireConfig,
		fmt.Sprintf("autowire for constructor %s: %s", ctor, message),
		nil,
	)
}

func errUnsupportedStrategy(ctor string) *Error {
	return newError(
		ErrCodeUnsupportedStrategy,
		fmt.Sprintf(
			"the generated strategy for constructor %s requires build-time resolver metadata; "+
				"run the code generator or supply MapResolvers/Positions explicitly", ctor,
		),
		nil,
	)
}

func errSyncAsyncMismatch(token string, path []string) *Error {
	return newError(
		ErrCodeSyncAsyncMismatch,
		fmt.Sprintf("binding for %s uses a context factory; use ResolveCtx instead of Resolve", token),
		nil,
	).WithToken(token).WithPath(path)
}

func errFactoryFailed(token string, cause error) *Error {
	return newError(
		ErrCodeFactoryFailed,
		fmt.Sprintf("producer for %s returned error", token),
		cause,
	).WithToken(token)
}

func errInvalidConstructor(message string) *Error {
	return newError(ErrCodeInvalidConstructor, message, nil)
}

func errContainerDisposed(op string) *Error {
	return newError(
		ErrCodeContainerDisposed,
		fmt.Sprintf("%s on a disposed container", op),
		nil,
	)
}

func errDisposeFailed(cause error) *Error {
	return newError(ErrCodeDisposeFailed, "one or more instances failed to dispose", cause)
}

func errValidationFailed(message string) *Error {
	return newError(ErrCodeValidationFailed, message, nil)
}

func IsBindingNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeBindingNotFound
}

func IsCircularDependency(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeCircularDependency
}

func IsAutowireConfig(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeAutowireConfig
}

func IsUnsupportedStrategy(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeUnsupportedStrategy
}

func IsSyncAsyncMismatch(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeSyncAsyncMismatch
}

func IsFactoryFailed(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeFactoryFailed
}

func IsInvalidConstructor(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeInvalidConstructor
}

func IsContainerDisposed(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeContainerDisposed
}

func IsDisposeFailed(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeDisposeFailed
}

func IsValidationFailed(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeValidationFailed
}
