package eventtrace

import (
	"errors"
	"fmt"
	"reflect"
)

// Sentinel errors.
var (
	// ErrArgNamesMismatch is returned by Record.NamedArgs when the record
	// carries a different number of names than arguments.
	ErrArgNamesMismatch = errors.New("argument names do not match arguments")

	// ErrNoArgNames is returned by Record.NamedArgs when argument names are
	// unavailable.
	ErrNoArgNames = errors.New("argument names unavailable")

	// ErrInvalidFilter is returned when a context filter does not compile.
	ErrInvalidFilter = errors.New("invalid context filter")

	// ErrHandlerNotFound is reported when a listener implements a contract
	// but has no handler for an event of it.
	ErrHandlerNotFound = errors.New("no handler for event")

	// ErrContractNotFound is reported when a record names a contract that is
	// not declared on the System.
	ErrContractNotFound = errors.New("contract not declared")

	// ErrArgumentType is returned by typed handlers when an argument has an
	// unexpected type.
	ErrArgumentType = errors.New("unexpected argument type")

	// ErrNilConsumer is returned when registering a nil consumer or listener.
	ErrNilConsumer = errors.New("consumer is nil")
)

// DispatchError describes a failure delivering one record to one consumer.
type DispatchError struct {
	Consumer string // Consumer type
	Contract string // Declaring contract of the record
	Event    string // Event name
	ArgCount int    // Number of arguments
	Err      error  // Underlying error
}

// Error implements error interface.
func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch %s.%s/%d to %s: %v", e.Contract, e.Event, e.ArgCount, e.Consumer, e.Err)
}

// Unwrap returns the underlying error.
func (e *DispatchError) Unwrap() error {
	return e.Err
}

// PanicError wraps a value recovered from a panicking consumer.
type PanicError struct {
	Value any
}

// Error implements error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("consumer panicked: %v", e.Value)
}

// ErrorArg returns v as an error when it is a usable one. A nil interface
// and a nil pointer behind the error interface both report false, so
// callers never invoke Error on a nil receiver.
func ErrorArg(v any) (error, bool) {
	err, ok := v.(error)
	if !ok || err == nil {
		return nil, false
	}
	if rv := reflect.ValueOf(err); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil, false
	}
	return err, true
}
