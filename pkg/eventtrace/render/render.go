// Package render turns trace event arguments into text for log lines.
//
// Arguments are rendered by exact dynamic type: a function registered for
// net.IP is not used for *net.IP. Types without a registered function fall
// back to built-in rules (quoted strings, error text, fmt.Stringer, %v).
package render

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/randalmurphal/eventtrace/pkg/eventtrace/registry"
)

// Func renders one argument value.
type Func func(v any) string

// Renderers holds the custom rendering functions.
// The zero value is not usable; use New.
type Renderers struct {
	funcs *registry.Registry[reflect.Type, Func]
}

// New creates an empty set of renderers.
func New() *Renderers {
	return &Renderers{funcs: registry.New[reflect.Type, Func]()}
}

// Register sets the rendering function for values of type T.
func Register[T any](r *Renderers, fn func(T) string) {
	r.funcs.Register(reflect.TypeFor[T](), func(v any) string {
		return fn(v.(T))
	})
}

// RegisterType sets the rendering function for values of dynamic type typ.
func (r *Renderers) RegisterType(typ reflect.Type, fn Func) {
	r.funcs.Register(typ, fn)
}

// Unregister removes the rendering function for values of type T.
func Unregister[T any](r *Renderers) {
	r.funcs.Delete(reflect.TypeFor[T]())
}

// Reset removes every custom rendering function.
func (r *Renderers) Reset() {
	r.funcs.Clear()
}

// Len returns the number of custom rendering functions.
func (r *Renderers) Len() int {
	return r.funcs.Len()
}

// Render renders v. A panicking rendering function, custom or built in,
// yields "<render panic: ...>" instead of propagating.
func (r *Renderers) Render(v any) (out string) {
	if v == nil {
		return "nil"
	}
	defer func() {
		if p := recover(); p != nil {
			out = fmt.Sprintf("<render panic: %v>", p)
		}
	}()
	if fn, ok := r.funcs.Get(reflect.TypeOf(v)); ok {
		return fn(v)
	}
	return Default(v)
}

// Default renders v with the built-in rules. Default(nil) and nil pointers
// render as "nil", so a nil fmt.Stringer or error is never called.
func Default(v any) string {
	if isNil(v) {
		return "nil"
	}
	switch val := v.(type) {
	case string:
		return strconv.Quote(val)
	case error:
		return val.Error()
	case fmt.Stringer:
		return val.String()
	case []byte:
		return fmt.Sprintf("[%d bytes]", len(val))
	default:
		return fmt.Sprintf("%v", val)
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
