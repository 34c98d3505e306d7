package errorchain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/dop251/goja"
)

// Property names read from error-like values.
const (
	PropName                 = "name"
	PropMessage              = "message"
	PropStack                = "stack"
	PropStacktrace           = "stacktrace"
	PropFramesToPop          = "framesToPop"
	PropStackElements        = "stackElements"
	PropStackSymbols         = "stackSymbols"
	PropStackReturnAddresses = "stackReturnAddresses"
)

// Object is a loosely typed error record, the shape errors take when they
// cross a bridge from another runtime or arrive as decoded JSON.
type Object map[string]any

// Error implements error.
func (o Object) Error() string {
	name, _ := o[PropName].(string)
	msg, _ := o[PropMessage].(string)
	switch {
	case name == "":
		return msg
	case msg == "":
		return name
	default:
		return name + ": " + msg
	}
}

// Attributer is implemented by Go errors that carry extra properties, such
// as native stack data, for the walker to read.
type Attributer interface {
	Attribute(key string) (any, bool)
}

// properties is a read-only view over one error-like value.
type properties interface {
	get(key string) (any, bool)
	// identity returns a stable address for cycle detection.
	identity() (uintptr, bool)
}

// IsErrorLike reports whether v is a value the walker can read as an error.
func IsErrorLike(v any) bool {
	_, ok := propertiesOf(v, DefaultKey)
	return ok
}

// propertiesOf adapts v into a property view. key is the cause property,
// used by Go errors to map onto errors.Unwrap.
func propertiesOf(v any, key string) (properties, bool) {
	switch x := v.(type) {
	case nil:
		return nil, false
	case Object:
		if x == nil {
			return nil, false
		}
		return mapProps(x), true
	case map[string]any:
		if !looksLikeError(x) {
			return nil, false
		}
		return mapProps(x), true
	case *goja.Exception:
		if x == nil {
			return nil, false
		}
		return propertiesOf(gojaValue(x.Value()), key)
	case *goja.Object:
		if x == nil {
			return nil, false
		}
		if x.ClassName() == "Error" {
			return gojaProps{obj: x}, true
		}
		return propertiesOf(x.Export(), key)
	case error:
		if isNilError(x) {
			return nil, false
		}
		return goErrorProps{err: x, key: key}, true
	default:
		return nil, false
	}
}

// looksLikeError accepts plain maps carrying at least one error property.
func looksLikeError(m map[string]any) bool {
	for _, k := range []string{PropName, PropMessage, PropStack, PropStacktrace,
		PropStackElements, PropStackSymbols, PropStackReturnAddresses} {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

func isNilError(err error) bool {
	v := reflect.ValueOf(err)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

func pointerOf(v any) (uintptr, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		if rv.IsNil() {
			return 0, false
		}
		return rv.Pointer(), true
	}
	return 0, false
}

type mapProps map[string]any

func (m mapProps) get(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

func (m mapProps) identity() (uintptr, bool) {
	return pointerOf(map[string]any(m))
}

// gojaProps reads properties of a script Error object. Nested Error objects
// stay live so their own causes can be followed; everything else is exported.
type gojaProps struct {
	obj *goja.Object
}

func (g gojaProps) get(key string) (any, bool) {
	v := g.obj.Get(key)
	if v == nil || goja.IsUndefined(v) {
		return nil, false
	}
	return gojaValue(v), true
}

func (g gojaProps) identity() (uintptr, bool) {
	return pointerOf(g.obj)
}

func gojaValue(v goja.Value) any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	if o, ok := v.(*goja.Object); ok && o.ClassName() == "Error" {
		return o
	}
	return v.Export()
}

// goErrorProps presents a Go error: name is its dynamic type, message is
// Error() and the cause key follows errors.Unwrap.
type goErrorProps struct {
	err error
	key string
}

func (g goErrorProps) get(key string) (any, bool) {
	if a, ok := g.err.(Attributer); ok {
		if v, ok := a.Attribute(key); ok {
			return v, true
		}
	}

	switch key {
	case PropName:
		return strings.TrimPrefix(fmt.Sprintf("%T", g.err), "*"), true
	case PropMessage:
		return g.err.Error(), true
	case g.key:
		if next := errors.Unwrap(g.err); next != nil {
			return next, true
		}
		if multi, ok := g.err.(interface{ Unwrap() []error }); ok {
			for _, next := range multi.Unwrap() {
				if next != nil {
					return next, true
				}
			}
		}
	}
	return nil, false
}

func (g goErrorProps) identity() (uintptr, bool) {
	return pointerOf(g.err)
}
