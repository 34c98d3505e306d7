package errorchain

import (
	"encoding/json"
	"math"
)

// Kind labels the runtime an error value came from.
type Kind int

const (
	// KindScript is a script-engine error whose frames come from stack text.
	KindScript Kind = iota
	// KindManagedRuntime is a managed-runtime (JVM-style) exception with
	// structured stack elements.
	KindManagedRuntime
	// KindSymbolicatedNative is a native exception with symbolicated stack lines.
	KindSymbolicatedNative
	// KindRawAddressNative is a native exception with bare return addresses.
	KindRawAddressNative
)

func (k Kind) String() string {
	switch k {
	case KindManagedRuntime:
		return "managed_runtime"
	case KindSymbolicatedNative:
		return "symbolicated_native"
	case KindRawAddressNative:
		return "raw_address_native"
	default:
		return "script"
	}
}

// StackElement is one frame of a managed-runtime exception.
type StackElement struct {
	ClassName  string
	FileName   string
	MethodName string
	LineNumber int
}

// Classified is an error value after shape inspection. Exactly the field
// matching Kind is populated.
type Classified struct {
	Kind Kind

	Elements  []StackElement
	Symbols   []string
	Addresses []uint64

	props properties
}

// Classify inspects v once and returns its variant. The probe order is
// fixed: stack elements, then stack symbols, then return addresses; anything
// else is a script error. Malformed stack data yields an empty frame list,
// never a different variant.
func Classify(v any) (Classified, bool) {
	props, ok := propertiesOf(v, DefaultKey)
	if !ok {
		return Classified{}, false
	}
	return classify(props), true
}

func classify(props properties) Classified {
	if raw, ok := props.get(PropStackElements); ok {
		return Classified{Kind: KindManagedRuntime, Elements: toElements(raw), props: props}
	}
	if raw, ok := props.get(PropStackSymbols); ok {
		return Classified{Kind: KindSymbolicatedNative, Symbols: toStrings(raw), props: props}
	}
	if raw, ok := props.get(PropStackReturnAddresses); ok {
		return Classified{Kind: KindRawAddressNative, Addresses: toAddresses(raw), props: props}
	}
	return Classified{Kind: KindScript, props: props}
}

func toElements(raw any) []StackElement {
	switch x := raw.(type) {
	case []StackElement:
		return x
	case []map[string]any:
		out := make([]StackElement, 0, len(x))
		for _, m := range x {
			out = append(out, elementFromMap(m))
		}
		return out
	case []any:
		out := make([]StackElement, 0, len(x))
		for _, item := range x {
			switch e := item.(type) {
			case map[string]any:
				out = append(out, elementFromMap(e))
			case StackElement:
				out = append(out, e)
			}
		}
		return out
	}
	return nil
}

func elementFromMap(m map[string]any) StackElement {
	e := StackElement{LineNumber: -1}
	e.ClassName, _ = m["className"].(string)
	e.FileName, _ = m["fileName"].(string)
	e.MethodName, _ = m["methodName"].(string)
	if n, ok := toInt(m["lineNumber"]); ok {
		e.LineNumber = n
	}
	return e
}

func toStrings(raw any) []string {
	switch x := raw.(type) {
	case []string:
		return x
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func toAddresses(raw any) []uint64 {
	switch x := raw.(type) {
	case []uint64:
		return x
	case []int64:
		out := make([]uint64, 0, len(x))
		for _, n := range x {
			if n >= 0 {
				out = append(out, uint64(n))
			}
		}
		return out
	case []int:
		out := make([]uint64, 0, len(x))
		for _, n := range x {
			if n >= 0 {
				out = append(out, uint64(n))
			}
		}
		return out
	case []any:
		out := make([]uint64, 0, len(x))
		for _, item := range x {
			if n, ok := toUint64(item); ok {
				out = append(out, n)
			}
		}
		return out
	}
	return nil
}

// toInt accepts the numeric types produced by Go callers, JSON decoding
// and goja export.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint64:
		if n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	}
	return 0, false
}

func toUint64(v any) (uint64, bool) {
	switch n := v.(type) {
	case uint64:
		return n, true
	case uint:
		return uint64(n), true
	case int:
		return uint64(n), n >= 0
	case int64:
		return uint64(n), n >= 0
	case float64:
		if n < 0 || math.IsNaN(n) || n >= math.MaxUint64 {
			return 0, false
		}
		return uint64(n), true
	case json.Number:
		i, err := n.Int64()
		return uint64(i), err == nil && i >= 0
	}
	return 0, false
}
