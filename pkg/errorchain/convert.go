package errorchain

import (
	"fmt"
	"regexp"

	"github.com/getsentry/sentry-go"

	"mercator-hq/beacon/pkg/stacktrace"
)

// Placeholder values for errors that carry no usable message.
const (
	NoErrorMessage     = "No error message"
	UnrecoverableError = "Unrecoverable error caught"
)

var minifiedFrameworkError = regexp.MustCompile(`(?i)Minified React error #\d+;`)

// ExceptionFromError converts a script error into an exception record.
// Non error-like values yield a record built from their printed form.
func ExceptionFromError(parser stacktrace.Parser, v any) sentry.Exception {
	props, ok := propertiesOf(v, DefaultKey)
	if !ok {
		return sentry.Exception{Value: valueOrPlaceholder(fmt.Sprint(v), false)}
	}
	return exceptionFromProps(parser, props)
}

func exceptionFromProps(parser stacktrace.Parser, props properties) sentry.Exception {
	// Stack text is read before anything else; some engines build it lazily
	// and drop it once other properties are touched.
	stack := stackText(props)

	frames := parseFrames(parser, stack, framesToSkip(props))

	name, hasName := stringProp(props, PropName)
	return sentry.Exception{
		Type:       name,
		Value:      valueOrPlaceholder(extractMessage(props), hasName),
		Stacktrace: stacktraceOf(frames),
	}
}

func stackText(props properties) string {
	if s, ok := stringProp(props, PropStacktrace); ok {
		return s
	}
	if s, ok := stringProp(props, PropStack); ok {
		return s
	}
	return ""
}

func framesToSkip(props properties) int {
	if raw, ok := props.get(PropFramesToPop); ok {
		if n, ok := toInt(raw); ok {
			return n
		}
	}
	if msg, ok := stringProp(props, PropMessage); ok && minifiedFrameworkError.MatchString(msg) {
		return 1
	}
	return 0
}

// parseFrames runs the parser, treating a failure or panic as no frames.
func parseFrames(parser stacktrace.Parser, stack string, skip int) (frames []sentry.Frame) {
	if parser == nil {
		return nil
	}
	defer func() {
		if recover() != nil {
			frames = nil
		}
	}()

	frames, err := parser(stack, skip)
	if err != nil {
		return nil
	}
	return frames
}

// extractMessage returns the message, unwrapping event objects that were
// assigned as a message and expose error.message.
func extractMessage(props properties) string {
	raw, ok := props.get(PropMessage)
	if !ok || raw == nil {
		return NoErrorMessage
	}

	switch m := raw.(type) {
	case string:
		return m
	case map[string]any:
		if inner, ok := m["error"].(map[string]any); ok {
			if s, ok := inner[PropMessage].(string); ok {
				return s
			}
		}
	}
	return fmt.Sprint(raw)
}

// valueOrPlaceholder keeps record values non-empty.
func valueOrPlaceholder(msg string, hasName bool) string {
	if msg != "" {
		return msg
	}
	if !hasName {
		return UnrecoverableError
	}
	return NoErrorMessage
}

func stringProp(props properties, key string) (string, bool) {
	raw, ok := props.get(key)
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	return s, ok
}
