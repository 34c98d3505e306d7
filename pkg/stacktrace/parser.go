package stacktrace

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/getsentry/sentry-go"
)

// MaxFrames is the number of innermost frames kept from one stack text.
const MaxFrames = 50

// UnknownFunction names frames whose function could not be determined.
const UnknownFunction = "?"

// ErrNegativeSkip is returned when a parser is asked to skip fewer than zero frames.
var ErrNegativeSkip = errors.New("stacktrace: negative frame skip")

// Parser turns raw stack text into frames, dropping the skip innermost
// frames. Frames are returned oldest call first.
type Parser func(stack string, skip int) ([]sentry.Frame, error)

var (
	// at fn (file:line:col) and at fn (file:line:col(pc)), as printed by V8 and goja.
	chromeNamed = regexp.MustCompile(`^\s*at (?:new )?(.+?) \((.*?):(\d+):(\d+)(?:\(\d+\))?\)\s*$`)
	// at file:line:col, anonymous top-level code.
	chromeAnon = regexp.MustCompile(`^\s*at (.*?):(\d+):(\d+)(?:\(\d+\))?\s*$`)
	// at fn (native), goja builtins.
	chromeNative = regexp.MustCompile(`^\s*at (.+?) \(native\)\s*$`)
	// fn@file:line:col, as printed by SpiderMonkey and JavaScriptCore.
	gecko = regexp.MustCompile(`^\s*(.*?)@(.*?):(\d+):(\d+)\s*$`)
)

// Parse is the default Parser. It understands V8 and goja "at" lines and
// the fn@file:line:col format; other lines (the message header, blank
// lines) are ignored.
func Parse(stack string, skip int) ([]sentry.Frame, error) {
	if skip < 0 {
		return nil, ErrNegativeSkip
	}

	var frames []sentry.Frame
	for _, line := range strings.Split(stack, "\n") {
		if frame, ok := parseLine(line); ok {
			frames = append(frames, frame)
		}
	}

	// Stack text lists the innermost call first.
	if skip >= len(frames) {
		return nil, nil
	}
	frames = frames[skip:]
	if len(frames) > MaxFrames {
		frames = frames[:MaxFrames]
	}

	out := make([]sentry.Frame, len(frames))
	for i, f := range frames {
		out[len(frames)-1-i] = f
	}
	return out, nil
}

func parseLine(line string) (sentry.Frame, bool) {
	if m := chromeNamed.FindStringSubmatch(line); m != nil {
		return newFrame(m[1], m[2], m[3], m[4]), true
	}
	if m := chromeNative.FindStringSubmatch(line); m != nil {
		return sentry.Frame{Function: m[1], Filename: "native", InApp: false}, true
	}
	if m := chromeAnon.FindStringSubmatch(line); m != nil {
		return newFrame("", m[1], m[2], m[3]), true
	}
	if m := gecko.FindStringSubmatch(line); m != nil {
		return newFrame(m[1], m[2], m[3], m[4]), true
	}
	return sentry.Frame{}, false
}

func newFrame(function, filename, line, col string) sentry.Frame {
	if function == "" {
		function = UnknownFunction
	}
	lineno, _ := strconv.Atoi(line)
	colno, _ := strconv.Atoi(col)

	return sentry.Frame{
		Function: function,
		Filename: filename,
		Lineno:   lineno,
		Colno:    colno,
		InApp:    isInApp(filename),
	}
}

func isInApp(filename string) bool {
	if filename == "" || filename == "native" || filename == "<native>" {
		return false
	}
	return !strings.Contains(filename, "/node_modules/")
}
