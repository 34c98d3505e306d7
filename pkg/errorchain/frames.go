package errorchain

import (
	"fmt"
	"strings"

	"github.com/getsentry/sentry-go"
)

// Platform tags for native frames.
const (
	PlatformJava  = "java"
	PlatformCocoa = "cocoa"
)

// symbolPackageOffset is the column the image name starts at in a
// symbolicated stack line; the frame index occupies the first four columns.
const symbolPackageOffset = 4

func managedRuntimeFrames(elements []StackElement, inAppPackage string) []sentry.Frame {
	frames := make([]sentry.Frame, 0, len(elements))
	for _, e := range elements {
		f := sentry.Frame{
			Platform: PlatformJava,
			Module:   e.ClassName,
			Filename: e.FileName,
			Function: e.MethodName,
		}
		if e.LineNumber >= 0 {
			f.Lineno = e.LineNumber
		}
		if inAppPackage != "" && strings.HasPrefix(e.ClassName, inAppPackage) {
			f.InApp = true
		}
		frames = append(frames, f)
	}
	return frames
}

func symbolFrames(symbols []string) []sentry.Frame {
	frames := make([]sentry.Frame, 0, len(symbols))
	for _, s := range symbols {
		if f, ok := parseSymbol(s); ok {
			frames = append(frames, f)
		}
	}
	return frames
}

// parseSymbol reads one symbolicated line positionally, e.g.
//
//	0   MyApp   0x0000000102345678 -[MyApp foo] + 40
//
// Lines without a " 0x" address are dropped. The function is empty when
// nothing but the offset follows the address.
func parseSymbol(line string) (sentry.Frame, bool) {
	i := strings.Index(line, " 0x")
	if i < 0 {
		return sentry.Frame{}, false
	}
	addrStart := i + 1

	addrEnd := len(line)
	if j := strings.IndexByte(line[addrStart:], ' '); j >= 0 {
		addrEnd = addrStart + j
	}

	// Everything after the address up to the " + offset" suffix.
	function := line[addrEnd:]
	if k := strings.Index(function, " + "); k >= 0 {
		function = function[:k]
	}
	function = strings.TrimSpace(function)

	var pkg string
	if addrStart > symbolPackageOffset {
		pkg = strings.TrimRight(line[symbolPackageOffset:addrStart], " \t")
	}

	return sentry.Frame{
		Platform:        PlatformCocoa,
		Package:         pkg,
		Function:        function,
		InstructionAddr: line[addrStart+2 : addrEnd],
	}, true
}

func addressFrames(addresses []uint64) []sentry.Frame {
	frames := make([]sentry.Frame, 0, len(addresses))
	for _, addr := range addresses {
		frames = append(frames, sentry.Frame{
			Platform:        PlatformCocoa,
			InstructionAddr: fmt.Sprintf("%016x", addr),
		})
	}
	return frames
}

func stacktraceOf(frames []sentry.Frame) *sentry.Stacktrace {
	if len(frames) == 0 {
		return nil
	}
	return &sentry.Stacktrace{Frames: frames}
}
