package event

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/getsentry/sentry-go"
)

// Record is the display form of one exception record.
type Record struct {
	Type   string `json:"type" yaml:"type"`
	Value  string `json:"value" yaml:"value"`
	Frames int    `json:"frames" yaml:"frames"`
	Top    string `json:"top_frame,omitempty" yaml:"top_frame,omitempty"`
}

// Summary lists the exception records of an event, oldest cause first.
type Summary struct {
	EventID string   `json:"event_id,omitempty" yaml:"event_id,omitempty"`
	Records []Record `json:"records" yaml:"records"`
}

// Summarize builds the display form of event.
func Summarize(event *sentry.Event) Summary {
	s := Summary{EventID: string(event.EventID)}
	for _, exc := range event.Exception {
		r := Record{Type: exc.Type, Value: exc.Value}
		if exc.Stacktrace != nil {
			r.Frames = len(exc.Stacktrace.Frames)
			if r.Frames > 0 {
				r.Top = describeFrame(exc.Stacktrace.Frames[r.Frames-1])
			}
		}
		s.Records = append(s.Records, r)
	}
	return s
}

// WriteText writes the summary as an aligned table.
func (s Summary) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTYPE\tVALUE\tFRAMES\tTOP FRAME")
	for i, r := range s.Records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", i, orDash(r.Type), r.Value, r.Frames, orDash(r.Top))
	}
	return tw.Flush()
}

func describeFrame(f sentry.Frame) string {
	fn := f.Function
	if fn == "" {
		fn = "?"
	}
	switch {
	case f.Filename != "" && f.Lineno > 0:
		return fmt.Sprintf("%s (%s:%d)", fn, f.Filename, f.Lineno)
	case f.Module != "":
		return fmt.Sprintf("%s (%s)", fn, f.Module)
	case f.InstructionAddr != "":
		if f.Function == "" {
			return f.InstructionAddr
		}
		return fmt.Sprintf("%s (%s)", fn, f.InstructionAddr)
	default:
		return fn
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
