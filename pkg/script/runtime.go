package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/getsentry/sentry-go"

	"mercator-hq/beacon/pkg/config"
	"mercator-hq/beacon/pkg/telemetry/logging"
	"mercator-hq/beacon/pkg/telemetry/metrics"
)

// Run statuses, also used as the metrics label.
const (
	StatusOK           = "ok"
	StatusThrown       = "thrown"
	StatusInterrupted  = "interrupted"
	StatusCompileError = "compile_error"
)

// ErrInterrupted is returned when a script is stopped by its timeout or by
// context cancellation.
var ErrInterrupted = errors.New("script interrupted")

// Reporter receives values thrown by scripts. *client.Client satisfies it.
type Reporter interface {
	CaptureException(v any) *sentry.EventID
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithReporter sets where thrown values are reported.
func WithReporter(r Reporter) Option {
	return func(rt *Runtime) { rt.reporter = r }
}

// WithLogger sets the logger used for console output and run results.
func WithLogger(l *slog.Logger) Option {
	return func(rt *Runtime) { rt.logger = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.ScriptMetrics) Option {
	return func(rt *Runtime) { rt.metrics = m }
}

// Runtime runs scripts in fresh goja VMs. A value thrown by a script is
// reported as an exception; its cause chain is normalized by the client.
type Runtime struct {
	timeout          time.Duration
	maxCallStackSize int

	reporter Reporter
	logger   *slog.Logger
	metrics  *metrics.ScriptMetrics
}

// New creates a Runtime.
func New(cfg config.ScriptConfig, opts ...Option) *Runtime {
	rt := &Runtime{
		timeout:          cfg.Timeout,
		maxCallStackSize: cfg.MaxCallStackSize,
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.logger == nil {
		rt.logger = slog.Default()
	}
	return rt
}

// Result is the outcome of a run.
type Result struct {
	// Value is the exported completion value of the script.
	Value any

	// Status is one of the Status constants.
	Status string

	// EventID is set when a thrown value was reported.
	EventID *sentry.EventID

	Duration time.Duration
}

// Run compiles and runs src under name. Thrown values are reported and
// returned as *goja.Exception.
func (rt *Runtime) Run(ctx context.Context, name, src string) (*Result, error) {
	ctx = logging.WithScript(ctx, name)
	if rt.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rt.timeout)
		defer cancel()
	}

	start := time.Now()
	result := &Result{}
	defer func() {
		result.Duration = time.Since(start)
		rt.metrics.RecordRun(result.Status, result.Duration)
	}()

	prg, err := goja.Compile(name, src, false)
	if err != nil {
		result.Status = StatusCompileError
		rt.logger.WarnContext(ctx, "Script failed to compile", "error", err)
		return result, fmt.Errorf("failed to compile script %q: %w", name, err)
	}

	vm := rt.newVM(ctx)
	stop := context.AfterFunc(ctx, func() {
		vm.Interrupt(ctx.Err())
	})
	defer stop()

	val, err := vm.RunProgram(prg)
	if err != nil {
		return result, rt.handleError(ctx, name, result, err)
	}

	result.Status = StatusOK
	if val != nil && !goja.IsUndefined(val) && !goja.IsNull(val) {
		result.Value = val.Export()
	}
	rt.logger.DebugContext(ctx, "Script completed")
	return result, nil
}

func (rt *Runtime) handleError(ctx context.Context, name string, result *Result, err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		result.Status = StatusInterrupted
		rt.logger.WarnContext(ctx, "Script interrupted", "reason", interrupted.Value())
		return fmt.Errorf("%w: %s: %v", ErrInterrupted, name, interrupted.Value())
	}

	var exc *goja.Exception
	if errors.As(err, &exc) {
		result.Status = StatusThrown
		if rt.reporter != nil {
			result.EventID = rt.reporter.CaptureException(exc)
		}
		rt.logger.InfoContext(ctx, "Script threw", "error", exc.Error())
		return exc
	}

	result.Status = StatusThrown
	return fmt.Errorf("script %q failed: %w", name, err)
}

func (rt *Runtime) newVM(ctx context.Context) *goja.Runtime {
	vm := goja.New()
	if rt.maxCallStackSize > 0 {
		vm.SetMaxCallStackSize(rt.maxCallStackSize)
	}

	console := vm.NewObject()
	_ = console.Set("log", rt.consoleFunc(ctx, slog.LevelInfo))
	_ = console.Set("info", rt.consoleFunc(ctx, slog.LevelInfo))
	_ = console.Set("warn", rt.consoleFunc(ctx, slog.LevelWarn))
	_ = console.Set("error", rt.consoleFunc(ctx, slog.LevelError))
	_ = vm.Set("console", console)
	return vm
}

func (rt *Runtime) consoleFunc(ctx context.Context, level slog.Level) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, 0, len(call.Arguments))
		for _, arg := range call.Arguments {
			parts = append(parts, arg.String())
		}
		rt.logger.Log(ctx, level, strings.Join(parts, " "), "source", "console")
		return goja.Undefined()
	}
}
