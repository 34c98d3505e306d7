package main

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"mercator-hq/beacon/pkg/cli"
	"mercator-hq/beacon/pkg/lifecycle"
	"mercator-hq/beacon/pkg/transaction"
)

var simulateFlags struct {
	steps  []string
	spans  []string
	finish time.Duration
	name   string
	op     string
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Replay lifecycle transitions through a transaction",
	Long: `Start a transaction on a simulated clock, deliver foreground/background
transitions at the given offsets, finish the transaction and print the
spans it would be sent with.

Steps are STATE@OFFSET (active, background, inactive). Extra spans are
OP@START-END and are recorded when the clock reaches their start.

Examples:
  # One background interval that closes before the transaction ends
  beacon simulate --step background@2s --step active@5s --span ui.render@5s-6s --finish 8s

  # A background interval that is the last thing to end gets pruned
  beacon simulate --step background@2s --step active@5s --finish 5s`,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringArrayVar(&simulateFlags.steps, "step", nil, "lifecycle transition STATE@OFFSET (repeatable)")
	simulateCmd.Flags().StringArrayVar(&simulateFlags.spans, "span", nil, "extra child span OP@START-END (repeatable)")
	simulateCmd.Flags().DurationVar(&simulateFlags.finish, "finish", 0, "offset the transaction finishes at (defaults to the last event)")
	simulateCmd.Flags().StringVar(&simulateFlags.name, "name", "simulation", "transaction name")
	simulateCmd.Flags().StringVar(&simulateFlags.op, "op", "ui.load", "transaction operation")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	f, err := formatter()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, nil)
	if err != nil {
		return cli.NewCommandError("simulate", err)
	}

	sim := simulation{
		Name:   simulateFlags.name,
		Op:     simulateFlags.op,
		Finish: simulateFlags.finish,
	}
	for _, s := range simulateFlags.steps {
		st, err := parseStep(s)
		if err != nil {
			return cli.NewConfigError("step", err.Error())
		}
		sim.Steps = append(sim.Steps, st)
	}
	for _, s := range simulateFlags.spans {
		sp, err := parseSpan(s)
		if err != nil {
			return cli.NewConfigError("span", err.Error())
		}
		sim.Spans = append(sim.Spans, sp)
	}

	result, err := sim.run(logger)
	if err != nil {
		return cli.NewCommandError("simulate", err)
	}
	return f.FormatTo(cmd.OutOrStdout(), result)
}

// simulationEpoch anchors the simulated clock so offsets print stably.
var simulationEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type step struct {
	State  lifecycle.AppState
	Offset time.Duration
}

type spanSpec struct {
	Op         string
	Start, End time.Duration
}

type simulation struct {
	Name   string
	Op     string
	Steps  []step
	Spans  []spanSpec
	Finish time.Duration
}

// SimulatedSpan is a child span of the simulated transaction, with times as
// offsets from the transaction start.
type SimulatedSpan struct {
	Op          string `json:"op" yaml:"op"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Start       string `json:"start" yaml:"start"`
	End         string `json:"end" yaml:"end"`
}

// SimulationResult is the transaction as it would be sent.
type SimulationResult struct {
	Transaction string          `json:"transaction" yaml:"transaction"`
	Duration    string          `json:"duration" yaml:"duration"`
	Spans       []SimulatedSpan `json:"spans" yaml:"spans"`
	Pruned      int             `json:"pruned" yaml:"pruned"`
}

// WriteText writes the spans as an aligned table.
func (r SimulationResult) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Transaction %s (%s), %d span(s), %d pruned\n", r.Transaction, r.Duration, len(r.Spans), r.Pruned)
	fmt.Fprintln(tw, "OP\tDESCRIPTION\tSTART\tEND")
	for _, s := range r.Spans {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Op, orDash(s.Description), s.Start, s.End)
	}
	return tw.Flush()
}

type action struct {
	at   time.Duration
	step *step
	span *spanSpec
}

func (s simulation) run(logger *slog.Logger) (SimulationResult, error) {
	var actions []action
	last := time.Duration(0)
	for i := range s.Steps {
		actions = append(actions, action{at: s.Steps[i].Offset, step: &s.Steps[i]})
		last = max(last, s.Steps[i].Offset)
	}
	for i := range s.Spans {
		actions = append(actions, action{at: s.Spans[i].Start, span: &s.Spans[i]})
		last = max(last, s.Spans[i].End)
	}
	sort.SliceStable(actions, func(i, j int) bool { return actions[i].at < actions[j].at })

	finish := s.Finish
	if finish == 0 {
		finish = last
	}
	if finish < last {
		return SimulationResult{}, fmt.Errorf("finish offset %s is before the last event at %s", finish, last)
	}

	clock := clockwork.NewFakeClockAt(simulationEpoch)
	scope := transaction.NewScope()
	src := lifecycle.NewEmitter()
	reconciler := lifecycle.NewReconciler(lifecycle.Options{
		Clock:   clock,
		Current: scope.Accessor(),
		Logger:  logger,
	})
	reconciler.Setup(src)

	tx := transaction.New(s.Name, s.Op, transaction.WithClock(clock), transaction.WithLogger(logger))
	tx.OnFinish(scope.Clear)
	scope.SetTransaction(tx)

	for _, a := range actions {
		clock.Advance(simulationEpoch.Add(a.at).Sub(clock.Now()))
		switch {
		case a.step != nil:
			src.Emit(a.step.State)
		case a.span != nil:
			tx.StartChild(a.span.Op, "").Finish(simulationEpoch.Add(a.span.End))
		}
	}
	clock.Advance(simulationEpoch.Add(finish).Sub(clock.Now()))

	before := len(tx.Event().Spans)
	tx.Finish()
	event := tx.Event()

	result := SimulationResult{
		Transaction: s.Name,
		Duration:    finish.String(),
		Pruned:      before - len(event.Spans),
	}
	for _, sp := range event.Spans {
		result.Spans = append(result.Spans, SimulatedSpan{
			Op:          sp.Op,
			Description: sp.Description,
			Start:       sp.StartTime.Sub(simulationEpoch).String(),
			End:         sp.EndTime.Sub(simulationEpoch).String(),
		})
	}
	return result, nil
}

func parseStep(s string) (step, error) {
	state, offset, ok := strings.Cut(s, "@")
	if !ok {
		return step{}, fmt.Errorf("invalid step %q: want STATE@OFFSET", s)
	}
	d, err := time.ParseDuration(offset)
	if err != nil || d < 0 {
		return step{}, fmt.Errorf("invalid step offset %q", offset)
	}
	return step{State: lifecycle.ParseState(state), Offset: d}, nil
}

func parseSpan(s string) (spanSpec, error) {
	op, window, ok := strings.Cut(s, "@")
	if !ok || op == "" {
		return spanSpec{}, fmt.Errorf("invalid span %q: want OP@START-END", s)
	}
	from, to, ok := strings.Cut(window, "-")
	if !ok {
		return spanSpec{}, fmt.Errorf("invalid span window %q: want START-END", window)
	}
	start, err := time.ParseDuration(from)
	if err != nil || start < 0 {
		return spanSpec{}, fmt.Errorf("invalid span start %q", from)
	}
	end, err := time.ParseDuration(to)
	if err != nil || end < start {
		return spanSpec{}, fmt.Errorf("invalid span end %q", to)
	}
	return spanSpec{Op: op, Start: start, End: end}, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
