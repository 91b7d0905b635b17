package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arx-os/svgx-behavior/internal/catalog"
	"github.com/arx-os/svgx-behavior/internal/condition"
	"github.com/arx-os/svgx-behavior/internal/config"
	"github.com/arx-os/svgx-behavior/internal/event"
	"github.com/arx-os/svgx-behavior/internal/state"
)

// RunReport summarizes one scenario run.
type RunReport struct {
	Scenario      string             `json:"scenario"`
	EventsEmitted int                `json:"events_emitted"`
	ResultsOK     int                `json:"results_ok"`
	ResultsFailed int                `json:"results_failed"`
	Transitions   []TransitionReport `json:"transitions,omitempty"`
	FinalStates   map[string]string  `json:"final_states"`
}

// TransitionReport is one scenario transition outcome.
type TransitionReport struct {
	Element string `json:"element"`
	To      string `json:"to"`
	OK      bool   `json:"ok"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	var scenarioPath string
	var configPath string

	cmd := &cobra.Command{
		Use:   "run <catalog.yaml>",
		Short: "Run a scenario against a catalogue",
		Long: `Run a scenario against a behavior catalogue.

Builds the engines, applies the catalogue, emits the scenario's events,
drains the bus, drives the scenario's transitions, and reports the
outcome.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(rootOpts, args[0], scenarioPath, configPath, cmd)
		},
	}

	cmd.Flags().StringVar(&scenarioPath, "scenario", "", "scenario YAML file (required)")
	cmd.Flags().StringVar(&configPath, "config", "", "engine config YAML file")
	cmd.MarkFlagRequired("scenario")
	return cmd
}

func runScenario(opts *RootOptions, catalogPath, scenarioPath, configPath string, cmd *cobra.Command) error {
	formatter := formatterFor(opts, cmd)

	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			if ferr := formatter.Error("E_CONFIG", err.Error(), nil); ferr != nil {
				return ferr
			}
			return WrapExitError(ExitCommandError, "config load failed", err)
		}
	}

	c, err := catalog.Load(catalogPath)
	if err != nil {
		if ferr := formatter.Error("E_CATALOG", err.Error(), nil); ferr != nil {
			return ferr
		}
		return WrapExitError(ExitFailure, "catalog load failed", err)
	}

	s, err := catalog.LoadScenario(scenarioPath)
	if err != nil {
		if ferr := formatter.Error("E_SCENARIO", err.Error(), nil); ferr != nil {
			return ferr
		}
		return WrapExitError(ExitFailure, "scenario load failed", err)
	}

	machine := state.NewMachine(state.WithHistoryLimit(cfg.State.HistoryLimit))
	engine := condition.NewEngine(
		condition.WithCacheSize(cfg.Condition.CacheSize),
		condition.WithHistoryLimit(cfg.Condition.HistoryLimit),
	)
	bus := event.NewBus(
		event.WithPoolSize(cfg.Event.WorkerPool),
		event.WithHandlerTimeout(cfg.Event.DefaultHandlerTimeout.Std()),
		event.WithHistoryLimit(cfg.Event.HistoryLimit),
		event.WithResultLimit(cfg.Event.ResultLimit),
		event.WithCacheTTL(cfg.Event.CacheTTL.Std()),
		event.WithCacheSize(cfg.Event.CacheSize),
	)

	if err := c.Apply(machine, engine, bus); err != nil {
		if ferr := formatter.Error("E_APPLY", err.Error(), nil); ferr != nil {
			return ferr
		}
		return WrapExitError(ExitFailure, "catalog apply failed", err)
	}

	report := RunReport{Scenario: s.Name, FinalStates: make(map[string]string)}

	for _, step := range s.Events {
		e, err := step.Event()
		if err != nil {
			return WrapExitError(ExitFailure, "bad scenario event", err)
		}
		if _, err := bus.Emit(e); err != nil {
			if ferr := formatter.Error("E_EMIT", err.Error(), nil); ferr != nil {
				return ferr
			}
			return WrapExitError(ExitFailure, "emit failed", err)
		}
		report.EventsEmitted++
	}

	// Close the intake and drain everything queued.
	bus.Stop()
	if err := bus.Run(cmd.Context()); err != nil {
		return WrapExitError(ExitFailure, "event loop failed", err)
	}

	for _, r := range bus.Results(0) {
		if r.Success {
			report.ResultsOK++
		} else {
			report.ResultsFailed++
		}
	}

	for _, step := range s.Transitions {
		ok := machine.ExecuteTransition(step.Element, step.To, step.Context)
		report.Transitions = append(report.Transitions, TransitionReport{
			Element: step.Element,
			To:      step.To,
			OK:      ok,
		})
	}

	for _, el := range c.Elements {
		if cur, ok := machine.CurrentState(el.ID); ok {
			report.FinalStates[el.ID] = cur
		}
	}

	if opts.Format == "json" {
		return formatter.Success(report)
	}
	return formatter.Success(renderRunReport(report))
}

func renderRunReport(r RunReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scenario: %s\n", r.Scenario)
	fmt.Fprintf(&b, "Events emitted: %d\n", r.EventsEmitted)
	fmt.Fprintf(&b, "Handler results: %d ok, %d failed\n", r.ResultsOK, r.ResultsFailed)

	if len(r.Transitions) > 0 {
		fmt.Fprintf(&b, "Transitions:\n")
		for _, t := range r.Transitions {
			status := "ok"
			if !t.OK {
				status = "rejected"
			}
			fmt.Fprintf(&b, "  %-12s -> %-24s %s\n", t.Element, t.To, status)
		}
	}

	elements := make([]string, 0, len(r.FinalStates))
	for el := range r.FinalStates {
		elements = append(elements, el)
	}
	sort.Strings(elements)
	fmt.Fprintf(&b, "Final states:\n")
	for _, el := range elements {
		fmt.Fprintf(&b, "  %s: %s\n", el, r.FinalStates[el])
	}
	return strings.TrimRight(b.String(), "\n")
}
