package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arx-os/svgx-behavior/internal/catalog"
)

// StateListing is one catalogue state in list output.
type StateListing struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	Transitions int    `json:"transitions"`
}

// NewStatesCommand creates the states command.
func NewStatesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "states <catalog.yaml>",
		Short:         "List the states a catalogue declares",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStates(rootOpts, args[0], cmd)
		},
	}
}

func runStates(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := formatterFor(opts, cmd)

	c, err := catalog.Load(path)
	if err != nil {
		if ferr := formatter.Error("E_CATALOG", err.Error(), nil); ferr != nil {
			return ferr
		}
		return WrapExitError(ExitFailure, "catalog load failed", err)
	}

	outgoing := make(map[string]int)
	for _, t := range c.Transitions {
		outgoing[t.From]++
	}

	listings := make([]StateListing, 0, len(c.States))
	for _, s := range c.States {
		listings = append(listings, StateListing{
			ID:          s.ID,
			Type:        s.Type,
			Name:        s.Name,
			Transitions: outgoing[s.ID],
		})
	}
	sort.Slice(listings, func(i, j int) bool { return listings[i].ID < listings[j].ID })

	if opts.Format == "json" {
		return formatter.Success(listings)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "States (%d):\n", len(listings))
	for _, l := range listings {
		fmt.Fprintf(&b, "  %-24s %-12s %-16s %d outgoing\n", l.ID, l.Type, l.Name, l.Transitions)
	}
	return formatter.Success(strings.TrimRight(b.String(), "\n"))
}
