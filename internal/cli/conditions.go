package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arx-os/svgx-behavior/internal/catalog"
)

// ConditionListing is one catalogue condition in list output.
type ConditionListing struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	Expression string `json:"expression,omitempty"`
}

// NewConditionsCommand creates the conditions command.
func NewConditionsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "conditions <catalog.yaml>",
		Short:         "List the conditions a catalogue declares",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConditions(rootOpts, args[0], cmd)
		},
	}
}

func runConditions(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := formatterFor(opts, cmd)

	c, err := catalog.Load(path)
	if err != nil {
		if ferr := formatter.Error("E_CATALOG", err.Error(), nil); ferr != nil {
			return ferr
		}
		return WrapExitError(ExitFailure, "catalog load failed", err)
	}

	listings := make([]ConditionListing, 0, len(c.Conditions))
	for _, def := range c.Conditions {
		listings = append(listings, ConditionListing{
			ID:         def.ID,
			Kind:       kindOf(def),
			Expression: def.Expression,
		})
	}
	sort.Slice(listings, func(i, j int) bool { return listings[i].ID < listings[j].ID })

	if opts.Format == "json" {
		return formatter.Success(listings)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Conditions (%d):\n", len(listings))
	for _, l := range listings {
		if l.Expression != "" {
			fmt.Fprintf(&b, "  %-24s %-12s %s\n", l.ID, l.Kind, l.Expression)
		} else {
			fmt.Fprintf(&b, "  %-24s %s\n", l.ID, l.Kind)
		}
	}
	return formatter.Success(strings.TrimRight(b.String(), "\n"))
}

func kindOf(def catalog.ConditionDef) string {
	switch {
	case def.Threshold != nil:
		return "threshold"
	case def.Time != nil:
		return "time"
	case def.Spatial != nil:
		return "spatial"
	case def.Relational != nil:
		return "relational"
	default:
		return "complex"
	}
}
