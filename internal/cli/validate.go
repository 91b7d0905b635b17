package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arx-os/svgx-behavior/internal/catalog"
)

// CatalogSummary describes a validated catalogue.
type CatalogSummary struct {
	Valid       bool `json:"valid"`
	Conditions  int  `json:"conditions"`
	States      int  `json:"states"`
	Transitions int  `json:"transitions"`
	Handlers    int  `json:"handlers"`
	Elements    int  `json:"elements"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <catalog.yaml>",
		Short: "Validate a behavior catalogue",
		Long: `Validate a behavior catalogue file without running it.

Checks YAML structure, condition specs, state references, and handler
declarations, reporting every problem found.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := formatterFor(opts, cmd)

	c, err := catalog.Load(path)
	if err != nil {
		if ferr := formatter.Error("E_CATALOG", err.Error(), nil); ferr != nil {
			return ferr
		}
		return WrapExitError(ExitFailure, "catalog validation failed", err)
	}

	summary := CatalogSummary{
		Valid:       true,
		Conditions:  len(c.Conditions),
		States:      len(c.States),
		Transitions: len(c.Transitions),
		Handlers:    len(c.Handlers),
		Elements:    len(c.Elements),
	}

	if opts.Format == "json" {
		return formatter.Success(summary)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✓ Catalog valid: %s\n", path)
	fmt.Fprintf(&b, "  conditions:  %d\n", summary.Conditions)
	fmt.Fprintf(&b, "  states:      %d\n", summary.States)
	fmt.Fprintf(&b, "  transitions: %d\n", summary.Transitions)
	fmt.Fprintf(&b, "  handlers:    %d\n", summary.Handlers)
	fmt.Fprintf(&b, "  elements:    %d", summary.Elements)
	return formatter.Success(b.String())
}
