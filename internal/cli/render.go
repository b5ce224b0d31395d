package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/durlin/internal/scenario"
)

// RenderOutput is the data payload of the render command.
type RenderOutput struct {
	Name     string `json:"name"`
	Spec     string `json:"spec,omitempty"`
	Threads  int    `json:"threads"`
	Actors   int    `json:"actors"`
	Hash     string `json:"hash"`
	Rendered string `json:"rendered"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "render <scenario>",
		Short: "Print a scenario as init, parallel and post blocks",
		Long: `Print a scenario in the three-block layout used in reports.

The parallel block has one column per thread. With --verbose, suspendable
actors are marked.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(rootOpts, args[0], cmd)
		},
	}
}

func runRender(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	sc, err := loadScenario(formatter, path)
	if err != nil {
		return err
	}

	rendered := scenario.Render(sc)
	if opts.Verbose {
		rendered = scenario.RenderVerbose(sc)
	}

	if formatter.Format != "json" {
		fmt.Fprintln(formatter.Writer, rendered)
		return nil
	}

	hash, err := sc.Hash()
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeGeneric, "failed to hash scenario", err)
	}
	return formatter.Success(RenderOutput{
		Name:     sc.Name,
		Spec:     sc.Spec,
		Threads:  sc.Threads(),
		Actors:   sc.Size(),
		Hash:     hash,
		Rendered: rendered,
	})
}
