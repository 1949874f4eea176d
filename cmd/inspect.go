package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cleanspring.dev/pkg/cleanspring/internal/domain"
	m "cleanspring.dev/pkg/cleanspring/internal/model"
)

var inspectionFlag []string
var watchFlag bool

// inspectCmd represents the inspect command.
var inspectCmd = newInspectCmd()

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [paths...]",
		Short: "Report field and setter injection problems",
		Long:  inspectLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			inspect := inspectArgs(args)
			inspect.Inspections = parseInspections(inspectionFlag)

			if watchFlag {
				return workflow.Watch(ctx, domain.WatchArgs{
					InspectArgs: inspect,
					Debounce:    watchDebounce(),
				})
			}

			return workflow.Inspect(ctx, inspect)
		},
	}

	configureInspectFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func configureInspectFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&inspectionFlag, inspectionFlagName, "i", nil,
		"run only the named inspections (field-injection, setter-injection, unused-injected-field, "+
			"field-as-bean-parameter, unnecessary-bean-method, possibly-unnecessary-bean-method)")
	cmd.Flags().BoolVarP(&watchFlag, watchFlagName, "w", false, "re-inspect whenever a source file changes")
}

func parseInspections(values []string) []m.InspectionID {
	ids := make([]m.InspectionID, 0, len(values))
	for _, v := range values {
		ids = append(ids, m.InspectionID(v))
	}

	return ids
}
