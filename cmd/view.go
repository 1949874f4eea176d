package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"cleanspring.dev/pkg/cleanspring/internal/domain"
	m "cleanspring.dev/pkg/cleanspring/internal/model"
)

// viewCmd represents the view command.
var viewCmd = newViewCmd()

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "View the most recent inspection or fix report",
		Long:  "View the most recent report saved by inspect or fix in the reports directory.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			reportsPath := m.Path(viper.GetString(outputFlagName))
			return workflow.View(cmd.Context(), domain.ViewArgs{Reports: reportsPath})
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
