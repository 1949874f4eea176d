package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"cleanspring.dev/pkg/cleanspring/internal/domain"
)

var (
	fixInspectionFlag   []string
	fixDryRunFlag       bool
	fixRequireCleanFlag bool
	fixMaxFlag          int
	fixJournalDirFlag   string
)

// fixCmd represents the fix command.
var fixCmd = newFixCmd()

func newFixCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fix [paths...]",
		Short: "Rewrite injected fields and setters to constructor injection",
		Long:  fixLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			inspect := inspectArgs(args)
			inspect.Inspections = parseInspections(fixInspectionFlag)

			return workflow.Fix(ctx, domain.FixArgs{
				InspectArgs:  inspect,
				DryRun:       viper.GetBool(fixDryRunKey),
				RequireClean: viper.GetBool(fixRequireCleanKey),
				Max:          viper.GetInt(fixMaxKey),
				JournalDir:   viper.GetString(fixJournalDirKey),
			})
		},
	}

	configureFixFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(fixCmd)
}

func configureFixFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.StringSliceVarP(&fixInspectionFlag, inspectionFlagName, "i", nil, "apply only fixes of the named inspections")

	flags.BoolVarP(&fixDryRunFlag, dryRunFlagName, "n", defaultFixDryRun, "print a unified diff instead of writing files")
	bindFlagToConfig(flags.Lookup(dryRunFlagName), fixDryRunKey)

	flags.BoolVar(&fixRequireCleanFlag, requireCleanFlagName, defaultFixRequireClean, "refuse to write when the git work tree has uncommitted changes")
	bindFlagToConfig(flags.Lookup(requireCleanFlagName), fixRequireCleanKey)

	flags.IntVar(&fixMaxFlag, maxFlagName, defaultFixMax, "apply at most this many fixes (0 = no limit)")
	bindFlagToConfig(flags.Lookup(maxFlagName), fixMaxKey)

	flags.StringVar(&fixJournalDirFlag, journalDirFlagName, "", "directory for the write journal (default: system temp dir)")
	bindFlagToConfig(flags.Lookup(journalDirFlagName), fixJournalDirKey)
}
