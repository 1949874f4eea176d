// Package cmd provides the root command and CLI setup for cleanspring.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"cleanspring.dev/pkg/cleanspring/internal/adapter"
	"cleanspring.dev/pkg/cleanspring/internal/controller"
	"cleanspring.dev/pkg/cleanspring/internal/domain"
	m "cleanspring.dev/pkg/cleanspring/internal/model"
)

var fsAdapter adapter.SourceFSAdapter
var javaParser adapter.JavaParser
var xmlAdapter adapter.XMLAdapter
var javaPrinter adapter.JavaPrinter
var reportStore adapter.ReportStore
var gitAdapter adapter.GitAdapter
var watcher adapter.Watcher
var workflow domain.Workflow
var ui controller.UI

// reportsOutputDirFlag is a root-level flag shared by commands that read/write reports.
var reportsOutputDirFlag string

// excludePatterns is a root-level flag that filters files for applicable commands.
var excludePatterns []string

var (
	verboseFlag      bool
	profileFlag      string
	enableRulesFlag  []string
	disableRulesFlag []string
	parallelFlag     int
)

func init() {
	configureRootFlags(rootCmd)

	// Initialize shared dependencies.
	ui = controller.NewUI(rootCmd, controller.IsTTY(os.Stdout))
	fsAdapter = adapter.NewLocalSourceFSAdapter()
	javaParser = adapter.NewTreeSitterJavaParser(viper.GetInt(parseCacheConfigKey))
	xmlAdapter = adapter.NewRawXMLAdapter()
	javaPrinter = adapter.NewSourcePrinter()
	reportStore = adapter.NewYAMLReportStore()
	gitAdapter = adapter.NewGoGitAdapter()
	watcher = adapter.NewFSWatcher()
	workflow = domain.NewWorkflow(
		fsAdapter,
		javaParser,
		xmlAdapter,
		javaPrinter,
		reportStore,
		gitAdapter,
		watcher,
		ui,
	)
}

const pathPatternsHelp = `Supports Go-style path patterns:
  - ./...             recursively scan current directory
  - ./src/main/...    recursively scan src/main
  - ./a ./b           scan multiple directories (top level only)`

const rootLongDescription = `Cleanspring finds Spring beans wired through field or setter injection
and rewrites them to constructor injection, threading the new constructor
parameter through subclasses, @Bean factory methods, XML bean definitions
and plain call sites.

` + pathPatternsHelp

const inspectLongDescription = `Inspect Java and XML sources for injection problems (default: current directory).

` + pathPatternsHelp

const fixLongDescription = `Apply every available fix, re-inspecting after each one, and write the
changed files back (default: current directory).

` + pathPatternsHelp

// rootCmd represents the base command when called without any subcommands.
var rootCmd = baseRootCmd()

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanspring",
		Short: "Spring constructor injection refactoring tool",
		Long:  rootLongDescription,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(viper.GetString(logFilenameKey), viper.GetBool(logVerboseKey))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

// newRootCmd builds a root command with its persistent flags bound, so
// tests can attach subcommands to a fresh tree.
func newRootCmd() *cobra.Command {
	cmd := baseRootCmd()
	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	flags.StringVarP(&reportsOutputDirFlag, outputFlagName, "o", defaultReportsDir, "output directory for inspection reports")
	bindFlagToConfig(flags.Lookup(outputFlagName), outputFlagName)

	flags.StringArrayVarP(&excludePatterns, excludeFlagName, "x", nil, "exclude files matching regex (can be repeated)")
	bindFlagToConfig(flags.Lookup(excludeFlagName), excludeConfigKey)

	flags.BoolVar(&verboseFlag, verboseFlagName, defaultLogVerbose, "log at debug level")
	bindFlagToConfig(flags.Lookup(verboseFlagName), logVerboseKey)

	flags.StringVar(&profileFlag, profileFlagName, defaultProfile, "precondition rule profile (clean, inject, strict, lenient)")
	bindFlagToConfig(flags.Lookup(profileFlagName), rulesProfileKey)

	flags.StringSliceVar(&enableRulesFlag, enableRuleFlagName, nil, "enable a precondition rule on top of the profile (can be repeated)")
	bindFlagToConfig(flags.Lookup(enableRuleFlagName), rulesEnableKey)

	flags.StringSliceVar(&disableRulesFlag, disableRuleFlagName, nil, "disable a precondition rule of the profile (can be repeated)")
	bindFlagToConfig(flags.Lookup(disableRuleFlagName), rulesDisableKey)

	flags.IntVarP(&parallelFlag, parallelFlagName, "p", defaultRunParallel, "number of files parsed in parallel")
	bindFlagToConfig(flags.Lookup(parallelFlagName), runParallelConfigKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func parsePaths(args []string) []m.Path {
	paths := make([]m.Path, 0, len(args))
	for _, arg := range args {
		paths = append(paths, m.Path(arg))
	}

	return paths
}

// inspectArgs collects the root-level settings every detecting command shares.
func inspectArgs(args []string) domain.InspectArgs {
	return domain.InspectArgs{
		Paths:        parsePaths(args),
		Exclude:      viper.GetStringSlice(excludeConfigKey),
		Reports:      m.Path(viper.GetString(outputFlagName)),
		Parallel:     viper.GetInt(runParallelConfigKey),
		Profile:      viper.GetString(rulesProfileKey),
		EnableRules:  viper.GetStringSlice(rulesEnableKey),
		DisableRules: viper.GetStringSlice(rulesDisableKey),
	}
}
