package cmd

import (
	"errors"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"cleanspring.dev/pkg/cleanspring/internal/domain/preconditions"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "cleanspring"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	outputFlagName      = "output"
	excludeFlagName     = "exclude"
	parallelFlagName    = "parallel"
	verboseFlagName     = "verbose"
	profileFlagName     = "profile"
	enableRuleFlagName  = "enable-rule"
	disableRuleFlagName = "disable-rule"

	inspectionFlagName   = "inspection"
	watchFlagName        = "watch"
	dryRunFlagName       = "dry-run"
	requireCleanFlagName = "require-clean"
	maxFlagName          = "max"
	journalDirFlagName   = "journal-dir"

	runParallelConfigKey = "run.parallel"
	parseCacheConfigKey  = "run.parse_cache"
	excludeConfigKey     = "paths.exclude"
	rulesProfileKey      = "rules.profile"
	rulesEnableKey       = "rules.enable"
	rulesDisableKey      = "rules.disable"
	fixDryRunKey         = "fix.dry_run"
	fixRequireCleanKey   = "fix.require_clean"
	fixMaxKey            = "fix.max"
	fixJournalDirKey     = "fix.journal_dir"
	watchDebounceKey     = "watch.debounce"

	defaultReportsDir      = ".cleanspring-reports"
	defaultRunParallel     = 4
	defaultParseCache      = 512
	defaultProfile         = preconditions.DefaultProfile
	defaultFixDryRun       = false
	defaultFixRequireClean = false
	defaultFixMax          = 0
	defaultWatchDebounce   = 300 * time.Millisecond

	envPrefix = "CLEANSPRING"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".cleanspring.log"
	defaultLogLevel      = int(slog.LevelInfo)
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var globalLogger *slog.Logger

func init() {
	// A missing .env is the common case.
	_ = godotenv.Load()

	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(outputFlagName, defaultReportsDir)
	viper.SetDefault(runParallelConfigKey, defaultRunParallel)
	viper.SetDefault(parseCacheConfigKey, defaultParseCache)
	viper.SetDefault(excludeConfigKey, []string{})
	viper.SetDefault(rulesProfileKey, defaultProfile)
	viper.SetDefault(rulesEnableKey, []string{})
	viper.SetDefault(rulesDisableKey, []string{})
	viper.SetDefault(fixDryRunKey, defaultFixDryRun)
	viper.SetDefault(fixRequireCleanKey, defaultFixRequireClean)
	viper.SetDefault(fixMaxKey, defaultFixMax)
	viper.SetDefault(fixJournalDirKey, "")
	viper.SetDefault(watchDebounceKey, defaultWatchDebounce.String())

	// Logging defaults (used by config/env and as fallbacks for flags).
	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return
		}

		return
	}
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Allow numeric slog levels as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// watchDebounce reads the debounce window, accepting a duration string or
// a number of milliseconds.
func watchDebounce() time.Duration {
	raw := strings.TrimSpace(viper.GetString(watchDebounceKey))

	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}

	if n, err := strconv.Atoi(raw); err == nil && n > 0 {
		return time.Duration(n) * time.Millisecond
	}

	return defaultWatchDebounce
}

// configureLogger configures the global slog logger.
//
// By default it logs at Info; if verbose is true it logs at Debug.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	var logLevel slog.Level
	if verbose {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}
