package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/criminalintent/internal/paths"
	"github.com/mesh-intelligence/criminalintent/internal/slogutil"
	"github.com/mesh-intelligence/criminalintent/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	envPrefix      = "CRIMINALINTENT"

	cfgKeyBackend      = "backend"
	cfgKeyDataDir      = "data_dir"
	cfgKeyDatabaseName = "database_name"
	cfgKeyQueueSize    = "queue_size"
	cfgKeyLogLevel     = "log_level"
	cfgKeyLogFile      = "log_file"

	defaultLogLevel = "warn"
)

// envKeys may be overridden by CRIMINALINTENT_<KEY>. data_dir is absent:
// its environment variable ranks below the config file and is handled by
// paths.ResolveDataDir.
var envKeys = []string{cfgKeyBackend, cfgKeyDatabaseName, cfgKeyQueueSize, cfgKeyLogLevel}

// settings is the resolved CLI configuration.
type settings struct {
	configDir string
	store     types.Config
	logLevel  string
	logFile   string
}

// loadConfig reads config.yaml from configDir using Viper. A missing file
// is not an error; defaults apply.
func loadConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyDatabaseName, types.DefaultDatabaseName)
	v.SetDefault(cfgKeyQueueSize, types.DefaultQueueSize)
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	v.SetEnvPrefix(envPrefix)
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// resolveSettings applies flag, config, and environment precedence.
func (o *rootOptions) resolveSettings() (settings, error) {
	configDir, err := paths.ResolveConfigDir(o.configDir)
	if err != nil {
		return settings{}, sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return settings{}, userError(err)
	}
	dataDir, err := paths.ResolveDataDir(o.dataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return settings{}, sysError(fmt.Errorf("resolve data dir: %w", err))
	}

	s := settings{
		configDir: configDir,
		store: types.Config{
			Backend:      v.GetString(cfgKeyBackend),
			DataDir:      dataDir,
			DatabaseName: v.GetString(cfgKeyDatabaseName),
			QueueSize:    v.GetInt(cfgKeyQueueSize),
		},
		logLevel: v.GetString(cfgKeyLogLevel),
		logFile:  v.GetString(cfgKeyLogFile),
	}
	if err := s.store.Validate(); err != nil {
		return settings{}, userError(fmt.Errorf("invalid configuration in %s: %w", configDir, err))
	}
	return s, nil
}

// level picks the log level: --log-level, then -q or -v, then the
// configured one.
func (o *rootOptions) level(configured string) slog.Level {
	if o.logLevel != "" {
		return slogutil.LevelFromString(o.logLevel)
	}
	if o.quiet || o.verbose > 0 {
		return slogutil.LevelFromVerbosity(o.verbose, o.quiet)
	}
	return slogutil.LevelFromString(configured)
}

// logger builds the command logger. It writes to --log-file, then the
// configured log_file, then stderr. The returned close function releases
// the log file and is never nil.
func (o *rootOptions) logger(stderr io.Writer, s settings) (*slog.Logger, func() error, error) {
	level := o.level(s.logLevel)
	path := o.logFile
	if path == "" {
		path = s.logFile
	}
	if path == "" {
		return slogutil.NewLogger(stderr, level), func() error { return nil }, nil
	}
	logger, f, err := slogutil.NewFileLogger(path, level)
	if err != nil {
		return nil, nil, userError(fmt.Errorf("open log file: %w", err))
	}
	return logger, f.Close, nil
}
