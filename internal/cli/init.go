package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/criminalintent/internal/paths"
	"github.com/mesh-intelligence/criminalintent/pkg/sqlite"
	"github.com/mesh-intelligence/criminalintent/pkg/types"
)

// configFile holds the structure written to config.yaml.
type configFile struct {
	Backend      string `yaml:"backend"`
	DataDir      string `yaml:"data_dir,omitempty"`
	DatabaseName string `yaml:"database_name,omitempty"`
	QueueSize    int    `yaml:"queue_size,omitempty"`
	LogLevel     string `yaml:"log_level,omitempty"`
	LogFile      string `yaml:"log_file,omitempty"`
}

func newInitCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration and storage",
		Long: "Create the configuration directory and config.yaml if missing, then\n" +
			"create or upgrade the crime database in the data directory.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, opts)
		},
	}
}

func runInit(cmd *cobra.Command, opts *rootOptions) error {
	configDir, err := paths.ResolveConfigDir(opts.configDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return sysError(fmt.Errorf("create config directory: %w", err))
	}

	s, err := opts.resolveSettings()
	if err != nil {
		return err
	}

	configPath := paths.ConfigFile(configDir)
	written, err := writeConfigIfMissing(configPath, s)
	if err != nil {
		return sysError(fmt.Errorf("write config: %w", err))
	}

	// Attaching creates the database or migrates it to the current schema.
	logger, closeLog, err := opts.logger(cmd.ErrOrStderr(), s)
	if err != nil {
		return err
	}
	defer closeLog()

	backend := sqlite.NewBackend(logger)
	if err := backend.Attach(s.store); err != nil {
		return attachError(fmt.Errorf("initialize storage: %w", err))
	}
	dbPath := backend.Path()
	if err := backend.Detach(); err != nil {
		return sysError(fmt.Errorf("finalize storage: %w", err))
	}

	if opts.jsonMode {
		return writeJSON(cmd.OutOrStdout(), map[string]any{
			"config_file":    configPath,
			"config_written": written,
			"database":       dbPath,
			"schema_version": sqlite.SchemaVersion,
		})
	}
	out := cmd.OutOrStdout()
	if written {
		fmt.Fprintln(out, "Wrote", configPath)
	}
	fmt.Fprintln(out, "Database ready at", dbPath)
	return nil
}

// writeConfigIfMissing creates config.yaml from the resolved settings if
// the file does not exist. It reports whether it wrote the file.
func writeConfigIfMissing(path string, s settings) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	cfg := configFile{
		Backend:      s.store.Backend,
		DataDir:      s.store.DataDir,
		DatabaseName: s.store.DatabaseName,
		QueueSize:    s.store.GetQueueSize(),
		LogLevel:     s.logLevel,
		LogFile:      s.logFile,
	}
	if cfg.DatabaseName == types.DefaultDatabaseName {
		cfg.DatabaseName = ""
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, err
	}
	return true, nil
}
