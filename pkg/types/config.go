package types

import "errors"

// Config holds backend selection and parameters for Database.Attach.
type Config struct {
	Backend      string `json:"backend" yaml:"backend"`
	DataDir      string `json:"data_dir" yaml:"data_dir"`
	DatabaseName string `json:"database_name,omitempty" yaml:"database_name,omitempty"`
	QueueSize    int    `json:"queue_size,omitempty" yaml:"queue_size,omitempty"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// Defaults applied by the getters when a field is unset.
const (
	DefaultDatabaseName = "crime-database"
	DefaultQueueSize    = 64
)

// Config validation errors.
var (
	ErrBackendEmpty     = errors.New("backend must not be empty")
	ErrBackendUnknown   = errors.New("unknown backend")
	ErrQueueSizeInvalid = errors.New("queue size must not be negative")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.QueueSize < 0 {
		return ErrQueueSizeInvalid
	}
	return nil
}

// GetDatabaseName returns the database file stem, or the default.
func (c Config) GetDatabaseName() string {
	if c.DatabaseName == "" {
		return DefaultDatabaseName
	}
	return c.DatabaseName
}

// GetQueueSize returns the initial write queue capacity, or the default.
func (c Config) GetQueueSize() int {
	if c.QueueSize <= 0 {
		return DefaultQueueSize
	}
	return c.QueueSize
}
