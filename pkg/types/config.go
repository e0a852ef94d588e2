package types

import "errors"

// Config holds backend selection and parameters for Atlas.Attach.
type Config struct {
	Backend string `json:"backend" yaml:"backend"`
	DataDir string `json:"data_dir" yaml:"data_dir"`
	CRS     int    `json:"crs" yaml:"crs"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// Config validation errors (prd001-atlas-core R1.4).
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
	ErrCRSInvalid     = errors.New("crs must be a positive EPSG code")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure (prd001-atlas-core R1.2, R1.3).
// CRS zero is allowed; it means the archive has not been bound to a
// projection yet and the first import decides it.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.CRS < 0 {
		return ErrCRSInvalid
	}
	return nil
}
