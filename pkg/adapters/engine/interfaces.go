package engine

import (
	"context"

	"github.com/harbordata/dbbroker/pkg/models"
)

// SampleRowLimit caps the number of rows returned by FetchSampleRows.
const SampleRowLimit = 50

// ConnSpec carries the resolved connection parameters for one adapter call.
// For local descriptors the discrete fields are set; for external ones
// ConnectionString is set. Password is already decrypted.
type ConnSpec struct {
	ServerType       models.ServerType
	Host             string
	Port             string
	Username         string
	Password         string
	Database         string
	ConnectionString string
	SSL              bool
}

// IsLocal reports whether the spec uses the discrete field group.
func (s *ConnSpec) IsLocal() bool {
	return s.ServerType == models.ServerLocal
}

// TestResult is the outcome of a successful connectivity test.
type TestResult struct {
	// Message is the human-readable success message.
	Message string
	// Warning carries a non-fatal advisory (default credentials, database
	// name mismatch). Empty when there is nothing to report.
	Warning string
	// IsSecure reports whether the connection is encrypted in transit.
	IsSecure bool
}

// Adapter is the per-engine capability set. Every call opens a short-lived
// connection to the target, uses it, and closes it before returning: each
// target is a separately configured, potentially untrusted endpoint, so
// connections are never pooled or reused across requests.
type Adapter interface {
	// TestConnection authenticates against the target and verifies the
	// requested database is reachable. Failures are returned as classified
	// *apperrors.EngineError values.
	TestConnection(ctx context.Context, spec *ConnSpec) (*TestResult, error)

	// ListTables returns the base tables of the target database, ordered
	// by name.
	ListTables(ctx context.Context, spec *ConnSpec) ([]string, error)

	// FetchSampleRows returns up to limit rows from table. The table name
	// is quoted with the engine's identifier convention but not otherwise
	// sanitized; callers gate access to authenticated admins.
	FetchSampleRows(ctx context.Context, spec *ConnSpec, table string, limit int) ([]map[string]any, error)
}
