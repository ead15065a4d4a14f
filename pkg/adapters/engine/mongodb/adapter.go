package mongodb

import (
	"context"

	"github.com/harbordata/dbbroker/pkg/adapters/engine"
	"github.com/harbordata/dbbroker/pkg/apperrors"
)

// Adapter is the MongoDB stub. MongoDB support is permanently disabled:
// every entry point fails immediately, independent of input, so descriptors
// can never reach a live MongoDB target. The registration stays in place so
// the engine shows up as known-but-disabled rather than unsupported.
type Adapter struct{}

// NewAdapter creates the disabled MongoDB adapter.
func NewAdapter() *Adapter {
	return &Adapter{}
}

func disabled() error {
	return apperrors.NewEngineError(apperrors.KindFeatureDisabled,
		"MongoDB connections are temporarily disabled", nil)
}

func (a *Adapter) TestConnection(ctx context.Context, spec *engine.ConnSpec) (*engine.TestResult, error) {
	return nil, disabled()
}

func (a *Adapter) ListTables(ctx context.Context, spec *engine.ConnSpec) ([]string, error) {
	return nil, disabled()
}

func (a *Adapter) FetchSampleRows(ctx context.Context, spec *engine.ConnSpec, table string, limit int) ([]map[string]any, error) {
	return nil, disabled()
}

// Ensure Adapter implements engine.Adapter at compile time.
var _ engine.Adapter = (*Adapter)(nil)
