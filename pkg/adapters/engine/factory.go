package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/harbordata/dbbroker/pkg/apperrors"
	"github.com/harbordata/dbbroker/pkg/descriptor"
	"github.com/harbordata/dbbroker/pkg/models"
)

const (
	// ConnectTimeout bounds connectivity tests so a dead endpoint never
	// blocks the calling request.
	ConnectTimeout = 5 * time.Second
	// QueryTimeout bounds schema listing and sample fetches.
	QueryTimeout = 10 * time.Second
)

// Factory dispatches operations to the adapter registered for an engine
// type, applying the shared guards (cloud-host check, deadlines) that every
// engine gets for free.
type Factory interface {
	TestConnection(ctx context.Context, engine models.EngineType, spec *ConnSpec) (*TestResult, error)
	ListTables(ctx context.Context, engine models.EngineType, spec *ConnSpec) ([]string, error)
	FetchSampleRows(ctx context.Context, engine models.EngineType, spec *ConnSpec, table string, limit int) ([]map[string]any, error)
}

type registryFactory struct {
	logger *zap.Logger
}

// NewFactory returns a Factory backed by the global adapter registry.
func NewFactory(logger *zap.Logger) Factory {
	return &registryFactory{logger: logger}
}

func (f *registryFactory) adapter(engine models.EngineType) (Adapter, error) {
	adapter := Get(engine)
	if adapter == nil {
		return nil, apperrors.NewEngineError(apperrors.KindUnsupported,
			"unsupported engine type: "+string(engine), nil)
	}
	return adapter, nil
}

func (f *registryFactory) TestConnection(ctx context.Context, engine models.EngineType, spec *ConnSpec) (*TestResult, error) {
	adapter, err := f.adapter(engine)
	if err != nil {
		return nil, err
	}

	// A local descriptor pointing at a managed cloud endpoint is almost
	// always a misregistered external connection; refuse before dialing.
	if spec.IsLocal() && descriptor.IsCloudHost(spec.Host) {
		f.logger.Warn("Rejected local connection to cloud host",
			zap.String("engine", string(engine)),
			zap.String("host", spec.Host))
		return nil, apperrors.NewEngineError(apperrors.KindUnsupported,
			"Host "+spec.Host+" appears to be a managed cloud endpoint. Register it as an external connection with a connection string instead.", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, ConnectTimeout)
	defer cancel()
	return adapter.TestConnection(ctx, spec)
}

func (f *registryFactory) ListTables(ctx context.Context, engine models.EngineType, spec *ConnSpec) ([]string, error) {
	adapter, err := f.adapter(engine)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()
	return adapter.ListTables(ctx, spec)
}

func (f *registryFactory) FetchSampleRows(ctx context.Context, engine models.EngineType, spec *ConnSpec, table string, limit int) ([]map[string]any, error) {
	adapter, err := f.adapter(engine)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > SampleRowLimit {
		limit = SampleRowLimit
	}
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()
	return adapter.FetchSampleRows(ctx, spec, table, limit)
}

// Ensure registryFactory implements Factory at compile time.
var _ Factory = (*registryFactory)(nil)
