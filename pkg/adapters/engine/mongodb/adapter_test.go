package mongodb

import (
	"context"
	"testing"

	"github.com/harbordata/dbbroker/pkg/adapters/engine"
	"github.com/harbordata/dbbroker/pkg/apperrors"
	"github.com/harbordata/dbbroker/pkg/models"
)

func TestAllOperationsDisabled(t *testing.T) {
	a := NewAdapter()
	ctx := context.Background()
	spec := &engine.ConnSpec{
		ServerType:       models.ServerExternal,
		ConnectionString: "mongodb://reader:pw@mongo.internal:27017/app",
	}

	checks := map[string]error{}
	_, err := a.TestConnection(ctx, spec)
	checks["TestConnection"] = err
	_, err = a.ListTables(ctx, spec)
	checks["ListTables"] = err
	_, err = a.FetchSampleRows(ctx, spec, "users", 10)
	checks["FetchSampleRows"] = err

	for op, err := range checks {
		if apperrors.EngineErrorKindOf(err) != apperrors.KindFeatureDisabled {
			t.Errorf("%s: expected FeatureDisabled, got %v", op, err)
		}
		if err.Error() != "MongoDB connections are temporarily disabled" {
			t.Errorf("%s: message = %q", op, err.Error())
		}
	}
}
