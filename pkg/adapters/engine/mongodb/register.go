package mongodb

import (
	"github.com/harbordata/dbbroker/pkg/adapters/engine"
	"github.com/harbordata/dbbroker/pkg/models"
)

func init() {
	engine.Register(engine.Registration{
		Info: engine.AdapterInfo{
			Engine:      models.EngineMongoDB,
			DisplayName: "MongoDB",
			Description: "MongoDB support is temporarily disabled",
		},
		Adapter: NewAdapter(),
	})
}
