package clickhouse

import (
	"github.com/harbordata/dbbroker/pkg/adapters/engine"
	"github.com/harbordata/dbbroker/pkg/models"
)

func init() {
	engine.Register(engine.Registration{
		Info: engine.AdapterInfo{
			Engine:      models.EngineClickHouse,
			DisplayName: "ClickHouse",
			Description: "Connect to ClickHouse over the HTTP(S) interface",
		},
		Adapter: NewAdapter(),
	})
}
