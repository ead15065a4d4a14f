package engine

import (
	"sync"

	"github.com/harbordata/dbbroker/pkg/models"
)

// AdapterInfo describes a registered engine for discovery and logging.
type AdapterInfo struct {
	Engine      models.EngineType `json:"engine"`
	DisplayName string            `json:"display_name"`
	Description string            `json:"description"`
}

// Registration pairs an adapter with its descriptive info.
type Registration struct {
	Info    AdapterInfo
	Adapter Adapter
}

var (
	registryMu sync.RWMutex
	registry   = make(map[models.EngineType]Registration)
)

// Register is called by each engine package's init() function.
// Thread-safe for concurrent init() calls.
func Register(reg Registration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[reg.Info.Engine] = reg
}

// Get returns the adapter registered for the engine type, or nil.
func Get(engine models.EngineType) Adapter {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if reg, ok := registry[engine]; ok {
		return reg.Adapter
	}
	return nil
}

// RegisteredEngines returns info for all registered adapters.
func RegisteredEngines() []AdapterInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()
	result := make([]AdapterInfo, 0, len(registry))
	for _, reg := range registry {
		result = append(result, reg.Info)
	}
	return result
}

// IsRegistered checks if an adapter is available for the engine type.
func IsRegistered(engine models.EngineType) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[engine]
	return ok
}
