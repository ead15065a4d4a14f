package models

import (
	"time"

	"github.com/google/uuid"
)

// EngineType identifies the database engine a connection targets.
type EngineType string

const (
	EnginePostgreSQL EngineType = "postgresql"
	EngineMySQL      EngineType = "mysql"
	EngineClickHouse EngineType = "clickhouse"
	EngineMongoDB    EngineType = "mongodb" // registered but permanently disabled
)

// Valid reports whether t is one of the known engine types.
func (t EngineType) Valid() bool {
	switch t {
	case EnginePostgreSQL, EngineMySQL, EngineClickHouse, EngineMongoDB:
		return true
	}
	return false
}

// ServerType distinguishes how a connection target is described.
type ServerType string

const (
	// ServerLocal targets are reached via discrete host/port/credential
	// fields and are assumed to sit on a trusted internal network.
	ServerLocal ServerType = "local"
	// ServerExternal targets are reached via an opaque connection string,
	// typically a managed/cloud endpoint.
	ServerExternal ServerType = "external"
)

// Valid reports whether t is a known server type.
func (t ServerType) Valid() bool {
	return t == ServerLocal || t == ServerExternal
}

// Status is the connection lifecycle state.
// Testing/Connecting/Disconnecting are transient: they exist only while an
// operation is in flight, but they are persisted before the adapter call so a
// crash mid-operation leaves the record visibly stuck rather than silently
// Disconnected.
type Status string

const (
	StatusDisconnected     Status = "Disconnected"
	StatusTesting          Status = "Testing"
	StatusConnecting       Status = "Connecting"
	StatusDisconnecting    Status = "Disconnecting"
	StatusConnected        Status = "Connected"
	StatusConnectedSecure  Status = "ConnectedSecure"
	StatusConnectedWarning Status = "ConnectedWarning"
)

// IsConnected reports whether s counts as a usable live connection for
// schema and table-data access.
func (s Status) IsConnected() bool {
	return s == StatusConnected || s == StatusConnectedSecure || s == StatusConnectedWarning
}

// Connection is the stored descriptor for one configured database target.
//
// Exactly one of the field groups is populated, consistent with ServerType:
// local descriptors carry Host/Port/Username/Password/Database, external ones
// carry ConnectionString (Database is engine-dependent and may be derived
// from the string). Password is write-only from the API's perspective: it is
// decrypted only when an adapter needs it to test or connect.
type Connection struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	ServerType ServerType `json:"serverType"`
	EngineType EngineType `json:"engineType"`

	// Local field group. Password is a pointer so "no password" (empty
	// string) stays distinct from "not set" (nil).
	Host     string  `json:"host,omitempty"`
	Port     string  `json:"port,omitempty"`
	Username string  `json:"username,omitempty"`
	Password *string `json:"-"`

	// External field group.
	ConnectionString string `json:"connectionString,omitempty"`

	Database string `json:"database,omitempty"`
	SSL      bool   `json:"ssl"`

	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsLocal reports whether the descriptor uses the local field group.
func (c *Connection) IsLocal() bool {
	return c.ServerType == ServerLocal
}

// PasswordValue returns the decrypted password or "" when unset.
func (c *Connection) PasswordValue() string {
	if c.Password == nil {
		return ""
	}
	return *c.Password
}
