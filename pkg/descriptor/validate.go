package descriptor

import (
	"strings"

	"github.com/harbordata/dbbroker/pkg/apperrors"
	"github.com/harbordata/dbbroker/pkg/models"
)

// Request is a candidate descriptor as submitted by a caller, before any
// normalization. Password is a pointer so an explicit empty password stays
// distinct from an omitted one.
type Request struct {
	Name             string
	ServerType       models.ServerType
	EngineType       models.EngineType
	Host             string
	Port             string
	Username         string
	Password         *string
	Database         string
	ConnectionString string
	SSL              bool
}

// Normalized is a validated descriptor with trimmed fields and, for external
// connection strings, the canonical database name resolved.
type Normalized struct {
	Name             string
	ServerType       models.ServerType
	EngineType       models.EngineType
	Host             string
	Port             string
	Username         string
	Password         *string
	Database         string
	ConnectionString string
	SSL              bool
}

// Validate enforces the required-field rules for each server type and
// normalizes the request. MongoDB descriptors are rejected unconditionally.
func Validate(req *Request) (*Normalized, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperrors.ValidationError("connection name is required")
	}
	if !req.ServerType.Valid() {
		return nil, apperrors.ValidationError("serverType must be %q or %q", models.ServerLocal, models.ServerExternal)
	}
	if !req.EngineType.Valid() {
		return nil, apperrors.ValidationError("unsupported engine type %q", req.EngineType)
	}
	if req.EngineType == models.EngineMongoDB {
		return nil, apperrors.NewEngineError(apperrors.KindFeatureDisabled,
			"MongoDB connections are temporarily disabled", nil)
	}

	n := &Normalized{
		Name:       strings.TrimSpace(req.Name),
		ServerType: req.ServerType,
		EngineType: req.EngineType,
		SSL:        req.SSL,
	}

	switch req.ServerType {
	case models.ServerLocal:
		n.Host = strings.TrimSpace(req.Host)
		n.Port = strings.TrimSpace(req.Port)
		n.Username = strings.TrimSpace(req.Username)
		n.Database = strings.TrimSpace(req.Database)
		if n.Host == "" {
			return nil, apperrors.ValidationError("host is required for local connections")
		}
		if n.Port == "" {
			return nil, apperrors.ValidationError("port is required for local connections")
		}
		if n.Username == "" {
			return nil, apperrors.ValidationError("username is required for local connections")
		}
		// An empty string is a deliberate "no password"; only an absent
		// field is rejected.
		if req.Password == nil {
			return nil, apperrors.ValidationError("password is required for local connections (use an empty string for no password)")
		}
		n.Password = req.Password

	case models.ServerExternal:
		n.ConnectionString = strings.TrimSpace(req.ConnectionString)
		if n.ConnectionString == "" {
			return nil, apperrors.ValidationError("connectionString is required for external connections")
		}
		database, err := ValidateDatabaseNameMatch(n.ConnectionString, strings.TrimSpace(req.Database), req.EngineType)
		if err != nil {
			return nil, err
		}
		n.Database = database
	}

	return n, nil
}
