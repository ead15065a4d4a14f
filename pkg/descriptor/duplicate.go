package descriptor

import (
	"strings"

	"github.com/harbordata/dbbroker/pkg/models"
)

// normalizedTarget is the comparable shape of a descriptor for duplicate
// detection: engine, database, derived host, and the raw connection string
// for external descriptors.
type normalizedTarget struct {
	engine   models.EngineType
	database string
	host     string
	connStr  string
	external bool
}

func normalizeTarget(c *models.Connection) normalizedTarget {
	t := normalizedTarget{
		engine:   c.EngineType,
		database: strings.ToLower(strings.TrimSpace(c.Database)),
	}
	if c.ServerType == models.ServerExternal {
		t.external = true
		t.connStr = strings.TrimSpace(c.ConnectionString)
		if host, ok := HostFromConnectionString(t.connStr); ok {
			t.host = strings.ToLower(host)
		}
	} else {
		t.host = strings.ToLower(strings.TrimSpace(c.Host))
	}
	return t
}

// IsSameDatabase decides whether two descriptors denote the same underlying
// database, across local and external representations.
//
// The cross-type check (an external connection string containing the local
// host as a substring) is a deliberate heuristic carried over from the
// original behavior: it can false-positive when a short host name happens to
// appear elsewhere in an unrelated connection string. Callers apply the
// exact-match uniqueness constraints as a second, stricter check.
func IsSameDatabase(a, b *models.Connection) bool {
	ta := normalizeTarget(a)
	tb := normalizeTarget(b)

	if ta.engine != tb.engine || ta.database != tb.database {
		return false
	}

	if ta.host != "" && ta.host == tb.host {
		return true
	}

	// Cross-type: external string mentioning the local host.
	if ta.external && !tb.external && tb.host != "" {
		return strings.Contains(strings.ToLower(ta.connStr), tb.host)
	}
	if tb.external && !ta.external && ta.host != "" {
		return strings.Contains(strings.ToLower(tb.connStr), ta.host)
	}

	return false
}

// IsSameEndpoint reports an exact collision: two local descriptors naming the
// same engine, host, port, and database, or two external descriptors with the
// same connection string. It mirrors the store's partial unique indexes so
// exact duplicates are rejected before any live test runs.
func IsSameEndpoint(a, b *models.Connection) bool {
	if a.ServerType != b.ServerType || a.EngineType != b.EngineType {
		return false
	}

	if a.ServerType == models.ServerExternal {
		connStr := strings.TrimSpace(a.ConnectionString)
		return connStr != "" && connStr == strings.TrimSpace(b.ConnectionString)
	}

	return strings.EqualFold(strings.TrimSpace(a.Host), strings.TrimSpace(b.Host)) &&
		strings.TrimSpace(a.Port) == strings.TrimSpace(b.Port) &&
		strings.EqualFold(strings.TrimSpace(a.Database), strings.TrimSpace(b.Database))
}
