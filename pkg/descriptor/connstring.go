package descriptor

import (
	"regexp"
	"strings"

	"github.com/harbordata/dbbroker/pkg/apperrors"
	"github.com/harbordata/dbbroker/pkg/models"
)

var (
	// Host segment after credentials: ...@host[:port][/...]
	hostAfterCredsPattern = regexp.MustCompile(`@([^@:/?\s]+)`)
	// Host segment directly after the scheme: scheme://host[:port][/...]
	hostAfterSchemePattern = regexp.MustCompile(`//([^@:/?\s]+)`)
	// Database path segment after the authority.
	databasePathPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*://[^/?\s]+/([^/?#\s]+)`)
)

// HostFromConnectionString extracts the host from a URI-shaped connection
// string (scheme://[user:pass@]host[:port][/db]). The extraction is
// engine-agnostic. Returns false when no host segment can be found.
func HostFromConnectionString(connStr string) (string, bool) {
	s := strings.TrimSpace(connStr)
	if s == "" {
		return "", false
	}
	if m := hostAfterCredsPattern.FindStringSubmatch(s); m != nil {
		return m[1], true
	}
	if m := hostAfterSchemePattern.FindStringSubmatch(s); m != nil {
		return m[1], true
	}
	return "", false
}

// DatabaseFromConnectionString extracts the database name encoded in the
// path segment of a connection string. ClickHouse treats a missing path as
// the "default" database; other engines return false so the caller must
// supply the name explicitly.
func DatabaseFromConnectionString(connStr string, engine models.EngineType) (string, bool) {
	name, ok := explicitDatabase(connStr)
	if ok {
		return name, true
	}
	if engine == models.EngineClickHouse {
		return "default", true
	}
	return "", false
}

// explicitDatabase returns the database name only when the connection string
// actually encodes one.
func explicitDatabase(connStr string) (string, bool) {
	m := databasePathPattern.FindStringSubmatch(strings.TrimSpace(connStr))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ValidateDatabaseNameMatch reconciles the database name a caller provided
// with the one encoded in the connection string. When the string encodes no
// database the provided name is trusted; when both are present they must
// agree. The returned name is canonical.
func ValidateDatabaseNameMatch(connStr, provided string, engine models.EngineType) (string, error) {
	encoded, ok := explicitDatabase(connStr)
	if !ok {
		if provided == "" && engine == models.EngineClickHouse {
			return "default", nil
		}
		return provided, nil
	}
	if provided != "" && !strings.EqualFold(encoded, provided) {
		return "", apperrors.ValidationError(
			"database name mismatch: connection string targets %q but %q was provided", encoded, provided)
	}
	return encoded, nil
}
