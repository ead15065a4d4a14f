// Package sqlguard validates client-supplied identifiers before they are
// interpolated into engine queries. Table names arrive as URL path segments
// and cannot always be bound as parameters, so they get screened here.
package sqlguard

import (
	"fmt"
	"regexp"

	libinjection "github.com/corazawaf/libinjection-go"
)

// MaxTableNameLength bounds identifier length across supported engines.
const MaxTableNameLength = 128

// tableNamePattern admits plain identifiers plus the qualified forms the
// engines report (schema.table, dollar signs in generated names).
var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*(\.[A-Za-z_][A-Za-z0-9_$]*)?$`)

// ValidateTableName rejects table names that are not plain identifiers or
// that trip libinjection's SQLi detector.
func ValidateTableName(name string) error {
	if name == "" {
		return fmt.Errorf("table name must not be empty")
	}
	if len(name) > MaxTableNameLength {
		return fmt.Errorf("table name exceeds %d characters", MaxTableNameLength)
	}
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("invalid table name %q", name)
	}
	if isSQLi, fingerprint := libinjection.IsSQLi(name); isSQLi {
		return fmt.Errorf("table name %q rejected (fingerprint %s)", name, fingerprint)
	}
	return nil
}
