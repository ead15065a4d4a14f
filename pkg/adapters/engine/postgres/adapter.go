package postgres

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/harbordata/dbbroker/pkg/adapters/engine"
	"github.com/harbordata/dbbroker/pkg/apperrors"
)

// PostgreSQL error codes relevant to connection testing.
const (
	codeInvalidPassword = "28P01"
	codeInvalidAuthSpec = "28000"
	codeInvalidCatalog  = "3D000"
)

// Adapter provides PostgreSQL connectivity over pgx. Every call opens a
// single short-lived connection and closes it before returning.
type Adapter struct{}

// NewAdapter creates a PostgreSQL adapter.
func NewAdapter() *Adapter {
	return &Adapter{}
}

// connString builds a PostgreSQL URL from the spec. User-provided fields are
// URL-escaped so special characters in passwords (@, /, #, ?) don't break
// parsing. External specs pass their connection string through verbatim.
func connString(spec *engine.ConnSpec) string {
	if !spec.IsLocal() {
		return spec.ConnectionString
	}
	sslMode := "disable"
	if spec.SSL {
		sslMode = "require"
	}
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		url.QueryEscape(spec.Username),
		url.QueryEscape(spec.Password),
		spec.Host,
		spec.Port,
		url.QueryEscape(spec.Database),
		sslMode,
	)
}

// classify maps pgx/pgconn failures onto the engine error taxonomy.
// Unrecognized errors pass their raw message through.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeInvalidPassword, codeInvalidAuthSpec:
			return apperrors.NewEngineError(apperrors.KindAuthFailed,
				"Authentication failed: invalid username or password", err)
		case codeInvalidCatalog:
			return apperrors.NewEngineError(apperrors.KindDatabaseMissing, pgErr.Message, err)
		}
	}
	if classified := engine.ClassifyConnectionError(err); classified != nil {
		return classified
	}
	return engine.Passthrough(err)
}

func (a *Adapter) connect(ctx context.Context, spec *engine.ConnSpec) (*pgx.Conn, error) {
	conn, err := pgx.Connect(ctx, connString(spec))
	if err != nil {
		return nil, classify(err)
	}
	return conn, nil
}

// TestConnection authenticates against the target and verifies database
// access. A current-database mismatch and default local credentials are
// reported as non-fatal warnings rather than failures.
func (a *Adapter) TestConnection(ctx context.Context, spec *engine.ConnSpec) (*engine.TestResult, error) {
	conn, err := a.connect(ctx, spec)
	if err != nil {
		return nil, err
	}
	defer conn.Close(ctx)

	var currentDB string
	if err := conn.QueryRow(ctx, "SELECT current_database()").Scan(&currentDB); err != nil {
		return nil, classify(err)
	}

	var warnings []string
	if spec.Database != "" && !strings.EqualFold(currentDB, spec.Database) {
		warnings = append(warnings, fmt.Sprintf(
			"connected to database %q instead of the expected %q", currentDB, spec.Database))
	}
	if usesDefaultCredentials(spec) {
		warnings = append(warnings,
			"You are using default PostgreSQL credentials (postgres@localhost:5432). Consider creating a dedicated user.")
	}

	return &engine.TestResult{
		Message:  "Connection successful",
		Warning:  strings.Join(warnings, "; "),
		IsSecure: isSecure(spec),
	}, nil
}

// usesDefaultCredentials reports whether a local spec matches the stock
// postgres superuser on the default port.
func usesDefaultCredentials(spec *engine.ConnSpec) bool {
	if !spec.IsLocal() {
		return false
	}
	host := strings.ToLower(spec.Host)
	return (host == "localhost" || host == "127.0.0.1") &&
		spec.Port == "5432" &&
		spec.Username == "postgres"
}

func isSecure(spec *engine.ConnSpec) bool {
	if spec.IsLocal() {
		return spec.SSL
	}
	s := strings.ToLower(spec.ConnectionString)
	return strings.Contains(s, "sslmode=require") ||
		strings.Contains(s, "sslmode=verify-ca") ||
		strings.Contains(s, "sslmode=verify-full")
}

// ListTables returns base tables in the public schema, ordered by name.
func (a *Adapter) ListTables(ctx context.Context, spec *engine.ConnSpec) ([]string, error) {
	conn, err := a.connect(ctx, spec)
	if err != nil {
		return nil, err
	}
	defer conn.Close(ctx)

	const query = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_type = 'BASE TABLE'
		  AND table_schema = 'public'
		ORDER BY table_name`

	rows, err := conn.Query(ctx, query)
	if err != nil {
		return nil, classify(err)
	}
	tables, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, classify(err)
	}
	return tables, nil
}

// FetchSampleRows returns up to limit rows from table. The identifier is
// quoted with PostgreSQL double-quote rules via pgx's sanitizer.
func (a *Adapter) FetchSampleRows(ctx context.Context, spec *engine.ConnSpec, table string, limit int) ([]map[string]any, error) {
	conn, err := a.connect(ctx, spec)
	if err != nil {
		return nil, err
	}
	defer conn.Close(ctx)

	quoted := pgx.Identifier{table}.Sanitize()
	rows, err := conn.Query(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", quoted, limit))
	if err != nil {
		return nil, classify(err)
	}
	result, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, classify(err)
	}
	return result, nil
}

// Ensure Adapter implements engine.Adapter at compile time.
var _ engine.Adapter = (*Adapter)(nil)
