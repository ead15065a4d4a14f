package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/harbordata/dbbroker/pkg/adapters/engine"
	"github.com/harbordata/dbbroker/pkg/apperrors"
)

// MySQL server error numbers relevant to connection testing.
const (
	errAccessDenied   = 1045
	errDBAccessDenied = 1044
	errUnknownDB      = 1049
)

// Adapter provides MySQL connectivity via database/sql and the
// go-sql-driver. Every call opens a short-lived handle and closes it before
// returning.
type Adapter struct{}

// NewAdapter creates a MySQL adapter.
func NewAdapter() *Adapter {
	return &Adapter{}
}

// dsn resolves the driver DSN for the spec. Local specs build the canonical
// user:pass@tcp(host:port)/db form; external specs may submit either a
// native DSN or a mysql:// URL, which is converted.
func dsn(spec *engine.ConnSpec) (string, error) {
	if spec.IsLocal() {
		tlsMode := "false"
		if spec.SSL {
			tlsMode = "true"
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?tls=%s",
			spec.Username, spec.Password, spec.Host, spec.Port, spec.Database, tlsMode), nil
	}
	return dsnFromConnectionString(spec.ConnectionString)
}

// dsnFromConnectionString converts a mysql:// URL into the go-sql-driver DSN
// format. Strings already in DSN form pass through unchanged.
func dsnFromConnectionString(connStr string) (string, error) {
	if !strings.HasPrefix(strings.ToLower(connStr), "mysql://") {
		return connStr, nil
	}
	u, err := url.Parse(connStr)
	if err != nil {
		return "", apperrors.ValidationError("invalid MySQL connection string: %v", err)
	}
	user := ""
	pass := ""
	if u.User != nil {
		user = u.User.Username()
		pass, _ = u.User.Password()
	}
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "3306"
	}
	database := strings.TrimPrefix(u.Path, "/")

	out := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s", user, pass, host, port, database)
	if u.RawQuery != "" {
		out += "?" + u.RawQuery
	}
	return out, nil
}

// classify maps driver failures onto the engine error taxonomy.
func classify(err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case errAccessDenied, errDBAccessDenied:
			return apperrors.NewEngineError(apperrors.KindAuthFailed,
				"Authentication failed: invalid username or password", err)
		case errUnknownDB:
			return apperrors.NewEngineError(apperrors.KindDatabaseMissing, myErr.Message, err)
		}
	}
	if classified := engine.ClassifyConnectionError(err); classified != nil {
		return classified
	}
	return engine.Passthrough(err)
}

func (a *Adapter) open(spec *engine.ConnSpec) (*sql.DB, error) {
	d, err := dsn(spec)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", d)
	if err != nil {
		return nil, classify(err)
	}
	// One connection, used once; the broker never pools target databases.
	db.SetMaxOpenConns(1)
	return db, nil
}

// TestConnection authenticates and verifies the live database matches the
// requested one; a mismatch is a non-fatal warning.
func (a *Adapter) TestConnection(ctx context.Context, spec *engine.ConnSpec) (*engine.TestResult, error) {
	db, err := a.open(spec)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, classify(err)
	}

	var warning string
	var currentDB sql.NullString
	if err := db.QueryRowContext(ctx, "SELECT DATABASE()").Scan(&currentDB); err == nil {
		if spec.Database != "" && currentDB.Valid && !strings.EqualFold(currentDB.String, spec.Database) {
			warning = fmt.Sprintf("connected to database %q instead of the expected %q",
				currentDB.String, spec.Database)
		}
	}

	return &engine.TestResult{
		Message:  "Connection successful",
		Warning:  warning,
		IsSecure: isSecure(spec),
	}, nil
}

func isSecure(spec *engine.ConnSpec) bool {
	if spec.IsLocal() {
		return spec.SSL
	}
	s := strings.ToLower(spec.ConnectionString)
	return strings.Contains(s, "tls=true") ||
		strings.Contains(s, "tls=skip-verify") ||
		strings.Contains(s, "ssl-mode=required")
}

// ListTables returns base tables of the connected database, ordered by name.
func (a *Adapter) ListTables(ctx context.Context, spec *engine.ConnSpec) ([]string, error) {
	db, err := a.open(spec)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	const query = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return tables, nil
}

// FetchSampleRows returns up to limit rows from table, backtick-quoted per
// MySQL identifier rules.
func (a *Adapter) FetchSampleRows(ctx context.Context, spec *engine.ConnSpec, table string, limit int) ([]map[string]any, error) {
	db, err := a.open(spec)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	quoted := "`" + strings.ReplaceAll(table, "`", "``") + "`"
	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", quoted, limit))
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	var result []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			// database/sql yields []byte for text columns.
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return result, nil
}

// Ensure Adapter implements engine.Adapter at compile time.
var _ engine.Adapter = (*Adapter)(nil)
