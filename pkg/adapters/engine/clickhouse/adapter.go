package clickhouse

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/harbordata/dbbroker/pkg/adapters/engine"
	"github.com/harbordata/dbbroker/pkg/apperrors"
)

// ClickHouse server exception codes relevant to connection testing.
const (
	codeUnknownDatabase      = 81
	codeAuthenticationFailed = 516
)

// Adapter provides ClickHouse connectivity over the HTTP(S) interface.
// Every call opens a short-lived handle and closes it before returning.
type Adapter struct{}

// NewAdapter creates a ClickHouse adapter.
func NewAdapter() *Adapter {
	return &Adapter{}
}

// options resolves driver options from the spec. Local specs build HTTP
// options from discrete fields, treating bare localhost as 127.0.0.1;
// external specs hand their connection string to the driver's DSN parser.
func options(spec *engine.ConnSpec) (*clickhouse.Options, error) {
	if !spec.IsLocal() {
		opts, err := clickhouse.ParseDSN(spec.ConnectionString)
		if err != nil {
			return nil, apperrors.ValidationError("invalid ClickHouse connection string: %v", err)
		}
		if opts.Protocol != clickhouse.HTTP {
			opts.Protocol = clickhouse.HTTP
		}
		return opts, nil
	}

	host := spec.Host
	if strings.EqualFold(host, "localhost") {
		host = "127.0.0.1"
	}
	opts := &clickhouse.Options{
		Protocol: clickhouse.HTTP,
		Addr:     []string{host + ":" + spec.Port},
		Auth: clickhouse.Auth{
			Database: databaseOrDefault(spec.Database),
			Username: spec.Username,
			Password: spec.Password,
		},
		DialTimeout: 5 * time.Second,
	}
	if spec.SSL {
		opts.TLS = &tls.Config{}
	}
	return opts, nil
}

func databaseOrDefault(name string) string {
	if name == "" {
		return "default"
	}
	return name
}

// classify maps driver failures onto the engine error taxonomy. ClickHouse
// exception messages (including "does not exist" texts) pass through
// unmodified.
func classify(err error) error {
	var ex *clickhouse.Exception
	if errors.As(err, &ex) {
		switch ex.Code {
		case codeAuthenticationFailed:
			return apperrors.NewEngineError(apperrors.KindAuthFailed,
				"Authentication failed: invalid username or password", err)
		case codeUnknownDatabase:
			return apperrors.NewEngineError(apperrors.KindDatabaseMissing, ex.Message, err)
		}
	}
	if classified := engine.ClassifyConnectionError(err); classified != nil {
		return classified
	}
	return engine.Passthrough(err)
}

func (a *Adapter) open(spec *engine.ConnSpec) (*sql.DB, *clickhouse.Options, error) {
	opts, err := options(spec)
	if err != nil {
		return nil, nil, err
	}
	db := clickhouse.OpenDB(opts)
	db.SetMaxOpenConns(1)
	return db, opts, nil
}

// TestConnection authenticates and verifies the target database exists via
// the system tables before declaring success.
func (a *Adapter) TestConnection(ctx context.Context, spec *engine.ConnSpec) (*engine.TestResult, error) {
	db, opts, err := a.open(spec)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, classify(err)
	}

	database := databaseOrDefault(spec.Database)
	if database == "default" && opts.Auth.Database != "" {
		database = opts.Auth.Database
	}

	var count uint64
	err = db.QueryRowContext(ctx,
		"SELECT count() FROM system.databases WHERE name = ?", database).Scan(&count)
	if err != nil {
		return nil, classify(err)
	}
	if count == 0 {
		return nil, apperrors.NewEngineError(apperrors.KindDatabaseMissing,
			fmt.Sprintf("Database %s does not exist", database), nil)
	}

	return &engine.TestResult{
		Message:  "Connection successful",
		IsSecure: isSecure(spec, opts),
	}, nil
}

func isSecure(spec *engine.ConnSpec, opts *clickhouse.Options) bool {
	if spec.IsLocal() {
		return spec.SSL
	}
	return opts.TLS != nil || strings.HasPrefix(strings.ToLower(spec.ConnectionString), "https://")
}

// ListTables returns tables of the target database from system.tables,
// ordered by name.
func (a *Adapter) ListTables(ctx context.Context, spec *engine.ConnSpec) ([]string, error) {
	db, opts, err := a.open(spec)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	database := databaseOrDefault(spec.Database)
	if database == "default" && opts.Auth.Database != "" {
		database = opts.Auth.Database
	}

	rows, err := db.QueryContext(ctx,
		"SELECT name FROM system.tables WHERE database = ? ORDER BY name", database)
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

// FetchSampleRows returns up to limit rows from table. ClickHouse
// identifier rules differ from the SQL standard, so the name is passed
// unquoted.
func (a *Adapter) FetchSampleRows(ctx context.Context, spec *engine.ConnSpec, table string, limit int) ([]map[string]any, error) {
	db, _, err := a.open(spec)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", table, limit))
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
