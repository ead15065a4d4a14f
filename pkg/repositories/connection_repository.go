package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/harbordata/dbbroker/pkg/apperrors"
	"github.com/harbordata/dbbroker/pkg/database"
	"github.com/harbordata/dbbroker/pkg/models"
)

// ConnectionRepository defines data access for registered connections.
// Passwords are stored as encrypted TEXT; encryption and decryption happen in
// the service layer. Connection strings are stored verbatim so the partial
// unique index can catch exact duplicates.
type ConnectionRepository interface {
	// Create inserts a new connection. Unique violations surface as ErrConflict.
	Create(ctx context.Context, conn *models.Connection, encryptedPassword *string) error

	// GetByID returns the connection and its encrypted password.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Connection, *string, error)

	// List returns one page of connections, newest first, and the total count.
	List(ctx context.Context, offset, limit int) ([]*models.Connection, int, error)

	// ListAll returns every connection without passwords. Used for fuzzy
	// duplicate scans, which need the whole registry.
	ListAll(ctx context.Context) ([]*models.Connection, error)

	// Update rewrites a connection's descriptor fields. The stored password is
	// replaced only when updatePassword is true; otherwise it is preserved.
	Update(ctx context.Context, conn *models.Connection, encryptedPassword *string, updatePassword bool) error

	// UpdateStatus sets only the lifecycle status.
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.Status) error

	// Delete removes a connection.
	Delete(ctx context.Context, id uuid.UUID) error

	// ExistsByName reports whether another connection already uses name.
	// excludeID skips the row being updated; pass uuid.Nil on create.
	ExistsByName(ctx context.Context, name string, excludeID uuid.UUID) (bool, error)
}

type connectionRepository struct {
	store *database.Store
}

// NewConnectionRepository creates a PostgreSQL-backed connection repository.
func NewConnectionRepository(store *database.Store) ConnectionRepository {
	return &connectionRepository{store: store}
}

const connectionColumns = `id, name, server_type, engine_type, host, port, username, database_name, connection_string, ssl, status, created_at, updated_at`

func (r *connectionRepository) Create(ctx context.Context, conn *models.Connection, encryptedPassword *string) error {
	now := time.Now()
	conn.CreatedAt = now
	conn.UpdatedAt = now
	if conn.Status == "" {
		conn.Status = models.StatusDisconnected
	}

	query := `
		INSERT INTO connections (name, server_type, engine_type, host, port, username, password, database_name, connection_string, ssl, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`

	err := r.store.QueryRow(ctx, query,
		conn.Name,
		conn.ServerType,
		conn.EngineType,
		nullIfEmpty(conn.Host),
		nullIfEmpty(conn.Port),
		nullIfEmpty(conn.Username),
		encryptedPassword,
		nullIfEmpty(conn.Database),
		nullIfEmpty(conn.ConnectionString),
		conn.SSL,
		conn.Status,
		conn.CreatedAt,
		conn.UpdatedAt,
	).Scan(&conn.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create connection: %w", err)
	}

	return nil
}

func (r *connectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Connection, *string, error) {
	query := `
		SELECT id, name, server_type, engine_type, host, port, username, password, database_name, connection_string, ssl, status, created_at, updated_at
		FROM connections
		WHERE id = $1`

	var conn models.Connection
	var host, port, username, encryptedPassword, databaseName, connString *string
	err := r.store.QueryRow(ctx, query, id).Scan(
		&conn.ID,
		&conn.Name,
		&conn.ServerType,
		&conn.EngineType,
		&host,
		&port,
		&username,
		&encryptedPassword,
		&databaseName,
		&connString,
		&conn.SSL,
		&conn.Status,
		&conn.CreatedAt,
		&conn.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to get connection: %w", err)
	}

	applyNullable(&conn, host, port, username, databaseName, connString)
	return &conn, encryptedPassword, nil
}

func (r *connectionRepository) List(ctx context.Context, offset, limit int) ([]*models.Connection, int, error) {
	var total int
	if err := r.store.QueryRow(ctx, `SELECT COUNT(*) FROM connections`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count connections: %w", err)
	}

	query := `
		SELECT ` + connectionColumns + `
		FROM connections
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2`

	rows, err := r.store.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list connections: %w", err)
	}
	defer rows.Close()

	connections, err := scanConnections(rows)
	if err != nil {
		return nil, 0, err
	}
	return connections, total, nil
}

func (r *connectionRepository) ListAll(ctx context.Context) ([]*models.Connection, error) {
	query := `
		SELECT ` + connectionColumns + `
		FROM connections
		ORDER BY created_at DESC, id`

	rows, err := r.store.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	defer rows.Close()

	return scanConnections(rows)
}

func (r *connectionRepository) Update(ctx context.Context, conn *models.Connection, encryptedPassword *string, updatePassword bool) error {
	conn.UpdatedAt = time.Now()

	query := `
		UPDATE connections
		SET name = $2, server_type = $3, engine_type = $4, host = $5, port = $6,
		    username = $7, database_name = $8, connection_string = $9, ssl = $10,
		    status = $11, updated_at = $12,
		    password = CASE WHEN $13 THEN $14 ELSE password END
		WHERE id = $1`

	result, err := r.store.Exec(ctx, query,
		conn.ID,
		conn.Name,
		conn.ServerType,
		conn.EngineType,
		nullIfEmpty(conn.Host),
		nullIfEmpty(conn.Port),
		nullIfEmpty(conn.Username),
		nullIfEmpty(conn.Database),
		nullIfEmpty(conn.ConnectionString),
		conn.SSL,
		conn.Status,
		conn.UpdatedAt,
		updatePassword,
		encryptedPassword,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to update connection: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *connectionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.Status) error {
	query := `UPDATE connections SET status = $2, updated_at = $3 WHERE id = $1`

	result, err := r.store.Exec(ctx, query, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *connectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.store.Exec(ctx, `DELETE FROM connections WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *connectionRepository) ExistsByName(ctx context.Context, name string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM connections WHERE name = $1 AND id != $2)`
	if err := r.store.QueryRow(ctx, query, name, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check name: %w", err)
	}
	return exists, nil
}

func scanConnections(rows pgx.Rows) ([]*models.Connection, error) {
	var connections []*models.Connection
	for rows.Next() {
		var conn models.Connection
		var host, port, username, databaseName, connString *string
		err := rows.Scan(
			&conn.ID,
			&conn.Name,
			&conn.ServerType,
			&conn.EngineType,
			&host,
			&port,
			&username,
			&databaseName,
			&connString,
			&conn.SSL,
			&conn.Status,
			&conn.CreatedAt,
			&conn.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		applyNullable(&conn, host, port, username, databaseName, connString)
		connections = append(connections, &conn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating connections: %w", err)
	}
	return connections, nil
}

func applyNullable(conn *models.Connection, host, port, username, databaseName, connString *string) {
	if host != nil {
		conn.Host = *host
	}
	if port != nil {
		conn.Port = *port
	}
	if username != nil {
		conn.Username = *username
	}
	if databaseName != nil {
		conn.Database = *databaseName
	}
	if connString != nil {
		conn.ConnectionString = *connString
	}
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Ensure connectionRepository implements ConnectionRepository at compile time.
var _ ConnectionRepository = (*connectionRepository)(nil)
