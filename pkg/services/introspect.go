package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/harbordata/dbbroker/pkg/apperrors"
	"github.com/harbordata/dbbroker/pkg/audit"
	"github.com/harbordata/dbbroker/pkg/sqlguard"
)

// GetSchema lists the tables of a connected target.
func (s *connectionService) GetSchema(ctx context.Context, id uuid.UUID) ([]string, error) {
	conn, err := s.loadWithPassword(ctx, id)
	if err != nil {
		return nil, err
	}
	if !conn.Status.IsConnected() {
		return nil, apperrors.ErrNotConnected
	}

	return s.factory.ListTables(ctx, conn.EngineType, specForConnection(conn))
}

// GetTableData returns up to limit sample rows from one table of a connected
// target. The table name comes from the URL path and is screened before it
// reaches any query text.
func (s *connectionService) GetTableData(ctx context.Context, id uuid.UUID, table string, limit int) ([]map[string]any, error) {
	if err := sqlguard.ValidateTableName(table); err != nil {
		s.auditor.LogInjectionAttempt(ctx, id, audit.InjectionDetails{
			TableName: table,
			Reason:    err.Error(),
		})
		return nil, apperrors.ValidationError("%s", err.Error())
	}

	conn, err := s.loadWithPassword(ctx, id)
	if err != nil {
		return nil, err
	}
	if !conn.Status.IsConnected() {
		return nil, apperrors.ErrNotConnected
	}

	return s.factory.FetchSampleRows(ctx, conn.EngineType, specForConnection(conn), table, limit)
}
