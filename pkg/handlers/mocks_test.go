package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/harbordata/dbbroker/pkg/adapters/engine"
	"github.com/harbordata/dbbroker/pkg/descriptor"
	"github.com/harbordata/dbbroker/pkg/models"
	"github.com/harbordata/dbbroker/pkg/services"
)

// mockConnectionService returns canned values for each operation.
type mockConnectionService struct {
	listConnections []*models.Connection
	listTotal       int
	conn            *models.Connection
	result          *engine.TestResult
	tables          []string
	rows            []map[string]any
	err             error

	lastRequest *descriptor.Request
	lastTable   string
}

func (m *mockConnectionService) List(ctx context.Context, page, limit int) ([]*models.Connection, int, error) {
	return m.listConnections, m.listTotal, m.err
}

func (m *mockConnectionService) Get(ctx context.Context, id uuid.UUID) (*models.Connection, error) {
	return m.conn, m.err
}

func (m *mockConnectionService) Add(ctx context.Context, req *descriptor.Request) (*models.Connection, *engine.TestResult, error) {
	m.lastRequest = req
	return m.conn, m.result, m.err
}

func (m *mockConnectionService) Update(ctx context.Context, id uuid.UUID, req *descriptor.Request) (*models.Connection, *engine.TestResult, error) {
	m.lastRequest = req
	return m.conn, m.result, m.err
}

func (m *mockConnectionService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.err
}

func (m *mockConnectionService) Test(ctx context.Context, id uuid.UUID) (*engine.TestResult, error) {
	return m.result, m.err
}

func (m *mockConnectionService) Connect(ctx context.Context, id uuid.UUID) (*models.Connection, *engine.TestResult, error) {
	return m.conn, m.result, m.err
}

func (m *mockConnectionService) Disconnect(ctx context.Context, id uuid.UUID) (*models.Connection, error) {
	return m.conn, m.err
}

func (m *mockConnectionService) GetSchema(ctx context.Context, id uuid.UUID) ([]string, error) {
	return m.tables, m.err
}

func (m *mockConnectionService) GetTableData(ctx context.Context, id uuid.UUID, table string, limit int) ([]map[string]any, error) {
	m.lastTable = table
	return m.rows, m.err
}

var _ services.ConnectionService = (*mockConnectionService)(nil)
