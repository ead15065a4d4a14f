package services

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/harbordata/dbbroker/pkg/adapters/engine"
	"github.com/harbordata/dbbroker/pkg/apperrors"
	"github.com/harbordata/dbbroker/pkg/models"
	"github.com/harbordata/dbbroker/pkg/repositories"
)

// mockRepo is an in-memory ConnectionRepository.
type mockRepo struct {
	mu          sync.Mutex
	connections map[uuid.UUID]*models.Connection
	passwords   map[uuid.UUID]*string
	statusLog   []models.Status
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		connections: make(map[uuid.UUID]*models.Connection),
		passwords:   make(map[uuid.UUID]*string),
	}
}

func (m *mockRepo) Create(ctx context.Context, conn *models.Connection, encryptedPassword *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	conn.ID = uuid.New()
	copied := *conn
	m.connections[conn.ID] = &copied
	m.passwords[conn.ID] = encryptedPassword
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Connection, *string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conn, ok := m.connections[id]
	if !ok {
		return nil, nil, apperrors.ErrNotFound
	}
	copied := *conn
	return &copied, m.passwords[id], nil
}

func (m *mockRepo) List(ctx context.Context, offset, limit int) ([]*models.Connection, int, error) {
	all, err := m.ListAll(ctx)
	if err != nil {
		return nil, 0, err
	}
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *mockRepo) ListAll(ctx context.Context) ([]*models.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Connection
	for _, conn := range m.connections {
		copied := *conn
		out = append(out, &copied)
	}
	return out, nil
}

func (m *mockRepo) Update(ctx context.Context, conn *models.Connection, encryptedPassword *string, updatePassword bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.connections[conn.ID]; !ok {
		return apperrors.ErrNotFound
	}
	copied := *conn
	m.connections[conn.ID] = &copied
	if updatePassword {
		m.passwords[conn.ID] = encryptedPassword
	}
	return nil
}

func (m *mockRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	conn, ok := m.connections[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	conn.Status = status
	m.statusLog = append(m.statusLog, status)
	return nil
}

func (m *mockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.connections[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.connections, id)
	delete(m.passwords, id)
	return nil
}

func (m *mockRepo) ExistsByName(ctx context.Context, name string, excludeID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, conn := range m.connections {
		if id != excludeID && conn.Name == name {
			return true, nil
		}
	}
	return false, nil
}

var _ repositories.ConnectionRepository = (*mockRepo)(nil)

// mockFactory returns canned test results or errors.
type mockFactory struct {
	result   *engine.TestResult
	err      error
	tables   []string
	rows     []map[string]any
	calls    int
	lastSpec *engine.ConnSpec
}

func (m *mockFactory) TestConnection(ctx context.Context, eng models.EngineType, spec *engine.ConnSpec) (*engine.TestResult, error) {
	m.calls++
	m.lastSpec = spec
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &engine.TestResult{Message: "Successfully connected"}, nil
}

func (m *mockFactory) ListTables(ctx context.Context, eng models.EngineType, spec *engine.ConnSpec) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.tables, nil
}

func (m *mockFactory) FetchSampleRows(ctx context.Context, eng models.EngineType, spec *engine.ConnSpec, table string, limit int) ([]map[string]any, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.rows, nil
}

var _ engine.Factory = (*mockFactory)(nil)
