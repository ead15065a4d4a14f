// Package services implements the broker's business logic: descriptor
// registration, duplicate screening, and the connection lifecycle.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harbordata/dbbroker/pkg/adapters/engine"
	"github.com/harbordata/dbbroker/pkg/apperrors"
	"github.com/harbordata/dbbroker/pkg/audit"
	"github.com/harbordata/dbbroker/pkg/crypto"
	"github.com/harbordata/dbbroker/pkg/descriptor"
	"github.com/harbordata/dbbroker/pkg/logging"
	"github.com/harbordata/dbbroker/pkg/models"
	"github.com/harbordata/dbbroker/pkg/repositories"
)

// ConnectionService manages registered connections and their lifecycle.
type ConnectionService interface {
	// List returns one page of connections plus the total count.
	List(ctx context.Context, page, limit int) ([]*models.Connection, int, error)

	// Get returns a single connection by ID.
	Get(ctx context.Context, id uuid.UUID) (*models.Connection, error)

	// Add validates, duplicate-screens, live-tests, and persists a new
	// descriptor. The stored status reflects the test outcome.
	Add(ctx context.Context, req *descriptor.Request) (*models.Connection, *engine.TestResult, error)

	// Update rewrites an existing descriptor through the same pipeline.
	// An omitted password keeps the stored one.
	Update(ctx context.Context, id uuid.UUID, req *descriptor.Request) (*models.Connection, *engine.TestResult, error)

	// Delete removes a connection.
	Delete(ctx context.Context, id uuid.UUID) error

	// Test runs a connectivity test without changing the stored lifecycle
	// state. The transient Testing status is visible while it runs.
	Test(ctx context.Context, id uuid.UUID) (*engine.TestResult, error)

	// Connect tests the target and, on success, marks the connection live.
	Connect(ctx context.Context, id uuid.UUID) (*models.Connection, *engine.TestResult, error)

	// Disconnect resets a connection to Disconnected. No adapter call is
	// made; there is no server-side session to tear down.
	Disconnect(ctx context.Context, id uuid.UUID) (*models.Connection, error)

	// GetSchema lists the tables of a connected target.
	GetSchema(ctx context.Context, id uuid.UUID) ([]string, error)

	// GetTableData returns up to limit sample rows from one table of a
	// connected target.
	GetTableData(ctx context.Context, id uuid.UUID, table string, limit int) ([]map[string]any, error)
}

type connectionService struct {
	repo            repositories.ConnectionRepository
	factory         engine.Factory
	cipher          *crypto.SecretCipher
	auditor         *audit.SecurityAuditor
	disconnectDelay time.Duration
	logger          *zap.Logger
}

// NewConnectionService wires the connection service.
func NewConnectionService(
	repo repositories.ConnectionRepository,
	factory engine.Factory,
	cipher *crypto.SecretCipher,
	auditor *audit.SecurityAuditor,
	disconnectDelay time.Duration,
	logger *zap.Logger,
) ConnectionService {
	return &connectionService{
		repo:            repo,
		factory:         factory,
		cipher:          cipher,
		auditor:         auditor,
		disconnectDelay: disconnectDelay,
		logger:          logger,
	}
}

func (s *connectionService) List(ctx context.Context, page, limit int) ([]*models.Connection, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	return s.repo.List(ctx, (page-1)*limit, limit)
}

func (s *connectionService) Get(ctx context.Context, id uuid.UUID) (*models.Connection, error) {
	conn, _, err := s.repo.GetByID(ctx, id)
	return conn, err
}

func (s *connectionService) Add(ctx context.Context, req *descriptor.Request) (*models.Connection, *engine.TestResult, error) {
	normalized, err := descriptor.Validate(req)
	if err != nil {
		return nil, nil, err
	}

	conn := connectionFromNormalized(normalized)

	if err := s.screenDuplicates(ctx, conn, uuid.Nil); err != nil {
		return nil, nil, err
	}

	result, err := s.factory.TestConnection(ctx, conn.EngineType, specForConnection(conn))
	if err != nil {
		return nil, nil, err
	}
	conn.Status = statusForResult(result)

	encryptedPassword, err := s.cipher.EncryptPtr(conn.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encrypt password: %w", err)
	}

	if err := s.repo.Create(ctx, conn, encryptedPassword); err != nil {
		return nil, nil, err
	}

	if conn.Password != nil {
		s.auditor.LogCredentialChange(ctx, conn.ID)
	}

	s.logger.Info("Registered connection",
		zap.String("id", conn.ID.String()),
		zap.String("name", conn.Name),
		zap.String("engine", string(conn.EngineType)),
		zap.String("status", string(conn.Status)))

	return conn, result, nil
}

func (s *connectionService) Update(ctx context.Context, id uuid.UUID, req *descriptor.Request) (*models.Connection, *engine.TestResult, error) {
	existing, storedPassword, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	// An omitted password on a local descriptor means "keep the stored
	// one". Decrypt it so validation and the live test see a complete
	// request.
	updatePassword := req.Password != nil
	if !updatePassword && req.ServerType == models.ServerLocal && existing.IsLocal() {
		decrypted, err := s.cipher.DecryptPtr(storedPassword)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to decrypt stored password: %w", err)
		}
		req.Password = decrypted
	}

	normalized, err := descriptor.Validate(req)
	if err != nil {
		return nil, nil, err
	}

	conn := connectionFromNormalized(normalized)
	conn.ID = existing.ID
	conn.CreatedAt = existing.CreatedAt

	// An external descriptor has no local password to keep. Overwrite the
	// stored column so a stale secret from a previous local form is not
	// retained.
	if !conn.IsLocal() {
		updatePassword = true
	}

	if err := s.screenDuplicates(ctx, conn, existing.ID); err != nil {
		return nil, nil, err
	}

	result, err := s.factory.TestConnection(ctx, conn.EngineType, specForConnection(conn))
	if err != nil {
		return nil, nil, err
	}
	conn.Status = statusForResult(result)

	encryptedPassword, err := s.cipher.EncryptPtr(conn.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encrypt password: %w", err)
	}

	if err := s.repo.Update(ctx, conn, encryptedPassword, updatePassword); err != nil {
		return nil, nil, err
	}

	if updatePassword {
		s.auditor.LogCredentialChange(ctx, conn.ID)
	}

	s.logger.Info("Updated connection",
		zap.String("id", conn.ID.String()),
		zap.String("name", conn.Name),
		zap.String("status", string(conn.Status)))

	return conn, result, nil
}

func (s *connectionService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Deleted connection", zap.String("id", id.String()))
	return nil
}

// screenDuplicates rejects a candidate that already exists under another
// name, exactly matches a registered endpoint, or fuzzily matches a
// registered target. The screen runs before the live test; the unique
// indexes remain as a backstop against insert races.
func (s *connectionService) screenDuplicates(ctx context.Context, candidate *models.Connection, excludeID uuid.UUID) error {
	nameTaken, err := s.repo.ExistsByName(ctx, candidate.Name, excludeID)
	if err != nil {
		return err
	}
	if nameTaken {
		return apperrors.ValidationError("a connection named %q already exists", candidate.Name)
	}

	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return err
	}
	for _, existing := range all {
		if existing.ID == excludeID {
			continue
		}
		if descriptor.IsSameEndpoint(candidate, existing) || descriptor.IsSameDatabase(candidate, existing) {
			return apperrors.ValidationError("A connection to this database already exists")
		}
	}
	return nil
}

// loadWithPassword fetches a connection and decrypts its password in place.
func (s *connectionService) loadWithPassword(ctx context.Context, id uuid.UUID) (*models.Connection, error) {
	conn, encryptedPassword, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	password, err := s.cipher.DecryptPtr(encryptedPassword)
	if err != nil {
		s.logger.Error("Failed to decrypt stored password",
			zap.String("id", id.String()),
			zap.String("error", logging.SanitizeError(err)))
		return nil, fmt.Errorf("failed to decrypt stored password: %w", err)
	}
	conn.Password = password
	return conn, nil
}

func connectionFromNormalized(n *descriptor.Normalized) *models.Connection {
	return &models.Connection{
		Name:             n.Name,
		ServerType:       n.ServerType,
		EngineType:       n.EngineType,
		Host:             n.Host,
		Port:             n.Port,
		Username:         n.Username,
		Password:         n.Password,
		Database:         n.Database,
		ConnectionString: n.ConnectionString,
		SSL:              n.SSL,
		Status:           models.StatusDisconnected,
	}
}

func specForConnection(conn *models.Connection) *engine.ConnSpec {
	return &engine.ConnSpec{
		ServerType:       conn.ServerType,
		Host:             conn.Host,
		Port:             conn.Port,
		Username:         conn.Username,
		Password:         conn.PasswordValue(),
		Database:         conn.Database,
		ConnectionString: conn.ConnectionString,
		SSL:              conn.SSL,
	}
}

// statusForResult maps a successful test outcome onto a lifecycle status.
// Warnings dominate: a connection that works but with caveats surfaces as
// ConnectedWarning even when the transport is encrypted.
func statusForResult(result *engine.TestResult) models.Status {
	switch {
	case result.Warning != "":
		return models.StatusConnectedWarning
	case result.IsSecure:
		return models.StatusConnectedSecure
	default:
		return models.StatusConnected
	}
}

// Ensure connectionService implements ConnectionService at compile time.
var _ ConnectionService = (*connectionService)(nil)
