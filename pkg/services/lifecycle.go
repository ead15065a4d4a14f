package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harbordata/dbbroker/pkg/adapters/engine"
	"github.com/harbordata/dbbroker/pkg/logging"
	"github.com/harbordata/dbbroker/pkg/models"
)

// Test runs a connectivity test. The Testing status is persisted before the
// adapter call so concurrent readers see the operation in flight; afterwards
// the status reflects the outcome, landing on Disconnected when the test
// fails. Concurrent lifecycle operations on the same connection race on
// status writes and the last writer wins; callers are expected to serialize
// operations per connection.
func (s *connectionService) Test(ctx context.Context, id uuid.UUID) (*engine.TestResult, error) {
	conn, err := s.loadWithPassword(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, id, models.StatusTesting); err != nil {
		return nil, err
	}

	result, testErr := s.factory.TestConnection(ctx, conn.EngineType, specForConnection(conn))
	if testErr != nil {
		if err := s.repo.UpdateStatus(ctx, id, models.StatusDisconnected); err != nil {
			s.logger.Error("Failed to reset status after test failure",
				zap.String("id", id.String()),
				zap.Error(err))
		}
		s.logger.Info("Connection test failed",
			zap.String("id", id.String()),
			zap.String("error", logging.SanitizeError(testErr)))
		return nil, testErr
	}

	if err := s.repo.UpdateStatus(ctx, id, statusForResult(result)); err != nil {
		return nil, err
	}
	return result, nil
}

// Connect tests the target and marks the connection live on success. On
// failure the connection lands on Disconnected.
func (s *connectionService) Connect(ctx context.Context, id uuid.UUID) (*models.Connection, *engine.TestResult, error) {
	conn, err := s.loadWithPassword(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if err := s.repo.UpdateStatus(ctx, id, models.StatusConnecting); err != nil {
		return nil, nil, err
	}

	result, testErr := s.factory.TestConnection(ctx, conn.EngineType, specForConnection(conn))
	if testErr != nil {
		if err := s.repo.UpdateStatus(ctx, id, models.StatusDisconnected); err != nil {
			s.logger.Error("Failed to reset status after connect failure",
				zap.String("id", id.String()),
				zap.Error(err))
		}
		s.logger.Info("Connect failed",
			zap.String("id", id.String()),
			zap.String("error", logging.SanitizeError(testErr)))
		return nil, nil, testErr
	}

	status := statusForResult(result)
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, nil, err
	}
	conn.Status = status

	s.logger.Info("Connection established",
		zap.String("id", id.String()),
		zap.String("status", string(status)))

	return conn, result, nil
}

// Disconnect resets the connection to Disconnected. Connections to targets
// are short-lived and already closed, so this is purely a status change; the
// brief Disconnecting phase mirrors what callers see during Connect.
func (s *connectionService) Disconnect(ctx context.Context, id uuid.UUID) (*models.Connection, error) {
	conn, _, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, id, models.StatusDisconnecting); err != nil {
		return nil, err
	}

	if s.disconnectDelay > 0 {
		select {
		case <-time.After(s.disconnectDelay):
		case <-ctx.Done():
		}
	}

	if err := s.repo.UpdateStatus(ctx, id, models.StatusDisconnected); err != nil {
		return nil, err
	}
	conn.Status = models.StatusDisconnected

	s.logger.Info("Connection disconnected", zap.String("id", id.String()))
	return conn, nil
}
