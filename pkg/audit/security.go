// Package audit logs security-relevant broker events in structured JSON for
// SIEM consumption. Events cover injection attempts against the table-data
// endpoint and credential changes on registered connections.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harbordata/dbbroker/pkg/auth"
)

// SecurityEventType categorizes security-relevant events for filtering and
// alerting.
type SecurityEventType string

const (
	// EventInjectionAttempt is logged when a requested table name fails the
	// injection screen.
	EventInjectionAttempt SecurityEventType = "sql_injection_attempt"
	// EventCredentialChange is logged when a stored connection password is
	// created or replaced.
	EventCredentialChange SecurityEventType = "credential_change"
	// EventTokenRevoked is logged when a bearer token is revoked.
	EventTokenRevoked SecurityEventType = "token_revoked"
)

// SecurityEvent is an auditable event with the context a SIEM needs to
// correlate it.
type SecurityEvent struct {
	Timestamp    time.Time         `json:"timestamp"`
	EventType    SecurityEventType `json:"event_type"`
	ConnectionID uuid.UUID         `json:"connection_id,omitempty"`
	UserID       string            `json:"user_id,omitempty"`
	Details      any               `json:"details,omitempty"`
	Severity     string            `json:"severity"` // info, warning, critical
}

// InjectionDetails describes a rejected table name.
type InjectionDetails struct {
	TableName string `json:"table_name"`
	Reason    string `json:"reason"`
}

// SecurityAuditor logs security events under a dedicated logger namespace so
// SIEM pipelines can filter on it.
type SecurityAuditor struct {
	logger *zap.Logger
}

// NewSecurityAuditor creates an auditor writing under the "security_audit"
// namespace.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	return &SecurityAuditor{logger: logger.Named("security_audit")}
}

// LogInjectionAttempt records a table name that failed the injection screen.
// Logged at ERROR with critical severity for immediate alerting. The user ID
// comes from the JWT claims in ctx when present.
func (a *SecurityAuditor) LogInjectionAttempt(ctx context.Context, connectionID uuid.UUID, details InjectionDetails) {
	a.log(ctx, SecurityEvent{
		EventType:    EventInjectionAttempt,
		ConnectionID: connectionID,
		Details:      details,
		Severity:     "critical",
	})
}

// LogCredentialChange records a password being set or replaced on a
// connection.
func (a *SecurityAuditor) LogCredentialChange(ctx context.Context, connectionID uuid.UUID) {
	a.log(ctx, SecurityEvent{
		EventType:    EventCredentialChange,
		ConnectionID: connectionID,
		Severity:     "info",
	})
}

// LogTokenRevoked records a bearer token revocation.
func (a *SecurityAuditor) LogTokenRevoked(ctx context.Context) {
	a.log(ctx, SecurityEvent{
		EventType: EventTokenRevoked,
		Severity:  "info",
	})
}

func (a *SecurityAuditor) log(ctx context.Context, event SecurityEvent) {
	event.Timestamp = time.Now().UTC()
	event.UserID = auth.GetUserID(ctx)

	fields := []zap.Field{
		zap.Time("timestamp", event.Timestamp),
		zap.String("event_type", string(event.EventType)),
		zap.String("severity", event.Severity),
	}
	if event.ConnectionID != uuid.Nil {
		fields = append(fields, zap.String("connection_id", event.ConnectionID.String()))
	}
	if event.UserID != "" {
		fields = append(fields, zap.String("user_id", event.UserID))
	}
	if event.Details != nil {
		fields = append(fields, zap.Any("details", event.Details))
	}

	switch event.Severity {
	case "critical":
		a.logger.Error("Security event", fields...)
	case "warning":
		a.logger.Warn("Security event", fields...)
	default:
		a.logger.Info("Security event", fields...)
	}
}
