package engine

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/harbordata/dbbroker/pkg/apperrors"
)

// ClassifyConnectionError translates transport-level failures that look the
// same for every engine into classified engine errors. Returns nil when the
// error is not a recognizable network failure; the caller then applies its
// engine-specific classification or passes the raw message through.
func ClassifyConnectionError(err error) *apperrors.EngineError {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return apperrors.NewEngineError(apperrors.KindTimedOut,
			"Connection timed out: the server did not respond within the allowed time", err)
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) || strings.Contains(err.Error(), "no such host") {
		return apperrors.NewEngineError(apperrors.KindHostNotFound,
			"Host not found: check the hostname and network connectivity", err)
	}

	if errors.Is(err, syscall.ECONNREFUSED) || strings.Contains(err.Error(), "connection refused") {
		return apperrors.NewEngineError(apperrors.KindRefusedConnection,
			"Connection refused: verify the database server is running and the port is correct", err)
	}

	return nil
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Passthrough wraps an unclassified driver error so the raw message still
// reaches the caller instead of being swallowed.
func Passthrough(err error) *apperrors.EngineError {
	return apperrors.NewEngineError(apperrors.KindUnclassified, err.Error(), err)
}
