package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for handlers to map to HTTP status.
var (
	ErrNotFound     = errors.New("not found")
	ErrNoStore      = errors.New("no test case store for project")
	ErrUnauthorized = errors.New("invalid or expired token")
	ErrForbidden    = errors.New("admin privileges required")
)

// ConflictError reports users that already belong to another project, or a
// duplicate username. UserIDs is empty for non-assignment conflicts.
type ConflictError struct {
	Message string
	UserIDs []uint
}

func (e *ConflictError) Error() string {
	if len(e.UserIDs) == 0 {
		return e.Message
	}

	return fmt.Sprintf("%s: users [%s]", e.Message, joinIDs(e.UserIDs))
}

// MissingUsersError reports requested user ids with no users row behind them.
type MissingUsersError struct {
	UserIDs []uint
}

func (e *MissingUsersError) Error() string {
	return fmt.Sprintf("users not found: [%s]", joinIDs(e.UserIDs))
}

func joinIDs(ids []uint) string {
	parts := make([]string, 0, len(ids))

	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%d", id))
	}

	return strings.Join(parts, ", ")
}
