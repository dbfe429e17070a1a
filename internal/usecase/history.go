package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"CredibilityScanner/internal/domain"
	"CredibilityScanner/internal/ports"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

var (
	// ErrHistoryUnavailable means no repository is configured.
	ErrHistoryUnavailable = errors.New("history repository not configured")
	// ErrUserRequired rejects history lookups without a user.
	ErrUserRequired = errors.New("user id is required")
)

// History reads stored analyses back for a user.
type History struct {
	repository ports.HistoryRepository
}

// NewHistory wraps a repository; nil yields ErrHistoryUnavailable on every call.
func NewHistory(repository ports.HistoryRepository) *History {
	return &History{repository: repository}
}

// ForUser returns most-recent-first records. A non-positive limit means the
// default; larger limits are capped.
func (h *History) ForUser(ctx context.Context, userID string, limit int) ([]domain.HistoryRecord, error) {
	if h == nil || h.repository == nil {
		return nil, ErrHistoryUnavailable
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserRequired
	}
	limit = ClampHistoryLimit(limit)

	records, err := h.repository.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list history for %s: %w", userID, err)
	}
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// ClampHistoryLimit applies the default and the upper bound.
func ClampHistoryLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	default:
		return limit
	}
}
