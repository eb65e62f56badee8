package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	appErrors "github.com/noah-isme/equipment-tracker/pkg/errors"
)

const (
	dashboardCacheKey     = "dashboard:summary"
	dashboardCachePattern = "dashboard:*"
)

type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string)
}

// lookupError maps a missing row to NotFound and everything else to StorageError.
func lookupError(err error, notFound, failure string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Storage(err, failure)
}

// optionalText trims the value and turns blanks into nil.
func optionalText(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
