package service

import (
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/noah-isme/uni-registration-api/pkg/database"
	appErrors "github.com/noah-isme/uni-registration-api/pkg/errors"
)

// isNotFound reports whether a lookup found no row. Ids that are not valid
// uuids can never match a row, so Postgres rejecting them counts as missing.
func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || database.IsInvalidText(err)
}

// optionalUUID validates an id used as a list filter. Empty means no filter.
func optionalUUID(field, value string) error {
	if value == "" {
		return nil
	}
	if _, err := uuid.Parse(value); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, field+" must be a valid id")
	}
	return nil
}
