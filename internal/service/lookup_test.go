package service

import (
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/uni-registration-api/pkg/errors"
)

// malformedID is not a uuid; stubs answer it the way Postgres does.
const malformedID = "abc"

var errMalformedID = fmt.Errorf("select: %w", &pq.Error{Code: "22P02", Message: `invalid input syntax for type uuid: "abc"`})

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(errMalformedID))
	assert.False(t, isNotFound(&pq.Error{Code: "08006"}))
}

func TestOptionalUUID(t *testing.T) {
	assert.NoError(t, optionalUUID("major_id", ""))
	assert.NoError(t, optionalUUID("major_id", "7f9c2a8e-5b1d-4c3e-9a7f-2d6b8e1c4f30"))
	assert.True(t, appErrors.Is(optionalUUID("major_id", "cs"), appErrors.ErrValidation))
}
