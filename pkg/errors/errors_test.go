package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorWrapsUnknown(t *testing.T) {
	err := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.Nil(t, FromError(nil))
}

func TestCloneKeepsCode(t *testing.T) {
	clone := Clone(ErrNotFound, "course not found")
	assert.Equal(t, "NOT_FOUND", clone.Code)
	assert.Equal(t, "course not found", clone.Message)
	assert.Equal(t, "resource not found", ErrNotFound.Message)
}

func TestIsMatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("register: %w", Clone(ErrAlreadyEnrolled, ""))
	assert.True(t, Is(wrapped, ErrAlreadyEnrolled))
	assert.False(t, Is(wrapped, ErrConflict))
	assert.False(t, Is(errors.New("plain"), ErrAlreadyEnrolled))
}
