package errors

import (
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorKeepsTypedError(t *testing.T) {
	wrapped := fmt.Errorf("update issue: %w", Clone(ErrNotFound, "issue not found"))

	appErr := FromError(wrapped)
	require.NotNil(t, appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
	assert.Equal(t, "issue not found", appErr.Message)
}

func TestFromErrorHidesUntypedCause(t *testing.T) {
	appErr := FromError(sql.ErrConnDone)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Equal(t, ErrInternal.Message, appErr.Message)
	assert.ErrorIs(t, appErr, sql.ErrConnDone)
}

func TestCloneMatchesOriginalByCode(t *testing.T) {
	clone := Clone(ErrAdminExists, "")
	assert.ErrorIs(t, clone, ErrAdminExists)
	assert.NotErrorIs(t, clone, ErrNotFound)
}

func TestValidationCarriesDetails(t *testing.T) {
	err := Validation(map[string][]string{"email": {"must be a valid email address"}})
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.Equal(t, []string{"must be a valid email address"}, err.Details["email"])
	assert.Nil(t, ErrValidation.Details)
}
