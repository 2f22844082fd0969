package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind_StatusAndString(t *testing.T) {
	tests := []struct {
		kind   Kind
		status int
		name   string
	}{
		{KindValidation, http.StatusBadRequest, "ValidationError"},
		{KindNotFound, http.StatusNotFound, "NotFound"},
		{KindConflict, http.StatusConflict, "Conflict"},
		{KindAuthRequired, http.StatusUnauthorized, "AuthRequired"},
		{KindInternal, http.StatusInternalServerError, "Internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.kind.Status())
			assert.Equal(t, tt.name, tt.kind.String())
		})
	}
}

func TestAsError_KeepsTypedErrors(t *testing.T) {
	orig := NotFound(MsgDocumentNotExist, ErrorNotFound)
	wrapped := fmt.Errorf("lookup: %w", orig)

	got := AsError(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, KindNotFound, got.Kind)
	assert.Equal(t, MsgDocumentNotExist, got.MessageID)
	assert.True(t, errors.Is(got, ErrorNotFound))
	assert.NotEmpty(t, got.Stack())
}

func TestAsError_UnknownIsInternal(t *testing.T) {
	got := AsError(errors.New("db down"))
	assert.Equal(t, KindInternal, got.Kind)
	assert.Equal(t, MsgInternal, got.MessageID)
	assert.Equal(t, http.StatusInternalServerError, got.Status())

	assert.Nil(t, AsError(nil))
}

func TestIsKind(t *testing.T) {
	assert.True(t, IsKind(Conflict(MsgDocumentAlreadyUpdated, ErrVersionConflict), KindConflict))
	assert.False(t, IsKind(Validation(MsgRequestInvalid), KindConflict))
	assert.False(t, IsKind(errors.New("plain"), KindInternal))
}
