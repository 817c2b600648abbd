package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"tracker_worker/core/domain"

	"github.com/stretchr/testify/assert"
)

func TestFromDomain(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{"unknown sheet", domain.ErrUnknownSheet, CodeUnknownSheet, http.StatusBadRequest},
		{"wrapped column", fmt.Errorf("update: %w", domain.ErrInvalidColumn), CodeInvalidColumn, http.StatusBadRequest},
		{"bad index", domain.ErrInvalidIndex, CodeInvalidRow, http.StatusBadRequest},
		{"missing row", domain.ErrRowNotFound, CodeInvalidRow, http.StatusBadRequest},
		{"invalid input", domain.ErrInvalidInput, CodeInvalidInput, http.StatusBadRequest},
		{"app error passes through", NotFound("override"), CodeNotFound, http.StatusNotFound},
		{"other", errors.New("disk full"), CodeInternalError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromDomain(tt.err)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.wantStatus, got.Status)
		})
	}

	assert.Nil(t, FromDomain(nil))
}

func TestAppError_Unwrap(t *testing.T) {
	err := FromDomain(fmt.Errorf("x: %w", domain.ErrInvalidIndex))
	assert.ErrorIs(t, err, domain.ErrInvalidIndex)
	assert.Equal(t, http.StatusBadRequest, GetHTTPStatus(err))
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(errors.New("x")))
}
