package utils_test

import (
	"net/http"
	"testing"

	"github.com/SscSPs/identity_service/internal/apperrors"
	"github.com/SscSPs/identity_service/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckDoubleSubmit(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		header  string
		cookie  string
		wantErr bool
	}{
		{"matching pair", http.MethodPost, "abc", "abc", false},
		{"mismatch", http.MethodPost, "abc", "abd", true},
		{"missing header", http.MethodPost, "", "abc", true},
		{"missing cookie", http.MethodPut, "abc", "", true},
		{"both absent", http.MethodDelete, "", "", true},
		{"length differs", http.MethodPatch, "abc", "abcd", true},
		{"get exempt", http.MethodGet, "", "", false},
		{"head exempt", http.MethodHead, "x", "y", false},
		{"options exempt", http.MethodOptions, "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := utils.CheckDoubleSubmit(tt.method, tt.header, tt.cookie)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrCsrfMismatch)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewCSRFToken(t *testing.T) {
	a, err := utils.NewCSRFToken()
	require.NoError(t, err)
	b, err := utils.NewCSRFToken()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
