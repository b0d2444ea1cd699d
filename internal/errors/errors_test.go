package errors_test

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/calgate/calgate/internal/errors"
)

func TestHTTPStatusFromCode(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{"INVALID_INPUT", http.StatusBadRequest},
		{"NOT_FOUND", http.StatusNotFound},
		{"METHOD_NOT_ALLOWED", http.StatusMethodNotAllowed},
		{"EXTERNAL_SERVICE_ERROR", http.StatusBadGateway},
		{"SERVICE_UNAVAILABLE", http.StatusServiceUnavailable},
		{"INTERNAL_ERROR", http.StatusInternalServerError},
		{"CONFIG_INVALID", http.StatusInternalServerError},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, apperrors.HTTPStatusFromCode(tt.code), tt.code)
	}
}

func TestEnsureEnvelopeNormalizesPlainErrors(t *testing.T) {
	envelope := apperrors.EnsureEnvelope(stderrors.New("boom"))
	require.NotNil(t, envelope)
	require.Equal(t, "INTERNAL_ERROR", envelope.Code)
	require.Equal(t, "boom", envelope.Context["wrapped_error"])
}

func TestEnsureEnvelopePassesEnvelopesThrough(t *testing.T) {
	original := apperrors.NewConfigInvalidError("bad config")
	require.Same(t, original, apperrors.EnsureEnvelope(original))
}

func TestRespondWithErrorWritesEnvelopeBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	rec := httptest.NewRecorder()

	apperrors.RespondWithEnvelope(rec, req, apperrors.NewNotFoundError("no such route"))

	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp apperrors.HTTPErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "NOT_FOUND", resp.Error.Code)
	require.Equal(t, "no such route", resp.Error.Message)
	require.NotEmpty(t, resp.Error.RequestID)
}
