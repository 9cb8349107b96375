package httpext

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJsonError(t *testing.T) {
	tests := []struct {
		name           string
		message        string
		code           int
		expectedStatus int
	}{
		{
			name:           "Basic error",
			message:        "Something went wrong",
			code:           http.StatusBadRequest,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Unauthorized",
			message:        "Unauthorized",
			code:           http.StatusUnauthorized,
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			JsonError(w, tt.message, tt.code)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var raw map[string]interface{}
			require.NoError(t, json.NewDecoder(w.Body).Decode(&raw))
			assert.Equal(t, tt.message, raw["error"])
			assert.NotContains(t, raw, "error_description")
			assert.NotContains(t, raw, "details")
		})
	}
}

func TestJsonErrorWithDetails(t *testing.T) {
	tests := []struct {
		name          string
		errorResponse ErrorResponse
		code          int
	}{
		{
			name: "Error with description",
			errorResponse: ErrorResponse{
				Error:            "unauthorized",
				ErrorDescription: "User is not authenticated",
			},
			code: http.StatusUnauthorized,
		},
		{
			name: "Error with details",
			errorResponse: ErrorResponse{
				Error:   "Failed to communicate with Orchestrate",
				Details: "unavailable",
			},
			code: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			JsonErrorWithDetails(w, tt.code, tt.errorResponse)

			assert.Equal(t, tt.code, w.Code)

			var response ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, tt.errorResponse, response)
		})
	}
}

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusCreated, map[string]string{"status": "ok"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestJSONUnencodable(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusOK, map[string]interface{}{"bad": make(chan int)})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestNoStore(t *testing.T) {
	w := httptest.NewRecorder()
	NoStore(w)

	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, "no-cache", w.Header().Get("Pragma"))
}
