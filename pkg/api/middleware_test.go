package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIKeyMiddleware(t *testing.T) {
	const snapshotID = "2Hn1K6ZqSXr3bbKmYyXqbDyVdGf"

	tests := []struct {
		name           string
		apiKey         string
		method         string
		path           string
		requestHeader  string
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "list with valid key",
			apiKey:         testAPIKey,
			method:         http.MethodGet,
			path:           "/api/v1/snapshots",
			requestHeader:  testAPIKey,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "create without key",
			apiKey:         testAPIKey,
			method:         http.MethodPost,
			path:           "/api/v1/snapshots",
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Missing X-API-Key header",
		},
		{
			name:           "raw download with wrong key",
			apiKey:         testAPIKey,
			method:         http.MethodGet,
			path:           "/api/v1/snapshots/" + snapshotID + "?raw=1",
			requestHeader:  "wrong-key",
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Invalid API key",
		},
		{
			name:           "delete with key of different case",
			apiKey:         testAPIKey,
			method:         http.MethodDelete,
			path:           "/api/v1/snapshots/" + snapshotID,
			requestHeader:  strings.ToUpper(testAPIKey),
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Invalid API key",
		},
		{
			name:           "replace with checks disabled",
			apiKey:         "",
			method:         http.MethodPut,
			path:           "/api/v1/snapshots/" + snapshotID,
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached := false
			handler := apiKeyMiddleware(tt.apiKey)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.requestHeader != "" {
				req.Header.Set("X-API-Key", tt.requestHeader)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedStatus == http.StatusOK, reached)
			if tt.expectedError != "" {
				var resp APIResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.False(t, resp.Success)
				assert.Equal(t, tt.expectedError, resp.Error)
			}
		})
	}
}

func TestSendJSON_SnapshotInfo(t *testing.T) {
	w := httptest.NewRecorder()
	sendJSON(w, http.StatusCreated, SnapshotInfo{ID: "abc", Size: 64, AppVersion: 2, MsrCount: 3})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp struct {
		Success bool         `json:"success"`
		Data    SnapshotInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "abc", resp.Data.ID)
	assert.Equal(t, uint16(2), resp.Data.AppVersion)
	assert.Equal(t, 3, resp.Data.MsrCount)
}

func TestSendError(t *testing.T) {
	tests := []struct {
		name       string
		message    string
		statusCode int
	}{
		{"malformed snapshot id", ErrInvalidID.Error(), http.StatusBadRequest},
		{"unknown snapshot", "snapshot not found", http.StatusNotFound},
		{"stored frame fails to decode", "decode snapshot: checksum mismatch", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			sendError(w, tt.message, tt.statusCode)

			assert.Equal(t, tt.statusCode, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var resp APIResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Nil(t, resp.Data)
			assert.Equal(t, tt.message, resp.Error)
		})
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	r := chi.NewRouter()
	r.Use(requestLogger(logger))
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})

	req := httptest.NewRequest("GET", "/items/42", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/items/{id}", entry["path"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
	assert.Equal(t, float64(len("short and stout")), entry["bytes"])
	assert.Equal(t, "http_request", entry["message"])
}
