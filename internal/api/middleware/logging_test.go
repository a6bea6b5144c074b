package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_LevelByStatus(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		status int
		level  string
	}{
		{"server error", http.MethodGet, "/v1/stored", http.StatusInternalServerError, "error"},
		{"client error", http.MethodGet, "/v1/inbox", http.StatusForbidden, "warn"},
		{"broadcast", http.MethodPost, "/v1/broadcasts", http.StatusAccepted, "info"},
		{"read", http.MethodGet, "/health", http.StatusOK, "debug"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := zerolog.New(&buf)
			h := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tt.method, tt.path, nil))

			var line map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
			assert.Equal(t, tt.level, line["level"])
			assert.Equal(t, "http", line["component"])
			assert.Equal(t, float64(tt.status), line["status"])
		})
	}
}
