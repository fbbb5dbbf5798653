package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDMiddleware(t *testing.T) {
	router, _ := setupRouter(t)
	valid := uuid.NewString()

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"generated when absent", "", false},
		{"uuid propagated", valid, true},
		{"non uuid replaced", "abc\ninjected=1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			if tt.incoming != "" {
				req.Header.Set("X-Request-ID", tt.incoming)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			got := w.Header().Get("X-Request-ID")
			_, err := uuid.Parse(got)
			require.NoError(t, err)
			if tt.keep {
				assert.Equal(t, tt.incoming, got)
			} else {
				assert.NotEqual(t, tt.incoming, got)
			}
		})
	}
}

func TestExposedHeaders_OnlyExportShowsContentDisposition(t *testing.T) {
	router, _ := setupRouter(t)

	w := do(router, http.MethodGet, "/api/v1/profile", "student-token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "X-Request-ID", w.Header().Get("Access-Control-Expose-Headers"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	w = do(router, http.MethodGet, "/api/v1/tests/3/results/export", "teacher-token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "X-Request-ID, Content-Disposition", w.Header().Get("Access-Control-Expose-Headers"))
}

func TestCORSPreflight(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sessions", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
