package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth_Healthy(t *testing.T) {
	s := newTestStore(t)
	h := NewHealthHandler(s)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "connected", resp.Database)
}

func TestHealth_DatabaseDown(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Close())

	h := NewHealthHandler(s)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Equal(t, "disconnected", resp.Database)
}

func TestHealth_NilStore(t *testing.T) {
	h := NewHealthHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestBanner(t *testing.T) {
	t.Run("reports version", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		NewBannerHandler("1.2.3")(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp BannerResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "callstream", resp.Service)
		assert.Equal(t, "operational", resp.Status)
		assert.Equal(t, "1.2.3", resp.Version)
	})

	t.Run("defaults to dev", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		NewBannerHandler("")(rec, req)

		var resp BannerResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "dev", resp.Version)
	})
}
