package tool

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymphonySave_Invoke_ReturnsResponseBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Balanced Core", body["name"])

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"symphony_id":"sym-123","version_id":"v1"}`))
	}))
	defer srv.Close()

	s := NewSymphonySave(srv.URL, "test-key")
	raw, err := s.Invoke(context.Background(), map[string]any{
		"name":           "Balanced Core",
		"symphony_score": map[string]any{"step": "wt-cash-specified"},
	})
	require.NoError(t, err)
	assert.Contains(t, raw, "sym-123")
}

func TestSymphonySave_Invoke_PropagatesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer srv.Close()

	s := NewSymphonySave(srv.URL, "test-key")
	_, err := s.Invoke(context.Background(), map[string]any{"name": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestSymphonySave_Name(t *testing.T) {
	s := NewSymphonySave("http://example.com", "")
	assert.Equal(t, "symphony_save", s.Name())
	assert.NotEmpty(t, s.Description())
	assert.NotNil(t, s.ParametersSchema())
}
