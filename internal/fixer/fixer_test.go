package fixer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querypilot/querypilot/pkg/core"
)

func TestRegenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req regenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "SELECT id FORM users", req.SQL)
		assert.Equal(t, `syntax error at or near "FORM"`, req.Error)
		assert.Equal(t, "postgres", req.Engine)

		_ = json.NewEncoder(w).Encode(regenerateResponse{SQL: "SELECT id FROM users"})
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	got, err := c.Regenerate(context.Background(),
		"SELECT id FORM users", `syntax error at or near "FORM"`, core.EnginePostgres)
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM users", got)
}

func TestRegenerate_EmptyMeansNoFix(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(regenerateResponse{SQL: ""})
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	got, err := c.Regenerate(context.Background(), "SELECT 1", "boom", core.EngineMySQL)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRegenerate_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	_, err := c.Regenerate(context.Background(), "SELECT 1", "boom", core.EngineMySQL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestRegenerate_Unreachable(t *testing.T) {
	c := New("http://127.0.0.1:1", nil)
	_, err := c.Regenerate(context.Background(), "SELECT 1", "boom", core.EngineMySQL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rewrite request failed")
}

func TestRegenerate_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	_, err := c.Regenerate(context.Background(), "SELECT 1", "boom", core.EngineMySQL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode rewrite response")
}
