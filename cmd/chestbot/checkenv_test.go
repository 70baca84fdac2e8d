package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func runCheckEnv(t *testing.T) (string, error) {
	t.Helper()
	configPath = filepath.Join(t.TempDir(), "missing.yaml")
	logger = zap.NewNop()
	var out bytes.Buffer
	checkEnvCmd.SetOut(&out)
	checkEnvCmd.SetContext(context.Background())
	err := checkEnvCmd.RunE(checkEnvCmd, nil)
	return out.String(), err
}

func TestCheckEnvMissingToken(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")
	out, err := runCheckEnv(t)
	require.Error(t, err)
	assert.Contains(t, out, "DISCORD_TOKEN: ❌ Missing")
	assert.Contains(t, out, "DISCORD_TOKEN is required")
}

func TestCheckEnvAllSet(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "secret-token")
	t.Setenv("DISCORD_CLIENT_ID", "app")
	t.Setenv("GUILD_ID", "guild")
	out, err := runCheckEnv(t)
	require.NoError(t, err)
	assert.Contains(t, out, "All required settings are present")
	assert.NotContains(t, out, "secret-token")
}

func TestCheckEnvOnlineConfirmsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bot secret-token" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":0,"message":"401: Unauthorized"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"42","username":"chestbot","bot":true}`))
	}))
	defer srv.Close()

	checkOnline = true
	t.Cleanup(func() { checkOnline = false })
	t.Setenv("DISCORD_CLIENT_ID", "app")
	t.Setenv("GUILD_ID", "guild")
	t.Setenv("DISCORD_API_URL", srv.URL)

	t.Setenv("DISCORD_TOKEN", "secret-token")
	out, err := runCheckEnv(t)
	require.NoError(t, err)
	assert.Contains(t, out, "Token belongs to chestbot (42)")

	t.Setenv("DISCORD_TOKEN", "revoked")
	out, err = runCheckEnv(t)
	require.Error(t, err)
	assert.Contains(t, out, "check token")
}
