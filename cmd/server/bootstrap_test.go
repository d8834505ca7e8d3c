package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/charlesng35/coffeeshop/internal/app"
	"github.com/charlesng35/coffeeshop/internal/auth/authtest"
)

func testConfig(t *testing.T, issuer *authtest.Issuer) *app.Config {
	t.Helper()
	return &app.Config{
		Server: app.ServerConfig{Port: 5000, CORS: app.CORSConfig{AllowedOrigins: []string{"*"}}},
		Database: app.DatabaseConfig{
			Driver:       "sqlite",
			DSN:          "file:" + uuid.NewString() + "?mode=memory&cache=shared",
			ResetOnStart: true,
		},
		Auth: app.AuthConfig{
			Issuer:       issuer.URL(),
			Audience:     authtest.DefaultAudience,
			JWKSURL:      issuer.JWKSURL(),
			PrefetchKeys: true,
		},
		Monitoring: app.MonitoringConfig{
			Health: app.HealthConfig{Enabled: true},
		},
	}
}

func TestBootstrapRuntimeServesSeededMenu(t *testing.T) {
	issuer := authtest.NewIssuer(t)
	cfg := testConfig(t, issuer)

	stack, err := bootstrapRuntime(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = stack.Shutdown(context.Background()) })

	require.Equal(t, 1, issuer.JWKSFetches(), "prefetch should load the key set once")
	require.Equal(t, 1, stack.Keys.KeyCount())

	w := httptest.NewRecorder()
	stack.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/drinks", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"success":true,"drinks":[{"id":1,"title":"water","recipe":[{"color":"blue"}]}]}`, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/drinks-detail", nil)
	req.Header.Set("Authorization", issuer.Bearer(authtest.TokenOptions{Permissions: []string{"get:drinks-detail"}}))
	w = httptest.NewRecorder()
	stack.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, 1, issuer.JWKSFetches())
}

func TestBootstrapRuntimeFailsWhenKeysUnavailable(t *testing.T) {
	issuer := authtest.NewIssuer(t)
	cfg := testConfig(t, issuer)

	offline := httptest.NewServer(http.NotFoundHandler())
	cfg.Auth.JWKSURL = offline.URL + "/.well-known/jwks.json"
	offline.Close()

	_, err := bootstrapRuntime(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
	require.Contains(t, err.Error(), "prefetch signing keys")
}

func TestBootstrapRuntimeRejectsUnknownDriver(t *testing.T) {
	issuer := authtest.NewIssuer(t)
	cfg := testConfig(t, issuer)
	cfg.Database.Driver = "oracle"

	_, err := bootstrapRuntime(context.Background(), cfg, zap.NewNop())
	require.ErrorContains(t, err, "open database")
}

func TestShutdownNilStack(t *testing.T) {
	var stack *runtimeStack
	require.NoError(t, stack.Shutdown(context.Background()))
}

func TestLoadApplicationConfig(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("server:\n  port: 6100\nauth:\n  audience: menu\n  issuer: https://idp.test/\n  jwks_url: https://idp.test/.well-known/jwks.json\n"), 0o600))

	for _, path := range []string{dir, file} {
		cfg, err := loadApplicationConfig(path)
		require.NoError(t, err)
		require.Equal(t, 6100, cfg.Server.Port)
		require.Equal(t, "menu", cfg.Auth.Audience)
		require.NoError(t, cfg.Validate())
	}

	_, err := loadApplicationConfig(filepath.Join(dir, "missing"))
	require.ErrorContains(t, err, "does not exist")
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server:\n  port: 6100\n"), 0o600))

	err := run(context.Background(), []string{"-config", dir})
	require.ErrorContains(t, err, "auth.audience")
}

func TestIgnoreSyncError(t *testing.T) {
	require.NoError(t, ignoreSyncError(nil))
	require.NoError(t, ignoreSyncError(syscall.EINVAL))
	require.NoError(t, ignoreSyncError(&os.PathError{Op: "sync", Path: "/dev/stderr", Err: syscall.ENOTTY}))
	require.Error(t, ignoreSyncError(syscall.EIO))
}
