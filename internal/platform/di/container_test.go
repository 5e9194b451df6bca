package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httpin "optivista/internal/adapters/in/http"
	appcfg "optivista/internal/infra/config"
)

func memoryConfig(extra map[string]string) *appcfg.Config {
	env := map[string]string{
		"STORE_BACKEND":   "memory",
		"AUTH_MODE":       "dev",
		"DEV_AUTH_SECRET": "test-secret",
		"ADMIN_EMAILS":    "owner@example.com",
	}
	for k, v := range extra {
		env[k] = v
	}
	return appcfg.FromEnv(func(k string) string { return env[k] })
}

func TestNewContainer_MemoryDev(t *testing.T) {
	c, err := NewContainer(context.Background(), memoryConfig(nil), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(c.Close)

	assert.NotNil(t, c.Verifier)
	assert.Nil(t, c.Mailer)

	deps := c.RouterDeps()
	assert.NotNil(t, deps.Live.Source)
	assert.Nil(t, deps.MailChecker)
	assert.False(t, deps.SecureCookies)

	srv := httptest.NewServer(httpin.NewRouter(deps))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNewContainer_DevAuthNeedsSecret(t *testing.T) {
	_, err := NewContainer(context.Background(), memoryConfig(map[string]string{"DEV_AUTH_SECRET": ""}), nil)
	assert.ErrorContains(t, err, "DEV_AUTH_SECRET")
}

func TestNewContainer_DirectSendGridKeyEnablesMailCheck(t *testing.T) {
	c, err := NewContainer(context.Background(), memoryConfig(map[string]string{
		"SENDGRID_API_KEY": "SG.direct",
	}), nil)
	require.NoError(t, err)
	t.Cleanup(c.Close)

	assert.NotNil(t, c.Mailer)
	assert.NotNil(t, c.RouterDeps().MailChecker)
}

func TestLoadPolicy_DefaultWhenUnset(t *testing.T) {
	p, err := loadPolicy("  ")
	require.NoError(t, err)
	assert.NotNil(t, p)

	_, err = loadPolicy("/does/not/exist.yaml")
	assert.Error(t, err)
}
