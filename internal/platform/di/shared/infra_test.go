package shared

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"optivista/internal/adapters/out/memstore"
	appcfg "optivista/internal/infra/config"
)

func TestNewInfra_MemoryBackendNeedsNoCloud(t *testing.T) {
	cfg := appcfg.FromEnv(func(k string) string {
		return map[string]string{
			"STORE_BACKEND": "memory",
			"AUTH_MODE":     "dev",
		}[k]
	})

	inf, err := NewInfra(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = inf.Close() })

	assert.IsType(t, &memstore.Store{}, inf.Store)
	assert.Nil(t, inf.GCS)
	assert.Nil(t, inf.FirebaseAuth)
	assert.Nil(t, inf.SecretManager)
	assert.Nil(t, inf.Redis)
}

func TestNewInfra_RejectsUnknownBackend(t *testing.T) {
	cfg := appcfg.FromEnv(func(k string) string {
		if k == "STORE_BACKEND" {
			return "postgres"
		}
		return ""
	})
	_, err := NewInfra(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestNewInfra_FirestoreNeedsProject(t *testing.T) {
	cfg := appcfg.FromEnv(func(string) string { return "" })
	_, err := NewInfra(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "projectID")
}

func TestRedactPath(t *testing.T) {
	assert.Equal(t, "***/sa.json", redactPath(`C:\keys\sa.json`))
	assert.Equal(t, "***/sa.json", redactPath("/etc/keys/sa.json"))
	assert.Equal(t, "***", redactPath("/etc/keys/"))
	assert.Equal(t, "", redactPath(" "))
}
