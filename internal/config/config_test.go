package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, DefaultPhone, cfg.Handoff.Phone)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver, "carts persist across invocations by default")
	assert.Equal(t, "data/cart.db", cfg.Storage.Path)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.yaml")
	yaml := `
storage:
  driver: memory
  path: /tmp/cart.db
handoff:
  phone: "+55 11 99999-0000"
rules:
  mode: reject
  payment_method: 'value in ["pix", "card"]'
capture:
  timeout: 3s
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, "/tmp/cart.db", cfg.Storage.Path)
	assert.Equal(t, "+55 11 99999-0000", cfg.Handoff.Phone)
	assert.Equal(t, "gmAttelierCart", cfg.Storage.CartKey, "unset keys keep defaults")
	assert.Equal(t, "reject", cfg.Rules.Mode)

	timeout, err := cfg.CaptureTimeout()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, timeout)

	assert.Equal(t, map[string]string{"paymentMethod": `value in ["pix", "card"]`}, cfg.RuleExpressions())
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"driver":  "storage:\n  driver: postgres\n",
		"mode":    "handoff:\n  mode: fax\n",
		"timeout": "capture:\n  timeout: soon\n",
		"origin":  "storage:\n  origin: \"  \"\n",
		"syntax":  "storage: [\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cart.yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := Load(path)
			require.Error(t, err)
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Run("strings and numbers", func(t *testing.T) {
		t.Setenv("CART_STORAGE_DRIVER", "redis")
		t.Setenv("CART_REDIS_DB", "3")
		t.Setenv("CART_PHONE", "5511")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, DriverRedis, cfg.Storage.Driver)
		assert.Equal(t, 3, cfg.Storage.RedisDB)
		assert.Equal(t, "5511", cfg.Handoff.Phone)
	})

	t.Run("env wins over file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cart.yaml")
		require.NoError(t, os.WriteFile(path, []byte("handoff:\n  mode: print\n"), 0o644))
		t.Setenv("CART_HANDOFF_MODE", "browser")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, HandoffBrowser, cfg.Handoff.Mode)
	})

	t.Run("booleans", func(t *testing.T) {
		t.Setenv("CART_ACTIVITY_ENABLED", "false")
		t.Setenv("CART_RESET_OPTIONS", "true")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.False(t, cfg.Activity.Enabled)
		assert.True(t, cfg.Checkout.ResetOptions)
	})

	t.Run("bad boolean", func(t *testing.T) {
		t.Setenv("CART_CAPTURE_ENABLED", "maybe")
		_, err := Load("")
		require.Error(t, err)
	})

	t.Run("bad redis db", func(t *testing.T) {
		t.Setenv("CART_REDIS_DB", "zero")
		_, err := Load("")
		require.Error(t, err)
	})
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cart.yaml")
	cfg := DefaultConfig()
	cfg.Storage.Driver = DriverRedis
	cfg.Checkout.ResetOptions = true
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
