package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_WritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":7380", cfg.Server.ServerAddr)
	assert.Equal(t, 100, cfg.Generator.DefaultMaxTokens)
	assert.Equal(t, 200, cfg.Generator.MaxTransitionPairs)

	_, err = os.Stat(path)
	require.NoError(t, err, "default config should be written on first load")

	again, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"generator_config": {"default_max_tokens": 12, "max_transition_pairs": 5}}`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Generator.DefaultMaxTokens)
	assert.Equal(t, ":7380", cfg.Server.ServerAddr)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"server_config":`},
		{"zero max tokens", `{"generator_config": {"default_max_tokens": 0}}`},
		{"negative pair cap", `{"generator_config": {"default_max_tokens": 5, "max_transition_pairs": -1}}`},
		{"null section", `{"server_config": null}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o644))
			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestConfigManager_GetReturnsCopy(t *testing.T) {
	cm, err := NewConfigManager(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	cfg := cm.Get()
	cfg.Generator.DefaultMaxTokens = 1
	cfg.Server.TrustedProxies = append(cfg.Server.TrustedProxies, "127.0.0.1")

	fresh := cm.Get()
	assert.Equal(t, 100, fresh.Generator.DefaultMaxTokens)
	assert.Empty(t, fresh.Server.TrustedProxies)
	assert.False(t, cm.IsTrusted("127.0.0.1"))
}

func TestConfigManager_UpdatePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cm, err := NewConfigManager(path)
	require.NoError(t, err)

	cfg := cm.Get()
	cfg.Server.TrustedProxies = []string{"127.0.0.1", "10.0.0.0/8", "not-an-ip"}
	require.NoError(t, cm.Update(cfg))
	assert.True(t, cm.IsTrusted("127.0.0.1"))
	assert.True(t, cm.IsTrusted("10.1.2.3"))
	assert.False(t, cm.IsTrusted("192.168.0.1"))
	assert.False(t, cm.IsTrusted("garbage"))

	reloaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Server.TrustedProxies, reloaded.Server.TrustedProxies)

	cfg.Generator.DefaultMaxTokens = -1
	assert.Error(t, cm.Update(cfg))
	assert.Equal(t, 100, cm.Get().Generator.DefaultMaxTokens)
}

func TestConfigManager_UpdateCopiesCallerConfig(t *testing.T) {
	cm, err := NewConfigManager(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	cfg := cm.Get()
	cfg.Generator.DefaultMaxTokens = 40
	cfg.Server.TrustedProxies = []string{"10.0.0.1"}
	require.NoError(t, cm.Update(cfg))

	// Changing the caller's copy afterwards must not reach the live config.
	cfg.Generator.DefaultMaxTokens = -1
	cfg.Generator.MaxTransitionPairs = -5
	cfg.Server.TrustedProxies[0] = "10.0.0.2"

	live := cm.Get()
	assert.Equal(t, 40, live.Generator.DefaultMaxTokens)
	assert.Equal(t, 200, live.Generator.MaxTransitionPairs)
	assert.Equal(t, []string{"10.0.0.1"}, live.Server.TrustedProxies)
}
