package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/florianilch/aihub/internal/app"
	"github.com/florianilch/aihub/internal/keystore"
)

func environ(vars ...string) func() []string {
	return func() []string { return vars }
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := app.LoadConfig("", environ(), nil)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:5000", cfg.Server.Address)
	assert.Equal(t, 60*time.Second, cfg.Server.UpstreamTimeout)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxRequestBytes)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, filepath.Join("wwwroot", "audio"), cfg.Static.AudioDir())
	assert.Equal(t, app.KeyStorageConfig, cfg.Auth.Storage)
	assert.Zero(t, cfg.Retention.MaxAge)
	assert.Equal(t, "@every 1h", cfg.Retention.Schedule)
	assert.Empty(t, cfg.Utils.Editor)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.False(t, cfg.Log.OTLP.Enabled)
}

func TestLoadConfig_Precedence(t *testing.T) {
	path := writeConfig(t, "aihub.toml", `
[server]
address = "0.0.0.0:9000"
upstream_timeout = "30s"

[providers.gemini]
api_key = "file-key"
model = "gemini-file"

[providers.stability]
api_key = "stability-file-key"

[log]
level = "debug"
`)

	cfg, err := app.LoadConfig(path, environ(
		"AIHUB_PROVIDERS__GEMINI__API_KEY=env-key",
		"AIHUB_SERVER__UPSTREAM_TIMEOUT=45s",
		"AIHUB_SERVER__ALLOWED_ORIGINS=http://a.example, http://b.example",
		"AIHUB_UTILS__EDITOR=code --new-window",
		"AIHUB_RETENTION__MAX_AGE=24h",
		"UNRELATED=1",
	), map[string]any{"log.level": "warn"})
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Address)
	assert.Equal(t, 45*time.Second, cfg.Server.UpstreamTimeout)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "env-key", cfg.Providers.Gemini.APIKey)
	assert.Equal(t, "gemini-file", cfg.Providers.Gemini.Model)
	assert.Equal(t, "stability-file-key", cfg.Providers.Stability.APIKey)
	assert.Equal(t, []string{"code", "--new-window"}, cfg.Utils.Editor)
	assert.Equal(t, 24*time.Hour, cfg.Retention.MaxAge)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadConfig_YAML(t *testing.T) {
	path := writeConfig(t, "aihub.yaml", `
server:
  address: ":8080"
providers:
  elevenlabs:
    api_key: xi-key
    model: eleven_turbo_v2
    voice: voice-from-yaml
log:
  format: json
  otlp:
    enabled: true
    protocol: http
    endpoint: collector:4318
`)

	cfg, err := app.LoadConfig(path, environ(), nil)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "xi-key", cfg.Providers.ElevenLabs.APIKey)
	assert.Equal(t, "eleven_turbo_v2", cfg.Providers.ElevenLabs.Model)
	assert.Equal(t, "voice-from-yaml", cfg.Providers.ElevenLabs.Voice)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Log.OTLP.Enabled)
	assert.Equal(t, "http", cfg.Log.OTLP.Protocol)

	obs, err := cfg.Log.Observability()
	require.NoError(t, err)
	assert.Equal(t, "collector:4318", obs.Export.Endpoint)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("unsupported extension", func(t *testing.T) {
		_, err := app.LoadConfig(writeConfig(t, "aihub.ini", "x=1"), environ(), nil)
		assert.ErrorContains(t, err, "unsupported config file type")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := app.LoadConfig(filepath.Join(t.TempDir(), "missing.toml"), environ(), nil)
		assert.Error(t, err)
	})

	tests := []struct {
		name string
		env  []string
		key  string
	}{
		{name: "log level", env: []string{"AIHUB_LOG__LEVEL=verbose"}, key: "log.level"},
		{name: "storage", env: []string{"AIHUB_AUTH__STORAGE=vault"}, key: "auth.storage"},
		{name: "base url", env: []string{"AIHUB_PROVIDERS__GEMINI__BASE_URL=not a url"}, key: "providers.gemini.base_url"},
		{name: "speech base url", env: []string{"AIHUB_PROVIDERS__ELEVENLABS__BASE_URL=not a url"}, key: "providers.elevenlabs.base_url"},
		{name: "write timeout", env: []string{"AIHUB_SERVER__WRITE_TIMEOUT=10s"}, key: "server.write_timeout"},
		{name: "protocol", env: []string{"AIHUB_LOG__OTLP__PROTOCOL=udp"}, key: "log.otlp.protocol"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := app.LoadConfig("", environ(tt.env...), nil)

			var cfgErr *app.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Contains(t, cfgErr.Error(), tt.key)
		})
	}
}

func TestResolveAPIKeys_MissingKeys(t *testing.T) {
	cfg, err := app.LoadConfig("", environ("AIHUB_PROVIDERS__GEMINI__API_KEY=g"), nil)
	require.NoError(t, err)

	err = cfg.ResolveAPIKeys(context.Background(), nil)

	var cfgErr *app.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, []string{
		"providers.stability.api_key: missing",
		"providers.elevenlabs.api_key: missing",
		"providers.texttovideo.api_key: missing",
	}, cfgErr.Problems)
}

func TestResolveAPIKeys_FromKeyring(t *testing.T) {
	keyring.MockInit()
	ctx := context.Background()

	cfg, err := app.LoadConfig("", environ(
		"AIHUB_AUTH__STORAGE=keyring",
		"AIHUB_PROVIDERS__GEMINI__API_KEY=from-env",
	), nil)
	require.NoError(t, err)

	store := cfg.Auth.NewKeyStore()
	require.NotNil(t, store)
	for _, name := range app.ProviderNames() {
		require.NoError(t, store.Write(ctx, name, name+"-from-keyring"))
	}

	require.NoError(t, cfg.ResolveAPIKeys(ctx, store))

	// Configured keys win over stored ones.
	assert.Equal(t, "from-env", cfg.Providers.Gemini.APIKey)
	assert.Equal(t, "stability-from-keyring", cfg.Providers.Stability.APIKey)
	assert.Equal(t, "elevenlabs-from-keyring", cfg.Providers.ElevenLabs.APIKey)
	assert.Equal(t, "texttovideo-from-keyring", cfg.Providers.TextToVideo.APIKey)
}

func TestNewKeyStore(t *testing.T) {
	assert.Nil(t, app.AuthConfig{Storage: app.KeyStorageConfig}.NewKeyStore())
	assert.IsType(t, &keystore.Keyring{}, app.AuthConfig{Storage: app.KeyStorageKeyring}.NewKeyStore())
}
