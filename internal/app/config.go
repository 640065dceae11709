package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/florianilch/aihub/internal/keystore"
	"github.com/florianilch/aihub/internal/observability"
	"github.com/florianilch/aihub/internal/retention"
)

// EnvPrefix is the prefix of environment variables read into the config.
// Nested keys are separated by a double underscore, e.g.
// AIHUB_PROVIDERS__GEMINI__API_KEY sets providers.gemini.api_key.
const EnvPrefix = "AIHUB_"

// KeyStorageType selects where provider API keys come from.
type KeyStorageType string

const (
	// KeyStorageConfig reads keys only from the config file and environment.
	KeyStorageConfig KeyStorageType = "config"
	// KeyStorageKeyring fills missing keys from the OS keyring.
	KeyStorageKeyring KeyStorageType = "keyring"
)

// Config is the complete application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Static    StaticConfig    `koanf:"static"`
	Providers ProvidersConfig `koanf:"providers"`
	Auth      AuthConfig      `koanf:"auth"`
	Retention RetentionConfig `koanf:"retention"`
	Utils     UtilsConfig     `koanf:"utils"`
	Log       LogConfig       `koanf:"log"`
}

type ServerConfig struct {
	Address         string        `koanf:"address" validate:"required"`
	UpstreamTimeout time.Duration `koanf:"upstream_timeout" validate:"gt=0"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gtfield=UpstreamTimeout"`
	MaxRequestBytes int64         `koanf:"max_request_bytes" validate:"gt=0"`
	AllowedOrigins  []string      `koanf:"allowed_origins" validate:"dive,url"`
}

// StaticConfig locates served files. Generated audio goes to <dir>/audio.
type StaticConfig struct {
	Dir string `koanf:"dir" validate:"required"`
}

// AudioDir returns the directory generated audio is written to.
func (s StaticConfig) AudioDir() string {
	return filepath.Join(s.Dir, "audio")
}

type ProvidersConfig struct {
	Gemini      ProviderConfig       `koanf:"gemini"`
	Stability   ProviderConfig       `koanf:"stability"`
	ElevenLabs  SpeechProviderConfig `koanf:"elevenlabs"`
	TextToVideo ProviderConfig       `koanf:"texttovideo"`
}

// ProviderConfig holds the credentials and endpoint of one provider. Empty
// fields fall back to the adapter defaults, except APIKey.
type ProviderConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url" validate:"omitempty,url"`
	Model   string `koanf:"model"`
}

// SpeechProviderConfig adds the voice selection to ProviderConfig.
type SpeechProviderConfig struct {
	ProviderConfig `koanf:",squash"`

	Voice string `koanf:"voice"`
}

type AuthConfig struct {
	Storage        KeyStorageType `koanf:"storage" validate:"oneof=config keyring"`
	KeyringService string         `koanf:"keyring_service"`
}

// RetentionConfig controls removal of old audio files. A zero MaxAge keeps
// files forever.
type RetentionConfig struct {
	MaxAge   time.Duration `koanf:"max_age" validate:"gte=0"`
	Schedule string        `koanf:"schedule"`
}

// UtilsConfig configures the open-in-editor endpoint. An empty Editor
// disables it.
type UtilsConfig struct {
	Editor []string `koanf:"editor"`
}

type LogConfig struct {
	Level  string     `koanf:"level" validate:"oneof=debug info warn error"`
	Format string     `koanf:"format" validate:"oneof=text json"`
	OTLP   OTLPConfig `koanf:"otlp"`
}

type OTLPConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Protocol string `koanf:"protocol" validate:"oneof=grpc http stdout"`
	Endpoint string `koanf:"endpoint"`
	Insecure bool   `koanf:"insecure"`
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", l.Level, err)
	}
	return level, nil
}

// Observability converts the log section for observability.Instrument.
func (l LogConfig) Observability() (observability.Config, error) {
	level, err := l.SlogLevel()
	if err != nil {
		return observability.Config{}, err
	}

	return observability.Config{
		Level:  level,
		Format: l.Format,
		Export: observability.ExportConfig{
			Enabled:  l.OTLP.Enabled,
			Protocol: l.OTLP.Protocol,
			Endpoint: l.OTLP.Endpoint,
			Insecure: l.OTLP.Insecure,
		},
	}, nil
}

// ConfigError reports configuration problems that prevent startup.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

func defaults() map[string]any {
	return map[string]any{
		"server.address":           "127.0.0.1:5000",
		"server.upstream_timeout":  60 * time.Second,
		"server.read_timeout":      30 * time.Second,
		"server.write_timeout":     90 * time.Second,
		"server.max_request_bytes": int64(1 << 20),
		"server.allowed_origins":   []string{"http://localhost:3000"},
		"static.dir":               "wwwroot",
		"auth.storage":             string(KeyStorageConfig),
		"auth.keyring_service":     keystore.DefaultService,
		"retention.max_age":        time.Duration(0),
		"retention.schedule":       retention.DefaultSchedule,
		"log.level":                "info",
		"log.format":               "text",
		"log.otlp.enabled":         false,
		"log.otlp.protocol":        observability.ProtocolGRPC,
	}
}

// LoadConfig builds the configuration from defaults, the optional file at
// path (TOML, or YAML by extension), environment variables returned by
// environ and finally overrides, each layer taking precedence over the
// previous one. Override keys use dotted paths such as "log.level".
func LoadConfig(path string, environ func() []string, overrides map[string]any) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		parser, err := parserFor(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: transformEnv,
		EnvironFunc:   environ,
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("loading overrides: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// configKey turns a validator namespace such as "Config.server.address" into
// the config key. Segments named after Go types (the root struct and squashed
// embeds) are not part of the key.
func configKey(namespace string) string {
	segments := strings.Split(namespace, ".")
	keep := segments[:0]
	for _, seg := range segments {
		if seg == "" || unicode.IsUpper(rune(seg[0])) {
			continue
		}
		keep = append(keep, seg)
	}
	return strings.Join(keep, ".")
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Parser(), nil
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config file type %q (expected .toml, .yaml or .yml)", filepath.Ext(path))
	}
}

// transformEnv maps AIHUB_SERVER__ADDRESS to server.address. List values are
// split: origins on commas, the editor command on whitespace.
func transformEnv(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	key = strings.ReplaceAll(key, "__", ".")

	switch key {
	case "server.allowed_origins":
		var origins []string
		for origin := range strings.SplitSeq(value, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
		return key, origins
	case "utils.editor":
		return key, strings.Fields(value)
	}

	return key, value
}

// Validate checks field constraints. Problems are reported with their
// configuration key names.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("koanf"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("validating config: %w", err)
	}

	problems := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		key := configKey(fe.Namespace())
		problem := fmt.Sprintf("%s: failed %q", key, fe.Tag())
		if fe.Param() != "" {
			problem = fmt.Sprintf("%s: failed %q (%s)", key, fe.Tag(), fe.Param())
		}
		problems = append(problems, problem)
	}

	return &ConfigError{Problems: problems}
}

// apiKeys returns pointers to every provider key, by provider name.
func (p *ProvidersConfig) apiKeys() map[string]*string {
	return map[string]*string{
		"gemini":      &p.Gemini.APIKey,
		"stability":   &p.Stability.APIKey,
		"elevenlabs":  &p.ElevenLabs.APIKey,
		"texttovideo": &p.TextToVideo.APIKey,
	}
}

// ProviderNames lists the providers that need an API key.
func ProviderNames() []string {
	return []string{"gemini", "stability", "elevenlabs", "texttovideo"}
}

// ResolveAPIKeys fills empty provider keys from store, when store is not nil,
// and fails with a ConfigError naming every provider still without a key.
func (c *Config) ResolveAPIKeys(ctx context.Context, store keystore.Store) error {
	keys := c.Providers.apiKeys()

	var missing []string
	for _, name := range ProviderNames() {
		key := keys[name]
		if *key == "" && store != nil {
			stored, err := store.Read(ctx, name)
			switch {
			case errors.Is(err, keystore.ErrNotFound):
			case err != nil:
				return fmt.Errorf("reading %s key: %w", name, err)
			default:
				*key = stored
			}
		}
		if *key == "" {
			missing = append(missing, fmt.Sprintf("providers.%s.api_key: missing", name))
		}
	}

	if len(missing) > 0 {
		return &ConfigError{Problems: missing}
	}
	return nil
}

// NewKeyStore returns the key store for the configured storage, or nil for
// config storage.
func (a AuthConfig) NewKeyStore() keystore.Store {
	if a.Storage != KeyStorageKeyring {
		return nil
	}
	return keystore.NewKeyring(a.KeyringService)
}
