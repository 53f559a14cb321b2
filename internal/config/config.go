// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads authengine settings from defaults, a YAML file, the
// environment and command-line flags, in increasing precedence.
package config

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/holomush/authengine/internal/auth"
	"github.com/holomush/authengine/internal/logging"
	"github.com/holomush/authengine/internal/schema"
)

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Environment variables consulted for the database URL. The first one set wins.
var databaseURLEnv = []string{"AUTHENGINE_DATABASE_URL", "DATABASE_URL"}

// Config is the full service configuration.
type Config struct {
	Log      LogConfig      `koanf:"log" yaml:"log"`
	HTTP     HTTPConfig     `koanf:"http" yaml:"http"`
	Metrics  MetricsConfig  `koanf:"metrics" yaml:"metrics"`
	Database DatabaseConfig `koanf:"database" yaml:"database"`
	Hasher   HasherConfig   `koanf:"hasher" yaml:"hasher"`
	Token    TokenConfig    `koanf:"token" yaml:"token"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Format string `koanf:"format" yaml:"format" jsonschema:"enum=json,enum=text"`
	Level  string `koanf:"level" yaml:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

// HTTPConfig controls the API listener.
type HTTPConfig struct {
	Addr              string        `koanf:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// MetricsConfig controls the observability listener. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr" yaml:"addr"`
}

// DatabaseConfig selects and tunes the account store.
type DatabaseConfig struct {
	Driver          string        `koanf:"driver" yaml:"driver" jsonschema:"enum=postgres,enum=memory"`
	URL             string        `koanf:"url" yaml:"url"`
	AutoMigrate     bool          `koanf:"auto_migrate" yaml:"auto_migrate"`
	ConnectAttempts int           `koanf:"connect_attempts" yaml:"connect_attempts" jsonschema:"minimum=1"`
	ConnectBackoff  time.Duration `koanf:"connect_backoff" yaml:"connect_backoff"`
	MaxConns        int32         `koanf:"max_conns" yaml:"max_conns" jsonschema:"minimum=0"`
}

// HasherConfig tunes argon2id. Zero values take the library defaults.
type HasherConfig struct {
	MemoryKiB   uint32 `koanf:"memory_kib" yaml:"memory_kib"`
	Iterations  uint32 `koanf:"iterations" yaml:"iterations"`
	Parallelism uint8  `koanf:"parallelism" yaml:"parallelism" jsonschema:"maximum=255"`
}

// TokenConfig selects the digest used to derive tokens and identifiers.
type TokenConfig struct {
	Digest string `koanf:"digest" yaml:"digest" jsonschema:"enum=md5,enum=sha1,enum=sha256,enum=sha384,enum=sha512"`
}

// Default returns the compiled-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{Format: "json", Level: "info"},
		HTTP: HTTPConfig{
			Addr:              "127.0.0.1:8080",
			ReadHeaderTimeout: 10 * time.Second,
			ShutdownTimeout:   15 * time.Second,
		},
		Metrics: MetricsConfig{Addr: "127.0.0.1:9100"},
		Database: DatabaseConfig{
			Driver:          DriverPostgres,
			AutoMigrate:     true,
			ConnectAttempts: 5,
			ConnectBackoff:  500 * time.Millisecond,
		},
		Hasher: HasherConfig{
			MemoryKiB:   auth.DefaultArgon2Params.MemoryKiB,
			Iterations:  auth.DefaultArgon2Params.Iterations,
			Parallelism: auth.DefaultArgon2Params.Parallelism,
		},
		Token: TokenConfig{Digest: string(auth.DefaultAlgorithm)},
	}
}

var fileSchema = schema.For(&Config{}, schema.Options{
	ID:           "https://holomush.dev/schemas/authengine-config.schema.json",
	Title:        "authengine configuration",
	Description:  "Schema for authengine YAML configuration files",
	FieldNameTag: "koanf",
})

// Schema returns the JSON Schema configuration files are validated against.
func Schema() ([]byte, error) {
	return fileSchema.JSON()
}

// Load builds the configuration. path may be empty to skip the file layer,
// and flags may be nil to skip the flag layer. Only flags registered by
// RegisterFlags are consulted.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // operator-supplied config path
		if err != nil {
			return nil, oops.Code("CONFIG_READ_FAILED").With("path", path).Wrap(err)
		}
		if err := fileSchema.ValidateYAML(data); err != nil {
			return nil, oops.With("path", path).Wrap(err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_READ_FAILED").With("path", path).Wrap(err)
		}
	}

	for _, name := range databaseURLEnv {
		if v := os.Getenv(name); v != "" {
			if err := k.Set("database.url", v); err != nil {
				return nil, oops.Code("CONFIG_ENV_FAILED").With("variable", name).Wrap(err)
			}
			break
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code("CONFIG_DECODE_FAILED").Wrap(err)
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	switch c.Log.Format {
	case "json", "text":
	default:
		add("log.format must be json or text, got %q", c.Log.Format)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		add("log.level: %v", err)
	}

	if strings.TrimSpace(c.HTTP.Addr) == "" {
		add("http.addr is required")
	}
	if c.HTTP.ReadHeaderTimeout <= 0 {
		add("http.read_header_timeout must be positive")
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		add("http.shutdown_timeout must be positive")
	}
	if c.Metrics.Addr != "" && sameListener(c.Metrics.Addr, c.HTTP.Addr) {
		add("metrics.addr must differ from http.addr")
	}

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.URL == "" {
			add("database.url is required for the postgres driver")
		}
	case DriverMemory:
	default:
		add("database.driver must be postgres or memory, got %q", c.Database.Driver)
	}
	if c.Database.ConnectAttempts < 1 {
		add("database.connect_attempts must be at least 1")
	}
	if c.Database.ConnectBackoff < 0 {
		add("database.connect_backoff must not be negative")
	}
	if c.Database.MaxConns < 0 {
		add("database.max_conns must not be negative")
	}

	if _, err := auth.ParseAlgorithm(c.Token.Digest); err != nil {
		add("token.digest: %v", err)
	}

	if len(problems) > 0 {
		return oops.Code("CONFIG_INVALID").
			With("problems", problems).
			Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Argon2Params converts the hasher settings.
func (c *Config) Argon2Params() auth.Argon2Params {
	return auth.Argon2Params{
		MemoryKiB:   c.Hasher.MemoryKiB,
		Iterations:  c.Hasher.Iterations,
		Parallelism: c.Hasher.Parallelism,
	}
}

// YAML renders the configuration with the database password masked.
func (c *Config) YAML() ([]byte, error) {
	masked := *c
	masked.Database.URL = redactURL(c.Database.URL)
	data, err := yamlv3.Marshal(&masked)
	if err != nil {
		return nil, oops.Code("CONFIG_MARSHAL_FAILED").Wrap(err)
	}
	return data, nil
}

// sameListener reports whether two listen addresses would bind the same
// socket. Port 0 picks a free port per listener, so it never collides.
func sameListener(a, b string) bool {
	hostA, portA, errA := net.SplitHostPort(a)
	hostB, portB, errB := net.SplitHostPort(b)
	if errA != nil || errB != nil {
		return a == b
	}
	if portA == "0" || portB == "0" {
		return false
	}
	return hostA == hostB && portA == portB
}
