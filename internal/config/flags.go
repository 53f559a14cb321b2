// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config

import (
	"net/url"

	"github.com/spf13/pflag"
)

// flagKeys maps flag names to configuration keys.
var flagKeys = map[string]string{
	"log-format":                "log.format",
	"log-level":                 "log.level",
	"http-addr":                 "http.addr",
	"http-read-header-timeout":  "http.read_header_timeout",
	"http-shutdown-timeout":     "http.shutdown_timeout",
	"metrics-addr":              "metrics.addr",
	"database-driver":           "database.driver",
	"database-url":              "database.url",
	"database-auto-migrate":     "database.auto_migrate",
	"database-connect-attempts": "database.connect_attempts",
	"database-connect-backoff":  "database.connect_backoff",
	"database-max-conns":        "database.max_conns",
	"hasher-memory-kib":         "hasher.memory_kib",
	"hasher-iterations":         "hasher.iterations",
	"hasher-parallelism":        "hasher.parallelism",
	"token-digest":              "token.digest",
}

// RegisterFlags adds one flag per configuration key to fs, defaulted from Default.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()

	fs.String("log-format", d.Log.Format, "log format (json, text)")
	fs.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")

	fs.String("http-addr", d.HTTP.Addr, "API listen address")
	fs.Duration("http-read-header-timeout", d.HTTP.ReadHeaderTimeout, "time allowed to read request headers")
	fs.Duration("http-shutdown-timeout", d.HTTP.ShutdownTimeout, "graceful shutdown deadline")

	fs.String("metrics-addr", d.Metrics.Addr, "metrics and health listen address (empty disables)")

	fs.String("database-driver", d.Database.Driver, "account store (postgres, memory)")
	fs.String("database-url", d.Database.URL, "PostgreSQL connection URL")
	fs.Bool("database-auto-migrate", d.Database.AutoMigrate, "apply pending migrations on startup")
	fs.Int("database-connect-attempts", d.Database.ConnectAttempts, "database connection attempts")
	fs.Duration("database-connect-backoff", d.Database.ConnectBackoff, "initial delay between connection attempts")
	fs.Int32("database-max-conns", d.Database.MaxConns, "maximum pool connections (0 uses the driver default)")

	fs.Uint32("hasher-memory-kib", d.Hasher.MemoryKiB, "argon2id memory in KiB")
	fs.Uint32("hasher-iterations", d.Hasher.Iterations, "argon2id iterations")
	fs.Uint8("hasher-parallelism", d.Hasher.Parallelism, "argon2id parallelism")

	fs.String("token-digest", d.Token.Digest, "token digest (md5, sha1, sha256, sha384, sha512)")
}

// redactURL masks the password of a connection URL.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "[unparseable]"
	}
	return u.Redacted()
}
