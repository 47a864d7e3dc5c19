package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultConnectionString = "Host=localhost;Port=5432;Database=bank_ledger_db;Username=postgres;Password=postgres;Timeout=30;CommandTimeout=30"
const defaultMigrationsDir = "migrations"
const defaultCommitRetries = 3
const defaultCommitBackoff = 50 * time.Millisecond

type Config struct {
	DatabaseDSN   string
	MigrationsDir string
	RedisAddr     string
	CommitRetries int
	CommitBackoff time.Duration
}

func Load() (Config, error) {
	conn := strings.TrimSpace(os.Getenv("DATABASE_DSN"))
	if conn == "" {
		conn = defaultConnectionString
	}

	migrationsDir := strings.TrimSpace(os.Getenv("MIGRATIONS_DIR"))
	if migrationsDir == "" {
		migrationsDir = defaultMigrationsDir
	}

	// Empty means the idempotency cache is disabled.
	redisAddr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))

	retries := defaultCommitRetries
	if raw := strings.TrimSpace(os.Getenv("COMMIT_RETRIES")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			retries = parsed
		}
	}

	backoff := defaultCommitBackoff
	if raw := strings.TrimSpace(os.Getenv("COMMIT_BACKOFF_MS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			backoff = time.Duration(parsed) * time.Millisecond
		}
	}

	return Config{
		DatabaseDSN:   normalizeConnectionString(conn),
		MigrationsDir: migrationsDir,
		RedisAddr:     redisAddr,
		CommitRetries: retries,
		CommitBackoff: backoff,
	}, nil
}

func normalizeConnectionString(raw string) string {
	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	hasSSLMode := false

	for _, part := range parts {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}

		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}

		key := strings.ToLower(strings.TrimSpace(kv[0]))
		val := strings.TrimSpace(kv[1])

		switch key {
		case "host":
			out = append(out, "host="+val)
		case "port":
			out = append(out, "port="+val)
		case "database":
			out = append(out, "dbname="+val)
		case "username":
			out = append(out, "user="+val)
		case "password":
			out = append(out, "password="+val)
		case "timeout", "connect timeout":
			out = append(out, "connect_timeout="+val)
		case "commandtimeout", "command timeout":
			out = append(out, "statement_timeout="+val+"s")
		case "sslmode":
			hasSSLMode = true
			out = append(out, "sslmode="+val)
		default:
			out = append(out, key+"="+val)
		}
	}

	if len(out) == 0 {
		return raw
	}

	if !hasSSLMode {
		out = append(out, "sslmode=disable")
	}

	return strings.Join(out, " ")
}
