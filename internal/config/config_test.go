package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("DB_PASSWORD", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8000" {
		t.Fatalf("expected default port 8000, got %q", cfg.Port)
	}
	if cfg.MaxPageLimit != 0 {
		t.Fatalf("expected unbounded page limit, got %d", cfg.MaxPageLimit)
	}
	if !cfg.SequenceSyncOnStartup {
		t.Fatal("expected startup sequence sync to be enabled by default")
	}
	if cfg.LogRetention != 720*time.Hour {
		t.Fatalf("unexpected log retention %s", cfg.LogRetention)
	}
	if cfg.IsDevelopment() {
		t.Fatal("default environment should not expose error detail")
	}
}

func TestLoad_PostgresRequiresPassword(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DB_PASSWORD", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when DB_PASSWORD is missing")
	}
}

func TestLoad_UnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "mongo") {
		t.Fatalf("expected unknown driver error, got %v", err)
	}
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBPort: "5433", DBUser: "admin", DBPassword: "pw", DBName: "users", DBSSLMode: "require"}
	dsn := cfg.DSN()
	for _, part := range []string{"host=db", "port=5433", "user=admin", "password=pw", "dbname=users", "sslmode=require", "TimeZone=UTC"} {
		if !strings.Contains(dsn, part) {
			t.Fatalf("dsn %q missing %q", dsn, part)
		}
	}
}

func TestIsDevelopment(t *testing.T) {
	cfg := &Config{AppEnv: "Development"}
	if !cfg.IsDevelopment() {
		t.Fatal("expected development environment to be detected case-insensitively")
	}
}
