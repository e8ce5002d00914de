package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DATABASE_URL", "postgres://softdesk@localhost/softdesk")
	t.Setenv("JWT_ACCESS_TTL", "10m")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com/, https://admin.example.com")
	t.Setenv("LOGIN_MAX_ATTEMPTS", "3")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.JWT.AccessTTL != 10*time.Minute {
		t.Fatalf("AccessTTL = %v, want 10m", cfg.JWT.AccessTTL)
	}
	if cfg.JWT.RefreshTTL != 24*time.Hour {
		t.Fatalf("RefreshTTL = %v, want default 24h", cfg.JWT.RefreshTTL)
	}
	if cfg.Server.Port != "8000" {
		t.Fatalf("Port = %q, want default 8000", cfg.Server.Port)
	}
	if cfg.Database.Driver != "postgres" {
		t.Fatalf("Driver = %q, want postgres", cfg.Database.Driver)
	}
	if cfg.Login.MaxAttempts != 3 {
		t.Fatalf("MaxAttempts = %d, want 3", cfg.Login.MaxAttempts)
	}

	want := []string{"https://app.example.com", "https://admin.example.com"}
	if len(cfg.CORS.AllowedOrigins) != len(want) {
		t.Fatalf("AllowedOrigins = %v, want %v", cfg.CORS.AllowedOrigins, want)
	}
	for i := range want {
		if cfg.CORS.AllowedOrigins[i] != want[i] {
			t.Fatalf("AllowedOrigins = %v, want %v", cfg.CORS.AllowedOrigins, want)
		}
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
server:
  port: "9090"
database:
  driver: sqlite
  dsn: "file::memory:"
jwt:
  secret: from-file
  access_ttl: 1m
  refresh_ttl: 1h
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != "9090" || cfg.Database.Driver != "sqlite" || cfg.JWT.Secret != "from-file" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.JWT.AccessTTL != time.Minute || cfg.JWT.RefreshTTL != time.Hour {
		t.Fatalf("unexpected lifetimes: %v / %v", cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_URL", "postgres://softdesk@localhost/softdesk")

	if _, err := Load(""); err == nil {
		t.Fatal("expected Load() to fail without JWT_SECRET")
	}
}

func TestValidateRejectsInvertedLifetimes(t *testing.T) {
	cfg := validConfig()
	cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL = time.Hour, time.Minute

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected Validate() to reject refresh shorter than access")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "release mode", mutate: func(c *Config) { c.Server.Mode = "release" }},
		{name: "unknown mode", mutate: func(c *Config) { c.Server.Mode = "production" }, wantErr: true},
		{name: "missing dsn", mutate: func(c *Config) { c.Database.DSN = "" }, wantErr: true},
		{name: "zero attempts", mutate: func(c *Config) { c.Login.MaxAttempts = 0 }, wantErr: true},
		{name: "zero access ttl", mutate: func(c *Config) { c.JWT.AccessTTL = 0 }, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)

			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func validConfig() Config {
	return Config{
		Server:   ServerConfig{Port: "8000", Mode: "debug"},
		Database: DatabaseConfig{Driver: "sqlite", DSN: "dsn"},
		JWT:      JWTConfig{Secret: "s", AccessTTL: time.Minute, RefreshTTL: time.Hour},
		Login:    LoginConfig{MaxAttempts: 5, LockoutWindow: 15 * time.Minute},
	}
}
