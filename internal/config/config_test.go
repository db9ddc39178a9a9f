package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Server.Port = %q, expected %q", cfg.Server.Port, "8080")
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %q, expected %q", cfg.Database.Driver, "sqlite")
	}
	if cfg.Chat.PageSize != 50 || cfg.Chat.MaxPageSize != 200 {
		t.Errorf("Chat = %+v, expected page size 50 / max 200", cfg.Chat)
	}
	if GlobalConfig != cfg {
		t.Error("GlobalConfig should point at the loaded config")
	}
}

func TestLoad_FileKeepsUnsetDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("server:\n  port: \"9090\"\ndatabase:\n  driver: postgres\n  dsn: host=db\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Server.Port = %q, expected %q", cfg.Server.Port, "9090")
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Database.Driver = %q, expected %q", cfg.Database.Driver, "postgres")
	}
	if cfg.JWT.ExpireHour != 24 {
		t.Errorf("JWT.ExpireHour = %d, expected default 24", cfg.JWT.ExpireHour)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unterminated"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load() should fail on invalid yaml")
	}
}

func TestOverrideFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "7000")
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("CORS_ORIGINS", "http://localhost:8080, https://ideas.example.com")

	cfg := DefaultConfig()
	cfg.overrideFromEnv()

	if cfg.Server.Port != "7000" {
		t.Errorf("Server.Port = %q, expected %q", cfg.Server.Port, "7000")
	}
	if cfg.Database.Driver != "mysql" {
		t.Errorf("Database.Driver = %q, expected %q", cfg.Database.Driver, "mysql")
	}
	if cfg.JWT.Secret != "env-secret" {
		t.Errorf("JWT.Secret = %q, expected %q", cfg.JWT.Secret, "env-secret")
	}
	if !cfg.SMTP.Enabled || cfg.SMTP.Host != "smtp.example.com" || cfg.SMTP.Port != 2525 {
		t.Errorf("SMTP = %+v, expected enabled host smtp.example.com port 2525", cfg.SMTP)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://ideas.example.com" {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
}

func TestParseRedisURL(t *testing.T) {
	tests := []struct {
		url      string
		addr     string
		password string
		db       int
	}{
		{"redis://localhost:6379", "localhost:6379", "", 0},
		{"redis://:secret@redis:6380/2", "redis:6380", "secret", 2},
		{"redis://user:pw@10.0.0.1:6379/5", "10.0.0.1:6379", "pw", 5},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.parseRedisURL(tt.url)
		if cfg.Redis.Addr != tt.addr {
			t.Errorf("%s: Addr = %q, expected %q", tt.url, cfg.Redis.Addr, tt.addr)
		}
		if cfg.Redis.Password != tt.password {
			t.Errorf("%s: Password = %q, expected %q", tt.url, cfg.Redis.Password, tt.password)
		}
		if cfg.Redis.DB != tt.db {
			t.Errorf("%s: DB = %d, expected %d", tt.url, cfg.Redis.DB, tt.db)
		}
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Server.Port = "8181"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Server.Port != "8181" {
		t.Errorf("Server.Port = %q, expected %q", loaded.Server.Port, "8181")
	}
}
