package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Port != "8080" {
		t.Errorf("Server.Port = %q, expected %q", cfg.Server.Port, "8080")
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %q, expected %q", cfg.Database.Driver, "sqlite")
	}
	if cfg.Evaluation.SummaryCron != "0 18 * * *" {
		t.Errorf("Evaluation.SummaryCron = %q", cfg.Evaluation.SummaryCron)
	}
	if cfg.Evaluation.RecalcBatchSize != 200 {
		t.Errorf("Evaluation.RecalcBatchSize = %d, expected 200", cfg.Evaluation.RecalcBatchSize)
	}
	if cfg.Redis.Enabled {
		t.Error("Redis should be disabled by default")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, expected default", cfg.Server.Host)
	}
	if GlobalConfig != cfg {
		t.Error("Load should set GlobalConfig")
	}
}

func TestLoad_FileKeepsUnsetDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "server:\n  port: \"9090\"\nevaluation:\n  recalc_batch_size: 50\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("Server.Port = %q, expected %q", cfg.Server.Port, "9090")
	}
	if cfg.Evaluation.RecalcBatchSize != 50 {
		t.Errorf("RecalcBatchSize = %d, expected 50", cfg.Evaluation.RecalcBatchSize)
	}
	if cfg.Evaluation.SummaryCron != "0 18 * * *" {
		t.Errorf("SummaryCron = %q, expected default", cfg.Evaluation.SummaryCron)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SERVER_PORT", "7000")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != "7000" {
		t.Errorf("Server.Port = %q, expected %q", cfg.Server.Port, "7000")
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Database.Driver = %q, expected %q", cfg.Database.Driver, "postgres")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, expected %q", cfg.Log.Level, "debug")
	}
}

func TestParseRedisURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		addr     string
		password string
		db       int
	}{
		{"host only", "redis://localhost:6379", "localhost:6379", "", 0},
		{"with password and db", "redis://:secret@redis:6380/2", "redis:6380", "secret", 2},
		{"user and password", "redis://user:pw@10.0.0.1:6379/1", "10.0.0.1:6379", "pw", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.parseRedisURL(tt.url)
			if cfg.Redis.Addr != tt.addr {
				t.Errorf("Addr = %q, expected %q", cfg.Redis.Addr, tt.addr)
			}
			if cfg.Redis.Password != tt.password {
				t.Errorf("Password = %q, expected %q", cfg.Redis.Password, tt.password)
			}
			if cfg.Redis.DB != tt.db {
				t.Errorf("DB = %d, expected %d", cfg.Redis.DB, tt.db)
			}
		})
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
