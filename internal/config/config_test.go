package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	os.Setenv("ENVIRONMENT", "test")
	os.Setenv("SYNC_INTERVAL", "1m")
	os.Setenv("CREDENTIAL_KEY", "dGVzdC1rZXk")
	defer func() {
		os.Unsetenv("ENVIRONMENT")
		os.Unsetenv("SYNC_INTERVAL")
		os.Unsetenv("CREDENTIAL_KEY")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Environment != "test" {
		t.Errorf("Expected environment test, got %s", cfg.Environment)
	}
	if cfg.SyncInterval != time.Minute {
		t.Errorf("Expected sync interval 1m, got %s", cfg.SyncInterval)
	}
}

func TestConfigDefaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config with defaults: %v", err)
	}

	if cfg.Environment != "development" {
		t.Errorf("Expected default environment development, got %s", cfg.Environment)
	}
	if cfg.SyncInterval != 5*time.Minute {
		t.Errorf("Expected default sync interval 5m, got %s", cfg.SyncInterval)
	}
	if cfg.ExtensionDir != "./extensions" {
		t.Errorf("Expected default extension dir, got %s", cfg.ExtensionDir)
	}
}

func TestConfigValidation(t *testing.T) {
	os.Clearenv()
	os.Setenv("ENVIRONMENT", "production")
	defer os.Unsetenv("ENVIRONMENT")

	_, err := Load()
	if err == nil {
		t.Error("Expected validation error for missing CREDENTIAL_KEY outside development")
	}
}

func BenchmarkLoadConfig(b *testing.B) {
	os.Setenv("ENVIRONMENT", "test")
	os.Setenv("CREDENTIAL_KEY", "dGVzdC1rZXk")
	defer func() {
		os.Unsetenv("ENVIRONMENT")
		os.Unsetenv("CREDENTIAL_KEY")
	}()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Load(); err != nil {
			b.Fatalf("Failed to load config: %v", err)
		}
	}
}
