package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestLoadConfigOptional_EmptyPath tests loading when file path is empty
func TestLoadConfigOptional_EmptyPath(t *testing.T) {
	// Set environment variable to verify env override works with empty path
	t.Setenv("PORT", "9999")

	cfg, err := LoadConfigOptional("")
	if err != nil {
		t.Fatalf("LoadConfigOptional with empty path should not error: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected non-nil config")
	}
	// Verify environment variable was applied
	if cfg.Port != 9999 {
		t.Errorf("Expected Port=9999 from env, got %d", cfg.Port)
	}
}

// TestLoadConfigOptional_WhitespacePath tests loading when file path is only whitespace
func TestLoadConfigOptional_WhitespacePath(t *testing.T) {
	cfg, err := LoadConfigOptional("   ")
	if err != nil {
		t.Fatalf("LoadConfigOptional with whitespace path should not error: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected non-nil config")
	}
}

// TestLoadConfigOptional_FileNotExist tests loading when file does not exist
func TestLoadConfigOptional_FileNotExist(t *testing.T) {
	// Use a non-existent path within a valid temp directory for cross-platform compatibility
	nonExistentPath := filepath.Join(t.TempDir(), "config-does-not-exist.yaml")

	cfg, err := LoadConfigOptional(nonExistentPath)
	if err != nil {
		t.Fatalf("LoadConfigOptional with non-existent file should not error: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected non-nil config")
	}
	// Defaults apply when nothing else is configured
	if cfg.MaxFileSizeMB != 100 {
		t.Errorf("Expected default MaxFileSizeMB=100, got %d", cfg.MaxFileSizeMB)
	}
}

// TestLoadConfigOptional_InvalidYAML tests loading when file exists but has invalid YAML
func TestLoadConfigOptional_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	// Write invalid YAML
	invalidYAML := `
port: 8080
redisAddr: "localhost:6379"
  invalid indentation here
  more bad yaml
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	_, err := LoadConfigOptional(configPath)
	if err == nil {
		t.Fatal("Expected error when loading invalid YAML, got nil")
	}
}

// TestLoadConfigOptional_ValidConfig tests loading when file exists with valid config
func TestLoadConfigOptional_ValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "valid.yaml")

	// Write valid YAML
	validYAML := `
port: 8080
publicBaseUrl: "https://scan.example.com"
redisAddr: "localhost:6379"
redisPassword: "secret"
maxFileSizeMb: 50
catalogDir: "/etc/scanq/workers"
advancedSelection: true
disclaimers:
  - "uploads are retained for 24 hours"
logLevel: "info"
env: "test"
`
	if err := os.WriteFile(configPath, []byte(validYAML), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	cfg, err := LoadConfigOptional(configPath)
	if err != nil {
		t.Fatalf("LoadConfigOptional with valid config should not error: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected non-nil config")
	}

	// Verify values from file were loaded
	if cfg.Port != 8080 {
		t.Errorf("Expected Port=8080, got %d", cfg.Port)
	}
	if cfg.PublicBaseURL != "https://scan.example.com" {
		t.Errorf("Expected PublicBaseURL='https://scan.example.com', got %q", cfg.PublicBaseURL)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("Expected RedisAddr='localhost:6379', got %q", cfg.RedisAddr)
	}
	if cfg.RedisPassword != "secret" {
		t.Errorf("Expected RedisPassword='secret', got %q", cfg.RedisPassword)
	}
	if cfg.MaxFileSizeMB != 50 {
		t.Errorf("Expected MaxFileSizeMB=50, got %d", cfg.MaxFileSizeMB)
	}
	if cfg.CatalogDir != "/etc/scanq/workers" {
		t.Errorf("Expected CatalogDir='/etc/scanq/workers', got %q", cfg.CatalogDir)
	}
	if !cfg.AdvancedSelection {
		t.Error("Expected AdvancedSelection=true")
	}
	if len(cfg.Disclaimers) != 1 || cfg.Disclaimers[0] != "uploads are retained for 24 hours" {
		t.Errorf("Expected one disclaimer from file, got %v", cfg.Disclaimers)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected LogLevel='info', got %q", cfg.LogLevel)
	}
	if cfg.Env != "test" {
		t.Errorf("Expected Env='test', got %q", cfg.Env)
	}
}

// TestLoadConfigOptional_EnvOverrides tests that environment variables override file values
func TestLoadConfigOptional_EnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// Write config file
	configYAML := `
port: 8080
redisAddr: "localhost:6379"
redisPassword: "file-password"
maxFileSizeMb: 100
catalogDir: "./workers"
`
	if err := os.WriteFile(configPath, []byte(configYAML), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	// Set environment variables that should override file values
	t.Setenv("PORT", "9090")
	t.Setenv("REDIS_ADDR", "env-redis:6380")
	t.Setenv("REDIS_PASSWORD", "env-password")
	t.Setenv("MAX_FILE_SIZE_MB", "25")
	t.Setenv("CATALOG_DIR", "/opt/workers")

	cfg, err := LoadConfigOptional(configPath)
	if err != nil {
		t.Fatalf("LoadConfigOptional should not error: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected non-nil config")
	}

	// Verify environment variables override file values
	if cfg.Port != 9090 {
		t.Errorf("Expected Port=9090 from env, got %d", cfg.Port)
	}
	if cfg.RedisAddr != "env-redis:6380" {
		t.Errorf("Expected RedisAddr='env-redis:6380' from env, got %q", cfg.RedisAddr)
	}
	if cfg.RedisPassword != "env-password" {
		t.Errorf("Expected RedisPassword='env-password' from env, got %q", cfg.RedisPassword)
	}
	if cfg.MaxFileSizeMB != 25 {
		t.Errorf("Expected MaxFileSizeMB=25 from env, got %d", cfg.MaxFileSizeMB)
	}
	if cfg.CatalogDir != "/opt/workers" {
		t.Errorf("Expected CatalogDir='/opt/workers' from env, got %q", cfg.CatalogDir)
	}
}

// TestLoadConfigOptional_EnvOverridesEmptyFile tests env overrides work when file path is empty
func TestLoadConfigOptional_EnvOverridesEmptyFile(t *testing.T) {
	// Set multiple environment variables
	t.Setenv("PORT", "7070")
	t.Setenv("REDIS_ADDR", "redis.local:6379")
	t.Setenv("ADVANCED_SELECTION", "true")
	t.Setenv("MAX_SEED_VALIDITY_SECONDS", "3600")
	t.Setenv("TASKS_STREAM_MAX_LEN", "500")

	cfg, err := LoadConfigOptional("")
	if err != nil {
		t.Fatalf("LoadConfigOptional with empty path should not error: %v", err)
	}

	// Verify environment variables were applied
	if cfg.Port != 7070 {
		t.Errorf("Expected Port=7070 from env, got %d", cfg.Port)
	}
	if cfg.RedisAddr != "redis.local:6379" {
		t.Errorf("Expected RedisAddr='redis.local:6379' from env, got %q", cfg.RedisAddr)
	}
	if !cfg.AdvancedSelection {
		t.Error("Expected AdvancedSelection=true from env")
	}
	if cfg.MaxSeedValiditySeconds != 3600 {
		t.Errorf("Expected MaxSeedValiditySeconds=3600 from env, got %d", cfg.MaxSeedValiditySeconds)
	}
	if cfg.TasksStreamMaxLen != 500 {
		t.Errorf("Expected TasksStreamMaxLen=500 from env, got %d", cfg.TasksStreamMaxLen)
	}
}

// TestValidate_DevAllowsOpenSubmissions tests that dev environments do not require auth providers
func TestValidate_DevAllowsOpenSubmissions(t *testing.T) {
	cfg, err := LoadConfigOptional("")
	if err != nil {
		t.Fatalf("LoadConfigOptional should not error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected dev config to validate, got: %v", err)
	}
}

// TestValidate_NonDevRequiresAuth tests that non-dev environments require at least one auth provider
func TestValidate_NonDevRequiresAuth(t *testing.T) {
	cfg, err := LoadConfigOptional("")
	if err != nil {
		t.Fatalf("LoadConfigOptional should not error: %v", err)
	}
	cfg.Env = "production"

	err = cfg.Validate()
	if err == nil {
		t.Fatal("Expected validation error without auth providers in production, got nil")
	}
	if !strings.Contains(err.Error(), "authProviders") {
		t.Errorf("Expected error to mention authProviders, got: %v", err)
	}
}

// TestValidate_BadPublicBaseURL tests that a malformed public base URL is rejected
func TestValidate_BadPublicBaseURL(t *testing.T) {
	cfg, err := LoadConfigOptional("")
	if err != nil {
		t.Fatalf("LoadConfigOptional should not error: %v", err)
	}
	cfg.PublicBaseURL = "not a url"

	err = cfg.Validate()
	if err == nil {
		t.Fatal("Expected validation error for malformed publicBaseUrl, got nil")
	}
	if !strings.Contains(err.Error(), "publicBaseUrl") {
		t.Errorf("Expected error to mention publicBaseUrl, got: %v", err)
	}
}
