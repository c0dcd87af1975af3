package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	// Not parallel: mutates process env.
	for _, key := range []string{envKeyAPIKey, envKeyBaseURL, envKeyAppName, envKeyImageDir} {
		t.Setenv(key, "")
		os.Unsetenv(key) //nolint:errcheck
	}

	cfg := Load()

	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, DefaultBaseURL)
	}
	if cfg.AppName != DefaultAppName {
		t.Errorf("AppName = %q, want %q", cfg.AppName, DefaultAppName)
	}
	if cfg.ImageDir != "./images" {
		t.Errorf("ImageDir = %q, want ./images", cfg.ImageDir)
	}
	if cfg.LogDir != "./logs" {
		t.Errorf("LogDir = %q, want ./logs", cfg.LogDir)
	}
	if cfg.APIKey != "" {
		t.Errorf("APIKey = %q, want empty", cfg.APIKey)
	}
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv(envKeyAPIKey, "sk-or-test")
	t.Setenv(envKeyBaseURL, "http://localhost:9999/api/v1")

	cfg := Load()

	if cfg.APIKey != "sk-or-test" {
		t.Errorf("APIKey = %q, want sk-or-test", cfg.APIKey)
	}
	if cfg.BaseURL != "http://localhost:9999/api/v1" {
		t.Errorf("BaseURL = %q, want local override", cfg.BaseURL)
	}
}

func TestLoadFile_YAMLThenEnvWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "api_key: from-file\napp_name: file-app\nimage_dir: /tmp/imgs\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv(envKeyAPIKey, "from-env")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.APIKey != "from-env" {
		t.Errorf("APIKey = %q, env should override file", cfg.APIKey)
	}
	if cfg.AppName != "file-app" {
		t.Errorf("AppName = %q, want file-app", cfg.AppName)
	}
	if cfg.ImageDir != "/tmp/imgs" {
		t.Errorf("ImageDir = %q, want /tmp/imgs", cfg.ImageDir)
	}
	// Untouched fields keep defaults.
	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want default", cfg.BaseURL)
	}
}

func TestLoadFile_UnknownKeyRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("api_keey: oops\n"), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	if _, err := LoadFile(path); err == nil {
		t.Error("expected error for unknown config key, got nil")
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := LoadFile("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}
