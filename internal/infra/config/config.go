// Package config provides application-wide configuration loaded from env vars.
// All fields except the API key have safe defaults so the binary runs locally
// with nothing but OPENROUTER_API_KEY set. An optional YAML file can supply
// defaults; environment variables always win over file values.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for the OpenRouter MCP server.
type Config struct {
	// Upstream API
	APIKey  string `yaml:"api_key"`  // OPENROUTER_API_KEY — required for real calls; startup only warns when empty
	BaseURL string `yaml:"base_url"` // OPENROUTER_BASE_URL — default: "https://openrouter.ai/api/v1"
	SiteURL string `yaml:"site_url"` // OPENROUTER_SITE_URL — sent as HTTP-Referer for attribution
	AppName string `yaml:"app_name"` // OPENROUTER_APP_NAME — sent as X-Title, default: "openrouter-mcp"

	// Local state
	ImageDir    string `yaml:"image_dir"`     // IMAGE_DIR — default: "./images"
	LogDir      string `yaml:"log_dir"`       // LOG_DIR — default: "./logs"
	UsageDBPath string `yaml:"usage_db_path"` // USAGE_DB_PATH — default: "./openrouter-mcp.db"

	// HTTP transport (unused in stdio mode)
	HTTPAddr      string `yaml:"http_addr"`       // MCP_HTTP_ADDR — empty means stdio transport
	AuthTokenHash string `yaml:"auth_token_hash"` // MCP_AUTH_TOKEN_HASH — bcrypt hash of the static access token
	JWTSecret     string `yaml:"jwt_secret"`      // MCP_JWT_SECRET — enables HS256 bearer tokens
}

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultAppName = "openrouter-mcp"
)

const (
	envKeyAPIKey        = "OPENROUTER_API_KEY"
	envKeyBaseURL       = "OPENROUTER_BASE_URL"
	envKeySiteURL       = "OPENROUTER_SITE_URL"
	envKeyAppName       = "OPENROUTER_APP_NAME"
	envKeyImageDir      = "IMAGE_DIR"
	envKeyLogDir        = "LOG_DIR"
	envKeyUsageDBPath   = "USAGE_DB_PATH"
	envKeyHTTPAddr      = "MCP_HTTP_ADDR"
	envKeyAuthTokenHash = "MCP_AUTH_TOKEN_HASH"
	envKeyJWTSecret     = "MCP_JWT_SECRET"
)

// Load reads configuration from environment variables, applying defaults for missing values.
func Load() Config {
	return overlayEnv(defaults())
}

// LoadFile reads a YAML config file and overlays environment variables on top.
// Unknown keys in the file are rejected so typos surface at startup.
func LoadFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := defaults()
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return overlayEnv(cfg), nil
}

func defaults() Config {
	return Config{
		BaseURL:     DefaultBaseURL,
		AppName:     DefaultAppName,
		ImageDir:    "./images",
		LogDir:      "./logs",
		UsageDBPath: "./openrouter-mcp.db",
	}
}

// overlayEnv replaces cfg fields with environment values where set.
func overlayEnv(cfg Config) Config {
	cfg.APIKey = envOr(envKeyAPIKey, cfg.APIKey)
	cfg.BaseURL = envOr(envKeyBaseURL, cfg.BaseURL)
	cfg.SiteURL = envOr(envKeySiteURL, cfg.SiteURL)
	cfg.AppName = envOr(envKeyAppName, cfg.AppName)
	cfg.ImageDir = envOr(envKeyImageDir, cfg.ImageDir)
	cfg.LogDir = envOr(envKeyLogDir, cfg.LogDir)
	cfg.UsageDBPath = envOr(envKeyUsageDBPath, cfg.UsageDBPath)
	cfg.HTTPAddr = envOr(envKeyHTTPAddr, cfg.HTTPAddr)
	cfg.AuthTokenHash = envOr(envKeyAuthTokenHash, cfg.AuthTokenHash)
	cfg.JWTSecret = envOr(envKeyJWTSecret, cfg.JWTSecret)
	return cfg
}

// envOr returns the value of the environment variable key, or fallback if not set.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
