package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfigFile(t, `
server:
  addr: ":8080"
auth:
  jwt_secret: "test-secret"
discord:
  token: "bot-token"
  channel_id: "123456"
  send_timeout: "5s"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Errorf("Expected addr ':8080', got '%s'", cfg.Server.Addr)
	}
	if cfg.Discord.ChannelID != "123456" {
		t.Errorf("Expected channel id '123456', got '%s'", cfg.Discord.ChannelID)
	}
	if got := cfg.Discord.SendTimeoutDuration(); got != 5*time.Second {
		t.Errorf("Expected send timeout 5s, got %v", got)
	}
	// Defaults for fields the file omits
	if cfg.Relay.SendBuffer != 256 {
		t.Errorf("Expected default send buffer 256, got %d", cfg.Relay.SendBuffer)
	}
	if cfg.Auth.TokenTTLDuration() != 24*time.Hour {
		t.Errorf("Expected default token TTL 24h, got %v", cfg.Auth.TokenTTLDuration())
	}
}

func TestLoadConfigMissingCredentialsFatal(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "missing token",
			content: `
auth:
  jwt_secret: "s"
discord:
  channel_id: "123"
`,
		},
		{
			name: "missing channel id",
			content: `
auth:
  jwt_secret: "s"
discord:
  token: "t"
`,
		},
		{
			name: "missing jwt secret",
			content: `
discord:
  token: "t"
  channel_id: "123"
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Make sure ambient credentials cannot satisfy validation
			t.Setenv("BOT_TOKEN", "")
			t.Setenv("CHANNEL_ID", "")
			t.Setenv("JWT_SECRET", "")

			path := writeConfigFile(t, tt.content)
			if _, err := Load(path); err == nil {
				t.Fatal("Expected error for incomplete config, got nil")
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "env-token")
	t.Setenv("CHANNEL_ID", "env-channel")
	t.Setenv("JWT_SECRET", "env-secret")

	path := writeConfigFile(t, `
discord:
  token: "file-token"
  channel_id: "file-channel"
auth:
  jwt_secret: "file-secret"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Discord.Token != "env-token" {
		t.Errorf("Expected env override for token, got '%s'", cfg.Discord.Token)
	}
	if cfg.Discord.ChannelID != "env-channel" {
		t.Errorf("Expected env override for channel id, got '%s'", cfg.Discord.ChannelID)
	}
	if cfg.Auth.JWTSecret != "env-secret" {
		t.Errorf("Expected env override for jwt secret, got '%s'", cfg.Auth.JWTSecret)
	}
}

func TestParseDurationFallback(t *testing.T) {
	if got := parseDuration("not-a-duration", time.Minute); got != time.Minute {
		t.Errorf("Expected fallback for malformed duration, got %v", got)
	}
	if got := parseDuration("-5s", time.Minute); got != time.Minute {
		t.Errorf("Expected fallback for negative duration, got %v", got)
	}
}
