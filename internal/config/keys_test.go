package config

import (
	"testing"
)

func TestLookupKey(t *testing.T) {
	sk := LookupKey(KeyGitHubToken)
	if sk == nil {
		t.Fatal("expected github.token to be a known key")
	}
	if sk.EnvVar != "GITHUB_TOKEN" || !sk.Secret {
		t.Errorf("github.token = %+v", sk)
	}
	if LookupKey("github.nonexistent") != nil {
		t.Error("expected nil for unknown key")
	}
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		wantErr bool
	}{
		{KeyWebhookAddr, ":3000", false},
		{KeyWebhookAddr, "0.0.0.0:8080", false},
		{KeyWebhookAddr, "3000", true},
		{KeyWebhookAddr, ":99999", true},
		{KeyScheduleInterval, "15m", false},
		{KeyScheduleInterval, "0s", true},
		{KeyScheduleInterval, "daily", true},
		{KeyScheduleConcurrency, "1", false},
		{KeyScheduleConcurrency, "0", true},
		{KeyGitHubBaseURL, "https://ghe.example.com/api/v3/", false},
		{KeyGitHubBaseURL, "ftp://example.com", true},
		{KeyDryRun, "true", false},
		{KeyDryRun, "maybe", true},
		{KeyLogLevel, "DEBUG", false},
		{KeyLogLevel, "trace", true},
		{KeyLogFormat, "json", false},
		{KeyPolicyPath, ".github/stale.yml", false},
		{"github.nonexistent", "x", true},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			err := ValidateKey(tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateKey(%q, %q) error = %v, wantErr %v", tt.key, tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestEnvVarFor(t *testing.T) {
	tests := map[string]string{
		KeyGitHubToken:       "GITHUB_TOKEN",
		KeyDryRun:            "DRY_RUN",
		KeyEngineConcurrency: "STALE_ENGINE_CONCURRENCY",
		KeyGitHubBotLogin:    "STALE_GITHUB_BOT_LOGIN",
	}
	for key, want := range tests {
		if got := EnvVarFor(key); got != want {
			t.Errorf("EnvVarFor(%q) = %q, want %q", key, got, want)
		}
	}
}
