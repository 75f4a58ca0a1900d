package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stale.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize() returned error: %v", err)
	}
	t.Cleanup(ResetForTesting)

	tests := []struct {
		key      string
		expected interface{}
		getter   func(string) interface{}
	}{
		{KeyWebhookAddr, ":3000", func(k string) interface{} { return GetString(k) }},
		{KeyScheduleInterval, time.Hour, func(k string) interface{} { return GetDuration(k) }},
		{KeyScheduleConcurrency, 4, func(k string) interface{} { return GetInt(k) }},
		{KeyEngineConcurrency, 4, func(k string) interface{} { return GetInt(k) }},
		{KeyPolicyPath, ".github/stale.yml", func(k string) interface{} { return GetString(k) }},
		{KeyDryRun, false, func(k string) interface{} { return GetBool(k) }},
		{KeyLogLevel, "info", func(k string) interface{} { return GetString(k) }},
		{KeyLogFormat, "text", func(k string) interface{} { return GetString(k) }},
		{KeyGitHubToken, "", func(k string) interface{} { return GetString(k) }},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := tt.getter(tt.key); got != tt.expected {
				t.Errorf("Get(%q) = %v, want %v", tt.key, got, tt.expected)
			}
		})
	}
	if got := GetStringSlice(KeyScheduleRepos); len(got) != 0 {
		t.Errorf("repos = %v, want empty", got)
	}
	if ConfigFileUsed() != "" {
		t.Errorf("ConfigFileUsed() = %q, want empty", ConfigFileUsed())
	}
}

func TestConfigFile(t *testing.T) {
	path := writeConfig(t, `
github:
  bot-login: stale[bot]
schedule:
  interval: 30m
  repos:
    - octo/one
    - octo/two
dry-run: true
`)
	if err := Initialize(path); err != nil {
		t.Fatalf("Initialize(%q): %v", path, err)
	}
	t.Cleanup(ResetForTesting)

	if got := GetString(KeyGitHubBotLogin); got != "stale[bot]" {
		t.Errorf("bot-login = %q", got)
	}
	if got := GetDuration(KeyScheduleInterval); got != 30*time.Minute {
		t.Errorf("interval = %v", got)
	}
	if got := GetStringSlice(KeyScheduleRepos); len(got) != 2 || got[0] != "octo/one" || got[1] != "octo/two" {
		t.Errorf("repos = %v", got)
	}
	if !GetBool(KeyDryRun) {
		t.Error("dry-run = false, want true")
	}
	if ConfigFileUsed() != path {
		t.Errorf("ConfigFileUsed() = %q", ConfigFileUsed())
	}
}

func TestMissingExplicitConfigFile(t *testing.T) {
	t.Cleanup(ResetForTesting)
	if err := Initialize(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestEnvironmentBinding(t *testing.T) {
	tests := []struct {
		envVar   string
		key      string
		value    string
		expected interface{}
		getter   func(string) interface{}
	}{
		{"GITHUB_TOKEN", KeyGitHubToken, "ghp_x", "ghp_x", func(k string) interface{} { return GetString(k) }},
		{"STALE_GITHUB_TOKEN", KeyGitHubToken, "ghp_y", "ghp_y", func(k string) interface{} { return GetString(k) }},
		{"WEBHOOK_SECRET", KeyWebhookSecret, "s3cret", "s3cret", func(k string) interface{} { return GetString(k) }},
		{"DRY_RUN", KeyDryRun, "true", true, func(k string) interface{} { return GetBool(k) }},
		{"STALE_SCHEDULE_INTERVAL", KeyScheduleInterval, "10m", 10 * time.Minute, func(k string) interface{} { return GetDuration(k) }},
		{"STALE_ENGINE_CONCURRENCY", KeyEngineConcurrency, "8", 8, func(k string) interface{} { return GetInt(k) }},
		{"STALE_GITHUB_BOT_LOGIN", KeyGitHubBotLogin, "bot", "bot", func(k string) interface{} { return GetString(k) }},
	}
	for _, tt := range tests {
		t.Run(tt.envVar, func(t *testing.T) {
			t.Setenv(tt.envVar, tt.value)
			if err := Initialize(""); err != nil {
				t.Fatalf("Initialize(): %v", err)
			}
			t.Cleanup(ResetForTesting)

			if got := tt.getter(tt.key); got != tt.expected {
				t.Errorf("Get(%q) = %v, want %v", tt.key, got, tt.expected)
			}
		})
	}
}

func TestEnvironmentList(t *testing.T) {
	t.Setenv("STALE_SCHEDULE_REPOS", "octo/one, octo/two")
	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize(): %v", err)
	}
	t.Cleanup(ResetForTesting)

	got := GetStringSlice(KeyScheduleRepos)
	if len(got) != 2 || got[0] != "octo/one" || got[1] != "octo/two" {
		t.Errorf("repos = %q", got)
	}
}

func TestSetOverridesFile(t *testing.T) {
	path := writeConfig(t, "log:\n  level: warn\n")
	if err := Initialize(path); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(ResetForTesting)

	Set(KeyLogLevel, "debug")
	if got := GetString(KeyLogLevel); got != "debug" {
		t.Errorf("log.level = %q, want debug", got)
	}
}

func TestValidate(t *testing.T) {
	path := writeConfig(t, `
schedule:
  interval: soon
  concurrency: 0
log:
  format: xml
`)
	if err := Initialize(path); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(ResetForTesting)

	err := Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, key := range []string{KeyScheduleInterval, KeyScheduleConcurrency, KeyLogFormat} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not mention %s", err, key)
		}
	}

	ResetForTesting()
	if err := Initialize(""); err != nil {
		t.Fatal(err)
	}
	if err := Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestRedacted(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ghp_secret")
	if err := Initialize(""); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(ResetForTesting)

	r := Redacted()
	if r[KeyGitHubToken] != "********" {
		t.Errorf("token = %q, want redacted", r[KeyGitHubToken])
	}
	if r[KeyWebhookSecret] != "" {
		t.Errorf("unset secret = %q, want empty", r[KeyWebhookSecret])
	}
	if r[KeyWebhookAddr] != ":3000" {
		t.Errorf("addr = %q", r[KeyWebhookAddr])
	}
}

func TestWatch(t *testing.T) {
	path := writeConfig(t, "log:\n  level: info\n")
	if err := Initialize(path); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(ResetForTesting)

	var changed atomic.Int32
	Watch(func() { changed.Add(1) })

	if err := os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(3 * time.Second)
	for changed.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if changed.Load() == 0 {
		t.Fatal("onChange was not called")
	}
	if got := GetString(KeyLogLevel); got != "debug" {
		t.Errorf("log.level after reload = %q, want debug", got)
	}
}
