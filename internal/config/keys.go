package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ServiceKey describes a service configuration key.
type ServiceKey struct {
	Key         string // Full key name (e.g., "schedule.interval")
	Description string // Human-readable description
	EnvVar      string // Explicit env var name (empty = STALE_<KEY>)
	Secret      bool   // If true, the value is redacted when displayed
	Default     string // Default value (empty = no default)
	List        bool   // If true, the value is a list of strings
	Validate    func(string) error
}

// Service configuration keys.
const (
	KeyGitHubToken         = "github.token"
	KeyGitHubBaseURL       = "github.base-url"
	KeyGitHubBotLogin      = "github.bot-login"
	KeyWebhookAddr         = "webhook.addr"
	KeyWebhookSecret       = "webhook.secret"
	KeyScheduleInterval    = "schedule.interval"
	KeyScheduleConcurrency = "schedule.concurrency"
	KeyScheduleRepos       = "schedule.repos"
	KeyPolicyPath          = "policy.path"
	KeyEngineConcurrency   = "engine.concurrency"
	KeyDryRun              = "dry-run"
	KeyLogLevel            = "log.level"
	KeyLogFormat           = "log.format"
)

// ServiceKeys defines all valid service configuration keys.
var ServiceKeys = []ServiceKey{
	// GitHub
	{
		Key:         KeyGitHubToken,
		Description: "GitHub API token",
		EnvVar:      "GITHUB_TOKEN",
		Secret:      true,
	},
	{
		Key:         KeyGitHubBaseURL,
		Description: "GitHub API base URL (GitHub Enterprise: https://host/api/v3/)",
		EnvVar:      "GITHUB_API_URL",
		Validate:    validateURL,
	},
	{
		Key:         KeyGitHubBotLogin,
		Description: "Login of the bot account, looked up from the token when unset; its own events are ignored",
	},
	// Webhook
	{
		Key:         KeyWebhookAddr,
		Description: "Webhook HTTP listen address",
		Default:     ":3000",
		Validate:    validateAddr,
	},
	{
		Key:         KeyWebhookSecret,
		Description: "Webhook HMAC secret",
		EnvVar:      "WEBHOOK_SECRET",
		Secret:      true,
	},
	// Schedule
	{
		Key:         KeyScheduleInterval,
		Description: "Interval between scheduled sweeps (e.g., 1h)",
		Default:     "1h",
		Validate:    validateDuration,
	},
	{
		Key:         KeyScheduleConcurrency,
		Description: "Repositories swept in parallel",
		Default:     "4",
		Validate:    validatePositiveInt,
	},
	{
		Key:         KeyScheduleRepos,
		Description: "Repositories to sweep (owner/name); empty = all accessible",
		List:        true,
	},
	// Policy and engine
	{
		Key:         KeyPolicyPath,
		Description: "Path of the per-repository policy file",
		Default:     ".github/stale.yml",
	},
	{
		Key:         KeyEngineConcurrency,
		Description: "Items acted on in parallel within one phase",
		Default:     "4",
		Validate:    validatePositiveInt,
	},
	{
		Key:         KeyDryRun,
		Description: "Log actions without performing them",
		EnvVar:      "DRY_RUN",
		Default:     "false",
		Validate:    validateBool,
	},
	// Logging
	{
		Key:         KeyLogLevel,
		Description: "Log level (debug, info, warn, error)",
		EnvVar:      "LOG_LEVEL",
		Default:     "info",
		Validate:    validateLogLevel,
	},
	{
		Key:         KeyLogFormat,
		Description: "Log format (text, json)",
		Default:     "text",
		Validate:    validateLogFormat,
	},
}

// serviceKeyMap is a lookup table built from ServiceKeys.
var serviceKeyMap map[string]*ServiceKey

func init() {
	serviceKeyMap = make(map[string]*ServiceKey, len(ServiceKeys))
	for i := range ServiceKeys {
		serviceKeyMap[ServiceKeys[i].Key] = &ServiceKeys[i]
	}
}

// LookupKey returns the ServiceKey definition, or nil if key is unknown.
func LookupKey(key string) *ServiceKey {
	return serviceKeyMap[key]
}

// ValidateKey checks whether key is known and value is valid for it.
func ValidateKey(key, value string) error {
	sk := serviceKeyMap[key]
	if sk == nil {
		known := make([]string, 0, len(ServiceKeys))
		for _, k := range ServiceKeys {
			known = append(known, k.Key)
		}
		return fmt.Errorf("unknown key %q; valid keys: %s", key, strings.Join(known, ", "))
	}

	if sk.Validate != nil {
		if err := sk.Validate(value); err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
	}

	return nil
}

// EnvVarFor returns the environment variable that sets key.
func EnvVarFor(key string) string {
	if sk := serviceKeyMap[key]; sk != nil && sk.EnvVar != "" {
		return sk.EnvVar
	}
	return prefixedEnv(key)
}

// Validation helpers

func validateAddr(value string) error {
	i := strings.LastIndex(value, ":")
	if i < 0 {
		return fmt.Errorf("must be host:port, got %q", value)
	}
	return validatePort(value[i+1:])
}

func validatePort(value string) error {
	port, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("must be a number, got %q", value)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("must be between 1 and 65535, got %d", port)
	}
	return nil
}

func validateURL(value string) error {
	if value == "" {
		return nil
	}
	u, err := url.Parse(value)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("must be an http(s) URL, got %q", value)
	}
	return nil
}

func validateDuration(value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("must be a duration (e.g., 30m, 1h), got %q", value)
	}
	if d <= 0 {
		return fmt.Errorf("must be positive, got %s", d)
	}
	return nil
}

func validatePositiveInt(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("must be a number, got %q", value)
	}
	if n < 1 {
		return fmt.Errorf("must be at least 1, got %d", n)
	}
	return nil
}

func validateLogLevel(value string) error {
	switch strings.ToLower(value) {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("must be one of: debug, info, warn, error; got %q", value)
	}
}

func validateLogFormat(value string) error {
	switch strings.ToLower(value) {
	case "text", "json":
		return nil
	default:
		return fmt.Errorf("must be one of: text, json; got %q", value)
	}
}

func validateBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("must be true or false, got %q", value)
	}
	return nil
}
