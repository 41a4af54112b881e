package config

import (
	"fmt"
	"net/url"
	"strings"
)

// MinSecretLength is the shortest accepted HMAC secret.
var MinSecretLength = 32

// Validate reports the first inconsistency in the configuration.
func (c *Config) Validate() error {
	if c.Auth.Enabled && len(strings.TrimSpace(c.Auth.HMACSecret)) < MinSecretLength {
		return fmt.Errorf("auth: HMACSecret must be at least %d characters", MinSecretLength)
	}
	if c.RateLimit.Burst < 0 || c.RateLimit.RequestsPerMinute < 0 {
		return fmt.Errorf("rate_limit: values must not be negative")
	}
	if len(c.Kafka.Brokers) > 0 && strings.TrimSpace(c.Kafka.Topic) == "" {
		return fmt.Errorf("kafka: Topic required when Brokers are set")
	}
	if raw := strings.TrimSpace(c.Webhook.URL); raw != "" {
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("webhook: invalid URL %q", raw)
		}
		if strings.TrimSpace(c.Webhook.Secret) == "" {
			return fmt.Errorf("webhook: Secret required when URL is set")
		}
	}
	if c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry: SampleRatio must be within (0, 1]")
	}
	if (c.Telemetry.Traces || c.Telemetry.Metrics) && strings.TrimSpace(c.Telemetry.Endpoint) == "" {
		return fmt.Errorf("telemetry: Endpoint required when exporters are enabled")
	}
	return nil
}

// PausedModules lists the modules paused at startup.
func (c *Config) PausedModules() []string {
	var modules []string
	if c.Pauses.RWA {
		modules = append(modules, "rwa")
	}
	return modules
}
