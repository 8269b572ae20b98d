package main

import (
	"fmt"
	"os"

	"github.com/vlasebian/timerbe/internal/timer/gateway"
	"gopkg.in/yaml.v3"
)

// Config holds the service configuration loaded from YAML, with environment
// overrides applied on top.
type Config struct {
	Gateway struct {
		// DeliveryPolicy is "reply" or "broadcast" (see gateway.DeliveryPolicy).
		DeliveryPolicy string `yaml:"delivery_policy"`
		SubjectPrefix  string `yaml:"subject_prefix"`
	} `yaml:"gateway"`
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.Gateway.DeliveryPolicy = string(gateway.PolicyReply)
	cfg.Gateway.SubjectPrefix = "timer.events"
	return cfg
}

func loadConfig(path string) (*Config, error) {
	config := defaultConfig()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// deliveryPolicy resolves the configured policy, letting GATEWAY_POLICY win
// over the config file.
func (c *Config) deliveryPolicy() (gateway.DeliveryPolicy, error) {
	policy := gateway.DeliveryPolicy(getEnv("GATEWAY_POLICY", c.Gateway.DeliveryPolicy))
	if !policy.Valid() {
		return "", fmt.Errorf("unknown delivery policy: %s", policy)
	}
	return policy, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
