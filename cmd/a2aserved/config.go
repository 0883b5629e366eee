// Copyright 2025 The a2aserve Authors. All rights reserved.
//
// a2aserve is licensed under the Apache License Version 2.0.

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the full configuration of the a2aserved binary. Values come
// from the config file, A2ASERVE_* environment variables, and flags, in
// increasing priority.
type Config struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Agent   AgentConfig   `mapstructure:"agent" yaml:"agent"`
	Auth    AuthConfig    `mapstructure:"auth" yaml:"auth"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Address      string        `mapstructure:"address" yaml:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	CORS         bool          `mapstructure:"cors" yaml:"cors"`
	JWKS         bool          `mapstructure:"jwks" yaml:"jwks"`
}

// AgentConfig describes the agent card served from the well-known path.
type AgentConfig struct {
	Name              string   `mapstructure:"name" yaml:"name"`
	Description       string   `mapstructure:"description" yaml:"description"`
	URL               string   `mapstructure:"url" yaml:"url"`
	Version           string   `mapstructure:"version" yaml:"version"`
	Streaming         bool     `mapstructure:"streaming" yaml:"streaming"`
	PushNotifications bool     `mapstructure:"push_notifications" yaml:"push_notifications"`
	InputModes        []string `mapstructure:"input_modes" yaml:"input_modes"`
	OutputModes       []string `mapstructure:"output_modes" yaml:"output_modes"`
}

// AuthConfig selects the request authentication mode.
type AuthConfig struct {
	// Mode is one of "none", "apikey", or "jwt".
	Mode string `mapstructure:"mode" yaml:"mode"`
	// APIKeys maps key values to usernames, used when Mode is "apikey".
	APIKeys map[string]string `mapstructure:"api_keys" yaml:"api_keys"`
	// APIKeyHeader overrides the API key header name.
	APIKeyHeader string `mapstructure:"api_key_header" yaml:"api_key_header"`
	// JWTSecret is the shared HMAC secret, used when Mode is "jwt".
	JWTSecret string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	// JWTAudience and JWTIssuer are enforced when non-empty.
	JWTAudience string `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	JWTIssuer   string `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Development bool `mapstructure:"development" yaml:"development"`
}

// defaultConfig returns the configuration used when nothing is overridden.
func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:      ":8080",
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  300 * time.Second,
			CORS:         true,
		},
		Agent: AgentConfig{
			Name:        "a2aserve-echo",
			Description: "Echo agent that returns the text of each incoming message.",
			URL:         "http://localhost:8080/",
			Version:     "0.2.0",
			Streaming:   true,
			InputModes:  []string{"text"},
			OutputModes: []string{"text"},
		},
		Auth: AuthConfig{Mode: "none"},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// loadConfig merges defaults, an optional config file, and environment
// variables into a Config.
func loadConfig(configFile string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("A2ASERVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, defaultConfig())

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse configuration: %w", err)
	}
	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("server.address", cfg.Server.Address)
	v.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", cfg.Server.WriteTimeout)
	v.SetDefault("server.idle_timeout", cfg.Server.IdleTimeout)
	v.SetDefault("server.cors", cfg.Server.CORS)
	v.SetDefault("server.jwks", cfg.Server.JWKS)
	v.SetDefault("agent.name", cfg.Agent.Name)
	v.SetDefault("agent.description", cfg.Agent.Description)
	v.SetDefault("agent.url", cfg.Agent.URL)
	v.SetDefault("agent.version", cfg.Agent.Version)
	v.SetDefault("agent.streaming", cfg.Agent.Streaming)
	v.SetDefault("agent.push_notifications", cfg.Agent.PushNotifications)
	v.SetDefault("agent.input_modes", cfg.Agent.InputModes)
	v.SetDefault("agent.output_modes", cfg.Agent.OutputModes)
	v.SetDefault("auth.mode", cfg.Auth.Mode)
	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
	v.SetDefault("logging.development", cfg.Logging.Development)
}

func validateConfig(cfg Config) error {
	switch cfg.Auth.Mode {
	case "", "none":
	case "apikey":
		if len(cfg.Auth.APIKeys) == 0 {
			return fmt.Errorf("auth.mode is apikey but auth.api_keys is empty")
		}
	case "jwt":
		if cfg.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.mode is jwt but auth.jwt_secret is empty")
		}
	default:
		return fmt.Errorf("unknown auth.mode %q (expected none, apikey, or jwt)", cfg.Auth.Mode)
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Path == "" {
		return fmt.Errorf("metrics.enabled is true but metrics.path is empty")
	}
	return nil
}

// renderConfig serializes a config as YAML, used by the config subcommand.
func renderConfig(cfg Config) (string, error) {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to render config: %w", err)
	}
	return string(out), nil
}
