// Package config loads process configuration from the environment. All keys
// are prefixed CRM_ (for example CRM_TRANSPORT, CRM_AUTH_JWT_SECRET); nothing
// here is mutable after startup.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/salespipe/crm-mcp-server/pkg/authgate"
)

// Transport selects which dispatcher the process runs.
type Transport string

const (
	TransportStdio      Transport = "stdio"
	TransportSSE        Transport = "sse"
	TransportStreamable Transport = "streamable"
)

// Config is the full static configuration of the process.
type Config struct {
	// Transport selects the dispatcher. Defaults to stdio.
	Transport Transport
	// Port is the HTTP listen port for the sse and streamable transports.
	Port int
	// MessagePath is where the streamed transport accepts POSTed messages.
	MessagePath string

	// APIToken and CompanyDomain are the stdio transport's implicit
	// credentials. The HTTP transports ignore them; their callers supply
	// credentials per connection or per request.
	APIToken      string
	CompanyDomain string

	// Auth configures the optional signed-token gate.
	Auth authgate.Config

	// RateMinInterval and RateMaxConcurrent shape the global outbound
	// rate limiter.
	RateMinInterval   time.Duration
	RateMaxConcurrent int
}

const envPrefix = "CRM"

// Load reads configuration from the environment.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("transport", string(TransportStdio))
	v.SetDefault("port", 3000)
	v.SetDefault("message_path", "/messages")
	v.SetDefault("auth_jwt_algorithm", "HS256")
	v.SetDefault("rate_min_interval", "100ms")
	v.SetDefault("rate_max_concurrent", 4)

	cfg := &Config{
		Transport:     Transport(strings.ToLower(v.GetString("transport"))),
		Port:          v.GetInt("port"),
		MessagePath:   v.GetString("message_path"),
		APIToken:      v.GetString("api_token"),
		CompanyDomain: v.GetString("company_domain"),
		Auth: authgate.Config{
			Secret:         v.GetString("auth_jwt_secret"),
			ReferenceToken: v.GetString("auth_jwt_reference_token"),
			Algorithm:      v.GetString("auth_jwt_algorithm"),
			Audience:       v.GetString("auth_jwt_audience"),
			Issuer:         v.GetString("auth_jwt_issuer"),
		},
		RateMinInterval:   v.GetDuration("rate_min_interval"),
		RateMaxConcurrent: v.GetInt("rate_max_concurrent"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Transport {
	case TransportStdio, TransportSSE, TransportStreamable:
	default:
		return fmt.Errorf("config: unknown transport %q (want stdio, sse, or streamable)", c.Transport)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Port)
	}
	if !strings.HasPrefix(c.MessagePath, "/") {
		return fmt.Errorf("config: message path %q must start with /", c.MessagePath)
	}
	if c.RateMinInterval < 0 {
		return fmt.Errorf("config: rate min interval must not be negative")
	}
	return nil
}
