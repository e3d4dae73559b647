package server

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// ServerConfig represents the complete server configuration
type ServerConfig struct {
	Server ServerSettings `hcl:"server,block"`
	Rules  *RulesConfig   `hcl:"rules,block"`
	Auth   *AuthConfig    `hcl:"auth,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
	LogFile  string `hcl:"log_file,optional"`
	Database string `hcl:"database,optional"`
}

// RulesConfig tunes the card game rules
type RulesConfig struct {
	PowerDeckCopies int   `hcl:"power_deck_copies,optional"`
	PowerThreshold  int   `hcl:"power_threshold,optional"`
	Seed            int64 `hcl:"seed,optional"` // fixed RNG seed, 0 = per-game random
}

// AuthConfig configures the external token validator
type AuthConfig struct {
	URL         string `hcl:"url,optional"`
	AdminSecret string `hcl:"admin_secret,optional"`
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
			Database: "powuno.db",
		},
	}
}

// LoadServerConfig loads server configuration from HCL file
func LoadServerConfig(filename string) (*ServerConfig, error) {
	// Check if file exists
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultServerConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config ServerConfig
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	if config.Server.Address == "" {
		config.Server.Address = "localhost"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = "info"
	}
	if config.Server.Database == "" {
		config.Server.Database = "powuno.db"
	}

	return &config, nil
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	if c.Rules != nil {
		if c.Rules.PowerDeckCopies < 0 {
			return fmt.Errorf("power_deck_copies must not be negative")
		}
		if c.Rules.PowerThreshold < 0 {
			return fmt.Errorf("power_threshold must not be negative")
		}
	}

	return nil
}

// GetServerAddress returns the full server address
func (c *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// ResolveAddress returns the listen address, preferring an explicit override
// over the configured address and port.
func (c *ServerConfig) ResolveAddress(override string) string {
	if override != "" {
		return override
	}
	return c.GetServerAddress()
}

// GameServiceConfig converts the rules block into service configuration
func (c *ServerConfig) GameServiceConfig() GameServiceConfig {
	cfg := GameServiceConfig{}
	if c.Rules != nil {
		cfg.Seed = c.Rules.Seed
		cfg.PowerDeckCopies = c.Rules.PowerDeckCopies
		cfg.PowerThreshold = c.Rules.PowerThreshold
	}
	return cfg
}
