// internal/common/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App             AppConfig             `mapstructure:"app"`
	Server          ServerConfig          `mapstructure:"server"`
	Salesforce      SalesforceConfig      `mapstructure:"salesforce"`
	Contact         ContactConfig         `mapstructure:"contact"`
	CustomerService CustomerServiceConfig `mapstructure:"customer_service"`
	ScriptCase      ScriptCaseConfig      `mapstructure:"script_case"`
	Logging         LoggingConfig         `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port               int           `mapstructure:"port"`
	ReadHeaderTimeout  time.Duration `mapstructure:"read_header_timeout"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
	CORSAllowedOrigins []string      `mapstructure:"cors_allowed_origins"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// SalesforceConfig holds the JWT bearer credentials and REST settings.
type SalesforceConfig struct {
	Username          string        `mapstructure:"username"`
	ConsumerKey       string        `mapstructure:"consumer_key"`
	Domain            string        `mapstructure:"domain"`
	PrivateKeyContent string        `mapstructure:"private_key_content"`
	APIVersion        string        `mapstructure:"api_version"`
	Timeout           time.Duration `mapstructure:"timeout"` // 0 means no local bound
	AssertionTTL      time.Duration `mapstructure:"assertion_ttl"`
}

// LoginURL resolves the OAuth host from the configured domain: "login", "test",
// a bare My Domain prefix, or a full host.
func (s SalesforceConfig) LoginURL() string {
	domain := strings.TrimSpace(s.Domain)
	switch {
	case domain == "":
		return "https://login.salesforce.com"
	case strings.HasPrefix(domain, "https://"), strings.HasPrefix(domain, "http://"):
		return strings.TrimSuffix(domain, "/")
	case strings.Contains(domain, "."):
		return "https://" + strings.TrimSuffix(domain, "/")
	default:
		return fmt.Sprintf("https://%s.salesforce.com", domain)
	}
}

type ContactConfig struct {
	Object           string        `mapstructure:"object"`
	DOBField         string        `mapstructure:"dob_field"`
	PhoneField       string        `mapstructure:"phone_field"`
	DefaultEntity    string        `mapstructure:"default_entity_type"`
	LinkAccount      bool          `mapstructure:"link_account"`
	AccountLinkDelay time.Duration `mapstructure:"account_link_delay"`
}

type CustomerServiceConfig struct {
	Object           string `mapstructure:"object"`
	StrictValidation bool   `mapstructure:"strict_validation"`
}

type ScriptCaseConfig struct {
	Object string `mapstructure:"object"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
