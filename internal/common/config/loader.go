package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on top,
// expands ${VAR} placeholders and falls back to the SF_* environment variables
// for credentials.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finish(v, env)
}

// LoadFromFile reads a single YAML file, then applies the same expansion,
// defaults and validation as Load.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v, os.Getenv("APP_ENVIRONMENT"))
}

func finish(v *viper.Viper, env string) (*Config, error) {
	v.SetDefault("contact.link_account", true)
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.App.Environment == "" {
		cfg.App.Environment = env
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			// An unset variable expands to "" so the SF_* fallbacks and
			// validation still see the credential as missing.
			if expanded := os.ExpandEnv(strVal); expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills credentials from the variable names the
// deployment injects from its secret manager.
func overrideEmptyConfig(cfg *Config) {
	setIfEmpty(&cfg.Salesforce.Username, "SF_USERNAME")
	setIfEmpty(&cfg.Salesforce.ConsumerKey, "SF_CONSUMER_KEY")
	setIfEmpty(&cfg.Salesforce.Domain, "SF_DOMAIN")
	setIfEmpty(&cfg.Salesforce.PrivateKeyContent, "SF_PRIVATE_KEY_CONTENT")

	if val := os.Getenv("PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.Server.Port = port
		}
	}
}

func setIfEmpty(dst *string, envKey string) {
	if *dst != "" {
		return
	}
	if val := os.Getenv(envKey); val != "" {
		*dst = val
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "crm-gateway"
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadHeaderTimeout == 0 {
		cfg.Server.ReadHeaderTimeout = 10 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Salesforce.APIVersion == "" {
		cfg.Salesforce.APIVersion = "v59.0"
	}
	if cfg.Salesforce.AssertionTTL == 0 {
		cfg.Salesforce.AssertionTTL = 3 * time.Minute
	}

	if cfg.Contact.Object == "" {
		cfg.Contact.Object = "Contact"
	}
	if cfg.Contact.DOBField == "" {
		cfg.Contact.DOBField = "DOB__c"
	}
	if cfg.Contact.PhoneField == "" {
		cfg.Contact.PhoneField = "Phone"
	}
	if cfg.Contact.DefaultEntity == "" {
		cfg.Contact.DefaultEntity = "Individual"
	}

	if cfg.CustomerService.Object == "" {
		cfg.CustomerService.Object = "Customer_Service__c"
	}
	if cfg.ScriptCase.Object == "" {
		cfg.ScriptCase.Object = "Script_Case__c"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validateConfig(cfg *Config) error {
	var missing []string
	if cfg.Salesforce.Username == "" {
		missing = append(missing, "SF_USERNAME")
	}
	if cfg.Salesforce.ConsumerKey == "" {
		missing = append(missing, "SF_CONSUMER_KEY")
	}
	if cfg.Salesforce.Domain == "" {
		missing = append(missing, "SF_DOMAIN")
	}
	if cfg.Salesforce.PrivateKeyContent == "" {
		missing = append(missing, "SF_PRIVATE_KEY_CONTENT")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing salesforce credentials: %s", strings.Join(missing, ", "))
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if cfg.Salesforce.Timeout < 0 {
		return fmt.Errorf("salesforce.timeout must not be negative")
	}
	if cfg.Contact.AccountLinkDelay < 0 {
		return fmt.Errorf("contact.account_link_delay must not be negative")
	}

	return nil
}
