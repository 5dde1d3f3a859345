package customerservice

import (
	"fmt"

	"crm-gateway/internal/common/config"
)

type Config struct {
	Object           string
	StrictValidation bool
}

func DefaultConfig() *Config {
	return &Config{
		Object: "Customer_Service__c",
	}
}

func (c *Config) Validate() error {
	if c.Object == "" {
		return fmt.Errorf("customer service object is required")
	}
	return nil
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}

	cfg := DefaultConfig()
	if appConfig == nil {
		return cfg
	}

	if appConfig.CustomerService.Object != "" {
		cfg.Object = appConfig.CustomerService.Object
	}
	cfg.StrictValidation = appConfig.CustomerService.StrictValidation

	return cfg
}
