package scriptcase

import (
	"fmt"

	"crm-gateway/internal/common/config"
)

type Config struct {
	Object string
}

func DefaultConfig() *Config {
	return &Config{Object: "Script_Case__c"}
}

func (c *Config) Validate() error {
	if c.Object == "" {
		return fmt.Errorf("script case object is required")
	}
	return nil
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}

	cfg := DefaultConfig()
	if appConfig != nil && appConfig.ScriptCase.Object != "" {
		cfg.Object = appConfig.ScriptCase.Object
	}
	return cfg
}
