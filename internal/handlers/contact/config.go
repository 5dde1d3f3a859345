package contact

import (
	"fmt"
	"time"

	"crm-gateway/internal/common/config"
)

type Config struct {
	Object            string
	DOBField          string
	PhoneField        string
	DefaultEntityType string
	LinkAccount       bool
	AccountLinkDelay  time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Object:            "Contact",
		DOBField:          "DOB__c",
		PhoneField:        "Phone",
		DefaultEntityType: "Individual",
		LinkAccount:       true,
	}
}

func (c *Config) Validate() error {
	if c.Object == "" {
		return fmt.Errorf("contact object is required")
	}
	if c.DOBField == "" || c.PhoneField == "" {
		return fmt.Errorf("contact dob_field and phone_field are required")
	}
	if c.AccountLinkDelay < 0 {
		return fmt.Errorf("account_link_delay must not be negative")
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

	c := appConfig.Contact
	if c.Object != "" {
		cfg.Object = c.Object
	}
	if c.DOBField != "" {
		cfg.DOBField = c.DOBField
	}
	if c.PhoneField != "" {
		cfg.PhoneField = c.PhoneField
	}
	if c.DefaultEntity != "" {
		cfg.DefaultEntityType = c.DefaultEntity
	}
	cfg.LinkAccount = c.LinkAccount
	cfg.AccountLinkDelay = c.AccountLinkDelay

	return cfg
}
