package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

var knownNotifyTypes = map[string]struct{}{
	"ntfy":    {},
	"gotify":  {},
	"webhook": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateUpload(); err != nil {
		return err
	}
	if err := c.validateCookieCloud(); err != nil {
		return err
	}
	if err := c.validateCron(); err != nil {
		return err
	}
	if err := c.validateNotify(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateUpload() error {
	if strings.TrimSpace(c.Upload.RemotePath) == "" {
		return errors.New("upload.remote_path must be set")
	}
	if !strings.HasPrefix(c.Upload.RemotePath, "/") {
		return fmt.Errorf("upload.remote_path must be absolute, got %q", c.Upload.RemotePath)
	}
	return nil
}

func (c *Config) validateCookieCloud() error {
	if c.CookieCloud.URL == "" {
		return nil
	}
	if c.CookieCloud.UUID == "" {
		return errors.New("cookiecloud.uuid must be set when cookiecloud.url is set")
	}
	if c.CookieCloud.Password == "" {
		return errors.New("cookiecloud.password must be set when cookiecloud.url is set (or set FEEDRELAY_COOKIECLOUD_PASSWORD)")
	}
	return nil
}

func (c *Config) validateCron() error {
	if c.Pipeline.Cron == "" {
		return nil
	}
	if _, err := cron.ParseStandard(c.Pipeline.Cron); err != nil {
		return fmt.Errorf("pipeline.cron: %w", err)
	}
	return nil
}

func (c *Config) validateNotify() error {
	for i, target := range c.Notify {
		if _, ok := knownNotifyTypes[target.Type]; !ok {
			return fmt.Errorf("notify[%d].type: unknown notifier type %q", i, target.Type)
		}
		switch target.Type {
		case "ntfy":
			if target.URL == "" || target.Topic == "" {
				return fmt.Errorf("notify[%d]: ntfy targets require url and topic", i)
			}
		case "gotify":
			if target.URL == "" || target.Token == "" {
				return fmt.Errorf("notify[%d]: gotify targets require url and token", i)
			}
		case "webhook":
			if target.URL == "" {
				return fmt.Errorf("notify[%d]: webhook targets require url", i)
			}
		}
	}
	return nil
}
