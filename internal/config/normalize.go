package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeFeeds()
	c.normalizePipeline()
	c.normalizeTools()
	c.normalizeCredentials()
	c.normalizeNotify()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DatabaseDir) == "" {
		c.Paths.DatabaseDir = defaultDatabaseDir
	}
	if c.Paths.DatabaseDir, err = expandPath(c.Paths.DatabaseDir); err != nil {
		return fmt.Errorf("paths.database_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CookieDir) == "" {
		c.Paths.CookieDir = defaultCookieDir
	}
	if c.Paths.CookieDir, err = expandPath(c.Paths.CookieDir); err != nil {
		return fmt.Errorf("paths.cookie_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeFeeds() {
	sources := make([]string, 0, len(c.Feeds.Sources))
	seen := make(map[string]struct{}, len(c.Feeds.Sources))
	for _, source := range c.Feeds.Sources {
		trimmed := strings.TrimSpace(source)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		sources = append(sources, trimmed)
	}
	c.Feeds.Sources = sources
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.FeedLimit <= 0 {
		c.Pipeline.FeedLimit = defaultFeedLimit
	}
	if c.Pipeline.DownloadLimit <= 0 {
		c.Pipeline.DownloadLimit = defaultDownloadLimit
	}
	if c.Pipeline.UploadLimit <= 0 {
		c.Pipeline.UploadLimit = defaultUploadLimit
	}
	c.Pipeline.Cron = strings.TrimSpace(c.Pipeline.Cron)
}

func (c *Config) normalizeTools() {
	c.Extract.Binary = strings.TrimSpace(c.Extract.Binary)
	if c.Extract.Binary == "" {
		c.Extract.Binary = defaultExtractBinary
	}
	c.Upload.Binary = strings.TrimSpace(c.Upload.Binary)
	if c.Upload.Binary == "" {
		c.Upload.Binary = defaultUploadBinary
	}
	c.Upload.RemotePath = strings.TrimRight(strings.TrimSpace(c.Upload.RemotePath), "/")
}

func (c *Config) normalizeCredentials() {
	if value, ok := os.LookupEnv("FEEDRELAY_BDUSS"); ok && strings.TrimSpace(value) != "" {
		c.Upload.BDUSS = strings.TrimSpace(value)
	} else {
		c.Upload.BDUSS = strings.TrimSpace(c.Upload.BDUSS)
	}
	c.CookieCloud.URL = strings.TrimRight(strings.TrimSpace(c.CookieCloud.URL), "/")
	c.CookieCloud.UUID = strings.TrimSpace(c.CookieCloud.UUID)
	if value, ok := os.LookupEnv("FEEDRELAY_COOKIECLOUD_PASSWORD"); ok && strings.TrimSpace(value) != "" {
		c.CookieCloud.Password = strings.TrimSpace(value)
	} else {
		c.CookieCloud.Password = strings.TrimSpace(c.CookieCloud.Password)
	}
}

func (c *Config) normalizeNotify() {
	for i := range c.Notify {
		c.Notify[i].Type = strings.ToLower(strings.TrimSpace(c.Notify[i].Type))
		c.Notify[i].URL = strings.TrimSpace(c.Notify[i].URL)
		c.Notify[i].Topic = strings.TrimSpace(c.Notify[i].Topic)
		c.Notify[i].Token = strings.TrimSpace(c.Notify[i].Token)
		if c.Notify[i].Priority < 0 {
			c.Notify[i].Priority = 0
		}
		if c.Notify[i].Timeout <= 0 {
			c.Notify[i].Timeout = 10
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
