package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir     string `toml:"data_dir"`
	DatabaseDir string `toml:"database_dir"`
	CookieDir   string `toml:"cookie_dir"`
	LogDir      string `toml:"log_dir"`
}

// Feeds lists the syndication sources to watch.
type Feeds struct {
	Sources []string `toml:"sources"`
}

// Pipeline contains per-stage concurrency limits and run behavior.
type Pipeline struct {
	FeedLimit     int `toml:"feed_limit"`
	DownloadLimit int `toml:"download_limit"`
	UploadLimit   int `toml:"upload_limit"`
	// RecordSeenBeforeExtraction controls whether the dedup ledger is written
	// before the extraction tool runs. When false, an item whose extraction
	// fails stays unseen and is re-attempted on the next run.
	RecordSeenBeforeExtraction bool   `toml:"record_seen_before_extraction"`
	AutoRemove                 bool   `toml:"auto_remove"`
	Cron                       string `toml:"cron"`
}

// Extract configures the external extraction tool.
type Extract struct {
	Binary string `toml:"binary"`
}

// Upload configures the external upload tool and destination.
type Upload struct {
	Binary     string `toml:"binary"`
	RemotePath string `toml:"remote_path"`
	// BDUSS is the upload account credential. FEEDRELAY_BDUSS in the
	// environment takes precedence over the config file.
	BDUSS string `toml:"bduss"`
}

// CookieCloud configures the remote cookie service.
type CookieCloud struct {
	URL      string `toml:"url"`
	UUID     string `toml:"uuid"`
	Password string `toml:"password"`
}

// NotifyTarget configures one push-notification destination. Type selects the
// variant; the remaining fields apply per type.
type NotifyTarget struct {
	Type     string `toml:"type"`
	URL      string `toml:"url"`
	Topic    string `toml:"topic"`
	Token    string `toml:"token"`
	Priority int    `toml:"priority"`
	Timeout  int    `toml:"timeout"`
}

// Logging contains log output configuration.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for feedrelay.
type Config struct {
	Paths       Paths          `toml:"paths"`
	Feeds       Feeds          `toml:"feeds"`
	Pipeline    Pipeline       `toml:"pipeline"`
	Extract     Extract        `toml:"extract"`
	Upload      Upload         `toml:"upload"`
	CookieCloud CookieCloud    `toml:"cookiecloud"`
	Notify      []NotifyTarget `toml:"notify"`
	Logging     Logging        `toml:"logging"`
}

// ErrNotFound reports that an explicitly requested config file is missing.
var ErrNotFound = errors.New("config file not found")

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/feedrelay/config.toml")
}

// Load locates, parses, and validates a configuration file. A non-empty path
// must exist; with an empty path the default locations are probed and
// defaults are used when nothing is found. Environment files (.env.local,
// .env) are layered in before credential resolution.
func Load(path string) (*Config, string, error) {
	// Missing env files are fine; only explicit config paths are required.
	_ = godotenv.Load(".env.local", ".env")

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", err
	}
	if path != "" && !exists {
		return nil, "", fmt.Errorf("%w: %s", ErrNotFound, resolvedPath)
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	return &cfg, resolvedPath, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("feedrelay.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories required for a run.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.DatabaseDir, c.Paths.CookieDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ExtractBinary returns the extraction tool executable name.
func (c *Config) ExtractBinary() string {
	return c.Extract.Binary
}

// UploadBinary returns the upload tool executable name.
func (c *Config) UploadBinary() string {
	return c.Upload.Binary
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
