package config

const (
	defaultDataDir       = "~/.local/share/feedrelay/data"
	defaultDatabaseDir   = "~/.local/share/feedrelay/database"
	defaultCookieDir     = "~/.local/share/feedrelay/cookies"
	defaultLogDir        = "~/.local/share/feedrelay/logs"
	defaultExtractBinary = "you-get"
	defaultUploadBinary  = "BaiduPCS-Go"
	defaultFeedLimit     = 1
	defaultDownloadLimit = 1
	defaultUploadLimit   = 1
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:     defaultDataDir,
			DatabaseDir: defaultDatabaseDir,
			CookieDir:   defaultCookieDir,
			LogDir:      defaultLogDir,
		},
		Pipeline: Pipeline{
			FeedLimit:                  defaultFeedLimit,
			DownloadLimit:              defaultDownloadLimit,
			UploadLimit:                defaultUploadLimit,
			RecordSeenBeforeExtraction: true,
		},
		Extract: Extract{
			Binary: defaultExtractBinary,
		},
		Upload: Upload{
			Binary: defaultUploadBinary,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
