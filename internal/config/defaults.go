package config

const (
	defaultCacheDir          = "~/.cache/ytscribe"
	defaultOutputDir         = "~/transcripts"
	defaultLogDir            = "~/.local/share/ytscribe/logs"
	defaultWorkDir           = "~/.local/share/ytscribe/work"
	defaultConcurrency       = 2
	maxConcurrency           = 10
	defaultRetryAttempts     = 3
	defaultRetryBackoff      = 2
	defaultJobTimeoutMinutes = 60
	defaultCacheMaxMiB       = 1024
	defaultCacheTTLDays      = 30
	defaultWhisperModel      = "small"
	defaultWhisperBinary     = "whisper"
	defaultFFmpegBinary      = "ffmpeg"
	defaultDownloaderBinary  = "yt-dlp"
	defaultDownloadTimeout   = 600
	defaultDownloadRPM       = 30
	defaultTranslatorBaseURL = "https://api.deepseek.com"
	defaultTranslatorModel   = "deepseek-chat"
	defaultTranslatorTimeout = 120
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir:  defaultCacheDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
			WorkDir:   defaultWorkDir,
		},
		Batch: Batch{
			Concurrency:         defaultConcurrency,
			RetryAttempts:       defaultRetryAttempts,
			RetryBackoffSeconds: defaultRetryBackoff,
			JobTimeoutMinutes:   defaultJobTimeoutMinutes,
		},
		Cache: Cache{
			Enabled: true,
			MaxMiB:  defaultCacheMaxMiB,
			TTLDays: defaultCacheTTLDays,
		},
		Whisper: Whisper{
			Model:        defaultWhisperModel,
			Binary:       defaultWhisperBinary,
			FFmpegBinary: defaultFFmpegBinary,
		},
		Downloader: Downloader{
			Binary:            defaultDownloaderBinary,
			TimeoutSeconds:    defaultDownloadTimeout,
			RequestsPerMinute: defaultDownloadRPM,
		},
		Translator: Translator{
			BaseURL:        defaultTranslatorBaseURL,
			Model:          defaultTranslatorModel,
			TimeoutSeconds: defaultTranslatorTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
