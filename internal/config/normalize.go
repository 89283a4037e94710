package config

import (
	"fmt"
	"os"
	"strings"

	"ytscribe/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeBatch()
	c.normalizeWhisper()
	c.normalizeDownloader()
	c.normalizeTranslator()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeBatch() {
	if c.Batch.Concurrency <= 0 {
		c.Batch.Concurrency = defaultConcurrency
	}
	if c.Batch.Concurrency > maxConcurrency {
		c.Batch.Concurrency = maxConcurrency
	}
	if c.Batch.RetryAttempts <= 0 {
		c.Batch.RetryAttempts = defaultRetryAttempts
	}
	if c.Batch.RetryBackoffSeconds <= 0 {
		c.Batch.RetryBackoffSeconds = defaultRetryBackoff
	}
	if c.Batch.JobTimeoutMinutes <= 0 {
		c.Batch.JobTimeoutMinutes = defaultJobTimeoutMinutes
	}
}

func (c *Config) normalizeWhisper() {
	c.Whisper.Model = strings.TrimSpace(c.Whisper.Model)
	if c.Whisper.Model == "" {
		c.Whisper.Model = defaultWhisperModel
	}
	c.Whisper.Binary = strings.TrimSpace(c.Whisper.Binary)
	if c.Whisper.Binary == "" {
		c.Whisper.Binary = defaultWhisperBinary
	}
	c.Whisper.FFmpegBinary = strings.TrimSpace(c.Whisper.FFmpegBinary)
	if c.Whisper.FFmpegBinary == "" {
		c.Whisper.FFmpegBinary = defaultFFmpegBinary
	}
	c.Whisper.Language = strings.TrimSpace(c.Whisper.Language)
}

func (c *Config) normalizeDownloader() {
	c.Downloader.Binary = strings.TrimSpace(c.Downloader.Binary)
	if c.Downloader.Binary == "" {
		c.Downloader.Binary = defaultDownloaderBinary
	}
	if c.Downloader.TimeoutSeconds <= 0 {
		c.Downloader.TimeoutSeconds = defaultDownloadTimeout
	}
	if c.Downloader.RequestsPerMinute <= 0 {
		c.Downloader.RequestsPerMinute = defaultDownloadRPM
	}
}

func (c *Config) normalizeTranslator() {
	if c.Translator.APIKey == "" {
		if value, ok := os.LookupEnv("YTSCRIBE_TRANSLATOR_API_KEY"); ok {
			c.Translator.APIKey = value
		}
	}
	c.Translator.APIKey = strings.TrimSpace(c.Translator.APIKey)
	c.Translator.BaseURL = strings.TrimRight(strings.TrimSpace(c.Translator.BaseURL), "/")
	if c.Translator.BaseURL == "" {
		c.Translator.BaseURL = defaultTranslatorBaseURL
	}
	c.Translator.Model = strings.TrimSpace(c.Translator.Model)
	if c.Translator.Model == "" {
		c.Translator.Model = defaultTranslatorModel
	}
	if c.Translator.TimeoutSeconds <= 0 {
		c.Translator.TimeoutSeconds = defaultTranslatorTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// normalizeLanguage validates a configured language value via the shared
// language package so config errors surface at load time, not mid-batch.
func normalizeLanguage(field, value string) (string, error) {
	normalized, err := language.Normalize(value)
	if err != nil {
		return "", fmt.Errorf("%s: %w", field, err)
	}
	return normalized, nil
}
