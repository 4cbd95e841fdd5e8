// Package config loads settings for the htmlpdf binaries.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	htmlpdf "github.com/porticus-lab/go-native-html-pdf"
	"github.com/porticus-lab/go-native-html-pdf/internal/logging"
)

// EnvPrefix prefixes every environment variable, e.g. HTMLPDF_CHROME_PATH.
const EnvPrefix = "HTMLPDF"

// Config holds all binary configuration.
type Config struct {
	Chrome     ChromeConfig
	Conversion ConversionConfig
	Log        logging.Config
	Server     ServerConfig
}

// ChromeConfig selects and launches the browser.
type ChromeConfig struct {
	Path         string
	RemoteURL    string
	NoSandbox    bool
	AutoDownload bool
}

// ConversionConfig tunes the conversion state machine.
type ConversionConfig struct {
	Timeout      time.Duration
	AssetTimeout time.Duration
	SettleDelay  time.Duration
	FilesDir     string
	CacheDir     string
}

// ServerConfig configures the HTTP bridge.
type ServerConfig struct {
	Addr         string
	MaxBodyBytes int64
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"chrome-path":    "chrome.path",
	"remote-url":     "chrome.remote_url",
	"no-sandbox":     "chrome.no_sandbox",
	"auto-download":  "chrome.auto_download",
	"timeout":        "conversion.timeout",
	"asset-timeout":  "conversion.asset_timeout",
	"settle-delay":   "conversion.settle_delay",
	"files-dir":      "conversion.files_dir",
	"cache-dir":      "conversion.cache_dir",
	"log-level":      "log.level",
	"log-format":     "log.format",
	"log-output":     "log.output",
	"addr":           "server.addr",
	"max-body-bytes": "server.max_body_bytes",
}

// Load reads configuration.
//
// Priority (highest to lowest):
//  1. Flags set on the command line
//  2. Environment variables with the HTMLPDF_ prefix
//  3. The config file: path when given, otherwise htmlpdf.yaml in the
//     working directory or the user config directory
//  4. Built-in defaults
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("htmlpdf")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "htmlpdf"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("config: binding flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{
		Chrome: ChromeConfig{
			Path:         v.GetString("chrome.path"),
			RemoteURL:    v.GetString("chrome.remote_url"),
			NoSandbox:    v.GetBool("chrome.no_sandbox"),
			AutoDownload: v.GetBool("chrome.auto_download"),
		},
		Conversion: ConversionConfig{
			Timeout:      v.GetDuration("conversion.timeout"),
			AssetTimeout: v.GetDuration("conversion.asset_timeout"),
			SettleDelay:  v.GetDuration("conversion.settle_delay"),
			FilesDir:     v.GetString("conversion.files_dir"),
			CacheDir:     v.GetString("conversion.cache_dir"),
		},
		Log: logging.Config{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Server: ServerConfig{
			Addr:         v.GetString("server.addr"),
			MaxBodyBytes: v.GetInt64("server.max_body_bytes"),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("chrome.path", "")
	v.SetDefault("chrome.remote_url", "")
	v.SetDefault("chrome.no_sandbox", false)
	v.SetDefault("chrome.auto_download", false)
	v.SetDefault("conversion.timeout", 30*time.Second)
	v.SetDefault("conversion.asset_timeout", 10*time.Second)
	v.SetDefault("conversion.settle_delay", 300*time.Millisecond)
	v.SetDefault("conversion.files_dir", "")
	v.SetDefault("conversion.cache_dir", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stderr")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.max_body_bytes", int64(10<<20))
}

func (c *Config) validate() error {
	if c.Conversion.SettleDelay < 0 {
		return fmt.Errorf("config: conversion.settle_delay cannot be negative")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("config: server.max_body_bytes must be positive")
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("config: unknown log.format %q", c.Log.Format)
	}
	return nil
}

// ConverterOptions translates the configuration into converter options.
func (c *Config) ConverterOptions(log *zap.Logger) []htmlpdf.Option {
	opts := []htmlpdf.Option{
		htmlpdf.WithLogger(log),
		htmlpdf.WithTimeout(c.Conversion.Timeout),
		htmlpdf.WithAssetTimeout(c.Conversion.AssetTimeout),
		htmlpdf.WithSettleDelay(c.Conversion.SettleDelay),
		htmlpdf.WithFilesDir(c.Conversion.FilesDir),
		htmlpdf.WithCacheDir(c.Conversion.CacheDir),
		htmlpdf.WithChromePath(c.Chrome.Path),
		htmlpdf.WithRemoteURL(c.Chrome.RemoteURL),
	}
	if c.Chrome.NoSandbox {
		opts = append(opts, htmlpdf.WithNoSandbox())
	}
	if c.Chrome.AutoDownload {
		opts = append(opts, htmlpdf.WithAutoDownload())
	}
	return opts
}
