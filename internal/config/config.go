package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	SinkSQLite = "sqlite"
	SinkHTTP   = "http"
)

type Config struct {
	ListenAddr         string        `mapstructure:"listen_addr"`
	ClassifierURL      string        `mapstructure:"classifier_url"`
	ClassifyTimeout    time.Duration `mapstructure:"classify_timeout"`
	ClassifierRPS      float64       `mapstructure:"classifier_rps"`
	ClassifierBurst    int           `mapstructure:"classifier_burst"`
	CacheCapacity      int           `mapstructure:"cache_capacity"`
	Debounce           time.Duration `mapstructure:"debounce"`
	MinImageDimension  int           `mapstructure:"min_image_dimension"`
	MaxImageBytes      int64         `mapstructure:"max_image_bytes"`
	ResizeMaxDimension int           `mapstructure:"resize_max_dimension"`
	JPEGQuality        int           `mapstructure:"jpeg_quality"`
	FetchTimeout       time.Duration `mapstructure:"fetch_timeout"`
	DBPath             string        `mapstructure:"db_path"`
	FeedbackSink       string        `mapstructure:"feedback_sink"`
	FeedbackURL        string        `mapstructure:"feedback_url"`
	LogLevel           string        `mapstructure:"log_level"`
}

func DefaultConfig() *Config {
	return &Config{
		ListenAddr:         "127.0.0.1:8787",
		ClassifierURL:      "http://127.0.0.1:5000/predict",
		ClassifyTimeout:    10 * time.Second,
		ClassifierRPS:      5,
		ClassifierBurst:    2,
		CacheCapacity:      50,
		Debounce:           250 * time.Millisecond,
		MinImageDimension:  100,
		MaxImageBytes:      10 << 20,
		ResizeMaxDimension: 512,
		JPEGQuality:        85,
		FetchTimeout:       15 * time.Second,
		DBPath:             "./hoverlabel.db",
		FeedbackSink:       SinkSQLite,
		FeedbackURL:        "",
		LogLevel:           "info",
	}
}

// ConfigDir is where config.yaml is looked up besides the working directory.
func ConfigDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "hoverlabel")
}

// Load reads defaults, then the config file, then HOVERLABEL_* environment
// variables, then any flags already bound to v.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	cfg := DefaultConfig()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(ConfigDir())
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("HOVERLABEL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("listen_addr", cfg.ListenAddr)
	v.SetDefault("classifier_url", cfg.ClassifierURL)
	v.SetDefault("classify_timeout", cfg.ClassifyTimeout)
	v.SetDefault("classifier_rps", cfg.ClassifierRPS)
	v.SetDefault("classifier_burst", cfg.ClassifierBurst)
	v.SetDefault("cache_capacity", cfg.CacheCapacity)
	v.SetDefault("debounce", cfg.Debounce)
	v.SetDefault("min_image_dimension", cfg.MinImageDimension)
	v.SetDefault("max_image_bytes", cfg.MaxImageBytes)
	v.SetDefault("resize_max_dimension", cfg.ResizeMaxDimension)
	v.SetDefault("jpeg_quality", cfg.JPEGQuality)
	v.SetDefault("fetch_timeout", cfg.FetchTimeout)
	v.SetDefault("db_path", cfg.DBPath)
	v.SetDefault("feedback_sink", cfg.FeedbackSink)
	v.SetDefault("feedback_url", cfg.FeedbackURL)
	v.SetDefault("log_level", cfg.LogLevel)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.FeedbackSink {
	case SinkSQLite:
	case SinkHTTP:
		if c.FeedbackURL == "" {
			return fmt.Errorf("feedback_url is required when feedback_sink is %q", SinkHTTP)
		}
	default:
		return fmt.Errorf("unknown feedback_sink %q", c.FeedbackSink)
	}

	if c.CacheCapacity <= 0 {
		return fmt.Errorf("cache_capacity must be positive, got %d", c.CacheCapacity)
	}
	if c.ClassifyTimeout <= 0 {
		return fmt.Errorf("classify_timeout must be positive, got %s", c.ClassifyTimeout)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg_quality must be between 1 and 100, got %d", c.JPEGQuality)
	}
	return nil
}
