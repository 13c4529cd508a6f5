// Package config loads the application settings from defaults, an optional
// config file, a .env file and BLOG_* environment variables.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Addr      string `mapstructure:"addr"`
	Debug     bool   `mapstructure:"debug"`
	PublicURL string `mapstructure:"public_url"`

	Database struct {
		Driver string `mapstructure:"driver"`
		DSN    string `mapstructure:"dsn"`
	} `mapstructure:"database"`

	Uploads struct {
		Dir      string `mapstructure:"dir"`
		MaxBytes int64  `mapstructure:"max_bytes"`
	} `mapstructure:"uploads"`

	Translate struct {
		URL           string        `mapstructure:"url"`
		APIKey        string        `mapstructure:"api_key"`
		Timeout       time.Duration `mapstructure:"timeout"`
		RatePerSecond float64       `mapstructure:"rate_per_second"`
	} `mapstructure:"translate"`

	Worker struct {
		PollInterval time.Duration `mapstructure:"poll_interval"`
		BatchSize    int           `mapstructure:"batch_size"`
		MaxAttempts  int           `mapstructure:"max_attempts"`
		RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	} `mapstructure:"worker"`

	Session struct {
		Secret string `mapstructure:"secret"`
		Secure bool   `mapstructure:"secure"`
	} `mapstructure:"session"`

	HTTP struct {
		RateLimitPerMinute int `mapstructure:"rate_limit_per_minute"`
	} `mapstructure:"http"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":6835")
	v.SetDefault("debug", false)
	v.SetDefault("public_url", "http://localhost:6835")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "blog.db")

	v.SetDefault("uploads.dir", "uploads")
	v.SetDefault("uploads.max_bytes", 10<<20)

	v.SetDefault("translate.url", "http://localhost:5000")
	v.SetDefault("translate.api_key", "")
	v.SetDefault("translate.timeout", 10*time.Second)
	v.SetDefault("translate.rate_per_second", 5.0)

	v.SetDefault("worker.poll_interval", 2*time.Second)
	v.SetDefault("worker.batch_size", 20)
	v.SetDefault("worker.max_attempts", 5)
	v.SetDefault("worker.retry_backoff", 5*time.Second)

	v.SetDefault("session.secret", "")
	v.SetDefault("session.secure", false)

	v.SetDefault("http.rate_limit_per_minute", 100)
}

// Flags registers the command line flags understood by Load.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("blog", pflag.ContinueOnError)
	fs.String("config", "", "path to a config file (yaml, toml or json)")
	fs.String("addr", "", "listen address, overrides the config file")
	fs.Bool("debug", false, "verbose SQL logging")
	return fs
}

// Load reads the configuration. fs may be nil; otherwise it must come from Flags
// and already be parsed.
func Load(fs *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("BLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if path, _ := fs.GetString("config"); path != "" {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("reading config file %s: %w", path, err)
			}
		}
		if f := fs.Lookup("addr"); f != nil && f.Changed {
			_ = v.BindPFlag("addr", f)
		}
		if f := fs.Lookup("debug"); f != nil && f.Changed {
			_ = v.BindPFlag("debug", f)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if cfg.Session.Secret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		log.Println("session.secret not set, sessions will not survive a restart")
		cfg.Session.Secret = secret
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "sqlite", "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	if c.Worker.MaxAttempts < 1 {
		return fmt.Errorf("worker.max_attempts must be at least 1")
	}
	if c.Worker.BatchSize < 1 {
		return fmt.Errorf("worker.batch_size must be at least 1")
	}
	return nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
