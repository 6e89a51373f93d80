// Package config loads taskplanner settings from defaults, an optional YAML
// file and TASKPLANNER_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Env     string        `mapstructure:"env" yaml:"env"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	SMTP    SMTPConfig    `mapstructure:"smtp" yaml:"smtp"`
	Remind  RemindConfig  `mapstructure:"remind" yaml:"remind"`
}

type StorageConfig struct {
	Backend            string        `mapstructure:"backend" yaml:"backend"`
	DSN                string        `mapstructure:"dsn" yaml:"dsn"`
	DataDir            string        `mapstructure:"data_dir" yaml:"data_dir"`
	MaxOpenConnections int           `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConnections int           `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	MaxIdleTime        time.Duration `mapstructure:"max_idle_time" yaml:"max_idle_time"`
}

type ServerConfig struct {
	Addr           string        `mapstructure:"addr" yaml:"addr"`
	JWTSecret      string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	TokenTTL       time.Duration `mapstructure:"token_ttl" yaml:"token_ttl"`
	TrustedOrigins []string      `mapstructure:"trusted_origins" yaml:"trusted_origins"`
	Limiter        LimiterConfig `mapstructure:"limiter" yaml:"limiter"`
}

type LimiterConfig struct {
	Enabled             bool    `mapstructure:"enabled" yaml:"enabled"`
	MaxRequestPerSecond float64 `mapstructure:"rps" yaml:"rps"`
	Burst               int     `mapstructure:"burst" yaml:"burst"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	Sender   string `mapstructure:"sender" yaml:"sender"`
}

type RemindConfig struct {
	Window time.Duration `mapstructure:"window" yaml:"window"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Env: "development",
		Storage: StorageConfig{
			Backend:            "sqlite",
			DataDir:            DefaultDataDir(),
			MaxOpenConnections: 25,
			MaxIdleConnections: 25,
			MaxIdleTime:        15 * time.Minute,
		},
		Server: ServerConfig{
			Addr:           "127.0.0.1:3000",
			TokenTTL:       24 * time.Hour,
			TrustedOrigins: []string{"http://localhost:3000", "http://127.0.0.1:3000"},
			Limiter: LimiterConfig{
				Enabled:             true,
				MaxRequestPerSecond: 4,
				Burst:               8,
			},
		},
		SMTP: SMTPConfig{
			Port:   25,
			Sender: "taskplanner <no-reply@localhost>",
		},
		Remind: RemindConfig{
			Window: 72 * time.Hour,
		},
	}
}

// DefaultDataDir is ~/.taskplanner, or .taskplanner when there is no home.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".taskplanner"
	}
	return filepath.Join(home, ".taskplanner")
}

// DefaultPath is the config file read when none is given.
func DefaultPath() string {
	return filepath.Join(DefaultDataDir(), "config.yaml")
}

// Load reads path over the defaults. A missing file is not an error; env
// variables such as TASKPLANNER_STORAGE_BACKEND override both.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TASKPLANNER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindDefaults(v, cfg)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bindDefaults registers every key so AutomaticEnv can override keys that the
// file does not mention.
func bindDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("env", cfg.Env)
	v.SetDefault("storage.backend", cfg.Storage.Backend)
	v.SetDefault("storage.dsn", cfg.Storage.DSN)
	v.SetDefault("storage.data_dir", cfg.Storage.DataDir)
	v.SetDefault("storage.max_open_conns", cfg.Storage.MaxOpenConnections)
	v.SetDefault("storage.max_idle_conns", cfg.Storage.MaxIdleConnections)
	v.SetDefault("storage.max_idle_time", cfg.Storage.MaxIdleTime)
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.jwt_secret", cfg.Server.JWTSecret)
	v.SetDefault("server.token_ttl", cfg.Server.TokenTTL)
	v.SetDefault("server.trusted_origins", cfg.Server.TrustedOrigins)
	v.SetDefault("server.limiter.enabled", cfg.Server.Limiter.Enabled)
	v.SetDefault("server.limiter.rps", cfg.Server.Limiter.MaxRequestPerSecond)
	v.SetDefault("server.limiter.burst", cfg.Server.Limiter.Burst)
	v.SetDefault("smtp.host", cfg.SMTP.Host)
	v.SetDefault("smtp.port", cfg.SMTP.Port)
	v.SetDefault("smtp.username", cfg.SMTP.Username)
	v.SetDefault("smtp.password", cfg.SMTP.Password)
	v.SetDefault("smtp.sender", cfg.SMTP.Sender)
	v.SetDefault("remind.window", cfg.Remind.Window)
}

// WriteDefault writes the default configuration to path as YAML.
func WriteDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
