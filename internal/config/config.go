package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds every runtime setting for the API. Values come from an
// optional config.yaml, MOVIEREC_* environment variables, and the defaults
// below, in that order of precedence. Duration-valued settings are kept as
// Go duration strings ("15m", "10s") and parsed where they are used.
type Config struct {
	Port     int    `mapstructure:"port"`
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`

	DB struct {
		DSN          string `mapstructure:"dsn"`
		MaxOpenConns int    `mapstructure:"max_open_conns"`
		MaxIdleConns int    `mapstructure:"max_idle_conns"`
		MaxIdleTime  string `mapstructure:"max_idle_time"`
	} `mapstructure:"db"`

	Limiter struct {
		RPS     float64 `mapstructure:"rps"`
		Burst   int     `mapstructure:"burst"`
		Enabled bool    `mapstructure:"enabled"`
	} `mapstructure:"limiter"`

	SMTP struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		Sender   string `mapstructure:"sender"`
	} `mapstructure:"smtp"`

	CORS struct {
		TrustedOrigins []string `mapstructure:"trusted_origins"`
	} `mapstructure:"cors"`

	// Cache configures the poster cache. Provider selects the backend by
	// name ("memory" or "redis"); the redis block is only consulted when
	// that provider is selected.
	Cache struct {
		Provider string `mapstructure:"provider"`
		Size     int    `mapstructure:"size"`
		TTL      string `mapstructure:"ttl"`

		Redis struct {
			Address  string `mapstructure:"address"`
			Password string `mapstructure:"password"`
			DB       int    `mapstructure:"db"`
		} `mapstructure:"redis"`
	} `mapstructure:"cache"`

	Poster struct {
		Timeout   string `mapstructure:"timeout"`
		MaxBytes  int64  `mapstructure:"max_bytes"`
		UserAgent string `mapstructure:"user_agent"`
	} `mapstructure:"poster"`

	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
		Port    int  `mapstructure:"port"`
	} `mapstructure:"metrics"`

	Sentry struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"sentry"`
}

// Load reads the configuration. A missing config file is fine (defaults and
// environment variables carry a full configuration); a malformed one is not.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// MOVIEREC_DB_DSN overrides db.dsn, and so on.
	v.AutomaticEnv()
	v.SetEnvPrefix("MOVIEREC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults registers a default for every key. Besides documenting the
// full key set in one place, this is what lets AutomaticEnv pick the keys
// up from the environment when no config file is present.
func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 4000)
	v.SetDefault("env", "development")
	v.SetDefault("log_level", "info")

	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 25)
	v.SetDefault("db.max_idle_time", "15m")

	v.SetDefault("limiter.rps", 2)
	v.SetDefault("limiter.burst", 4)
	v.SetDefault("limiter.enabled", true)

	v.SetDefault("smtp.host", "sandbox.smtp.mailtrap.io")
	v.SetDefault("smtp.port", 25)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.sender", "MovieRecommender <no-reply@movierecommender.example>")

	v.SetDefault("cors.trusted_origins", []string{})

	v.SetDefault("cache.provider", "memory")
	v.SetDefault("cache.size", 256)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.redis.address", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)

	v.SetDefault("poster.timeout", "10s")
	v.SetDefault("poster.max_bytes", 5<<20)
	v.SetDefault("poster.user_agent", "MovieRecommender/1.0")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 9090)

	v.SetDefault("sentry.dsn", "")
}
