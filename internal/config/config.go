package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Weather  WeatherConfig  `mapstructure:"weather"`
	LogLevel string         `mapstructure:"log_level"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	CORSOrigins string `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`
}

// TelegramConfig holds what the init-data check needs: the bot secret
// token and the replay window applied to auth_date.
type TelegramConfig struct {
	BotToken       string `mapstructure:"bot_token"`
	AuthWindowSecs int    `mapstructure:"auth_window_secs"`
}

func (c TelegramConfig) AuthWindow() time.Duration {
	return time.Duration(c.AuthWindowSecs) * time.Second
}

type LLMConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float32 `mapstructure:"temperature"`
	TimeoutSecs int     `mapstructure:"timeout_secs"`
	// WeatherTool toggles the tool-calling pipeline. When false the model
	// is invoked as a plain completion with no tool declarations.
	WeatherTool bool `mapstructure:"weather_tool"`
}

func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

type WeatherConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	// RatePerMinute bounds outbound lookups so a chatty model cannot
	// burn through the provider quota.
	RatePerMinute int `mapstructure:"rate_per_minute"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.cors_origins", "https://web.telegram.org")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "vulval")
	viper.SetDefault("database.database", "vulval")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("telegram.auth_window_secs", 3600)
	viper.SetDefault("llm.base_url", "https://openrouter.ai/api/v1")
	viper.SetDefault("llm.model", "openai/gpt-4o-mini")
	viper.SetDefault("llm.max_tokens", 1000)
	viper.SetDefault("llm.temperature", 0.3)
	viper.SetDefault("llm.timeout_secs", 60)
	viper.SetDefault("llm.weather_tool", true)
	viper.SetDefault("weather.base_url", "http://api.weatherapi.com/v1")
	viper.SetDefault("weather.rate_per_minute", 30)
	viper.SetDefault("log_level", "info")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// No config file is fine, secrets come from the environment.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	loadEnvOverrides(&cfg)

	return &cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.Telegram.BotToken == "" {
		return errors.New("telegram bot token is required (BOT_TOKEN)")
	}
	if c.LLM.APIKey == "" {
		return errors.New("LLM API key is required (OPENROUTER_API_KEY)")
	}
	if c.Telegram.AuthWindowSecs <= 0 {
		return errors.New("telegram auth window must be positive")
	}
	return nil
}

func loadEnvOverrides(cfg *Config) {
	if port := os.Getenv("VULVAL_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if host := os.Getenv("VULVAL_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if origins := os.Getenv("VULVAL_CORS_ORIGINS"); origins != "" {
		cfg.Server.CORSOrigins = origins
	}

	if dbHost := os.Getenv("POSTGRES_HOST"); dbHost != "" {
		cfg.Database.Host = dbHost
	}
	if dbPort := os.Getenv("POSTGRES_PORT"); dbPort != "" {
		if p, err := strconv.Atoi(dbPort); err == nil {
			cfg.Database.Port = p
		}
	}
	if dbUser := os.Getenv("POSTGRES_USER"); dbUser != "" {
		cfg.Database.User = dbUser
	}
	if dbPass := os.Getenv("POSTGRES_PASSWORD"); dbPass != "" {
		cfg.Database.Password = dbPass
	}
	if dbName := os.Getenv("POSTGRES_DB"); dbName != "" {
		cfg.Database.Database = dbName
	}

	if token := os.Getenv("BOT_TOKEN"); token != "" {
		cfg.Telegram.BotToken = token
	}
	if window := os.Getenv("VALID_AUTH_DATE_WINDOW_SECONDS"); window != "" {
		if w, err := strconv.Atoi(window); err == nil {
			cfg.Telegram.AuthWindowSecs = w
		}
	}

	if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	}
	if model := os.Getenv("VULVAL_LLM_MODEL"); model != "" {
		cfg.LLM.Model = model
	}
	if key := os.Getenv("WEATHER_API"); key != "" {
		cfg.Weather.APIKey = key
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
}
