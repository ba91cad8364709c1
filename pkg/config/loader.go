package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/app/configs")

	viper.SetEnvPrefix("EMU")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Allow common env vars without EMU_ prefix for Docker/VM deploys
	viper.BindEnv("http.port", "HTTP_PORT", "EMU_HTTP_PORT")
	viper.BindEnv("nats.url", "NATS_URL", "EMU_NATS_URL")
	viper.BindEnv("rabbitmq.url", "RABBITMQ_URL", "EMU_RABBITMQ_URL")
	viper.BindEnv("app.environment", "EMU_ENVIRONMENT")
	viper.BindEnv("logging.level", "LOG_LEVEL")

	viper.SetDefault("app.name", "sigec-emu")
	viper.SetDefault("http.port", 8080)
	viper.SetDefault("telemetry.subject_prefix", "telemetry")
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// no config file: env vars and defaults only
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
