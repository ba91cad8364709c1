package config

import "time"

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	NATS      NATSConfig      `mapstructure:"nats"`
	RabbitMQ  RabbitMQConfig  `mapstructure:"rabbitmq"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Devices   DevicesConfig   `mapstructure:"devices"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type NATSConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

type RabbitMQConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// TelemetryConfig controls how emulator payloads leave the process.
type TelemetryConfig struct {
	SubjectPrefix string `mapstructure:"subject_prefix"`
	Stdout        bool   `mapstructure:"stdout"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DevicesConfig declares the emulated fleet. Each entry becomes one
// emulator instance at startup.
type DevicesConfig struct {
	Chargers  []ChargerDeviceConfig  `mapstructure:"chargers"`
	Inverters []InverterDeviceConfig `mapstructure:"inverters"`
}

type ChargerDeviceConfig struct {
	ID           string        `mapstructure:"id"`
	Model        string        `mapstructure:"model"`
	Vendor       string        `mapstructure:"vendor"`
	Connectors   int           `mapstructure:"connectors"`
	MaxPowerW    float64       `mapstructure:"max_power_w"`
	TickInterval time.Duration `mapstructure:"tick_interval"`
	StartTime    string        `mapstructure:"start_time"` // RFC 3339; empty = now
	Fault        FaultConfig   `mapstructure:"fault"`
	Seed         int64         `mapstructure:"seed"`
}

type InverterDeviceConfig struct {
	ID           string        `mapstructure:"id"`
	Latitude     float64       `mapstructure:"latitude"`
	Longitude    float64       `mapstructure:"longitude"`
	Timezone     string        `mapstructure:"timezone"`
	PeakOutputW  float64       `mapstructure:"peak_output_w"`
	Mode         string        `mapstructure:"mode"` // "inverter" or "gridPower"
	TickInterval time.Duration `mapstructure:"tick_interval"`
	StartTime    string        `mapstructure:"start_time"` // RFC 3339; empty = now
	Fault        FaultConfig   `mapstructure:"fault"`
	Seed         int64         `mapstructure:"seed"`
}

type FaultConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MeanInterval time.Duration `mapstructure:"mean_interval"`
	MinDuration  time.Duration `mapstructure:"min_duration"`
	MaxDuration  time.Duration `mapstructure:"max_duration"`
}
