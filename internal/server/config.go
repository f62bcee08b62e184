package server

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	SchemaDir string `mapstructure:"schema_dir"`
	StorePath string `mapstructure:"store_path"`
	Debug     bool   `mapstructure:"debug"`
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadConfig reads server configuration from an optional config file plus
// FORMWELL_* environment variables. Flags set by the caller take precedence
// over both; pass them in via the returned struct.
func LoadConfig(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("host", "127.0.0.1")
	v.SetDefault("port", 8080)
	v.SetDefault("schema_dir", "schemas")
	v.SetDefault("store_path", "")
	v.SetDefault("debug", false)

	v.SetEnvPrefix("FORMWELL")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}
