package config

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from a file and environment variables.
func Load(logger *slog.Logger, fileName string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.address", ":3000")
	v.SetDefault("server.adminPassword", "")
	v.SetDefault("server.uploadLimit", 32<<20)
	v.SetDefault("server.connectionLimit.maxPerIP", 10)
	v.SetDefault("storage.path", "openimpro.db")
	v.SetDefault("shows.dir", "shows")
	v.SetDefault("transport.readTimeout", "60s")
	v.SetDefault("session.kickDisconnectDelay", "500ms")
	v.SetDefault("session.defaultProposalCap", 5)
	v.SetDefault("session.adminTokenCap", 50)

	v.SetConfigName(fileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("OPENIMPRO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		logger.Warn("Config file not found, relying on defaults/env vars")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Server.AdminPassword == "" {
		return nil, errors.New("server.adminPassword must be set (OPENIMPRO_SERVER_ADMINPASSWORD)")
	}

	return &cfg, nil
}
