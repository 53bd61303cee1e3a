package config

import "time"

type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Shows     ShowsConfig
	Transport TransportConfig
	Session   SessionConfig
}

type ServerConfig struct {
	Address         string
	AdminPassword   string                `mapstructure:"adminPassword"`
	UploadLimit     int64                 `mapstructure:"uploadLimit"` // max show pack size in bytes
	ConnectionLimit ConnectionLimitConfig `mapstructure:"connectionLimit"`
}

type ConnectionLimitConfig struct {
	MaxPerIP int `mapstructure:"maxPerIP"`
}

type StorageConfig struct {
	Path string
}

type ShowsConfig struct {
	Dir string
}

type TransportConfig struct {
	ReadTimeout time.Duration `mapstructure:"readTimeout"`
}

type SessionConfig struct {
	KickDisconnectDelay time.Duration `mapstructure:"kickDisconnectDelay"`
	DefaultProposalCap  int           `mapstructure:"defaultProposalCap"`
	AdminTokenCap       int           `mapstructure:"adminTokenCap"`
}
