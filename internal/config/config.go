package config

import (
	"time"

	"github.com/Netflix/go-env"
)

// ServerConfig holds settings for the chat server runtime.
type ServerConfig struct {
	ListenAddr   string        `env:"NOWFIT_LISTEN_ADDR,default=:9000"`
	LogLevel     string        `env:"NOWFIT_LOG_LEVEL,default=info"`
	ReadTimeout  time.Duration `env:"NOWFIT_READ_TIMEOUT,default=60s"`
	WriteTimeout time.Duration `env:"NOWFIT_WRITE_TIMEOUT,default=10s"`
	StoreTimeout time.Duration `env:"NOWFIT_STORE_TIMEOUT,default=5s"`
	HistoryLimit int           `env:"NOWFIT_HISTORY_LIMIT,default=200"`

	Database DatabaseConfig
	JWT      JWTConfig
}

// ClientConfig holds settings for the terminal client.
type ClientConfig struct {
	ServerURL     string `env:"NOWFIT_SERVER_URL,default=http://localhost:9000"`
	CommandPrefix string `env:"NOWFIT_COMMAND_PREFIX,default=/"`
}

// DatabaseConfig captures storage configuration.
type DatabaseConfig struct {
	Path string `env:"NOWFIT_DB_PATH,default=nowfit-chat.db"`
}

// JWTConfig defines token issuance parameters.
type JWTConfig struct {
	Secret     string        `env:"NOWFIT_JWT_SECRET,default=replace-me"`
	Issuer     string        `env:"NOWFIT_JWT_ISSUER,default=nowfit-chat"`
	Expiration time.Duration `env:"NOWFIT_JWT_EXPIRATION,default=24h"`
}

// LoadServerConfig builds the server configuration from environment
// variables with sensible defaults.
func LoadServerConfig() (ServerConfig, error) {
	var cfg ServerConfig
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

// LoadClientConfig builds the client configuration from environment
// variables.
func LoadClientConfig() (ClientConfig, error) {
	var cfg ClientConfig
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return ClientConfig{}, err
	}
	if cfg.CommandPrefix == "" {
		cfg.CommandPrefix = "/"
	}
	return cfg, nil
}
