package global

import (
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full runtime configuration of the gateway node.
// Every field is read from the environment once at startup.
type Config struct {
	GatewayID  string `env:"SERMO_GATEWAY_ID"`
	ListenAddr string `env:"SERMO_LISTEN_ADDR" envDefault:":8085"`

	// HMAC secret shared with the auth service that issues tokens.
	JWTSecret string        `env:"SERMO_JWT_SECRET,required"`
	JWTTTL    time.Duration `env:"SERMO_JWT_TTL" envDefault:"2h"`

	RedisAddr     string `env:"SERMO_REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	RedisPassword string `env:"SERMO_REDIS_PASSWORD"`
	RedisDB       int    `env:"SERMO_REDIS_DB" envDefault:"0"`
	RedisPoolSize int    `env:"SERMO_REDIS_POOL_SIZE" envDefault:"16"`

	// Relational store for users/channels/messages.
	PostgresURL string `env:"SERMO_POSTGRES_URL,required"`

	// Optional: session connect/disconnect audit log. Empty disables it.
	MongoURI string `env:"SERMO_MONGO_URI"`
	MongoDB  string `env:"SERMO_MONGO_DB" envDefault:"sermo"`

	// Optional: cross-gateway broadcast relay. Empty disables it.
	NatsURL string `env:"SERMO_NATS_URL"`

	SendQueueSize  int `env:"SERMO_SEND_QUEUE_SIZE" envDefault:"256"`
	FanoutWorkers  int `env:"SERMO_FANOUT_WORKERS" envDefault:"4"`
	FanoutQueue    int `env:"SERMO_FANOUT_QUEUE" envDefault:"1024"`
	ReadLimitBytes int `env:"SERMO_READ_LIMIT_BYTES" envDefault:"65536"`
}

var (
	loadOnce sync.Once
	conf     *Config
)

// Load parses the environment into the process-wide Config (once).
func Load() (*Config, error) {
	var loadErr error
	loadOnce.Do(func() {
		c := &Config{}
		if err := env.Parse(c); err != nil {
			loadErr = err
			return
		}
		conf = c
	})
	if loadErr != nil {
		return nil, loadErr
	}
	return conf, nil
}

// GetConfig returns the loaded config; panics if Load was never called.
func GetConfig() *Config {
	if conf == nil {
		panic("config not loaded, call global.Load first")
	}
	return conf
}
