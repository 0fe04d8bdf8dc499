package internal

import (
	"fmt"
	"time"
)

// Config holds the relay server's environment.
type Config struct {
	Host string `env:"HOST,default=0.0.0.0"`
	Port int    `env:"PORT,default=8080"`

	LogLevel string `env:"LOG_LEVEL,required=true"`

	JWTSecret         string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=720h"`
	SecureCookies     bool          `env:"SECURE_COOKIES,default=false"`

	SweepInterval time.Duration `env:"SWEEP_INTERVAL,default=30s"`

	SeedAccounts bool `env:"SEED_DEMO_ACCOUNTS,default=false"`
}

func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
