package config

import "github.com/kelseyhightower/envconfig"

type App struct {
	Port        string   `envconfig:"PORT" default:"8080"`
	DatabaseURL string   `envconfig:"DATABASE_URL" required:"true"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:5173,http://127.0.0.1:5173"`

	// Event sink; publishing is disabled when AMQPURL is empty.
	AMQPURL       string `envconfig:"AMQP_URL"`
	EventExchange string `envconfig:"EVENT_EXCHANGE" default:"stayhub.events"`

	// Revenue split.
	PlatformFeeBps int64  `envconfig:"PLATFORM_FEE_BPS" default:"250"`
	FeeAccount     string `envconfig:"FEE_ACCOUNT" default:"platform"`
	EscrowAccount  string `envconfig:"ESCROW_ACCOUNT" default:"escrow"`
	DustPolicy     string `envconfig:"DUST_POLICY" default:"fee_recipient"`

	// Identity allowed to unlink any device.
	AdminIdentity string `envconfig:"ADMIN_IDENTITY" default:"admin"`
}

func Load() (App, error) {
	var c App
	err := envconfig.Process("", &c)
	return c, err
}
