package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// RELAY_URL targets a running relay, e.g. http://localhost:8080.
	// When empty the suites start an in-process relay.
	RelayURL string `envconfig:"RELAY_URL"`
	// RELAY_GRPC_ADDR is the health endpoint of the running relay.
	GRPCAddr         string `envconfig:"RELAY_GRPC_ADDR"`
	VerificationCode string `envconfig:"VERIFICATION_CODE" default:"22222"`
	// E2E_DEBUG_JSON dumps every HTTP body and websocket frame
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
