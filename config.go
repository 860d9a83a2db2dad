package donation

import (
	"os"
	"time"
)

// Config holds the process-wide, read-only service configuration. It is
// loaded once at startup; the network profile table lives separately in
// networks.go and is compiled in.
type Config struct {
	// FacilitatorURL is the base URL of the facilitator service. Empty
	// means the facilitator client's default.
	FacilitatorURL string

	// FacilitatorAPIKey, when set, is sent as X-API-KEY on every
	// facilitator call.
	FacilitatorAPIKey string

	// ListenAddr is the HTTP listen address of the donation server.
	ListenAddr string

	// SettlementTTL is how long settled payment proofs are remembered
	// for deduplication. Zero disables the dedupe cache.
	SettlementTTL time.Duration
}

// ConfigFromEnv reads configuration from the environment.
//
//	FACILITATOR_URL       facilitator base URL
//	FACILITATOR_API_KEY   optional facilitator API key
//	LISTEN_ADDR           listen address, default ":8080"
//	SETTLEMENT_CACHE_TTL  Go duration, default "10m", "0" to disable
func ConfigFromEnv() Config {
	cfg := Config{
		FacilitatorURL:    os.Getenv("FACILITATOR_URL"),
		FacilitatorAPIKey: os.Getenv("FACILITATOR_API_KEY"),
		ListenAddr:        ":8080",
		SettlementTTL:     10 * time.Minute,
	}

	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		cfg.ListenAddr = addr
	}
	if ttl := os.Getenv("SETTLEMENT_CACHE_TTL"); ttl != "" {
		if parsed, err := time.ParseDuration(ttl); err == nil {
			cfg.SettlementTTL = parsed
		}
	}

	return cfg
}
