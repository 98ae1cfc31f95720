package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string
	HTTPPort     string
	PostgresDSN  string
	KafkaBrokers []string

	MinQuorumPct  uint64
	MinSupportPct uint64
	VoteDuration  time.Duration

	GovernanceAdmin   string
	EnableOutboxRelay bool
}

// Load reads process configuration from the environment. A zero minimum
// quorum is rejected here, before any proposal can be created against it.
func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "agora"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	minQuorum, err := envUint("GOV_MIN_QUORUM_PCT", 500_000)
	if err != nil {
		return Config{}, err
	}
	if minQuorum == 0 {
		return Config{}, fmt.Errorf("GOV_MIN_QUORUM_PCT must be greater than zero")
	}
	minSupport, err := envUint("GOV_MIN_SUPPORT_PCT", 500_000)
	if err != nil {
		return Config{}, err
	}
	voteDuration, err := envDuration("GOV_VOTE_DURATION", 72*time.Hour)
	if err != nil {
		return Config{}, err
	}

	return Config{
		ServiceName:  service,
		HTTPPort:     port,
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		KafkaBrokers: brokers,

		MinQuorumPct:  minQuorum,
		MinSupportPct: minSupport,
		VoteDuration:  voteDuration,

		GovernanceAdmin:   strings.TrimSpace(os.Getenv("GOV_ADMIN_ACTOR")),
		EnableOutboxRelay: envBool("ENABLE_OUTBOX_RELAY", true),
	}, nil
}

func envUint(name string, fallback uint64) (uint64, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an unsigned integer: %w", name, err)
	}
	return value, nil
}

func envDuration(name string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", name, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%s must be positive", name)
	}
	return value, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
