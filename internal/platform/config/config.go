package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"

	"docreg/internal/delegation/replay"
	pkgstrings "docreg/pkg/platform/strings"
)

// Replay guard modes.
const (
	ReplayNone   = "none"
	ReplayMemory = "memory"
	ReplayRedis  = "redis"
)

// Server captures process configuration.
type Server struct {
	Addr          string `env:"DOCREG_ADDR" envDefault:":8080"`
	LogLevel      string `env:"DOCREG_LOG_LEVEL" envDefault:"info"`
	LogFormat     string `env:"DOCREG_LOG_FORMAT" envDefault:"json"`
	JWTSigningKey string `env:"DOCREG_JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`

	Registry Registry
	Replay   Replay
	Redis    RedisConfig
	Postgres Postgres
	Kafka    Kafka
	Relay    Relay
}

// Registry describes the deployed document registry and its adapters.
type Registry struct {
	Admin          common.Address `env:"DOCREG_ADMIN_ADDRESS" envDefault:"0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"`
	Address        common.Address `env:"DOCREG_REGISTRY_ADDRESS" envDefault:"0x5FbDB2315678afecb367f032d93F642f64180aa3"`
	MetadataHandle common.Address `env:"DOCREG_METADATA_ADDRESS" envDefault:"0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"`
	NCAAddress     common.Address `env:"DOCREG_NCA_ADDRESS" envDefault:"0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0"`
	SAROAddress    common.Address `env:"DOCREG_SARO_ADDRESS" envDefault:"0xCf7Ed3AccA5a467e9e704C703E8D87F634fB0Fc9"`
	BaseURI        string         `env:"DOCREG_BASE_URI" envDefault:"ipfs://"`
	MaxBatch       uint64         `env:"DOCREG_MAX_BATCH" envDefault:"1000"`
	MinterList     string         `env:"DOCREG_MINTERS"`
}

// Minters returns the accounts granted MINTER_ROLE on the document registry
// and both adapters at startup.
func (r Registry) Minters() ([]common.Address, error) {
	var out []common.Address
	for _, raw := range pkgstrings.SplitList(r.MinterList) {
		if !common.IsHexAddress(raw) {
			return nil, fmt.Errorf("DOCREG_MINTERS: %q is not an address", raw)
		}
		out = append(out, common.HexToAddress(raw))
	}
	return out, nil
}

// Replay selects how delegation signatures are made single-use.
type Replay struct {
	Mode string        `env:"DOCREG_REPLAY_GUARD" envDefault:"none"`
	TTL  time.Duration `env:"DOCREG_REPLAY_TTL" envDefault:"720h"`
}

// RedisConfig configures the Redis pool. An empty URL disables Redis.
type RedisConfig struct {
	URL          string        `env:"DOCREG_REDIS_URL"`
	PoolSize     int           `env:"DOCREG_REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"DOCREG_REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"DOCREG_REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"DOCREG_REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"DOCREG_REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// Postgres configures the event store. An empty DSN disables it.
type Postgres struct {
	DSN string `env:"DOCREG_POSTGRES_DSN"`
}

// Kafka configures the event topic. No brokers disables it.
type Kafka struct {
	BrokerList string `env:"DOCREG_KAFKA_BROKERS"`
	Topic      string `env:"DOCREG_KAFKA_TOPIC" envDefault:"docreg.registry-events"`
}

// Brokers returns the distinct configured brokers.
func (k Kafka) Brokers() []string {
	return pkgstrings.SplitList(k.BrokerList)
}

// Relay configures journal draining.
type Relay struct {
	Interval  time.Duration `env:"DOCREG_RELAY_INTERVAL" envDefault:"1s"`
	BatchSize int           `env:"DOCREG_RELAY_BATCH" envDefault:"256"`
}

// FromEnv builds the Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Server) Validate() error {
	switch c.Replay.Mode {
	case ReplayNone, ReplayMemory:
	case ReplayRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("replay guard %q requires DOCREG_REDIS_URL", c.Replay.Mode)
		}
	default:
		return fmt.Errorf("unknown replay guard %q", c.Replay.Mode)
	}
	if c.Registry.MaxBatch == 0 {
		return fmt.Errorf("DOCREG_MAX_BATCH must be positive")
	}
	if c.Registry.Admin == (common.Address{}) {
		return fmt.Errorf("DOCREG_ADMIN_ADDRESS is required")
	}
	if _, err := c.Registry.Minters(); err != nil {
		return err
	}
	if c.JWTSigningKey == "" {
		return fmt.Errorf("DOCREG_JWT_SIGNING_KEY is required")
	}
	return nil
}

// GuardFor builds the configured guard. client may be nil unless the
// mode is ReplayRedis.
func (r Replay) GuardFor(client redis.Cmdable) replay.Guard {
	switch r.Mode {
	case ReplayMemory:
		return replay.NewMemory(r.TTL)
	case ReplayRedis:
		return replay.NewRedis(client, r.TTL)
	default:
		return replay.Noop{}
	}
}
