package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

var (
	ErrUnknownChain   = errors.New("unknown chain")
	ErrInvalidMode    = errors.New("invalid reconciliation mode")
	ErrInvalidBackend = errors.New("invalid ledger backend")
	ErrInvalidToken   = errors.New("invalid token config")
)

type Mode string

const (
	ModeHosted     Mode = "hosted"
	ModeSelfHosted Mode = "self-hosted"
)

type LedgerBackend string

const (
	LedgerBackendMemory   LedgerBackend = "memory"
	LedgerBackendFile     LedgerBackend = "file"
	LedgerBackendPostgres LedgerBackend = "postgres"
	LedgerBackendRedis    LedgerBackend = "redis"
)

type TokenStandard string

const (
	TokenStandardNative     TokenStandard = "native"
	TokenStandardCollateral TokenStandard = "collateral"
	TokenStandardSynthetic  TokenStandard = "synthetic"
)

const (
	defaultExplorerURL        = "https://explorer.hyperlane.xyz/api"
	defaultExplorerTimeout    = 10 * time.Second
	defaultExplorerRPS        = 5
	defaultReconcilerInterval = 3 * time.Second
	defaultLedgerKey          = "interchain-tracker:history"
	defaultLedgerPath         = "data"
	defaultLedgerRetention    = 50
	defaultLedgerSaveTimeout  = 5 * time.Second
	defaultRPCTimeout         = 30 * time.Second
)

type RPCConfig struct {
	Host    string        `yaml:"host"`
	Timeout time.Duration `yaml:"timeout"`
}

type ChainConfig struct {
	Name                    string         `yaml:"-"`
	ChainID                 uint64         `yaml:"chain_id"`
	DomainID                uint32         `yaml:"domain_id"`
	RPC                     *RPCConfig     `yaml:"rpc"`
	Mailbox                 common.Address `yaml:"mailbox"`
	InterchainAccountRouter common.Address `yaml:"interchain_account_router"`
	ExplorerTxURL           string         `yaml:"explorer_tx_url"`
}

type TokenConfig struct {
	ID           string         `yaml:"-"`
	Symbol       string         `yaml:"symbol"`
	ChainName    string         `yaml:"chain"`
	Chain        *ChainConfig   `yaml:"-"`
	Standard     TokenStandard  `yaml:"standard"`
	Address      common.Address `yaml:"address"`
	Router       common.Address `yaml:"router"`
	Decimals     uint8          `yaml:"decimals"`
	Destinations []string       `yaml:"destinations"`
}

type ExplorerConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
	RPS     float64       `yaml:"rps"`
}

type ReconcilerConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type LedgerConfig struct {
	Backend     LedgerBackend `yaml:"backend"`
	Key         string        `yaml:"key"`
	Path        string        `yaml:"path"`
	Retention   int           `yaml:"retention"`
	SaveTimeout time.Duration `yaml:"save_timeout"`
}

type DBConfig struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	DB       string `yaml:"database"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

type PresenterConfig struct {
	Host string `yaml:"host"`
}

type Config struct {
	Mode        Mode                    `yaml:"mode"`
	Chains      map[string]*ChainConfig `yaml:"chains"`
	Tokens      map[string]*TokenConfig `yaml:"tokens"`
	Explorer    *ExplorerConfig         `yaml:"explorer"`
	Reconciler  *ReconcilerConfig       `yaml:"reconciler"`
	Ledger      *LedgerConfig           `yaml:"ledger"`
	DBConfig    *DBConfig               `yaml:"postgres"`
	Redis       *RedisConfig            `yaml:"redis"`
	LogLevel    logrus.Level            `yaml:"log_level"`
	Presenter   *PresenterConfig        `yaml:"presenter"`
	MetricsHost string                  `yaml:"metrics_host"`
}

// GetChainConfig looks a chain up by its numeric chain id.
func (cfg *Config) GetChainConfig(chainID uint64) *ChainConfig {
	for _, chain := range cfg.Chains {
		if chain.ChainID == chainID {
			return chain
		}
	}
	return nil
}

// GetChainByDomain looks a chain up by its messaging domain id.
func (cfg *Config) GetChainByDomain(domainID uint32) *ChainConfig {
	for _, chain := range cfg.Chains {
		if chain.DomainID == domainID {
			return chain
		}
	}
	return nil
}

func (cfg *TokenConfig) CanBridgeTo(chainName string) bool {
	for _, dest := range cfg.Destinations {
		if dest == chainName {
			return true
		}
	}
	return false
}

func readYamlConfig(blob []byte) (*Config, error) {
	cfg := new(Config)
	if err := parseYaml(cfg, blob); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) init() error {
	switch cfg.Mode {
	case "":
		cfg.Mode = ModeHosted
	case ModeHosted, ModeSelfHosted:
	default:
		return fmt.Errorf("mode %q: %w", cfg.Mode, ErrInvalidMode)
	}
	for name, chain := range cfg.Chains {
		chain.Name = name
		if chain.DomainID == 0 {
			chain.DomainID = uint32(chain.ChainID)
		}
		if chain.RPC != nil && chain.RPC.Timeout == 0 {
			chain.RPC.Timeout = defaultRPCTimeout
		}
	}
	for id, token := range cfg.Tokens {
		token.ID = id
		var ok bool
		token.Chain, ok = cfg.Chains[token.ChainName]
		if !ok {
			return fmt.Errorf("token %s references chain %s: %w", id, token.ChainName, ErrUnknownChain)
		}
		if token.Standard == "" {
			token.Standard = TokenStandardCollateral
		}
		for _, dest := range token.Destinations {
			if _, ok = cfg.Chains[dest]; !ok {
				return fmt.Errorf("token %s destination %s: %w", id, dest, ErrUnknownChain)
			}
			if dest == token.ChainName {
				return fmt.Errorf("token %s can't be bridged to its own chain: %w", id, ErrInvalidToken)
			}
		}
	}
	if cfg.Explorer == nil {
		cfg.Explorer = new(ExplorerConfig)
	}
	if cfg.Explorer.URL == "" {
		cfg.Explorer.URL = defaultExplorerURL
	}
	if cfg.Explorer.Timeout == 0 {
		cfg.Explorer.Timeout = defaultExplorerTimeout
	}
	if cfg.Explorer.RPS == 0 {
		cfg.Explorer.RPS = defaultExplorerRPS
	}
	if cfg.Reconciler == nil {
		cfg.Reconciler = new(ReconcilerConfig)
	}
	if cfg.Reconciler.Interval == 0 {
		cfg.Reconciler.Interval = defaultReconcilerInterval
	}
	if cfg.Ledger == nil {
		cfg.Ledger = new(LedgerConfig)
	}
	return cfg.Ledger.init(cfg)
}

func (cfg *LedgerConfig) init(parent *Config) error {
	if cfg.Key == "" {
		cfg.Key = defaultLedgerKey
	}
	if cfg.Retention == 0 {
		cfg.Retention = defaultLedgerRetention
	}
	if cfg.SaveTimeout == 0 {
		cfg.SaveTimeout = defaultLedgerSaveTimeout
	}
	switch cfg.Backend {
	case "":
		cfg.Backend = LedgerBackendFile
		fallthrough
	case LedgerBackendFile:
		if cfg.Path == "" {
			cfg.Path = defaultLedgerPath
		}
	case LedgerBackendMemory:
	case LedgerBackendPostgres:
		if parent.DBConfig == nil {
			return fmt.Errorf("postgres backend requires postgres section: %w", ErrInvalidBackend)
		}
	case LedgerBackendRedis:
		if parent.Redis == nil {
			return fmt.Errorf("redis backend requires redis section: %w", ErrInvalidBackend)
		}
	default:
		return fmt.Errorf("backend %q: %w", cfg.Backend, ErrInvalidBackend)
	}
	return nil
}

func ReadConfig(blob []byte) (*Config, error) {
	cfg, err := readYamlConfig(blob)
	if err != nil {
		return nil, err
	}
	if err = cfg.init(); err != nil {
		return nil, fmt.Errorf("can't initialize config: %w", err)
	}
	return cfg, nil
}

func ReadConfigWithEnv(blob []byte) (*Config, error) {
	return ReadConfig([]byte(os.ExpandEnv(string(blob))))
}

func ReadConfigFromFile(path string) (*Config, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("can't read config file: %w", err)
	}
	return ReadConfigWithEnv(blob)
}
