package config_test

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/omni/interchain-tracker/config"
)

const testCfg = `
mode: self-hosted
chains:
  sepolia:
    chain_id: 11155111
    rpc:
      host: https://sepolia.infura.io/v3/${INFURA_PROJECT_KEY}
      timeout: 20s
    mailbox: 0xfFAEF09B3cd11D9b20d1a19bECca54EEC2884766
    interchain_account_router: 0x8e131c8aE5BF1Ed38D05a00892b6001a7d37739d
    explorer_tx_url: https://sepolia.etherscan.io/tx/%s
  fuji:
    chain_id: 43113
    domain_id: 43113
    rpc:
      host: https://api.avax-test.network/ext/bc/C/rpc
    mailbox: 0x5b6CFf85442B851A8e6eaBd2A4E4507B5135B3B0
tokens:
  usdc-sepolia:
    symbol: USDC
    chain: sepolia
    address: 0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238
    router: 0x6A4E21A1C1Bb8C63D8a5f8b03cEbE45B8E4E2F9D
    decimals: 6
    destinations:
      - fuji
ledger:
  backend: memory
log_level: debug
presenter:
  host: 0.0.0.0:3333
`

//nolint:paralleltest
func TestReadConfigWithEnv(t *testing.T) {
	t.Setenv("INFURA_PROJECT_KEY", "12345678")
	cfg, err := config.ReadConfigWithEnv([]byte(testCfg))
	require.NoError(t, err)

	sepolia := &config.ChainConfig{
		Name:     "sepolia",
		ChainID:  11155111,
		DomainID: 11155111,
		RPC: &config.RPCConfig{
			Host:    "https://sepolia.infura.io/v3/12345678",
			Timeout: 20 * time.Second,
		},
		Mailbox:                 common.HexToAddress("0xfFAEF09B3cd11D9b20d1a19bECca54EEC2884766"),
		InterchainAccountRouter: common.HexToAddress("0x8e131c8aE5BF1Ed38D05a00892b6001a7d37739d"),
		ExplorerTxURL:           "https://sepolia.etherscan.io/tx/%s",
	}
	fuji := &config.ChainConfig{
		Name:     "fuji",
		ChainID:  43113,
		DomainID: 43113,
		RPC: &config.RPCConfig{
			Host:    "https://api.avax-test.network/ext/bc/C/rpc",
			Timeout: 30 * time.Second,
		},
		Mailbox: common.HexToAddress("0x5b6CFf85442B851A8e6eaBd2A4E4507B5135B3B0"),
	}
	require.Equal(t, &config.Config{
		Mode: config.ModeSelfHosted,
		Chains: map[string]*config.ChainConfig{
			"sepolia": sepolia,
			"fuji":    fuji,
		},
		Tokens: map[string]*config.TokenConfig{
			"usdc-sepolia": {
				ID:           "usdc-sepolia",
				Symbol:       "USDC",
				ChainName:    "sepolia",
				Chain:        sepolia,
				Standard:     config.TokenStandardCollateral,
				Address:      common.HexToAddress("0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238"),
				Router:       common.HexToAddress("0x6A4E21A1C1Bb8C63D8a5f8b03cEbE45B8E4E2F9D"),
				Decimals:     6,
				Destinations: []string{"fuji"},
			},
		},
		Explorer: &config.ExplorerConfig{
			URL:     "https://explorer.hyperlane.xyz/api",
			Timeout: 10 * time.Second,
			RPS:     5,
		},
		Reconciler: &config.ReconcilerConfig{
			Interval: 3 * time.Second,
		},
		Ledger: &config.LedgerConfig{
			Backend:     config.LedgerBackendMemory,
			Key:         "interchain-tracker:history",
			Retention:   50,
			SaveTimeout: 5 * time.Second,
		},
		LogLevel: logrus.DebugLevel,
		Presenter: &config.PresenterConfig{
			Host: "0.0.0.0:3333",
		},
	}, cfg)
}

func TestConfig_GetChainConfig(t *testing.T) {
	t.Parallel()
	cfg, err := config.ReadConfig([]byte(testCfg))
	require.NoError(t, err)

	require.Equal(t, "fuji", cfg.GetChainConfig(43113).Name)
	require.Nil(t, cfg.GetChainConfig(1))
	require.Equal(t, "sepolia", cfg.GetChainByDomain(11155111).Name)
	require.Nil(t, cfg.GetChainByDomain(1))
}

func TestTokenConfig_CanBridgeTo(t *testing.T) {
	t.Parallel()
	cfg, err := config.ReadConfig([]byte(testCfg))
	require.NoError(t, err)

	token := cfg.Tokens["usdc-sepolia"]
	require.True(t, token.CanBridgeTo("fuji"))
	require.False(t, token.CanBridgeTo("sepolia"))
	require.False(t, token.CanBridgeTo("mainnet"))
}

func TestReadConfig_Errors(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		Name  string
		Input string
		Err   error
	}{
		{
			Name:  "unknown mode",
			Input: "mode: centralized\n",
			Err:   config.ErrInvalidMode,
		},
		{
			Name:  "unknown token chain",
			Input: "tokens:\n  eth:\n    chain: mainnet\n",
			Err:   config.ErrUnknownChain,
		},
		{
			Name:  "postgres backend without postgres section",
			Input: "ledger:\n  backend: postgres\n",
			Err:   config.ErrInvalidBackend,
		},
		{
			Name:  "unsupported backend",
			Input: "ledger:\n  backend: sqlite\n",
			Err:   config.ErrInvalidBackend,
		},
	} {
		_, err := config.ReadConfig([]byte(test.Input))
		require.ErrorIs(t, err, test.Err, "Failed %s", test.Name)
	}
}

func TestReadConfig_UnknownField(t *testing.T) {
	t.Parallel()

	_, err := config.ReadConfig([]byte("unknown_field: 1\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "can't parse yaml")
}
