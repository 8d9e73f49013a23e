package flow_test

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/omni/interchain-tracker/config"
	"github.com/omni/interchain-tracker/contract/interchainabi"
	"github.com/omni/interchain-tracker/flow"
	"github.com/omni/interchain-tracker/ledger"
	"github.com/omni/interchain-tracker/logging"
	"github.com/omni/interchain-tracker/repository/memory"
)

var (
	testMessageID = common.HexToHash("0xabc0000000000000000000000000000000000000000000000000000000000001")
	testRouter    = common.HexToAddress("0x6A4E21A1C1Bb8C63D8a5f8b03cEbE45B8E4E2F9D")
	testToken     = common.HexToAddress("0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238")
	testSender    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
)

func bigInt(v int64) *big.Int {
	return big.NewInt(v)
}

func testChains() (*config.ChainConfig, *config.ChainConfig) {
	origin := &config.ChainConfig{
		Name:                    "sepolia",
		ChainID:                 1,
		DomainID:                1,
		Mailbox:                 common.HexToAddress("0xfFAEF09B3cd11D9b20d1a19bECca54EEC2884766"),
		InterchainAccountRouter: common.HexToAddress("0x8e131c8aE5BF1Ed38D05a00892b6001a7d37739d"),
	}
	destination := &config.ChainConfig{
		Name:     "fuji",
		ChainID:  2,
		DomainID: 2,
		Mailbox:  common.HexToAddress("0x5b6CFf85442B851A8e6eaBd2A4E4507B5135B3B0"),
	}
	return origin, destination
}

func testTokenConfig(origin *config.ChainConfig) *config.TokenConfig {
	return &config.TokenConfig{
		ID:           "x-sepolia",
		Symbol:       "X",
		ChainName:    origin.Name,
		Chain:        origin,
		Standard:     config.TokenStandardCollateral,
		Address:      testToken,
		Router:       testRouter,
		Decimals:     0,
		Destinations: []string{"fuji"},
	}
}

func newTestLedger() *ledger.Ledger {
	return ledger.New(logging.Discard(), memory.NewKeyValueStore(), &config.LedgerConfig{
		Key:         "history",
		Retention:   50,
		SaveTimeout: time.Second,
	})
}

type fakeQuotes struct {
	quote *flow.Quote
}

func (q *fakeQuotes) GetQuote(context.Context, *flow.Route, *big.Int) (*flow.Quote, error) {
	return q.quote, nil
}

func (q *fakeQuotes) QuoteDispatch(context.Context, *config.ChainConfig, *config.ChainConfig, common.Address, []byte) (*big.Int, error) {
	return bigInt(7), nil
}

func (q *fakeQuotes) QuoteRemoteCall(context.Context, *config.ChainConfig, *config.ChainConfig) (*big.Int, error) {
	return bigInt(9), nil
}

type fakeAllowances struct {
	allowance *big.Int
}

func (a *fakeAllowances) Allowance(context.Context, uint64, common.Address, common.Address, common.Address) (*big.Int, error) {
	return a.allowance, nil
}

// fakeSubmitter mines every call instantly. Results are scripted per step.
type fakeSubmitter struct {
	mu        sync.Mutex
	calls     []*flow.CallRequest
	submitErr map[flow.StepID]error
	reverted  map[flow.StepID]bool
	logs      map[flow.StepID][]*types.Log
	steps     map[common.Hash]flow.StepID
}

func newFakeSubmitter() *fakeSubmitter {
	return &fakeSubmitter{
		submitErr: make(map[flow.StepID]error),
		reverted:  make(map[flow.StepID]bool),
		logs:      make(map[flow.StepID][]*types.Log),
		steps:     make(map[common.Hash]flow.StepID),
	}
}

func (s *fakeSubmitter) Submit(_ context.Context, call *flow.CallRequest) (common.Hash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
	if err := s.submitErr[call.Step]; err != nil {
		return common.Hash{}, err
	}
	hash := common.BigToHash(big.NewInt(int64(len(s.calls))))
	s.steps[hash] = call.Step
	return hash, nil
}

func (s *fakeSubmitter) AwaitReceipt(_ context.Context, _ uint64, txHash common.Hash) (*types.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	step := s.steps[txHash]
	status := types.ReceiptStatusSuccessful
	if s.reverted[step] {
		status = types.ReceiptStatusFailed
	}
	return &types.Receipt{
		Status: status,
		TxHash: txHash,
		Logs:   s.logs[step],
	}, nil
}

func (s *fakeSubmitter) Steps() []flow.StepID {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]flow.StepID, len(s.calls))
	for i, call := range s.calls {
		res[i] = call.Step
	}
	return res
}

func dispatchLogs(messageID common.Hash) []*types.Log {
	return []*types.Log{
		{
			Topics: []common.Hash{
				common.HexToHash("0x1111"),
				common.HexToHash("0x2222"),
				common.HexToHash("0x3333"),
			},
		},
		{
			Topics: []common.Hash{interchainabi.DispatchIDEventSignature, messageID},
		},
	}
}
