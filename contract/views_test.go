package contract_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/omni/interchain-tracker/contract"
	"github.com/omni/interchain-tracker/contract/interchainabi"
)

type fakeClient struct {
	output []byte
	err    error
	calls  []ethereum.CallMsg
}

func (c *fakeClient) ChainID() uint64 { return 1 }


func (c *fakeClient) TransactionReceiptByHash(context.Context, common.Hash) (*types.Receipt, error) {
	return nil, nil
}

func (c *fakeClient) CallContract(_ context.Context, msg ethereum.CallMsg) ([]byte, error) {
	c.calls = append(c.calls, msg)
	return c.output, c.err
}

func (c *fakeClient) Close() {}

func TestMailboxContract_Delivered(t *testing.T) {
	t.Parallel()

	out, err := interchainabi.MailboxABI.Methods["delivered"].Outputs.Pack(true)
	require.NoError(t, err)
	client := &fakeClient{output: out}
	mailbox := contract.NewMailboxContract(client, common.HexToAddress("0x10"))

	delivered, err := mailbox.Delivered(context.Background(), common.HexToHash("0xabc"))
	require.NoError(t, err)
	require.True(t, delivered)
	require.Len(t, client.calls, 1)
	require.Equal(t, common.HexToAddress("0x10"), *client.calls[0].To)
}

func TestMailboxContract_DeliveredError(t *testing.T) {
	t.Parallel()

	client := &fakeClient{err: errors.New("connection refused")}
	mailbox := contract.NewMailboxContract(client, common.HexToAddress("0x10"))

	_, err := mailbox.Delivered(context.Background(), common.HexToHash("0xabc"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "cannot call delivered")
}

func TestERC20Contract_Allowance(t *testing.T) {
	t.Parallel()

	out, err := interchainabi.ERC20ABI.Methods["allowance"].Outputs.Pack(big.NewInt(42))
	require.NoError(t, err)
	token := contract.NewERC20Contract(&fakeClient{output: out}, common.HexToAddress("0x20"))

	allowance, err := token.Allowance(context.Background(), common.HexToAddress("0x01"), common.HexToAddress("0x02"))
	require.NoError(t, err)
	require.Equal(t, big.NewInt(42), allowance)
}

func TestRouterContract_QuoteGasPayment(t *testing.T) {
	t.Parallel()

	out, err := interchainabi.TokenRouterABI.Methods["quoteGasPayment"].Outputs.Pack(big.NewInt(7))
	require.NoError(t, err)
	router := contract.NewTokenRouterContract(&fakeClient{output: out}, common.HexToAddress("0x30"))

	fee, err := router.QuoteGasPayment(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(7), fee)
}
