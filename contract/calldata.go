package contract

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/interchain-tracker/contract/interchainabi"
)

// RemoteCall mirrors the (bytes32 to, uint256 value, bytes data) tuple
// accepted by the interchain account router.
type RemoteCall struct {
	To    [32]byte
	Value *big.Int
	Data  []byte
}

// AddressToBytes32 left-pads an EVM address into the bytes32 form used for
// cross-chain recipients.
func AddressToBytes32(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}

func EncodeApprove(spender common.Address, amount *big.Int) ([]byte, error) {
	data, err := interchainabi.ERC20ABI.Pack("approve", spender, amount)
	if err != nil {
		return nil, fmt.Errorf("can't encode approve calldata: %w", err)
	}
	return data, nil
}

func EncodeTransferRemote(domain uint32, recipient common.Hash, amount *big.Int) ([]byte, error) {
	data, err := interchainabi.TokenRouterABI.Pack("transferRemote", domain, recipient, amount)
	if err != nil {
		return nil, fmt.Errorf("can't encode transferRemote calldata: %w", err)
	}
	return data, nil
}

func EncodeDispatch(domain uint32, recipient common.Hash, body []byte) ([]byte, error) {
	data, err := interchainabi.MailboxABI.Pack("dispatch", domain, recipient, body)
	if err != nil {
		return nil, fmt.Errorf("can't encode dispatch calldata: %w", err)
	}
	return data, nil
}

func EncodeCallRemote(domain uint32, calls []RemoteCall) ([]byte, error) {
	data, err := interchainabi.ICARouterABI.Pack("callRemote", domain, calls)
	if err != nil {
		return nil, fmt.Errorf("can't encode callRemote calldata: %w", err)
	}
	return data, nil
}
