package interchainabi

//nolint:golint
import (
	_ "embed"

	"github.com/omni/interchain-tracker/contract/abi"
)

//go:embed mailbox.json
var mailboxJSONABI string

//go:embed erc20.json
var erc20JSONABI string

//go:embed token_router.json
var tokenRouterJSONABI string

//go:embed ica_router.json
var icaRouterJSONABI string

const (
	Dispatch             = "event Dispatch(address indexed sender, uint32 indexed destination, bytes32 indexed recipient, bytes message)"
	DispatchID           = "event DispatchId(bytes32 indexed messageId)"
	Process              = "event Process(uint32 indexed origin, bytes32 indexed sender, address indexed recipient)"
	ProcessID            = "event ProcessId(bytes32 indexed messageId)"
	SentTransferRemote   = "event SentTransferRemote(uint32 indexed destination, bytes32 indexed recipient, uint256 amount)"
	RemoteCallDispatched = "event RemoteCallDispatched(uint32 indexed destination, address indexed owner, bytes32 router, bytes32 ism)"
)

var (
	MailboxABI     = abi.MustReadABI(mailboxJSONABI)
	ERC20ABI       = abi.MustReadABI(erc20JSONABI)
	TokenRouterABI = abi.MustReadABI(tokenRouterJSONABI)
	ICARouterABI   = abi.MustReadABI(icaRouterJSONABI)

	DispatchIDEventSignature = MailboxABI.Events["DispatchId"].ID
	ProcessIDEventSignature  = MailboxABI.Events["ProcessId"].ID
)
