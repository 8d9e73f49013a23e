package presenter

import (
	"fmt"
	"strings"

	"github.com/omni/interchain-tracker/config"
	"github.com/omni/interchain-tracker/entity"
)

func txLink(chain *config.ChainConfig, txHash string) string {
	if chain == nil || chain.ExplorerTxURL == "" || txHash == "" {
		return ""
	}
	if strings.Contains(chain.ExplorerTxURL, "%s") {
		return fmt.Sprintf(chain.ExplorerTxURL, txHash)
	}
	return strings.TrimRight(chain.ExplorerTxURL, "/") + "/" + txHash
}

func (p *Presenter) messageToMessageInfo(msg *entity.TrackedMessage) *MessageInfo {
	info := &MessageInfo{
		TrackedMessage: msg,
		OriginTxLink:   txLink(p.cfg.GetChainConfig(msg.OriginChainID), msg.OriginTxHash),
	}
	if msg.DestinationTxHash != nil {
		info.DestinationTxLink = txLink(p.cfg.GetChainConfig(msg.DestinationChainID), *msg.DestinationTxHash)
	}
	return info
}
