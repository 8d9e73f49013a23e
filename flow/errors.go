package flow

import "errors"

var (
	ErrUserRejected        = errors.New("user rejected the request")
	ErrSimulationFailed    = errors.New("transaction simulation failed")
	ErrTransactionReverted = errors.New("transaction reverted")

	ErrRouteUnavailable   = errors.New("route unavailable")
	ErrNoRouter           = errors.New("no router deployed on chain")
	ErrMissingDestination = errors.New("destination chain is not selected")
	ErrNotReady           = errors.New("step call can't be built yet")
)
