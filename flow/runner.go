package flow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"

	"github.com/omni/interchain-tracker/logging"
	"github.com/omni/interchain-tracker/utils"
)

// Runner drives a controller through its submittable steps, strictly one after
// another: a step's call is built only after the previous receipt is confirmed.
type Runner struct {
	logger    logging.Logger
	submitter Submitter
}

func NewRunner(logger logging.Logger, submitter Submitter) *Runner {
	return &Runner{logger: logger, submitter: submitter}
}

// Run prepares the controller and executes steps until none is left for the user.
// Input errors leave the progress untouched; submission errors are attributed to the step.
// Calling Run again after a failure retries the failed step.
func (r *Runner) Run(ctx context.Context, c Controller) error {
	if err := c.Prepare(ctx); err != nil {
		return fmt.Errorf("can't prepare %s flow: %w", c.Kind(), err)
	}
	step, ok := c.NextStep()
	for ok {
		next, err := r.runStep(ctx, c, step)
		if err != nil {
			return err
		}
		step, ok = next, next != ""
	}
	return nil
}

func (r *Runner) runStep(ctx context.Context, c Controller, step StepID) (StepID, error) {
	logger := r.logger.WithFields(logrus.Fields{
		"kind": c.Kind(),
		"step": step,
	})

	call, err := c.BuildStepCall(ctx, step)
	if err != nil {
		return "", fmt.Errorf("can't build %s call: %w", step, err)
	}
	if call == nil {
		return "", fmt.Errorf("%s: %w", step, ErrNotReady)
	}
	if err = c.Progress().Activate(step); err != nil {
		return "", err
	}

	txHash, err := r.submitter.Submit(ctx, call)
	if err != nil {
		return "", r.fail(c, step, fmt.Errorf("can't submit %s: %w", step, err))
	}
	logger.WithField("tx_hash", txHash).Info("submitted step transaction")
	c.OnStepSubmitted(step, txHash)

	receipt, err := r.submitter.AwaitReceipt(ctx, call.ChainID, txHash)
	if err != nil {
		return "", r.fail(c, step, fmt.Errorf("can't get %s receipt: %w", step, err))
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return "", r.fail(c, step, fmt.Errorf("%s tx %s: %w", step, txHash, ErrTransactionReverted))
	}

	next, err := c.OnStepSuccess(ctx, step, receipt)
	ObserveStep(c.Kind(), step, err)
	if err != nil {
		return "", err
	}
	logger.WithField("next_step", next).Info("step confirmed")
	return next, nil
}

func (r *Runner) fail(c Controller, step StepID, err error) error {
	ObserveStep(c.Kind(), step, err)
	c.OnStepFailure(step, err)
	return err
}

// ReceiptPoller waits for receipts by polling the chain's rpc.
type ReceiptPoller struct {
	clients  ClientSource
	interval time.Duration
}

func NewReceiptPoller(clients ClientSource, interval time.Duration) *ReceiptPoller {
	return &ReceiptPoller{clients: clients, interval: interval}
}

func (p *ReceiptPoller) AwaitReceipt(ctx context.Context, chainID uint64, txHash common.Hash) (*types.Receipt, error) {
	client, err := p.clients.Get(chainID)
	if err != nil {
		return nil, err
	}
	for {
		receipt, err := client.TransactionReceiptByHash(ctx, txHash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("can't get transaction receipt: %w", err)
		}
		if utils.ContextSleep(ctx, p.interval) == nil {
			return nil, ctx.Err()
		}
	}
}
