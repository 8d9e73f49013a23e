package reconciler

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/omni/interchain-tracker/entity"
	"github.com/omni/interchain-tracker/ledger"
	"github.com/omni/interchain-tracker/logging"
	"github.com/omni/interchain-tracker/utils"
)

// ProgressNotifier is told about every terminal status the reconciler learns,
// so that live progress views can finish their last steps.
type ProgressNotifier interface {
	MessageStatusChanged(messageID string, status entity.MessageStatus, destinationTxHash *string)
}

// Reconciler polls the status backend for every pending ledger entry.
//
// Polling runs only while the ledger has pending entries. Whenever the set of
// pending identifiers changes, the poller is torn down and started again,
// which also triggers an immediate check of the new set.
type Reconciler struct {
	logger   logging.Logger
	ledger   *ledger.Ledger
	backend  Backend
	notifier ProgressNotifier
	interval time.Duration
	now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(logger logging.Logger, l *ledger.Ledger, backend Backend, notifier ProgressNotifier, interval time.Duration) *Reconciler {
	return &Reconciler{
		logger:   logger.WithField("mode", backend.Mode()),
		ledger:   l,
		backend:  backend,
		notifier: notifier,
		interval: interval,
		now:      time.Now,
	}
}

func (r *Reconciler) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		r.run(ctx)
	}(r.done)
}

// Stop halts polling and waits for in-flight checks to return.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (r *Reconciler) run(ctx context.Context) {
	updates, unsubscribe := r.ledger.Subscribe()
	defer unsubscribe()

	var (
		key        string
		pollCancel context.CancelFunc
		pollDone   chan struct{}
	)
	stopPolling := func() {
		if pollCancel != nil {
			pollCancel()
			<-pollDone
			pollCancel, pollDone = nil, nil
		}
	}
	defer stopPolling()

	evaluate := func() {
		ids := r.ledger.PendingIDs()
		PendingMessages.Set(float64(len(ids)))
		newKey := ledger.PendingKey(ids)
		if newKey == key && (pollCancel != nil || len(ids) == 0) {
			return
		}
		stopPolling()
		key = newKey
		if len(ids) == 0 {
			r.logger.Info("no pending messages, reconciler is idle")
			return
		}
		r.logger.WithField("pending", len(ids)).Info("pending messages changed, restarting polling")
		pollCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		pollCancel, pollDone = cancel, done
		go func() {
			defer close(done)
			r.poll(pollCtx, ctx)
		}()
	}

	evaluate()
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			evaluate()
		}
	}
}

// poll checks immediately and then once per interval until pollCtx is done.
// Ledger writes use ledgerCtx so that results already fetched are kept when
// polling restarts.
func (r *Reconciler) poll(pollCtx, ledgerCtx context.Context) {
	for {
		r.CheckPending(pollCtx, ledgerCtx)
		if utils.ContextSleep(pollCtx, r.interval) == nil {
			return
		}
	}
}

// CheckPending runs one reconciliation cycle over all pending entries concurrently.
// A failed check only affects its own entry.
func (r *Reconciler) CheckPending(ctx, ledgerCtx context.Context) {
	pending := r.ledger.Pending()
	wg := new(sync.WaitGroup)
	wg.Add(len(pending))
	for _, msg := range pending {
		go func(msg *entity.TrackedMessage) {
			defer wg.Done()
			r.check(ctx, ledgerCtx, msg)
		}(msg)
	}
	wg.Wait()
}

func (r *Reconciler) check(ctx, ledgerCtx context.Context, msg *entity.TrackedMessage) {
	mode := string(r.backend.Mode())
	logger := r.logger.WithFields(logrus.Fields{
		"message_id":           msg.MessageID,
		"destination_chain_id": msg.DestinationChainID,
	})

	stopTimer := ObserveDuration(mode)
	status, err := r.backend.Check(ctx, msg)
	stopTimer()
	if err != nil && ctx.Err() != nil {
		return
	}

	now := r.now()
	patch := &entity.MessagePatch{LastCheckedAt: &now}
	if err != nil {
		ObserveCheck(mode, "error")
		logger.WithError(err).Warn("can't check message status, will retry")
		r.ledger.UpdateByID(ledgerCtx, msg.MessageID, patch)
		return
	}
	ObserveCheck(mode, string(status.Status))

	if status.Body != nil {
		patch.Body = status.Body
	}
	if status.Status.IsTerminal() {
		patch.Status = &status.Status
		patch.DestinationTxHash = status.DestinationTxHash
	}
	if !r.ledger.UpdateByID(ledgerCtx, msg.MessageID, patch) {
		logger.Debug("message left the ledger during the check")
		return
	}
	if !status.Status.IsTerminal() {
		logger.Debug("message is still pending")
		return
	}

	logger.WithField("status", status.Status).Info("message reached a final status")
	if r.notifier != nil {
		r.notifier.MessageStatusChanged(msg.MessageID, status.Status, status.DestinationTxHash)
	}
}
