package ledger

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/omni/interchain-tracker/config"
	"github.com/omni/interchain-tracker/entity"
	"github.com/omni/interchain-tracker/logging"
	"github.com/omni/interchain-tracker/utils"
)

// Ledger is the bounded, durable list of tracked messages, newest first.
// The in-memory list is authoritative; persistence failures never surface to callers.
type Ledger struct {
	logger      logging.Logger
	store       entity.KeyValueStore
	key         string
	retention   int
	saveTimeout time.Duration

	mu       sync.RWMutex
	history  []*entity.TrackedMessage
	revision uint64

	saveMu        sync.Mutex
	savedRevision uint64

	subsMu  sync.Mutex
	subs    map[int]chan struct{}
	nextSub int
}

func New(logger logging.Logger, store entity.KeyValueStore, cfg *config.LedgerConfig) *Ledger {
	return &Ledger{
		logger:      logger,
		store:       store,
		key:         cfg.Key,
		retention:   cfg.Retention,
		saveTimeout: cfg.SaveTimeout,
		subs:        make(map[int]chan struct{}),
	}
}

// Load replaces the in-memory list with the persisted one.
// An unreadable blob is logged and treated as an empty ledger, a blob written
// by a newer schema is refused with ErrUnsupportedSchema.
func (l *Ledger) Load(ctx context.Context) error {
	blob, ok, err := l.store.GetItem(ctx, l.key)
	if err != nil {
		l.logger.WithError(err).Warn("can't read persisted ledger, starting empty")
		ok = false
	}
	var history []*entity.TrackedMessage
	if ok {
		history, err = decodeEnvelope(blob)
		if err != nil {
			if errors.Is(err, ErrUnsupportedSchema) {
				return err
			}
			l.logger.WithError(err).Warn("can't decode persisted ledger, starting empty")
			history = nil
		}
	}

	l.mu.Lock()
	l.history = l.normalize(history)
	l.revision++
	observeHistory(l.history)
	l.mu.Unlock()

	l.logger.WithField("count", len(history)).Info("loaded message ledger")
	l.notify()
	return nil
}

// normalize drops duplicate ids keeping the newest entry and applies retention.
func (l *Ledger) normalize(history []*entity.TrackedMessage) []*entity.TrackedMessage {
	res := make([]*entity.TrackedMessage, 0, len(history))
	seen := make(map[string]bool, len(history))
	for _, msg := range history {
		if entity.IsKnownMessageID(msg.MessageID) {
			if seen[msg.MessageID] {
				continue
			}
			seen[msg.MessageID] = true
		}
		res = append(res, msg)
	}
	return l.truncate(res)
}

func (l *Ledger) truncate(history []*entity.TrackedMessage) []*entity.TrackedMessage {
	if l.retention > 0 && len(history) > l.retention {
		for i := l.retention; i < len(history); i++ {
			history[i] = nil
		}
		history = history[:l.retention]
	}
	return history
}

// Append inserts msg at the head of the ledger.
// An existing entry with the same identifier is replaced, but a terminal
// status it already reached is carried over together with its delivery data.
func (l *Ledger) Append(ctx context.Context, msg *entity.TrackedMessage) {
	msg = msg.Clone()
	if msg.Status == "" {
		msg.Status = entity.MessageStatusPending
	}

	l.mu.Lock()
	if entity.IsKnownMessageID(msg.MessageID) {
		if idx := l.indexOf(msg.MessageID); idx >= 0 {
			prev := l.history[idx]
			if prev.Status.IsTerminal() && !msg.Status.IsTerminal() {
				msg.Status = prev.Status
				if msg.DestinationTxHash == nil {
					msg.DestinationTxHash = prev.DestinationTxHash
				}
				if msg.Body == nil {
					msg.Body = prev.Body
				}
				if msg.LastCheckedAt == nil {
					msg.LastCheckedAt = prev.LastCheckedAt
				}
			}
			l.history = append(l.history[:idx], l.history[idx+1:]...)
		}
	}
	l.history = append([]*entity.TrackedMessage{msg}, l.history...)
	l.history = l.truncate(l.history)
	l.commit()
	l.mu.Unlock()

	l.logger.WithFields(logrus.Fields{
		"message_id": msg.MessageID,
		"kind":       msg.Kind,
		"status":     msg.Status,
	}).Info("tracking message")
	l.save(ctx)
}

// UpdateByID merges the non-nil fields of patch into the entry with the given id.
// It reports whether the entry exists. A status change that would leave a
// terminal status is ignored, the other fields are still applied.
func (l *Ledger) UpdateByID(ctx context.Context, id string, patch *entity.MessagePatch) bool {
	l.mu.Lock()
	idx := l.indexOf(id)
	if idx < 0 {
		l.mu.Unlock()
		return false
	}
	msg := l.history[idx].Clone()
	if patch.Status != nil {
		if msg.Status.CanTransitionTo(*patch.Status) {
			msg.Status = *patch.Status
		} else {
			l.logger.WithFields(logrus.Fields{
				"message_id": id,
				"status":     msg.Status,
				"new_status": *patch.Status,
			}).Warn("ignoring status regression")
		}
	}
	if patch.DestinationTxHash != nil {
		msg.DestinationTxHash = patch.DestinationTxHash
	}
	if patch.Body != nil {
		msg.Body = patch.Body
	}
	if patch.LastCheckedAt != nil {
		msg.LastCheckedAt = patch.LastCheckedAt
	}
	l.history[idx] = msg
	l.commit()
	l.mu.Unlock()

	l.save(ctx)
	return true
}

func (l *Ledger) RemoveByID(ctx context.Context, id string) bool {
	l.mu.Lock()
	idx := l.indexOf(id)
	if idx < 0 {
		l.mu.Unlock()
		return false
	}
	l.history = append(l.history[:idx], l.history[idx+1:]...)
	l.commit()
	l.mu.Unlock()

	l.logger.WithField("message_id", id).Info("removed tracked message")
	l.save(ctx)
	return true
}

func (l *Ledger) Clear(ctx context.Context) {
	l.mu.Lock()
	l.history = nil
	l.commit()
	rev := l.revision
	l.mu.Unlock()

	l.logger.Info("cleared message ledger")

	l.saveMu.Lock()
	defer l.saveMu.Unlock()
	if rev <= l.savedRevision {
		return
	}
	ctx, cancel := utils.WithOptionalTimeout(ctx, l.saveTimeout)
	defer cancel()
	err := l.store.RemoveItem(ctx, l.key)
	observeSave(err)
	if err != nil {
		l.logger.WithError(err).Error("can't remove persisted ledger")
		return
	}
	l.savedRevision = rev
}

func (l *Ledger) Get(id string) (*entity.TrackedMessage, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	idx := l.indexOf(id)
	if idx < 0 {
		return nil, false
	}
	return l.history[idx].Clone(), true
}

// All returns copies of every entry, newest first.
func (l *Ledger) All() []*entity.TrackedMessage {
	l.mu.RLock()
	defer l.mu.RUnlock()
	res := make([]*entity.TrackedMessage, len(l.history))
	for i, msg := range l.history {
		res[i] = msg.Clone()
	}
	return res
}

// Pending returns copies of the entries PendingIDs refers to, in the same order.
func (l *Ledger) Pending() []*entity.TrackedMessage {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var res []*entity.TrackedMessage
	for _, msg := range l.history {
		if isPollable(msg) {
			res = append(res, msg.Clone())
		}
	}
	return res
}

// PendingIDs lists pending entries with a known identifier in ledger order.
// The result is stable as long as the ledger isn't mutated.
func (l *Ledger) PendingIDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var res []string
	for _, msg := range l.history {
		if isPollable(msg) {
			res = append(res, msg.MessageID)
		}
	}
	return res
}

// PendingKey joins PendingIDs into a single comparable value.
func PendingKey(ids []string) string {
	return strings.Join(ids, ",")
}

// Subscribe registers for change notifications. Notifications coalesce:
// a slow reader sees at most one pending signal for any number of changes.
func (l *Ledger) Subscribe() (<-chan struct{}, func()) {
	l.subsMu.Lock()
	defer l.subsMu.Unlock()
	id := l.nextSub
	l.nextSub++
	ch := make(chan struct{}, 1)
	l.subs[id] = ch
	return ch, func() {
		l.subsMu.Lock()
		defer l.subsMu.Unlock()
		delete(l.subs, id)
	}
}

func isPollable(msg *entity.TrackedMessage) bool {
	return msg.Status == entity.MessageStatusPending && entity.IsKnownMessageID(msg.MessageID)
}

func (l *Ledger) indexOf(id string) int {
	if !entity.IsKnownMessageID(id) {
		return -1
	}
	for i, msg := range l.history {
		if msg.MessageID == id {
			return i
		}
	}
	return -1
}

// commit must be called with mu held.
func (l *Ledger) commit() {
	l.revision++
	observeHistory(l.history)
	l.notify()
}

func (l *Ledger) notify() {
	l.subsMu.Lock()
	defer l.subsMu.Unlock()
	for _, ch := range l.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// save writes the current list. Concurrent saves are serialized and a
// snapshot older than the last written one is skipped.
func (l *Ledger) save(ctx context.Context) {
	l.mu.RLock()
	rev := l.revision
	blob, err := encodeEnvelope(l.history)
	l.mu.RUnlock()
	if err != nil {
		observeSave(err)
		l.logger.WithError(err).Error("can't encode ledger")
		return
	}

	l.saveMu.Lock()
	defer l.saveMu.Unlock()
	if rev <= l.savedRevision {
		return
	}
	ctx, cancel := utils.WithOptionalTimeout(ctx, l.saveTimeout)
	defer cancel()
	err = l.store.SetItem(ctx, l.key, blob)
	observeSave(err)
	if err != nil {
		l.logger.WithError(err).Error("can't persist ledger")
		return
	}
	l.savedRevision = rev
}
