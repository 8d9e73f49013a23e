package flow

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/omni/interchain-tracker/entity"
)

type Session struct {
	ID         string
	Controller Controller
	CreatedAt  time.Time
}

type SessionView struct {
	ID        string             `json:"id"`
	Kind      entity.MessageKind `json:"kind"`
	CreatedAt time.Time          `json:"createdAt"`
	Progress  *Progress          `json:"progress"`
}

func (s *Session) View() *SessionView {
	return &SessionView{
		ID:        s.ID,
		Kind:      s.Controller.Kind(),
		CreatedAt: s.CreatedAt,
		Progress:  s.Controller.Progress().Snapshot(),
	}
}

// Registry keeps the live flow sessions and routes delivery updates to their progress.
// Dismissing a session only drops what is shown; ledger entries are unaffected.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	watchers map[string][]*ProgressState
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		watchers: make(map[string][]*ProgressState),
	}
}

func (r *Registry) Open(c Controller) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &Session{
		ID:         uuid.NewString(),
		Controller: c,
		CreatedAt:  time.Now(),
	}
	r.sessions[s.ID] = s
	return s
}

func (r *Registry) Session(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Registry) Sessions() []*Session {
	r.mu.Lock()
	res := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		res = append(res, s)
	}
	r.mu.Unlock()
	sort.Slice(res, func(i, j int) bool {
		return res[i].CreatedAt.Before(res[j].CreatedAt)
	})
	return res
}

func (r *Registry) Dismiss(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return false
	}
	delete(r.sessions, id)
	progress := s.Controller.Progress()
	for messageID, list := range r.watchers {
		var kept []*ProgressState
		for _, p := range list {
			if p != progress {
				kept = append(kept, p)
			}
		}
		if len(kept) == 0 {
			delete(r.watchers, messageID)
		} else {
			r.watchers[messageID] = kept
		}
	}
	return true
}

func (r *Registry) Watch(messageID string, progress *ProgressState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watchers[messageID] = append(r.watchers[messageID], progress)
}

func (r *Registry) MessageStatusChanged(messageID string, status entity.MessageStatus, destinationTxHash *string) {
	r.mu.Lock()
	list := r.watchers[messageID]
	if status.IsTerminal() {
		delete(r.watchers, messageID)
	}
	r.mu.Unlock()
	for _, p := range list {
		p.ApplyMessageStatus(status, destinationTxHash)
	}
}
