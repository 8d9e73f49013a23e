package flow

import (
	"errors"
	"fmt"
	"sync"

	"github.com/omni/interchain-tracker/entity"
)

var (
	ErrUnknownStep = errors.New("unknown step")
	ErrStepOrder   = errors.New("step can't change state yet")
)

type StepID string

const (
	StepApprove  StepID = "approve"
	StepTransfer StepID = "transfer"
	StepSubmit   StepID = "submit"
	StepConfirm  StepID = "confirm"
	StepRelay    StepID = "relay"
	StepDeliver  StepID = "deliver"
)

type StepStatus string

const (
	StepStatusPending  StepStatus = "pending"
	StepStatusActive   StepStatus = "active"
	StepStatusComplete StepStatus = "complete"
	StepStatusError    StepStatus = "error"
)

// View is the screen a flow is shown on.
type View string

const (
	ViewForm     View = "form"
	ViewProgress View = "progress"
)

type ProgressStep struct {
	ID           StepID     `json:"id"`
	Status       StepStatus `json:"status"`
	TxHash       string     `json:"txHash,omitempty"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
}

type Progress struct {
	View      View           `json:"view"`
	MessageID string         `json:"messageId,omitempty"`
	Untracked bool           `json:"untracked,omitempty"`
	Steps     []ProgressStep `json:"steps"`
}

// ProgressState is the ordered step list of one flow.
// A step can only be active or complete when every step before it is complete.
type ProgressState struct {
	mu        sync.RWMutex
	steps     []*ProgressStep
	view      View
	messageID string
	untracked bool
}

func NewProgressState(ids ...StepID) *ProgressState {
	steps := make([]*ProgressStep, len(ids))
	for i, id := range ids {
		steps[i] = &ProgressStep{ID: id, Status: StepStatusPending}
	}
	return &ProgressState{steps: steps, view: ViewForm}
}

func (p *ProgressState) indexOf(id StepID) int {
	for i, step := range p.steps {
		if step.ID == id {
			return i
		}
	}
	return -1
}

func (p *ProgressState) earlierComplete(idx int) bool {
	for _, step := range p.steps[:idx] {
		if step.Status != StepStatusComplete {
			return false
		}
	}
	return true
}

func (p *ProgressState) laterFailed(idx int) bool {
	for _, step := range p.steps[idx+1:] {
		if step.Status == StepStatusError {
			return true
		}
	}
	return false
}

func (p *ProgressState) step(id StepID) (int, *ProgressStep, error) {
	idx := p.indexOf(id)
	if idx < 0 {
		return -1, nil, fmt.Errorf("%s: %w", id, ErrUnknownStep)
	}
	return idx, p.steps[idx], nil
}

// Activate makes id the running step. Steps after it are reset to pending,
// so a completed step may be run again only to retry a later failure.
func (p *ProgressState) Activate(id StepID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	idx, step, err := p.step(id)
	if err != nil {
		return err
	}
	if !p.earlierComplete(idx) {
		return fmt.Errorf("activate %s: %w", id, ErrStepOrder)
	}
	if step.Status == StepStatusComplete && !p.laterFailed(idx) {
		return fmt.Errorf("activate completed %s: %w", id, ErrStepOrder)
	}
	step.Status = StepStatusActive
	step.TxHash = ""
	step.ErrorMessage = ""
	for _, later := range p.steps[idx+1:] {
		*later = ProgressStep{ID: later.ID, Status: StepStatusPending}
	}
	return nil
}

func (p *ProgressState) SetTxHash(id StepID, txHash string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, step, err := p.step(id)
	if err != nil {
		return err
	}
	step.TxHash = txHash
	return nil
}

func (p *ProgressState) Complete(id StepID, txHash string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.complete(id, txHash)
}

func (p *ProgressState) complete(id StepID, txHash string) error {
	_, step, err := p.step(id)
	if err != nil {
		return err
	}
	if step.Status != StepStatusActive {
		return fmt.Errorf("complete %s in status %s: %w", id, step.Status, ErrStepOrder)
	}
	step.Status = StepStatusComplete
	if txHash != "" {
		step.TxHash = txHash
	}
	return nil
}

// Fail marks id as errored. Only an active step or the first unfinished one can fail.
func (p *ProgressState) Fail(id StepID, cause error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	idx, step, err := p.step(id)
	if err != nil {
		return err
	}
	if step.Status == StepStatusComplete || !p.earlierComplete(idx) {
		return fmt.Errorf("fail %s in status %s: %w", id, step.Status, ErrStepOrder)
	}
	step.Status = StepStatusError
	if cause != nil {
		step.ErrorMessage = cause.Error()
	}
	return nil
}

// Current returns the first step that isn't complete.
func (p *ProgressState) Current() (ProgressStep, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, step := range p.steps {
		if step.Status != StepStatusComplete {
			return *step, true
		}
	}
	return ProgressStep{}, false
}

func (p *ProgressState) Step(id StepID) (ProgressStep, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	idx := p.indexOf(id)
	if idx < 0 {
		return ProgressStep{}, false
	}
	return *p.steps[idx], true
}

func (p *ProgressState) HasStep(id StepID) bool {
	_, ok := p.Step(id)
	return ok
}

// ShowProgress switches the flow to the progress view for a tracked message.
func (p *ProgressState) ShowProgress(messageID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.view = ViewProgress
	p.messageID = messageID
	p.untracked = false
}

// MarkUntracked records a dispatch whose message id couldn't be extracted.
func (p *ProgressState) MarkUntracked() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.untracked = true
}

func (p *ProgressState) Snapshot() *Progress {
	p.mu.RLock()
	defer p.mu.RUnlock()
	res := &Progress{
		View:      p.view,
		MessageID: p.messageID,
		Untracked: p.untracked,
		Steps:     make([]ProgressStep, len(p.steps)),
	}
	for i, step := range p.steps {
		res.Steps[i] = *step
	}
	return res
}

// ApplyMessageStatus finishes the relay and deliver steps once the message
// reaches a terminal status.
func (p *ProgressState) ApplyMessageStatus(status entity.MessageStatus, destinationTxHash *string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var tail []*ProgressStep
	for _, id := range []StepID{StepRelay, StepDeliver} {
		if idx := p.indexOf(id); idx >= 0 {
			tail = append(tail, p.steps[idx])
		}
	}
	destTx := ""
	if destinationTxHash != nil {
		destTx = *destinationTxHash
	}

	switch status {
	case entity.MessageStatusDelivered:
		for i, step := range tail {
			if step.Status == StepStatusComplete {
				continue
			}
			step.Status = StepStatusComplete
			step.ErrorMessage = ""
			if i == len(tail)-1 && destTx != "" {
				step.TxHash = destTx
			}
		}
	case entity.MessageStatusFailed:
		for _, step := range tail {
			if step.Status != StepStatusComplete {
				step.Status = StepStatusError
				step.ErrorMessage = "message delivery failed on the destination chain"
				return
			}
		}
	}
}
