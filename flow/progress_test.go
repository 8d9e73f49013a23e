package flow_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omni/interchain-tracker/entity"
	"github.com/omni/interchain-tracker/flow"
)

func requireOrdered(t *testing.T, p *flow.ProgressState) {
	t.Helper()
	steps := p.Snapshot().Steps
	for i := 1; i < len(steps); i++ {
		if steps[i].Status == flow.StepStatusActive || steps[i].Status == flow.StepStatusComplete {
			require.Equal(t, flow.StepStatusComplete, steps[i-1].Status, "step %s is %s before %s completed", steps[i].ID, steps[i].Status, steps[i-1].ID)
		}
	}
}

func TestProgressState_Ordering(t *testing.T) {
	t.Parallel()
	p := flow.NewProgressState(flow.StepSubmit, flow.StepConfirm, flow.StepRelay, flow.StepDeliver)

	require.ErrorIs(t, p.Activate(flow.StepConfirm), flow.ErrStepOrder)
	require.ErrorIs(t, p.Complete(flow.StepSubmit, ""), flow.ErrStepOrder)
	require.ErrorIs(t, p.Fail(flow.StepRelay, errors.New("boom")), flow.ErrStepOrder)
	require.ErrorIs(t, p.Activate(flow.StepApprove), flow.ErrUnknownStep)
	requireOrdered(t, p)

	require.NoError(t, p.Activate(flow.StepSubmit))
	requireOrdered(t, p)
	require.NoError(t, p.Complete(flow.StepSubmit, "0x01"))
	require.ErrorIs(t, p.Activate(flow.StepSubmit), flow.ErrStepOrder)
	require.NoError(t, p.Activate(flow.StepConfirm))
	require.ErrorIs(t, p.Activate(flow.StepDeliver), flow.ErrStepOrder)
	requireOrdered(t, p)

	cur, ok := p.Current()
	require.True(t, ok)
	require.Equal(t, flow.StepConfirm, cur.ID)
	require.Equal(t, flow.StepStatusActive, cur.Status)
}

func TestProgressState_RetryAfterFailure(t *testing.T) {
	t.Parallel()
	p := flow.NewProgressState(flow.StepSubmit, flow.StepConfirm, flow.StepRelay)

	require.NoError(t, p.Activate(flow.StepSubmit))
	require.NoError(t, p.Complete(flow.StepSubmit, "0x01"))
	require.NoError(t, p.Activate(flow.StepConfirm))
	require.NoError(t, p.Fail(flow.StepConfirm, flow.ErrTransactionReverted))

	step, ok := p.Step(flow.StepConfirm)
	require.True(t, ok)
	require.Equal(t, flow.StepStatusError, step.Status)
	require.Equal(t, flow.ErrTransactionReverted.Error(), step.ErrorMessage)

	require.NoError(t, p.Activate(flow.StepSubmit))
	requireOrdered(t, p)
	step, _ = p.Step(flow.StepConfirm)
	require.Equal(t, flow.StepStatusPending, step.Status)
	require.Empty(t, step.ErrorMessage)
}

func TestProgressState_ApplyMessageStatus(t *testing.T) {
	t.Parallel()

	delivered := flow.NewProgressState(flow.StepSubmit, flow.StepRelay, flow.StepDeliver)
	require.NoError(t, delivered.Activate(flow.StepSubmit))
	require.NoError(t, delivered.Complete(flow.StepSubmit, "0x01"))
	require.NoError(t, delivered.Activate(flow.StepRelay))
	destTx := "0xdef"
	delivered.ApplyMessageStatus(entity.MessageStatusDelivered, &destTx)
	requireOrdered(t, delivered)
	_, ok := delivered.Current()
	require.False(t, ok)
	step, _ := delivered.Step(flow.StepDeliver)
	require.Equal(t, "0xdef", step.TxHash)

	failed := flow.NewProgressState(flow.StepTransfer, flow.StepRelay)
	require.NoError(t, failed.Activate(flow.StepTransfer))
	require.NoError(t, failed.Complete(flow.StepTransfer, "0x01"))
	require.NoError(t, failed.Activate(flow.StepRelay))
	failed.ApplyMessageStatus(entity.MessageStatusFailed, nil)
	step, _ = failed.Step(flow.StepRelay)
	require.Equal(t, flow.StepStatusError, step.Status)
}

func TestFormatAmount(t *testing.T) {
	t.Parallel()

	require.Equal(t, "0", flow.FormatAmount(nil, 6))
	require.Equal(t, "100", flow.FormatAmount(bigInt(100), 0))
	require.Equal(t, "1.5", flow.FormatAmount(bigInt(1500000), 6))
}
