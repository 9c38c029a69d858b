package trade

import (
	"context"
	"testing"
	"time"

	"perpfarm/internal/chat/chattest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastStopLossTiming() StopLossTiming {
	return StopLossTiming{
		Settle:            time.Millisecond,
		Attempts:          3,
		FetchLimit:        10,
		Retry:             time.Millisecond,
		AfterClick:        time.Millisecond,
		AfterValue:        time.Millisecond,
		ConfirmFetchLimit: 5,
	}
}

func TestAttachStopLossHappyPath(t *testing.T) {
	acct, conv := chattest.NewAccount("alice")
	prompt := chattest.MsgWithButtons(1,
		"Set a stop loss or take profit for BTC\nPick a % or trigger price",
		"Set %", "Set Price")
	confirm := chattest.MsgWithButtons(2, "Apply 7% stop loss?", "✅ Confirm")
	conv.QueueBatch(prompt)
	conv.QueueBatch(confirm)

	engine := NewStopLossEngine(fastStopLossTiming())
	err := engine.Attach(context.Background(), acct, "btc", StopLossSpec{Percent: 7})
	require.NoError(t, err)

	assert.Equal(t, []string{"/stoploss btc", "7"}, conv.Sent())
	clicks := conv.Clicks()
	require.Len(t, clicks, 2)
	assert.Equal(t, "Set %", clicks[0].Label)
	assert.Equal(t, "✅ Confirm", clicks[1].Label)
}

func TestAttachStopLossAcceptsLowercaseConfirm(t *testing.T) {
	acct, conv := chattest.NewAccount("alice")
	conv.QueueBatch(chattest.MsgWithButtons(1, "Set a stop loss for ETH", "Set %"))
	conv.QueueBatch(chattest.MsgWithButtons(2, "Apply?", "confirm change"))

	err := NewStopLossEngine(fastStopLossTiming()).Attach(context.Background(), acct, "eth", StopLossSpec{Percent: 5})
	require.NoError(t, err)
	clicks := conv.Clicks()
	require.Len(t, clicks, 2)
	assert.Equal(t, "confirm change", clicks[1].Label)
}

func TestAttachStopLossFailsWhenPromptNeverArrives(t *testing.T) {
	acct, conv := chattest.NewAccount("alice")
	conv.QueueBatch(chattest.Msg(1, "unrelated chatter"))

	err := NewStopLossEngine(fastStopLossTiming()).Attach(context.Background(), acct, "btc", StopLossSpec{Percent: 6})
	require.Error(t, err)
	assert.Empty(t, conv.Clicks())
	// Only the command went out; the percentage is never sent without a prompt.
	assert.Equal(t, []string{"/stoploss btc"}, conv.Sent())
}

func TestAttachStopLossRetriesWholeDialog(t *testing.T) {
	acct, conv := chattest.NewAccount("alice")
	// First pass: prompt present but no confirm ever shows up.
	prompt := chattest.MsgWithButtons(1, "Set a stop loss for BTC", "Set %")
	conv.QueueBatch(prompt)
	conv.QueueBatch(chattest.Msg(2, "still thinking"))
	// Second pass succeeds end to end.
	conv.QueueBatch(prompt)
	conv.QueueBatch(chattest.MsgWithButtons(3, "Apply?", "✅ Confirm"))

	err := NewStopLossEngine(fastStopLossTiming()).Attach(context.Background(), acct, "btc", StopLossSpec{Percent: 9})
	require.NoError(t, err)
	assert.Equal(t, []string{"/stoploss btc", "9", "9"}, conv.Sent())
}

func TestSampleStopLossStaysInRange(t *testing.T) {
	sampler := IntentSampler{StopLossMin: 5, StopLossMax: 10}
	for i := 0; i < 200; i++ {
		spec := sampler.SampleStopLoss()
		assert.GreaterOrEqual(t, spec.Percent, 5)
		assert.LessOrEqual(t, spec.Percent, 10)
	}
}
