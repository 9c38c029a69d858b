package trade

import (
	"context"
	"testing"
	"time"

	"perpfarm/internal/chat"
	"perpfarm/internal/chat/chattest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastCloseTiming() CloseTiming {
	return CloseTiming{
		Settle:     time.Millisecond,
		Attempts:   3,
		Interval:   time.Millisecond,
		FetchLimit: 5,
	}
}

func TestCloseAllWithNoOpenPositions(t *testing.T) {
	acct, conv := chattest.NewAccount("alice")
	conv.QueueBatch(chattest.Msg(1, "You have no open perps positions"))

	result, err := NewCloseEngine(fastCloseTiming()).CloseAll(context.Background(), acct)
	require.NoError(t, err)
	assert.False(t, result.HasClosedPositions)
	assert.Empty(t, result.ClosedSymbols)
	assert.Equal(t, []string{"/close"}, conv.Sent())
	assert.Empty(t, conv.Clicks())
}

func TestCloseAllClosesEachSymbolSequentially(t *testing.T) {
	acct, conv := chattest.NewAccount("alice")
	conv.QueueBatch(chattest.MsgWithButtons(1, "📊 Positions Overview", "BTC", "ETH"))
	conv.QueueBatch(chattest.MsgWithButtons(2, "👀 Order Preview\nClose BTC 100%", "✅ Confirm"))
	conv.QueueBatch(chattest.MsgWithButtons(3, "👀 Order Preview\nClose ETH 100%", "✅ Confirm"))

	result, err := NewCloseEngine(fastCloseTiming()).CloseAll(context.Background(), acct)
	require.NoError(t, err)
	assert.True(t, result.HasClosedPositions)
	assert.Equal(t, []string{"BTC", "ETH"}, result.ClosedSymbols)
	assert.Equal(t, []string{"/close", "/close btc 100", "/close eth 100"}, conv.Sent())

	clicks := conv.Clicks()
	require.Len(t, clicks, 2)
	assert.Equal(t, int64(2), clicks[0].MessageID)
	assert.Equal(t, int64(3), clicks[1].MessageID)
}

func TestCloseAllAcceptsPayloadConfirmButton(t *testing.T) {
	acct, conv := chattest.NewAccount("alice")
	preview := chat.Message{
		ID:   2,
		Text: "👀 Order Preview\nClose SOL 100%",
		Buttons: [][]chat.Button{{
			{Label: "Close now", Payload: []byte("confirm-order")},
		}},
	}
	conv.QueueBatch(chattest.MsgWithButtons(1, "📊 Positions Overview", "SOL"))
	conv.QueueBatch(preview)

	result, err := NewCloseEngine(fastCloseTiming()).CloseAll(context.Background(), acct)
	require.NoError(t, err)
	assert.Equal(t, []string{"SOL"}, result.ClosedSymbols)
	clicks := conv.Clicks()
	require.Len(t, clicks, 1)
	assert.Equal(t, "Close now", clicks[0].Label)
}

func TestCloseAllSkipsSymbolWithoutPreview(t *testing.T) {
	acct, conv := chattest.NewAccount("alice")
	conv.QueueBatch(chattest.MsgWithButtons(1, "📊 Positions Overview", "BTC", "ETH"))
	// BTC never gets a preview; the sticky batch for it lacks the marker.
	conv.QueueBatch(chattest.Msg(2, "something went wrong"))
	conv.QueueBatch(chattest.Msg(2, "something went wrong"))
	conv.QueueBatch(chattest.Msg(2, "something went wrong"))
	conv.QueueBatch(chattest.MsgWithButtons(3, "👀 Order Preview\nClose ETH 100%", "✅ Confirm"))

	result, err := NewCloseEngine(fastCloseTiming()).CloseAll(context.Background(), acct)
	require.NoError(t, err)
	assert.Equal(t, []string{"ETH"}, result.ClosedSymbols)
	assert.True(t, result.HasClosedPositions)
}

func TestCloseAllFailsWhenOverviewNeverArrives(t *testing.T) {
	acct, conv := chattest.NewAccount("alice")
	conv.QueueBatch(chattest.Msg(1, "unrelated chatter"))

	_, err := NewCloseEngine(fastCloseTiming()).CloseAll(context.Background(), acct)
	require.Error(t, err)
	assert.Equal(t, []string{"/close"}, conv.Sent())
}

func TestCloseAllIgnoresCommandEcho(t *testing.T) {
	acct, conv := chattest.NewAccount("alice")
	// The outgoing /close echo contains neither marker but a crafted echo of
	// the overview must still be skipped.
	echo := chat.Message{ID: 1, Text: "📊 Positions Overview", Outgoing: true}
	real := chattest.Msg(2, "You have no open perps positions")
	conv.QueueBatch(echo, real)

	result, err := NewCloseEngine(fastCloseTiming()).CloseAll(context.Background(), acct)
	require.NoError(t, err)
	assert.False(t, result.HasClosedPositions)
}
