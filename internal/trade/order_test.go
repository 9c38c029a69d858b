package trade

import (
	"context"
	"testing"
	"time"

	"perpfarm/internal/chat"
	"perpfarm/internal/chat/chattest"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIntent() OrderIntent {
	return OrderIntent{
		Ticker:    "btc",
		Leverage:  10,
		Amount:    decimal.NewFromFloat(25),
		Direction: Long,
	}
}

func fastOrderTiming() OrderTiming {
	return OrderTiming{Settle: time.Millisecond, Attempts: 3, FetchLimit: 5}
}

func fullPreview(id int64) chat.Message {
	return chattest.MsgWithButtons(id,
		"👀 Order Preview\n\nMarket: LONG\nToken: BTC\nLeverage: 10X\nAmount: 25.00",
		"✅ Confirm", "Cancel")
}

func TestPlaceOrderConfirmsFullMatchOnly(t *testing.T) {
	acct, conv := chattest.NewAccount("alice")

	// Near miss satisfies four of five conditions (missing leverage line).
	nearMiss := chattest.MsgWithButtons(1,
		"👀 Order Preview\n\nMarket: LONG\nToken: BTC\nAmount: 25.00",
		"✅ Confirm")
	echo := chattest.Msg(2, "/long btc 10x 25.00")
	conv.QueueBatch(echo, nearMiss, fullPreview(3))

	err := NewOrderEngine(fastOrderTiming()).PlaceOrder(context.Background(), acct, testIntent())
	require.NoError(t, err)

	clicks := conv.Clicks()
	require.Len(t, clicks, 1)
	assert.Equal(t, int64(3), clicks[0].MessageID)
	assert.Equal(t, "✅ Confirm", clicks[0].Label)
	assert.Equal(t, []string{"/long btc 10x 25.00"}, conv.Sent())
}

func TestPlaceOrderNeverClicksNearMiss(t *testing.T) {
	tests := []struct {
		name string
		msg  chat.Message
	}{
		{"missing preview marker", chattest.MsgWithButtons(1,
			"Market: LONG\nToken: BTC\nLeverage: 10X", "✅ Confirm")},
		{"wrong direction", chattest.MsgWithButtons(1,
			"👀 Order Preview\nMarket: SHORT\nToken: BTC\nLeverage: 10X", "✅ Confirm")},
		{"wrong ticker", chattest.MsgWithButtons(1,
			"👀 Order Preview\nMarket: LONG\nToken: ETH\nLeverage: 10X", "✅ Confirm")},
		{"wrong leverage", chattest.MsgWithButtons(1,
			"👀 Order Preview\nMarket: LONG\nToken: BTC\nLeverage: 5X", "✅ Confirm")},
		{"no confirm button", chattest.MsgWithButtons(1,
			"👀 Order Preview\nMarket: LONG\nToken: BTC\nLeverage: 10X", "Cancel")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acct, conv := chattest.NewAccount("alice")
			conv.QueueBatch(tt.msg)

			err := NewOrderEngine(fastOrderTiming()).PlaceOrder(context.Background(), acct, testIntent())
			require.Error(t, err)
			assert.Empty(t, conv.Clicks())
		})
	}
}

func TestPlaceOrderRetriesWithoutResending(t *testing.T) {
	acct, conv := chattest.NewAccount("alice")
	conv.QueueBatch(chattest.Msg(1, "processing..."))
	conv.QueueBatch(chattest.Msg(1, "processing..."))
	conv.QueueBatch(fullPreview(9))

	err := NewOrderEngine(fastOrderTiming()).PlaceOrder(context.Background(), acct, testIntent())
	require.NoError(t, err)
	// Retries only re-fetch; the command goes out once.
	assert.Equal(t, []string{"/long btc 10x 25.00"}, conv.Sent())
}

func TestPlaceOrderFailsAfterBudget(t *testing.T) {
	acct, conv := chattest.NewAccount("alice")
	conv.QueueBatch(chattest.Msg(1, "nothing relevant"))

	err := NewOrderEngine(fastOrderTiming()).PlaceOrder(context.Background(), acct, testIntent())
	require.Error(t, err)
	assert.Empty(t, conv.Clicks())
}

func TestOrderIntentCommand(t *testing.T) {
	assert.Equal(t, "/long btc 10x 25.00", testIntent().Command())

	short := OrderIntent{Ticker: "eth", Leverage: 5, Amount: decimal.NewFromFloat(12.5), Direction: Short}
	assert.Equal(t, "/short eth 5x 12.50", short.Command())
}
