package info

import (
	"context"
	"testing"
	"time"

	"perpfarm/internal/chat/chattest"
	"perpfarm/internal/parse"

	"github.com/stretchr/testify/assert"
)

const walletReply = `💰 Your Wallet

ETH Address: 0x1234567890abcdef1234567890abcdef12345678
SOL Address: 9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM

Perps Balance: $123.45`

func fastTiming() Timing {
	return Timing{Attempts: 3, Interval: time.Millisecond, WalletFetchLimit: 10, PointsFetchLimit: 5}
}

func TestWalletParsesReply(t *testing.T) {
	acct, conv := chattest.NewAccount("alice")
	conv.QueueBatch(chattest.Msg(1, walletReply))

	report := NewService(fastTiming()).Wallet(context.Background(), acct)
	assert.True(t, report.OK)
	assert.Equal(t, "alice", report.Account)
	assert.Equal(t, "0x1234567890abcdef1234567890abcdef12345678", report.Info.ETHAddress)
	assert.Equal(t, "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM", report.Info.SOLAddress)
	assert.Equal(t, "123.45", report.Info.PerpsBalance.StringFixed(2))
	assert.Equal(t, []string{"/wallet"}, conv.Sent())
}

func TestWalletSentinelsOnMissingReply(t *testing.T) {
	acct, conv := chattest.NewAccount("alice")
	conv.QueueBatch(chattest.Msg(1, "unrelated"))

	report := NewService(fastTiming()).Wallet(context.Background(), acct)
	assert.False(t, report.OK)
	assert.Equal(t, parse.AddressNotFound, report.Info.ETHAddress)
	assert.Equal(t, parse.AddressNotFound, report.Info.SOLAddress)
	assert.True(t, report.Info.PerpsBalance.IsZero())
}

func TestPointsParsesTotal(t *testing.T) {
	acct, conv := chattest.NewAccount("bob")
	conv.QueueBatch(chattest.Msg(1, "🎉 You have 250 points"))

	report := NewService(fastTiming()).Points(context.Background(), acct)
	assert.True(t, report.OK)
	assert.Equal(t, 250, report.Points)
	assert.Equal(t, []string{"/points"}, conv.Sent())
}

func TestPointsZeroWhenReplyNeverArrives(t *testing.T) {
	acct, conv := chattest.NewAccount("bob")
	conv.QueueBatch(chattest.Msg(1, "unrelated"))

	report := NewService(fastTiming()).Points(context.Background(), acct)
	assert.False(t, report.OK)
	assert.Equal(t, 0, report.Points)
}

func TestPointsRequiresBothMarkerHalves(t *testing.T) {
	acct, conv := chattest.NewAccount("bob")
	// "points" alone is not enough; the reply must say "You have" too.
	conv.QueueBatch(chattest.Msg(1, "earn points by trading"))

	report := NewService(fastTiming()).Points(context.Background(), acct)
	assert.False(t, report.OK)
}
