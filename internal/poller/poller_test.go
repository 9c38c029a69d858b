package poller

import (
	"context"
	"strings"
	"testing"
	"time"

	"perpfarm/internal/chat"
	"perpfarm/internal/chat/chattest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func budget(attempts int) Budget {
	return Budget{MaxAttempts: attempts, Interval: time.Millisecond, FetchLimit: 5}
}

func matchReady(m chat.Message) bool {
	return strings.Contains(m.Text, "ready")
}

func TestPollForMatchesOnEveryAttempt(t *testing.T) {
	const attempts = 4
	for k := 1; k <= attempts; k++ {
		conv := &chattest.FakeConversation{}
		for i := 1; i < k; i++ {
			conv.QueueBatch(chattest.Msg(int64(i), "noise"))
		}
		conv.QueueBatch(chattest.Msg(int64(k), "ready now"))

		msg, found, err := PollFor(context.Background(), conv, budget(attempts), matchReady)
		require.NoError(t, err, "attempt %d", k)
		require.True(t, found, "attempt %d", k)
		assert.Equal(t, int64(k), msg.ID)
	}
}

func TestPollForNotFoundIsNotAnError(t *testing.T) {
	conv := &chattest.FakeConversation{}
	conv.QueueBatch(chattest.Msg(1, "noise"), chattest.Msg(2, "more noise"))

	_, found, err := PollFor(context.Background(), conv, budget(3), matchReady)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPollForFirstMatchWins(t *testing.T) {
	conv := &chattest.FakeConversation{}
	conv.QueueBatch(
		chattest.Msg(10, "ready first"),
		chattest.Msg(11, "ready second"),
	)
	msg, found, err := PollFor(context.Background(), conv, budget(1), matchReady)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(10), msg.ID)
}

func TestPollForFetchErrorConsumesAttempt(t *testing.T) {
	conv := &chattest.FakeConversation{FetchErr: assert.AnError}
	_, found, err := PollFor(context.Background(), conv, budget(2), matchReady)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPollForContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	conv := &chattest.FakeConversation{}
	conv.QueueBatch(chattest.Msg(1, "noise"))

	_, found, err := PollFor(ctx, conv, Budget{MaxAttempts: 3, Interval: time.Second, FetchLimit: 5}, matchReady)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, found)
}
