package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopConversation struct{}

func (nopConversation) SendText(context.Context, string) error { return nil }

func (nopConversation) Recent(context.Context, int) ([]Message, error) { return nil, nil }

func (nopConversation) Click(context.Context, Message, Button) error { return nil }

func TestDisplayNameFallsBackToPhone(t *testing.T) {
	acct := NewAccount("alice", "+1555", nopConversation{})
	assert.Equal(t, "alice", acct.DisplayName())

	acct = NewAccount("   ", "+1555", nopConversation{})
	assert.Equal(t, "+1555", acct.DisplayName())
}

func TestDoSerializesAccess(t *testing.T) {
	acct := NewAccount("alice", "+1555", nopConversation{})

	var mu sync.Mutex
	active, maxActive := 0, 0
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = acct.Do(context.Background(), func(Conversation) error {
				mu.Lock()
				active++
				if active > maxActive {
					maxActive = active
				}
				mu.Unlock()
				time.Sleep(time.Millisecond)
				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxActive)
}

func TestDoReturnsContextErrorWhileBlocked(t *testing.T) {
	acct := NewAccount("alice", "+1555", nopConversation{})

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = acct.Do(context.Background(), func(Conversation) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := acct.Do(ctx, func(Conversation) error { return nil })
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDoPropagatesFnError(t *testing.T) {
	acct := NewAccount("alice", "+1555", nopConversation{})
	sentinel := errors.New("boom")
	err := acct.Do(context.Background(), func(Conversation) error { return sentinel })
	require.ErrorIs(t, err, sentinel)
}

func TestFindButtonScansRowsInOrder(t *testing.T) {
	msg := Message{
		Buttons: [][]Button{
			{{Label: "Cancel"}},
			{{Label: "Confirm"}, {Label: "Confirm again"}},
		},
	}
	btn, ok := msg.FindButton(func(b Button) bool { return b.Label == "Confirm" })
	require.True(t, ok)
	assert.Equal(t, "Confirm", btn.Label)

	_, ok = msg.FindButton(func(b Button) bool { return b.Label == "missing" })
	assert.False(t, ok)
}

func TestIsCommandEcho(t *testing.T) {
	assert.True(t, Message{Text: "/close", Outgoing: true}.IsCommandEcho())
	assert.True(t, Message{Text: "/long btc 10x 25.00"}.IsCommandEcho())
	assert.False(t, Message{Text: "👀 Order Preview"}.IsCommandEcho())
}
