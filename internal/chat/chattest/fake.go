// Package chattest provides a scripted in-memory Conversation for engine
// tests: queue reply batches, record sent commands and button clicks, and
// optionally react to outgoing commands like the real bot would.
package chattest

import (
	"context"
	"sync"

	"perpfarm/internal/chat"
)

// Click records one button invocation.
type Click struct {
	MessageID int64
	Label     string
}

// FakeConversation implements chat.Conversation. Each Recent call consumes
// the next queued batch; once the queue is drained the last batch keeps
// repeating, mimicking an unchanged chat history.
type FakeConversation struct {
	mu      sync.Mutex
	sent    []string
	clicks  []Click
	batches [][]chat.Message
	current []chat.Message

	// OnSend, when set, is invoked (unlocked) after every SendText so a
	// script can queue the bot's reaction.
	OnSend func(text string)

	SendErr  error
	FetchErr error
	ClickErr error
}

var _ chat.Conversation = (*FakeConversation)(nil)

// QueueBatch appends one Recent() result to the script.
func (f *FakeConversation) QueueBatch(msgs ...chat.Message) {
	f.mu.Lock()
	f.batches = append(f.batches, msgs)
	f.mu.Unlock()
}

func (f *FakeConversation) SendText(_ context.Context, text string) error {
	f.mu.Lock()
	f.sent = append(f.sent, text)
	hook := f.OnSend
	err := f.SendErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	if hook != nil {
		hook(text)
	}
	return nil
}

func (f *FakeConversation) Recent(_ context.Context, _ int) ([]chat.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FetchErr != nil {
		return nil, f.FetchErr
	}
	if len(f.batches) > 0 {
		f.current = f.batches[0]
		f.batches = f.batches[1:]
	}
	return append([]chat.Message(nil), f.current...), nil
}

func (f *FakeConversation) Click(_ context.Context, msg chat.Message, btn chat.Button) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ClickErr != nil {
		return f.ClickErr
	}
	f.clicks = append(f.clicks, Click{MessageID: msg.ID, Label: btn.Label})
	return nil
}

// Sent returns a copy of every sent text in order.
func (f *FakeConversation) Sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

// Clicks returns a copy of every recorded click in order.
func (f *FakeConversation) Clicks() []Click {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Click(nil), f.clicks...)
}

// Msg builds a plain inbound message.
func Msg(id int64, text string) chat.Message {
	return chat.Message{ID: id, Text: text}
}

// MsgWithButtons builds an inbound message with a single button row.
func MsgWithButtons(id int64, text string, labels ...string) chat.Message {
	row := make([]chat.Button, 0, len(labels))
	for _, label := range labels {
		row = append(row, chat.Button{Label: label})
	}
	return chat.Message{ID: id, Text: text, Buttons: [][]chat.Button{row}}
}

// NewAccount wraps a fresh fake conversation in an account.
func NewAccount(name string) (*chat.Account, *FakeConversation) {
	conv := &FakeConversation{}
	return chat.NewAccount(name, "+1000"+name, conv), conv
}
