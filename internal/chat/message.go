// Package chat defines the conversational surface the trading engines drive:
// an inbound message snapshot with its inline button layout, and the
// Conversation interface the connectivity layer implements.
//
// The upstream bot offers no correlation between a sent command and its reply.
// Engines therefore never hold message references across steps; a Message is a
// poll-time snapshot, matched against a content predicate and then discarded.
package chat

import (
	"context"
	"strings"
)

// Button is one inline button of a message's reply markup.
type Button struct {
	Label   string
	Payload []byte
}

// Message is a snapshot of one inbound (or echoed outbound) message.
// Buttons preserves the layout's row structure in order.
type Message struct {
	ID       int64
	Text     string
	Outgoing bool
	Buttons  [][]Button
}

// HasButtons reports whether the message carries any inline layout.
func (m Message) HasButtons() bool {
	for _, row := range m.Buttons {
		if len(row) > 0 {
			return true
		}
	}
	return false
}

// FindButton returns the first button in layout order satisfying match.
func (m Message) FindButton(match func(Button) bool) (Button, bool) {
	for _, row := range m.Buttons {
		for _, btn := range row {
			if match(btn) {
				return btn, true
			}
		}
	}
	return Button{}, false
}

// IsCommandEcho reports whether the message is our own slash command bounced
// back by the transport rather than a bot reply.
func (m Message) IsCommandEcho() bool {
	return m.Outgoing || strings.HasPrefix(m.Text, "/")
}

// Conversation is one account's private dialog with the trading bot.
//
// Recent returns up to limit messages, most recent first. Implementations are
// provided by the connectivity layer; the engines only depend on this
// interface.
type Conversation interface {
	SendText(ctx context.Context, text string) error
	Recent(ctx context.Context, limit int) ([]Message, error)
	Click(ctx context.Context, msg Message, btn Button) error
}
