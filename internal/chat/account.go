package chat

import (
	"context"
	"strings"
)

// Account binds an identity to its conversation with the trading bot. The
// engines hold it as a non-owning reference for the duration of a round; the
// connectivity layer owns the session behind Conv.
type Account struct {
	Name  string
	Phone string
	Conv  Conversation

	// slot serializes engine steps on this account's conversation. The chat
	// history has no per-step partitioning, so two concurrent predicates on
	// the same dialog could consume each other's expected replies.
	slot chan struct{}
}

func NewAccount(name, phone string, conv Conversation) *Account {
	return &Account{
		Name:  name,
		Phone: phone,
		Conv:  conv,
		slot:  make(chan struct{}, 1),
	}
}

// DisplayName prefers the handle, falling back to the phone number.
func (a *Account) DisplayName() string {
	if s := strings.TrimSpace(a.Name); s != "" {
		return s
	}
	return a.Phone
}

// Do runs fn while holding the account's execution slot. At most one engine
// step is active per account at any time; a second caller blocks until the
// slot frees or ctx is done.
func (a *Account) Do(ctx context.Context, fn func(Conversation) error) error {
	select {
	case a.slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-a.slot }()
	return fn(a.Conv)
}
