package app

import (
	"sync"

	"perpfarm/internal/chat"
	"perpfarm/internal/gateway/telegram"
	"perpfarm/internal/registry"
)

// AccountBinder turns registry specs into live accounts bound to gateway
// conversations. Accounts are cached by session id so the per-account
// execution slot survives roster reloads; removed sessions simply stop being
// returned.
type AccountBinder struct {
	client *telegram.Client
	bot    string
	reg    *registry.Registry

	mu    sync.Mutex
	cache map[string]*chat.Account
}

func NewAccountBinder(client *telegram.Client, bot string, reg *registry.Registry) *AccountBinder {
	return &AccountBinder{
		client: client,
		bot:    bot,
		reg:    reg,
		cache:  make(map[string]*chat.Account),
	}
}

// Accounts materializes the current roster snapshot.
func (b *AccountBinder) Accounts() []*chat.Account {
	snap := b.reg.Snapshot()
	b.mu.Lock()
	defer b.mu.Unlock()
	accounts := make([]*chat.Account, 0, len(snap.Specs))
	for _, spec := range snap.Specs {
		acct, ok := b.cache[spec.Session]
		if !ok {
			conv := b.client.Conversation(spec.Session, b.bot)
			acct = chat.NewAccount(spec.Name, spec.Phone, conv)
			b.cache[spec.Session] = acct
		}
		accounts = append(accounts, acct)
	}
	return accounts
}
