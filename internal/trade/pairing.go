package trade

import (
	"errors"
	"math/rand"

	"perpfarm/internal/chat"
)

// ErrOddAccountCount is returned when the active account set cannot be split
// into opposing pairs. Odd counts abort the round before any network activity.
var ErrOddAccountCount = errors.New("account count must be even for paired trading")

// Pair holds the two accounts of one opposing trade: A takes the long leg,
// B the short leg.
type Pair struct {
	A *chat.Account
	B *chat.Account
}

// PairAccounts partitions accounts into disjoint pairs. Ordering is a uniform
// shuffle followed by consecutive grouping, so no account keeps a stable
// partner across rounds.
func PairAccounts(accounts []*chat.Account) ([]Pair, error) {
	if len(accounts)%2 != 0 {
		return nil, ErrOddAccountCount
	}
	shuffled := make([]*chat.Account, len(accounts))
	copy(shuffled, accounts)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	pairs := make([]Pair, 0, len(shuffled)/2)
	for i := 0; i < len(shuffled); i += 2 {
		pairs = append(pairs, Pair{A: shuffled[i], B: shuffled[i+1]})
	}
	return pairs, nil
}
