package trade

import (
	"fmt"
	"testing"

	"perpfarm/internal/chat"
	"perpfarm/internal/chat/chattest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeAccounts(n int) []*chat.Account {
	accounts := make([]*chat.Account, n)
	for i := range accounts {
		accounts[i], _ = chattest.NewAccount(fmt.Sprintf("acct-%d", i))
	}
	return accounts
}

func TestPairAccountsPartitionsEvenSets(t *testing.T) {
	for _, n := range []int{2, 4, 6, 10} {
		t.Run(fmt.Sprintf("%d accounts", n), func(t *testing.T) {
			accounts := makeAccounts(n)
			pairs, err := PairAccounts(accounts)
			require.NoError(t, err)
			require.Len(t, pairs, n/2)

			seen := make(map[*chat.Account]bool)
			for _, pair := range pairs {
				assert.False(t, seen[pair.A], "account paired twice")
				assert.False(t, seen[pair.B], "account paired twice")
				seen[pair.A] = true
				seen[pair.B] = true
			}
			for _, acct := range accounts {
				assert.True(t, seen[acct], "account %s omitted", acct.DisplayName())
			}
		})
	}
}

func TestPairAccountsRejectsOddSets(t *testing.T) {
	for _, n := range []int{1, 3, 5} {
		pairs, err := PairAccounts(makeAccounts(n))
		assert.ErrorIs(t, err, ErrOddAccountCount)
		assert.Nil(t, pairs)
	}
}

func TestPairAccountsDoesNotMutateInput(t *testing.T) {
	accounts := makeAccounts(4)
	original := append([]*chat.Account(nil), accounts...)
	_, err := PairAccounts(accounts)
	require.NoError(t, err)
	assert.Equal(t, original, accounts)
}
