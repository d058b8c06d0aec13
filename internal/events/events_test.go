package events

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"

	"github.com/lending-indexer/internal/types"
)

func TestEventID(t *testing.T) {
	ev := &Event{
		TxHash:   common.HexToHash("0xABCDEF0000000000000000000000000000000000000000000000000000000001"),
		LogIndex: 7,
	}

	assert.Equal(t, "0xabcdef0000000000000000000000000000000000000000000000000000000001-7", ev.ID())
}

func TestLedgerID(t *testing.T) {
	ev := &Event{
		TxHash:   common.HexToHash("0x01"),
		LogIndex: 2,
	}

	id := ev.LedgerID(types.EventDeposit)
	assert.Equal(t, "DEPOSIT-"+ev.ID(), id)

	// ids must differ by event type so one event can produce several rows
	assert.NotEqual(t, id, ev.LedgerID(types.EventBorrow))
}

func TestAddresses(t *testing.T) {
	a1 := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	a2 := common.HexToAddress("0x00000000000000000000000000000000000000a2")

	t.Run("nil roles are skipped", func(t *testing.T) {
		ev := &Event{Lender: &a1}
		assert.Equal(t, []string{"0x00000000000000000000000000000000000000a1"}, ev.Addresses())
	})

	t.Run("overlapping roles appear once", func(t *testing.T) {
		ev := &Event{Borrower: &a1, Liquidatee: &a1, Liquidator: &a2}
		got := ev.Addresses()
		assert.Len(t, got, 2)
		assert.Contains(t, got, "0x00000000000000000000000000000000000000a1")
		assert.Contains(t, got, "0x00000000000000000000000000000000000000a2")
	})

	t.Run("no participants", func(t *testing.T) {
		ev := &Event{}
		assert.Empty(t, ev.Addresses())
	})
}
