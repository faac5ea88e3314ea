package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/channelcore/node/chanerr"
	"github.com/channelcore/node/store"
	"github.com/channelcore/node/utxo"
)

func openTestCache(t *testing.T) *UtxoCache {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "utxo-badger")
	backing, err := store.Open(dir, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = backing.Close() })
	return New(backing, nil)
}

func sampleTx(value uint64) utxo.Transaction {
	tx := utxo.Transaction{
		Version: 1,
		Outputs: []utxo.Output{
			{Value: value, PublicKeyHash: []byte{4, 5, 6}, LockScript: []byte("OP_DUP")},
		},
	}
	tx.SetHash()
	return tx
}

func TestAddTransactionThenGetUtxo(t *testing.T) {
	assert := assert.New(t)
	c := openTestCache(t)

	tx := sampleTx(200)
	require.NoError(t, c.AddTransaction(tx, nil))

	u, found, err := c.GetUtxo(tx.Hash, 0)
	require.NoError(t, err)
	assert.True(found)
	assert.Equal(uint64(200), u.Output.Value)
	assert.False(u.IsConfirmed)

	assert.Equal(1, c.Len())
}

func TestAddTransactionConfirmed(t *testing.T) {
	assert := assert.New(t)
	c := openTestCache(t)

	tx := sampleTx(75)
	height := uint32(10)
	require.NoError(t, c.AddTransaction(tx, &height))

	u, found, err := c.GetUtxo(tx.Hash, 0)
	require.NoError(t, err)
	assert.True(found)
	assert.True(u.IsConfirmed)
	assert.Equal(uint32(10), u.BlockHeight)
}

func TestRemoveSpentAtomicRemovesFromCacheAndStore(t *testing.T) {
	assert := assert.New(t)
	c := openTestCache(t)

	tx := sampleTx(30)
	require.NoError(t, c.AddTransaction(tx, nil))

	spend := utxo.Transaction{
		Version: 1,
		Inputs:  []utxo.Input{{PreviousOutput: tx.Hash, Index: 0}},
	}
	require.NoError(t, c.RemoveSpent(spend))

	_, found, err := c.GetUtxo(tx.Hash, 0)
	require.NoError(t, err)
	assert.False(found)
	assert.Equal(0, c.Len())
}

func TestRemoveSpentUnknownInputRejected(t *testing.T) {
	c := openTestCache(t)
	spend := utxo.Transaction{
		Version: 1,
		Inputs:  []utxo.Input{{PreviousOutput: utxo.Hash{77}, Index: 0}},
	}
	err := c.RemoveSpent(spend)
	assert.True(t, chanerr.Is(err, chanerr.KindUtxoNotFound))
}

func TestConfirmTransactionUpdatesExistingEntries(t *testing.T) {
	assert := assert.New(t)
	c := openTestCache(t)

	tx := sampleTx(40)
	require.NoError(t, c.AddTransaction(tx, nil))

	c.ConfirmTransaction(tx.Hash, 99)

	u, found, err := c.GetUtxo(tx.Hash, 0)
	require.NoError(t, err)
	assert.True(found)
	assert.True(u.IsConfirmed)
	assert.Equal(uint32(99), u.BlockHeight)
}
