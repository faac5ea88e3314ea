package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/channelcore/node/utxo"
)

func openTestStore(t *testing.T) *UtxoStore {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "utxo-badger")
	s, err := Open(dir, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleTx(value uint64) utxo.Transaction {
	tx := utxo.Transaction{
		Version: 1,
		Outputs: []utxo.Output{
			{Value: value, PublicKeyHash: []byte{1, 2, 3}, LockScript: []byte("OP_DUP")},
		},
	}
	tx.SetHash()
	return tx
}

func TestAddAndGetOutputs(t *testing.T) {
	assert := assert.New(t)
	s := openTestStore(t)

	tx := sampleTx(100)
	require.NoError(t, s.AddOutputs(tx))

	out, found, err := s.Get(tx.Hash, 0)
	require.NoError(t, err)
	assert.True(found)
	assert.Equal(uint64(100), out.Value)

	n, err := s.Len()
	require.NoError(t, err)
	assert.Equal(1, n)
}

func TestRemoveInputs(t *testing.T) {
	assert := assert.New(t)
	s := openTestStore(t)

	tx := sampleTx(50)
	require.NoError(t, s.AddOutputs(tx))

	input := utxo.Input{PreviousOutput: tx.Hash, Index: 0}
	present, err := s.ContainsInput(input)
	require.NoError(t, err)
	assert.True(present)

	require.NoError(t, s.RemoveInputs([]utxo.Input{input}))

	present, err = s.ContainsInput(input)
	require.NoError(t, err)
	assert.False(present)

	empty, err := s.IsEmpty()
	require.NoError(t, err)
	assert.True(empty)
}

func TestRemoveAbsentInputIsNotAnError(t *testing.T) {
	s := openTestStore(t)
	input := utxo.Input{PreviousOutput: utxo.Hash{9}, Index: 0}
	assert.NoError(t, s.RemoveInputs([]utxo.Input{input}))
}

func TestGetMissingOutput(t *testing.T) {
	assert := assert.New(t)
	s := openTestStore(t)
	_, found, err := s.Get(utxo.Hash{1}, 0)
	require.NoError(t, err)
	assert.False(found)
}
