package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/channelcore/node/cryptoutil"
	"github.com/channelcore/node/settlement"
	"github.com/channelcore/node/utxo"
)

func TestCloseTransactionPaysOutCurrentBalances(t *testing.T) {
	alice, bob := twoParty(t)
	cs, err := New([]cryptoutil.PublicKey{alice.pk, bob.pk}, map[cryptoutil.PublicKey]int64{alice.pk: 70, bob.pk: 30}, nil)
	require.NoError(t, err)

	fundingInput := utxo.Input{PreviousOutput: utxo.Hash{0x01}, Index: 0}
	tx, err := cs.CloseTransaction([]utxo.Input{fundingInput})
	require.NoError(t, err)

	require.Len(t, tx.Outputs, 2)
	require.Len(t, tx.Inputs, 1)
	assert.Equal(t, fundingInput, tx.Inputs[0])

	byValue := map[uint64]utxo.Output{}
	for _, out := range tx.Outputs {
		byValue[out.Value] = out
	}

	aliceOut, ok := byValue[70]
	require.True(t, ok)
	bobOut, ok := byValue[30]
	require.True(t, ok)

	assert.True(t, settlement.ValidateAddress(settlement.Address(alice.pk)))
	assert.Equal(t, utxo.PublicKeyHash(alice.pk.Bytes()), aliceOut.PublicKeyHash)
	assert.Equal(t, utxo.PublicKeyHash(bob.pk.Bytes()), bobOut.PublicKeyHash)

	assert.NotEqual(t, utxo.Hash{}, tx.Hash)
}

func TestCloseTransactionOmitsNonPositiveBalances(t *testing.T) {
	alice, bob := twoParty(t)
	cs, err := New([]cryptoutil.PublicKey{alice.pk, bob.pk}, map[cryptoutil.PublicKey]int64{alice.pk: 100, bob.pk: 0}, nil)
	require.NoError(t, err)

	tx, err := cs.CloseTransaction(nil)
	require.NoError(t, err)

	require.Len(t, tx.Outputs, 1)
	assert.Equal(t, uint64(100), tx.Outputs[0].Value)
}
