package utxo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleTx() Transaction {
	return Transaction{
		Version: 1,
		Inputs: []Input{
			{PreviousOutput: Hash{1}, Index: 0, Signature: []byte{0xAA, 0xBB}, Sequence: 0xFFFFFFFF},
		},
		Outputs: []Output{
			{Value: 100, PublicKeyHash: []byte{1, 2, 3}, LockScript: []byte("OP_DUP OP_HASH160")},
		},
		LockTime: 0,
	}
}

func TestComputeHashDeterministic(t *testing.T) {
	assert := assert.New(t)
	tx1 := sampleTx()
	tx2 := sampleTx()
	assert.Equal(tx1.ComputeHash(), tx2.ComputeHash())
}

func TestComputeHashExcludesHashField(t *testing.T) {
	assert := assert.New(t)
	tx := sampleTx()
	want := tx.ComputeHash()

	tx.Hash = Hash{0xFF, 0xFF, 0xFF}
	assert.Equal(want, tx.ComputeHash(), "hash field must not feed back into its own computation")
}

func TestComputeHashSensitiveToOutputValue(t *testing.T) {
	assert := assert.New(t)
	a := sampleTx()
	b := sampleTx()
	b.Outputs[0].Value = 101
	assert.NotEqual(a.ComputeHash(), b.ComputeHash())
}

func TestSetHashStoresResult(t *testing.T) {
	assert := assert.New(t)
	tx := sampleTx()
	h := tx.SetHash()
	assert.Equal(h, tx.Hash)
	assert.Equal(tx.ComputeHash(), tx.Hash)
}

func TestPublicKeyHashDeterministicAndShort(t *testing.T) {
	assert := assert.New(t)
	pk := []byte("a fake ed25519 public key......")
	h1 := PublicKeyHash(pk)
	h2 := PublicKeyHash(pk)
	assert.Equal(h1, h2)
	assert.Len(h1, 20) // RIPEMD-160 output size
}
