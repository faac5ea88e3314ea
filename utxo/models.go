// Package utxo implements C6: the Transaction/Input/Output/Utxo records and
// their canonical transaction hash.
package utxo

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"
)

// Hash is a 32-byte transaction hash (Keccak-256).
type Hash [32]byte

// Input references a previously created output being spent.
type Input struct {
	PreviousOutput Hash // the spent tx's hash
	Index          uint32
	Signature      []byte
	Sequence       uint32
}

// Output is a single spendable unit of value.
type Output struct {
	Value         uint64
	PublicKeyHash []byte
	LockScript    []byte
}

// Transaction is the UTXO-model transaction record.
type Transaction struct {
	Version  uint32
	Inputs   []Input
	Outputs  []Output
	LockTime uint64
	Hash     Hash // computed by ComputeHash, excluded from its own hash input
}

// Utxo is an entry in the UTXO set: an output plus its confirmation
// metadata.
type Utxo struct {
	Output      Output
	BlockHeight uint32
	OutputIndex uint32
	TxHash      Hash
	IsConfirmed bool
}

// ComputeHash computes tx's canonical Keccak-256 hash:
//
//	Keccak256(version || (for each input: previous_output || index || signature || sequence)
//	          || (for each output: value || public_key_hash || lock_script)
//	          || lock_time)
//
// All integers little-endian, all fields concatenated in the order listed,
// no length prefixes, no padding. The Hash field itself is excluded from the
// hash input — ComputeHash never reads tx.Hash.
func (tx Transaction) ComputeHash() Hash {
	h := sha3.NewLegacyKeccak256()

	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[:4], tx.Version)
	h.Write(buf[:4])

	for _, in := range tx.Inputs {
		h.Write(in.PreviousOutput[:])
		binary.LittleEndian.PutUint32(buf[:4], in.Index)
		h.Write(buf[:4])
		h.Write(in.Signature)
		binary.LittleEndian.PutUint32(buf[:4], in.Sequence)
		h.Write(buf[:4])
	}

	for _, out := range tx.Outputs {
		binary.LittleEndian.PutUint64(buf[:8], out.Value)
		h.Write(buf[:8])
		h.Write(out.PublicKeyHash)
		h.Write(out.LockScript)
	}

	binary.LittleEndian.PutUint64(buf[:8], tx.LockTime)
	h.Write(buf[:8])

	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// SetHash computes and stores tx.Hash in place, returning the same value
// ComputeHash would.
func (tx *Transaction) SetHash() Hash {
	tx.Hash = tx.ComputeHash()
	return tx.Hash
}
