// Package settlement derives Base58Check settlement addresses from channel
// participant keys, for use in the lock_script/public_key_hash fields of a
// channel's on-chain close transaction (the data model's utxo.Output). Adapted
// from a prior ECDSA-keyed wallet implementation: the address/checksum/Base58
// pipeline is kept, but the key material is the channel's own Ed25519 cryptoutil keys
// rather than a separate ECDSA wallet key pair — a channel participant's
// settlement address is derived directly from their channel identity.
package settlement

import (
	"bytes"
	"crypto/sha256"

	"github.com/mr-tron/base58"

	"github.com/channelcore/node/chanerr"
	"github.com/channelcore/node/cryptoutil"
	"github.com/channelcore/node/utxo"
)

const (
	checksumLength = 4
	version        = byte(0x00)
	addressLength  = 1 + 20 + checksumLength
)

// Address returns the Base58Check settlement address for pk:
// version || Hash160(pk) || checksum(version || Hash160(pk)), Base58-encoded.
func Address(pk cryptoutil.PublicKey) string {
	pubHash := utxo.PublicKeyHash(pk.Bytes())

	versioned := append([]byte{version}, pubHash...)
	sum := checksum(versioned)
	full := append(versioned, sum...)

	return base58.Encode(full)
}

// ValidateAddress reports whether address Base58-decodes to a well-formed,
// checksum-correct settlement address.
func ValidateAddress(address string) bool {
	_, ok := decode(address)
	return ok
}

// PublicKeyHashFromAddress extracts the 20-byte public key hash encoded in
// address, returning false if address is malformed or its checksum is
// invalid.
func PublicKeyHashFromAddress(address string) ([]byte, bool) {
	return decode(address)
}

func decode(address string) ([]byte, bool) {
	raw, err := base58.Decode(address)
	if err != nil || len(raw) != addressLength {
		return nil, false
	}

	pubKeyHash := raw[1 : 1+20]
	wantChecksum := raw[1+20:]
	gotChecksum := checksum(raw[:1+20])
	if !bytes.Equal(wantChecksum, gotChecksum) {
		return nil, false
	}
	return pubKeyHash, true
}

func checksum(payload []byte) []byte {
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	return second[:checksumLength]
}

// LockScriptFor builds the utxo.Output lock_script/public_key_hash pair that
// pays to pk's settlement address, for use when constructing a channel's
// close transaction outputs.
func LockScriptFor(pk cryptoutil.PublicKey, value uint64) (utxo.Output, error) {
	addr := Address(pk)
	hash, ok := PublicKeyHashFromAddress(addr)
	if !ok {
		return utxo.Output{}, chanerr.New(chanerr.KindMalformed, "derived settlement address failed self-validation")
	}
	return utxo.Output{
		Value:         value,
		PublicKeyHash: hash,
		LockScript:    []byte("OP_DUP OP_HASH160 OP_EQUALVERIFY OP_CHECKSIG"),
	}, nil
}
