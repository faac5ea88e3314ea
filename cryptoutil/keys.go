// Package cryptoutil implements C1: Ed25519 keypair generation, signing,
// verification, and the multisig/partial-multisig verification the channel
// validator relies on. It is a leaf package — it never imports channel,
// utxo, or store.
package cryptoutil

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"sort"

	"github.com/channelcore/node/chanerr"
)

// PublicKey is the stable 32-byte Ed25519 verifying-key encoding. Two keys
// are equal iff their 32-byte encodings are equal; keys order lexicographically
// by those bytes, and that order is the canonical participant order used
// throughout the channel package.
type PublicKey [ed25519.PublicKeySize]byte

// Signature is the 64-byte Ed25519 signature encoding. No structural
// validity is enforced beyond length; cryptographic validity is checked at
// Verify time.
type Signature [ed25519.SignatureSize]byte

// Bytes returns the raw 32-byte encoding.
func (pk PublicKey) Bytes() []byte { return pk[:] }

// Less reports whether pk sorts before other under canonical order.
func (pk PublicKey) Less(other PublicKey) bool {
	return bytes.Compare(pk[:], other[:]) < 0
}

// SortKeys sorts keys in place into canonical order.
func SortKeys(keys []PublicKey) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
}

// IsSorted reports whether keys is already in canonical order.
func IsSorted(keys []PublicKey) bool {
	return sort.SliceIsSorted(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
}

// SigningKey is an Ed25519 private signing key.
type SigningKey struct {
	priv ed25519.PrivateKey
	pub  PublicKey
}

// GenerateKeypair produces a fresh signing key and its public key using
// crypto/rand as the secure RNG.
func GenerateKeypair() (SigningKey, PublicKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return SigningKey{}, PublicKey{}, err
	}
	var pk PublicKey
	copy(pk[:], pub)
	return SigningKey{priv: priv, pub: pk}, pk, nil
}

// PublicKey returns the key's public counterpart.
func (sk SigningKey) PublicKey() PublicKey { return sk.pub }

// Sign signs message with sk, returning the 64-byte signature.
func Sign(sk SigningKey, message []byte) Signature {
	raw := ed25519.Sign(sk.priv, message)
	var sig Signature
	copy(sig[:], raw)
	return sig
}

// Verify reports whether sig is a valid signature over message by pk.
func Verify(pk PublicKey, sig Signature, message []byte) bool {
	return ed25519.Verify(ed25519.PublicKey(pk[:]), message, sig[:])
}

// VerifyMultisig verifies that sigs[i] is a valid signature by pks[i] over
// message, for every i. len(sigs) must equal len(pks).
func VerifyMultisig(sigs []Signature, pks []PublicKey, message []byte) error {
	if len(sigs) != len(pks) {
		return chanerr.New(chanerr.KindInvalidSignatureCount, "signature count does not match participant count")
	}
	for i := range pks {
		if !Verify(pks[i], sigs[i], message) {
			return chanerr.New(chanerr.KindInvalidSignature, "multisig verification failed")
		}
	}
	return nil
}

// VerifyPartialMultisig verifies a signature collection covering a named
// subset (affected) of allParticipants, positionally: sigs[i] must be a
// valid signature by affected[i]. The correspondence is strict — there is no
// subset-matching fallback, by design: the positional
// arrangement is the only legal one once affected is canonically sorted, so
// signatures out of order fail rather than being reordered to match.
func VerifyPartialMultisig(sigs []Signature, allParticipants []PublicKey, affected []PublicKey, message []byte) error {
	if len(sigs) != len(affected) {
		return chanerr.New(chanerr.KindInvalidSignatureCount, "signature count does not match affected participant count")
	}

	known := make(map[PublicKey]struct{}, len(allParticipants))
	for _, pk := range allParticipants {
		known[pk] = struct{}{}
	}
	for _, pk := range affected {
		if _, ok := known[pk]; !ok {
			return chanerr.New(chanerr.KindUnknownParticipant, "affected participant is not a channel participant")
		}
	}

	for i, pk := range affected {
		if !Verify(pk, sigs[i], message) {
			return chanerr.New(chanerr.KindInvalidSignature, "partial multisig verification failed")
		}
	}
	return nil
}
