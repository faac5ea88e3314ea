package utxo

import (
	"crypto/sha256"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // ripemd160 is used for address-style hashing, not general security
)

// PublicKeyHash derives the locking hash used for Output.PublicKeyHash from
// a raw public key: SHA-256 followed by RIPEMD-160 (Hash160), the same
// two-step hash Bitcoin-style wallet address schemes use ("Hash160"). A
// channel's on-chain close transaction locks outputs to this hash for each
// participant's settlement share.
func PublicKeyHash(pubKey []byte) []byte {
	sha := sha256.Sum256(pubKey)

	hasher := ripemd160.New()
	hasher.Write(sha[:])
	return hasher.Sum(nil)
}
