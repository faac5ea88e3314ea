package store

import (
	"encoding/binary"

	"github.com/channelcore/node/utxo"
)

// encodeKey builds the durable store key:
// 32-byte previous_tx_hash || 4-byte output_index (little-endian).
func encodeKey(txHash utxo.Hash, outputIndex uint32) []byte {
	key := make([]byte, 32+4)
	copy(key, txHash[:])
	binary.LittleEndian.PutUint32(key[32:], outputIndex)
	return key
}

// encodeOutput builds the durable store value: value (8 bytes LE), then
// length-prefixed public_key_hash, then length-prefixed lock_script.
func encodeOutput(out utxo.Output) []byte {
	size := 8 + 8 + len(out.PublicKeyHash) + 8 + len(out.LockScript)
	buf := make([]byte, size)
	off := 0

	binary.LittleEndian.PutUint64(buf[off:], out.Value)
	off += 8

	binary.LittleEndian.PutUint64(buf[off:], uint64(len(out.PublicKeyHash)))
	off += 8
	copy(buf[off:], out.PublicKeyHash)
	off += len(out.PublicKeyHash)

	binary.LittleEndian.PutUint64(buf[off:], uint64(len(out.LockScript)))
	off += 8
	copy(buf[off:], out.LockScript)

	return buf
}

func decodeOutput(data []byte) (utxo.Output, error) {
	if len(data) < 16 {
		return utxo.Output{}, errShortOutput
	}
	off := 0
	value := binary.LittleEndian.Uint64(data[off:])
	off += 8

	pkhLen := binary.LittleEndian.Uint64(data[off:])
	off += 8
	if uint64(len(data)-off) < pkhLen {
		return utxo.Output{}, errShortOutput
	}
	pkh := append([]byte(nil), data[off:off+int(pkhLen)]...)
	off += int(pkhLen)

	if len(data)-off < 8 {
		return utxo.Output{}, errShortOutput
	}
	scriptLen := binary.LittleEndian.Uint64(data[off:])
	off += 8
	if uint64(len(data)-off) < scriptLen {
		return utxo.Output{}, errShortOutput
	}
	script := append([]byte(nil), data[off:off+int(scriptLen)]...)

	return utxo.Output{Value: value, PublicKeyHash: pkh, LockScript: script}, nil
}
