// Package channel implements C2 (canonical signing payload), C3 (channel
// state) and C4 (the transition validator).
package channel

import (
	"encoding/binary"
	"sort"

	"github.com/channelcore/node/cryptoutil"
)

// BalanceChange is a single (participant, signed delta) pair, used in the
// sorted form the signing payload requires.
type BalanceChange struct {
	Participant cryptoutil.PublicKey
	Delta       int64
}

// SigningPayload is the deterministic byte-exact encoding of the data a
// state update commits to. Construct it with NewSigningPayload
// so balance_changes and affected_participants are sorted before encoding.
type SigningPayload struct {
	SequenceNumber       uint64
	ChannelID            [32]byte
	BalanceChanges       []BalanceChange        // sorted ascending by Participant
	AffectedParticipants []cryptoutil.PublicKey // sorted ascending
	Timestamp            uint64
}

// NewSigningPayload builds a SigningPayload from unsorted inputs, sorting
// balance_changes and affected_participants by public key bytes ascending as
// canonical ordering requires. It does not validate that affected equals the keys
// of changes — that is the validator's job (step 5 of the validator).
func NewSigningPayload(seq uint64, channelID [32]byte, changes map[cryptoutil.PublicKey]int64, affected []cryptoutil.PublicKey, timestamp uint64) SigningPayload {
	sortedChanges := make([]BalanceChange, 0, len(changes))
	for pk, delta := range changes {
		sortedChanges = append(sortedChanges, BalanceChange{Participant: pk, Delta: delta})
	}
	sort.Slice(sortedChanges, func(i, j int) bool {
		return sortedChanges[i].Participant.Less(sortedChanges[j].Participant)
	})

	sortedAffected := make([]cryptoutil.PublicKey, len(affected))
	copy(sortedAffected, affected)
	cryptoutil.SortKeys(sortedAffected)

	return SigningPayload{
		SequenceNumber:       seq,
		ChannelID:            channelID,
		BalanceChanges:       sortedChanges,
		AffectedParticipants: sortedAffected,
		Timestamp:            timestamp,
	}
}

// Bytes serializes the payload per the canonical byte layout:
//
// 1. sequence_number  — 8 bytes LE
// 2. channel_id    — 32 bytes
// 3. balance_changes  — 8-byte LE length, then (32-byte key, 8-byte LE signed value) each
// 4. affected_participants — 8-byte LE length, then 32-byte keys
// 5. timestamp     — 8 bytes LE
//
// Any two implementations producing the same logical payload must produce
// byte-identical output; this is an opaque wire contract, not an internal
// convenience, so the field order and widths here are fixed and must not be
// "improved" independently of the wire contract.
func (p SigningPayload) Bytes() []byte {
	size := 8 + 32 + 8 + len(p.BalanceChanges)*(32+8) + 8 + len(p.AffectedParticipants)*32 + 8
	buf := make([]byte, size)
	off := 0

	binary.LittleEndian.PutUint64(buf[off:], p.SequenceNumber)
	off += 8

	copy(buf[off:], p.ChannelID[:])
	off += 32

	binary.LittleEndian.PutUint64(buf[off:], uint64(len(p.BalanceChanges)))
	off += 8
	for _, bc := range p.BalanceChanges {
		copy(buf[off:], bc.Participant[:])
		off += 32
		binary.LittleEndian.PutUint64(buf[off:], uint64(bc.Delta))
		off += 8
	}

	binary.LittleEndian.PutUint64(buf[off:], uint64(len(p.AffectedParticipants)))
	off += 8
	for _, pk := range p.AffectedParticipants {
		copy(buf[off:], pk[:])
		off += 32
	}

	binary.LittleEndian.PutUint64(buf[off:], p.Timestamp)
	off += 8

	return buf
}
