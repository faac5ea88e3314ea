package channel

import (
	"math"

	"github.com/channelcore/node/chanerr"
	"github.com/channelcore/node/cryptoutil"
)

// Validate runs the full C4 transition validator in a fixed precedence
// order, so that the first applicable error kind is always the one
// reported:
//
// 1. sequence number must be current+1
// 2. every balance_changes key must be a known participant
// 3. balance_changes must sum to zero (conservation)
// 4. affected_participants must already be in canonical order
// 5. every balance_changes key must be in affected_participants
// 6. len(signatures) must equal len(affected_participants)
// 7. every resulting balance must be >= 0, no overflow
// 8. every signature must verify positionally against affected_participants
//
// On success it returns the new balance map (a copy); the caller
// (ChannelState.ApplyUpdate) is responsible for also advancing
// sequence_number and latest_update. Validate never mutates its inputs.
func Validate(
	channelID [32]byte,
	participants []cryptoutil.PublicKey,
	balances map[cryptoutil.PublicKey]int64,
	currentSequence uint64,
	update StateUpdate,
) (map[cryptoutil.PublicKey]int64, error) {
	// 1. Sequence.
	if update.SequenceNumber != currentSequence+1 {
		return nil, chanerr.New(chanerr.KindInvalidSequence, "sequence number must be current+1")
	}

	participantSet := make(map[cryptoutil.PublicKey]struct{}, len(participants))
	for _, pk := range participants {
		participantSet[pk] = struct{}{}
	}

	// 2. Known participants.
	for pk := range update.BalanceChanges {
		if _, ok := participantSet[pk]; !ok {
			return nil, chanerr.New(chanerr.KindUnknownParticipant, "balance change references unknown participant")
		}
	}

	// 3. Conservation.
	var sum int64
	for _, delta := range update.BalanceChanges {
		sum += delta
	}
	if sum != 0 {
		return nil, chanerr.New(chanerr.KindNonZeroBalanceChange, "balance changes must sum to zero")
	}

	// 4. Sorted affected list.
	if !cryptoutil.IsSorted(update.AffectedParticipants) {
		return nil, chanerr.New(chanerr.KindInvalidSignatureCount, "affected_participants is not canonically sorted")
	}
	if hasDuplicates(update.AffectedParticipants) {
		return nil, chanerr.New(chanerr.KindInvalidSignatureCount, "affected_participants contains duplicates")
	}

	// 5. Affected superset of changed.
	affectedSet := make(map[cryptoutil.PublicKey]struct{}, len(update.AffectedParticipants))
	for _, pk := range update.AffectedParticipants {
		affectedSet[pk] = struct{}{}
	}
	for pk := range update.BalanceChanges {
		if _, ok := affectedSet[pk]; !ok {
			return nil, chanerr.New(chanerr.KindInvalidSignatureCount, "balance change participant missing from affected_participants")
		}
	}

	// 6. Signature count.
	if len(update.Signatures) != len(update.AffectedParticipants) {
		return nil, chanerr.New(chanerr.KindInvalidSignatureCount, "signature count does not match affected participant count")
	}

	// 7. Sufficient funds / no overflow.
	newBalances := make(map[cryptoutil.PublicKey]int64, len(balances))
	for pk, bal := range balances {
		newBalances[pk] = bal
	}
	for pk, delta := range update.BalanceChanges {
		current := newBalances[pk]
		newBal, overflowed := checkedAdd(current, delta)
		if overflowed || newBal < 0 {
			return nil, chanerr.New(chanerr.KindInsufficientFunds, "balance change would overflow or go negative")
		}
		newBalances[pk] = newBal
	}

	// 8. Signature validity, over the canonical signing payload.
	payload := NewSigningPayload(update.SequenceNumber, channelID, update.BalanceChanges, update.AffectedParticipants, update.Timestamp)
	message := payload.Bytes()
	if err := cryptoutil.VerifyPartialMultisig(update.Signatures, participants, update.AffectedParticipants, message); err != nil {
		return nil, err
	}

	return newBalances, nil
}

func hasDuplicates(keys []cryptoutil.PublicKey) bool {
	seen := make(map[cryptoutil.PublicKey]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			return true
		}
		seen[k] = struct{}{}
	}
	return false
}

// checkedAdd adds b to a, reporting overflow rather than wrapping.
func checkedAdd(a, b int64) (result int64, overflowed bool) {
	if b > 0 && a > math.MaxInt64-b {
		return 0, true
	}
	if b < 0 && a < math.MinInt64-b {
		return 0, true
	}
	return a + b, false
}
