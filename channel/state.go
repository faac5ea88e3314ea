package channel

import (
	"crypto/sha256"
	"sync"

	"github.com/channelcore/node/chanerr"
	"github.com/channelcore/node/checkpoint"
	"github.com/channelcore/node/cryptoutil"
	"github.com/channelcore/node/telemetry"
)

// Status is the channel's lifecycle state.
type Status int

const (
	StatusOpen Status = iota
	StatusClosed
	StatusDisputed
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusClosed:
		return "closed"
	case StatusDisputed:
		return "disputed"
	default:
		return "unknown"
	}
}

// StateUpdate is a proposed balance transition, signed by every affected
// participant.
type StateUpdate struct {
	SequenceNumber       uint64
	BalanceChanges       map[cryptoutil.PublicKey]int64
	AffectedParticipants []cryptoutil.PublicKey // canonical order
	Signatures           []cryptoutil.Signature  // same order as AffectedParticipants
	Timestamp            uint64
}

// ChannelState is the per-channel authoritative record. The
// zero value is not usable; construct with New. All mutation goes through
// ApplyUpdate, which is all-or-nothing: on any validator failure the state
// is left exactly as it was (P3).
//
// ChannelState is safe for concurrent use: readers take the shared lock,
// ApplyUpdate takes the exclusive lock for the full validate+mutate critical
// section, per the fixed lock-acquisition order.
type ChannelState struct {
	mu sync.RWMutex

	channelID      [32]byte
	participants   []cryptoutil.PublicKey // insertion (open) order
	balances       map[cryptoutil.PublicKey]int64
	sequenceNumber uint64
	status         Status
	latestUpdate   *StateUpdate

	log telemetry.Sink
}

// ChannelID returns the derived channel id: SHA-256 over the canonically
// sorted participant key bytes, concatenated.
func ChannelID(participants []cryptoutil.PublicKey) [32]byte {
	sorted := make([]cryptoutil.PublicKey, len(participants))
	copy(sorted, participants)
	cryptoutil.SortKeys(sorted)

	h := sha256.New()
	for _, pk := range sorted {
		h.Write(pk[:])
	}
	var id [32]byte
	copy(id[:], h.Sum(nil))
	return id
}

// New constructs a channel in Open status at sequence 0. participants is
// stored in the caller's order (the order the channel was opened with);
// channel_id is derived from the canonically sorted participants regardless
// of that order. Returns KindUnknownParticipant if initialBalances' key set
// does not exactly match participants (I1).
func New(participants []cryptoutil.PublicKey, initialBalances map[cryptoutil.PublicKey]int64, log telemetry.Sink) (*ChannelState, error) {
	log = telemetry.OrNop(log)

	if len(participants) == 0 {
		return nil, chanerr.New(chanerr.KindMalformed, "channel must have at least one participant")
	}

	seen := make(map[cryptoutil.PublicKey]struct{}, len(participants))
	for _, pk := range participants {
		if _, dup := seen[pk]; dup {
			return nil, chanerr.New(chanerr.KindMalformed, "duplicate participant in channel open")
		}
		seen[pk] = struct{}{}
	}

	if len(initialBalances) != len(participants) {
		return nil, chanerr.New(chanerr.KindUnknownParticipant, "initial balances do not cover exactly the participant set")
	}
	balances := make(map[cryptoutil.PublicKey]int64, len(participants))
	for _, pk := range participants {
		bal, ok := initialBalances[pk]
		if !ok {
			return nil, chanerr.New(chanerr.KindUnknownParticipant, "initial balances do not cover exactly the participant set")
		}
		balances[pk] = bal
	}

	cs := &ChannelState{
		channelID:      ChannelID(participants),
		participants:   append([]cryptoutil.PublicKey(nil), participants...),
		balances:       balances,
		sequenceNumber: 0,
		status:         StatusOpen,
		log:            log,
	}
	log.Infow("channel opened", "channel_id", cs.channelID, "participants", len(participants))
	return cs, nil
}

// ChannelID returns the channel's immutable id.
func (cs *ChannelState) ChannelID() [32]byte {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.channelID
}

// Participants returns a copy of the participant list in open order.
func (cs *ChannelState) Participants() []cryptoutil.PublicKey {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	out := make([]cryptoutil.PublicKey, len(cs.participants))
	copy(out, cs.participants)
	return out
}

// Balance returns the current balance for pk and whether pk is a participant.
func (cs *ChannelState) Balance(pk cryptoutil.PublicKey) (int64, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	bal, ok := cs.balances[pk]
	return bal, ok
}

// Balances returns a copy of the full balance map.
func (cs *ChannelState) Balances() map[cryptoutil.PublicKey]int64 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	out := make(map[cryptoutil.PublicKey]int64, len(cs.balances))
	for k, v := range cs.balances {
		out[k] = v
	}
	return out
}

// SequenceNumber returns the current monotone sequence counter.
func (cs *ChannelState) SequenceNumber() uint64 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.sequenceNumber
}

// Status returns the channel's lifecycle status.
func (cs *ChannelState) Status() Status {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.status
}

// LatestUpdate returns a copy of the last successfully applied update, or
// nil if none has been applied yet.
func (cs *ChannelState) LatestUpdate() *StateUpdate {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	if cs.latestUpdate == nil {
		return nil
	}
	u := *cs.latestUpdate
	return &u
}

// MarkDisputed transitions the channel to Disputed; once not Open, no
// further updates are accepted (I5), enforced by ApplyUpdate's status check,
// which rejects every update on a non-Open channel before validation runs.
// Dispute adjudication itself is out of scope; this only
// records the fact.
func (cs *ChannelState) MarkDisputed() {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.status = StatusDisputed
	cs.log.Warnw("channel marked disputed", "channel_id", cs.channelID)
}

// MarkClosed transitions the channel to Closed.
func (cs *ChannelState) MarkClosed() {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.status = StatusClosed
	cs.log.Infow("channel closed", "channel_id", cs.channelID)
}

// Restore reconstructs a ChannelState from a previously saved checkpoint
// snapshot. It skips New's participant/balance validation: snap was already
// validated by the validator before it was persisted, so Restore only
// rehydrates state, it does not re-derive it.
func Restore(snap checkpoint.Snapshot, log telemetry.Sink) *ChannelState {
	log = telemetry.OrNop(log)

	balances := make(map[cryptoutil.PublicKey]int64, len(snap.Balances))
	for k, v := range snap.Balances {
		balances[k] = v
	}

	cs := &ChannelState{
		channelID:      snap.ChannelID,
		participants:   append([]cryptoutil.PublicKey(nil), snap.Participants...),
		balances:       balances,
		sequenceNumber: snap.SequenceNumber,
		status:         Status(snap.Status),
		log:            log,
	}
	log.Infow("channel restored from checkpoint", "channel_id", cs.channelID, "sequence", cs.sequenceNumber)
	return cs
}

// ToSnapshot projects cs into a durable checkpoint.Snapshot, suitable for
// checkpoint.Store.SaveSnapshot.
func (cs *ChannelState) ToSnapshot() checkpoint.Snapshot {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	balances := make(map[cryptoutil.PublicKey]int64, len(cs.balances))
	for k, v := range cs.balances {
		balances[k] = v
	}
	return checkpoint.Snapshot{
		ChannelID:      cs.channelID,
		Participants:   append([]cryptoutil.PublicKey(nil), cs.participants...),
		Balances:       balances,
		SequenceNumber: cs.sequenceNumber,
		Status:         int(cs.status),
	}
}

// snapshot is an internal read used by Validate under the caller's lock.
type snapshot struct {
	channelID      [32]byte
	participants   []cryptoutil.PublicKey
	balances       map[cryptoutil.PublicKey]int64
	sequenceNumber uint64
	status         Status
}

func (cs *ChannelState) snapshotLocked() snapshot {
	balances := make(map[cryptoutil.PublicKey]int64, len(cs.balances))
	for k, v := range cs.balances {
		balances[k] = v
	}
	return snapshot{
		channelID:      cs.channelID,
		participants:   cs.participants,
		balances:       balances,
		sequenceNumber: cs.sequenceNumber,
		status:         cs.status,
	}
}

// ApplyUpdate runs the full validator against update and, on
// success, mutates the channel: increments sequence_number by exactly one,
// adds each delta to the corresponding balance with checked arithmetic, and
// stores update as latest_update. The whole operation is one critical
// section (validate+mutate); on any failure the state is provably unchanged
// because no field is written before every check has passed (P3).
func (cs *ChannelState) ApplyUpdate(update StateUpdate) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	snap := cs.snapshotLocked()
	if snap.status != StatusOpen {
		return chanerr.New(chanerr.KindInvalidSequence, "channel is not open")
	}

	newBalances, err := Validate(snap.channelID, snap.participants, snap.balances, snap.sequenceNumber, update)
	if err != nil {
		cs.log.Warnw("update rejected", "channel_id", snap.channelID, "sequence", update.SequenceNumber, "error", err)
		return err
	}

	cs.balances = newBalances
	cs.sequenceNumber = update.SequenceNumber
	storedUpdate := update
	cs.latestUpdate = &storedUpdate

	cs.log.Infow("update applied", "channel_id", snap.channelID, "sequence", cs.sequenceNumber)
	return nil
}
