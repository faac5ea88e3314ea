package channel

import (
	"sync"

	"github.com/channelcore/node/checkpoint"
	"github.com/channelcore/node/cryptoutil"
	"github.com/channelcore/node/telemetry"
)

// Registry tracks open channels in memory and, when backed by a
// checkpoint.Store, rehydrates them from the last saved snapshot instead of
// forgetting them across a process restart.
type Registry struct {
	mu    sync.Mutex
	open  map[[32]byte]*ChannelState
	store *checkpoint.Store
	log   telemetry.Sink
}

// NewRegistry builds a Registry backed by store. store may be nil, in which
// case channels are tracked in memory only and never checkpointed.
func NewRegistry(store *checkpoint.Store, log telemetry.Sink) *Registry {
	return &Registry{
		open:  make(map[[32]byte]*ChannelState),
		store: store,
		log:   telemetry.OrNop(log),
	}
}

// Open returns the in-memory channel for participants. If the channel is not
// already open in this registry, it is rehydrated from the last saved
// checkpoint when one exists, otherwise it is opened fresh at
// initialBalances.
func (r *Registry) Open(participants []cryptoutil.PublicKey, initialBalances map[cryptoutil.PublicKey]int64) (*ChannelState, error) {
	id := ChannelID(participants)

	r.mu.Lock()
	defer r.mu.Unlock()

	if cs, ok := r.open[id]; ok {
		return cs, nil
	}

	if r.store != nil {
		snap, found, err := r.store.LoadSnapshot(id)
		if err != nil {
			return nil, err
		}
		if found {
			cs := Restore(snap, r.log)
			r.open[id] = cs
			return cs, nil
		}
	}

	cs, err := New(participants, initialBalances, r.log)
	if err != nil {
		return nil, err
	}
	r.open[id] = cs
	return cs, nil
}

// Get returns the in-memory channel for channelID, if currently tracked by
// this registry.
func (r *Registry) Get(channelID [32]byte) (*ChannelState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cs, ok := r.open[channelID]
	return cs, ok
}

// Resume rehydrates every channel with a persisted checkpoint into memory,
// for use once at process startup so a restart does not forget open
// channels. It returns the number of channels resumed. A nil store makes
// this a no-op.
func (r *Registry) Resume() (int, error) {
	if r.store == nil {
		return 0, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	err := r.store.ForEachSnapshot(func(snap checkpoint.Snapshot) error {
		if _, already := r.open[snap.ChannelID]; already {
			return nil
		}
		r.open[snap.ChannelID] = Restore(snap, r.log)
		count++
		return nil
	})
	if err != nil {
		return count, err
	}
	r.log.Infow("channels resumed from checkpoint", "count", count)
	return count, nil
}
