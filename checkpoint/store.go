// Package checkpoint adds durable channel-state snapshots. A node core
// that keeps ChannelState entirely in memory cannot survive a process
// restart; this package persists the already-validated result of
// ApplyUpdate so a channel can be rehydrated afterward. It is additive —
// it does not change C3/C4 semantics, only durability.
package checkpoint

import (
	"bytes"
	"encoding/gob"

	bolt "go.etcd.io/bbolt"

	"github.com/channelcore/node/chanerr"
	"github.com/channelcore/node/cryptoutil"
	"github.com/channelcore/node/telemetry"
)

var snapshotBucket = []byte("channel_snapshots")

// Snapshot is the persisted projection of a channel.ChannelState: enough to
// rehydrate participants, balances, sequence and status after a restart. The
// latest applied update is not part of a snapshot, so a channel restored
// from one has no latest update. It deliberately does not try to be the same Go type as
// channel.ChannelState (which carries a mutex) — callers translate at the
// boundary.
type Snapshot struct {
	ChannelID      [32]byte
	Participants   []cryptoutil.PublicKey
	Balances       map[cryptoutil.PublicKey]int64
	SequenceNumber uint64
	Status         int
}

// Store is a bbolt-backed durable store for channel snapshots, keyed by
// channel id, kept distinct from the badger-backed UTXO store
// (store.UtxoStore) so the two domain concerns — ledger outputs and channel
// checkpoints — don't share a backend for no reason.
type Store struct {
	db  *bolt.DB
	log telemetry.Sink
}

// Open opens (creating if absent) a bbolt database at path.
func Open(path string, log telemetry.Sink) (*Store, error) {
	log = telemetry.OrNop(log)
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, chanerr.Wrap(chanerr.KindStorageError, "open checkpoint store", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(snapshotBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, chanerr.Wrap(chanerr.KindStorageError, "init checkpoint bucket", err)
	}
	log.Infow("checkpoint store opened", "path", path)
	return &Store{db: db, log: log}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSnapshot persists snap, overwriting any prior snapshot for the same
// channel id.
func (s *Store) SaveSnapshot(snap Snapshot) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return chanerr.Wrap(chanerr.KindSerializationError, "encode channel snapshot", err)
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(snapshotBucket)
		return b.Put(snap.ChannelID[:], buf.Bytes())
	})
	if err != nil {
		return chanerr.Wrap(chanerr.KindStorageError, "save channel snapshot", err)
	}
	s.log.Debugw("checkpoint saved", "channel_id", snap.ChannelID, "sequence", snap.SequenceNumber)
	return nil
}

// ForEachSnapshot calls fn once for every persisted snapshot. Iteration
// stops and ForEachSnapshot returns fn's error if fn returns one.
func (s *Store) ForEachSnapshot(fn func(Snapshot) error) error {
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(snapshotBucket)
		return b.ForEach(func(_, val []byte) error {
			var snap Snapshot
			if decErr := gob.NewDecoder(bytes.NewReader(val)).Decode(&snap); decErr != nil {
				return decErr
			}
			return fn(snap)
		})
	})
	if err != nil {
		return chanerr.Wrap(chanerr.KindSerializationError, "iterate channel snapshots", err)
	}
	return nil
}

// LoadSnapshot retrieves the most recently saved snapshot for channelID, if
// any.
func (s *Store) LoadSnapshot(channelID [32]byte) (Snapshot, bool, error) {
	var snap Snapshot
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(snapshotBucket)
		val := b.Get(channelID[:])
		if val == nil {
			return nil
		}
		if err := gob.NewDecoder(bytes.NewReader(val)).Decode(&snap); err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return Snapshot{}, false, chanerr.Wrap(chanerr.KindSerializationError, "decode channel snapshot", err)
	}
	return snap, found, nil
}
