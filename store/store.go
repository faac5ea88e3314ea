// Package store implements C7: a durable, badger-backed key-value store
// keyed by (tx_hash, output_index), with atomic batch writes for "add all
// outputs" and "remove all inputs".
package store

import (
	"errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/channelcore/node/chanerr"
	"github.com/channelcore/node/telemetry"
	"github.com/channelcore/node/utxo"
)

var errShortOutput = errors.New("store: truncated output encoding")

// UtxoStore is the durable backend for C7. It wraps a *badger.DB; badger
// transactions give us the atomic multi-key batch semantics the store contract
// requires for free.
type UtxoStore struct {
	db *badger.DB
	log telemetry.Sink
}

// Open opens (creating if absent) a badger database at dir. Badger's own
// logger is silenced — all observability for this package goes through the
// supplied Sink instead, keeping observability out of the storage layer.
func Open(dir string, log telemetry.Sink) (*UtxoStore, error) {
	log = telemetry.OrNop(log)
	opts := badger.DefaultOptions(dir).WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, chanerr.Wrap(chanerr.KindStorageError, "open utxo store", err)
	}
	log.Infow("utxo store opened", "dir", dir)
	return &UtxoStore{db: db, log: log}, nil
}

// Close releases the underlying database handle.
func (s *UtxoStore) Close() error {
	return s.db.Close()
}

// AddOutputs inserts one entry per output of tx, (tx.Hash, idx) -> output,
// as a single atomic batch (U2).
func (s *UtxoStore) AddOutputs(tx utxo.Transaction) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		for idx, out := range tx.Outputs {
			key := encodeKey(tx.Hash, uint32(idx))
			if err := txn.Set(key, encodeOutput(out)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return chanerr.Wrap(chanerr.KindStorageError, "add outputs", err)
	}
	s.log.Debugw("outputs added", "tx_hash", tx.Hash, "count", len(tx.Outputs))
	return nil
}

// RemoveInputs deletes entries (input.PreviousOutput, input.Index) as a
// single atomic batch. Removing an absent key is not an error at this
// level — the cache (C8) is responsible for presence enforcement.
func (s *UtxoStore) RemoveInputs(inputs []utxo.Input) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, in := range inputs {
			key := encodeKey(in.PreviousOutput, in.Index)
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return chanerr.Wrap(chanerr.KindStorageError, "remove inputs", err)
	}
	s.log.Debugw("inputs removed", "count", len(inputs))
	return nil
}

// ContainsInput reports whether input's referenced output is present.
func (s *UtxoStore) ContainsInput(input utxo.Input) (bool, error) {
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(encodeKey(input.PreviousOutput, input.Index))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, chanerr.Wrap(chanerr.KindStorageError, "contains input", err)
	}
	return found, nil
}

// Get looks up a single output by (txHash, outputIndex).
func (s *UtxoStore) Get(txHash utxo.Hash, outputIndex uint32) (utxo.Output, bool, error) {
	var out utxo.Output
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(encodeKey(txHash, outputIndex))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			decoded, decErr := decodeOutput(val)
			if decErr != nil {
				return decErr
			}
			out = decoded
			found = true
			return nil
		})
	})
	if err != nil {
		return utxo.Output{}, false, chanerr.Wrap(chanerr.KindSerializationError, "decode stored output", err)
	}
	return out, found, nil
}

// Len returns the number of entries currently stored.
func (s *UtxoStore) Len() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, chanerr.Wrap(chanerr.KindStorageError, "count entries", err)
	}
	return count, nil
}

// IsEmpty reports whether the store has zero entries.
func (s *UtxoStore) IsEmpty() (bool, error) {
	n, err := s.Len()
	return n == 0, err
}
