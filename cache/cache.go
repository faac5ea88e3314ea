// Package cache implements C8: a concurrency-safe write-through front of
// C7 (store.UtxoStore), with atomic spend-then-add semantics and
// confirmation updates.
package cache

import (
	"sync"

	"github.com/channelcore/node/chanerr"
	"github.com/channelcore/node/store"
	"github.com/channelcore/node/telemetry"
	"github.com/channelcore/node/utxo"
)

type key struct {
	txHash utxo.Hash
	index uint32
}

// UtxoCache is the in-memory map (tx_hash, output_index) -> Utxo layered
// over a durable store.UtxoStore. Two locks guard it: mapMu for the
// in-memory map, storeMu for the backing store handle, always acquired in
// that order (map, then store) to prevent deadlock.
// add_transaction and remove_spent each hold both locks for their full
// duration so readers observe atomic "spend+add" semantics; get_utxo takes
// only the map read lock.
type UtxoCache struct {
	mapMu sync.RWMutex
	cache map[key]utxo.Utxo

	storeMu sync.Mutex
	store  *store.UtxoStore

	log telemetry.Sink
}

// New builds a cache fronting backing.
func New(backing *store.UtxoStore, log telemetry.Sink) *UtxoCache {
	return &UtxoCache{
		cache: make(map[key]utxo.Utxo),
		store: backing,
		log:  telemetry.OrNop(log),
	}
}

// AddTransaction constructs a Utxo for each output of tx (confirmed with
// blockHeight if supplied, else unconfirmed with block_height 0), buffers
// them, persists tx's outputs to the store, and only then inserts the
// buffered Utxos into the cache. Both writes happen under a single
// acquisition of both locks so no reader observes a partial transaction. If
// the store write fails, the buffered inserts are simply dropped, so the
// cache never diverges from the store.
func (c *UtxoCache) AddTransaction(tx utxo.Transaction, blockHeight *uint32) error {
	c.mapMu.Lock()
	defer c.mapMu.Unlock()
	c.storeMu.Lock()
	defer c.storeMu.Unlock()

	pending := make(map[key]utxo.Utxo, len(tx.Outputs))
	for idx, out := range tx.Outputs {
		u := utxo.Utxo{
			Output:   out,
			OutputIndex: uint32(idx),
			TxHash:   tx.Hash,
		}
		if blockHeight != nil {
			u.BlockHeight = *blockHeight
			u.IsConfirmed = true
		}
		pending[key{txHash: tx.Hash, index: uint32(idx)}] = u
	}

	if err := c.store.AddOutputs(tx); err != nil {
		// Store write failed: pending inserts are local and were never
		// applied to c.cache, so there is nothing to roll back.
		return err
	}

	for k, u := range pending {
		c.cache[k] = u
	}

	c.log.Debugw("cache: transaction added", "tx_hash", tx.Hash, "outputs", len(tx.Outputs))
	return nil
}

// RemoveSpent verifies every input of tx is present in the cache or the
// store; if any is absent from both, it fails with KindUtxoNotFound and
// leaves cache and store untouched (U3, P8/P9). Otherwise it removes every
// input from the cache and batch-removes them from the store, atomically
// under both locks.
func (c *UtxoCache) RemoveSpent(tx utxo.Transaction) error {
	c.mapMu.Lock()
	defer c.mapMu.Unlock()
	c.storeMu.Lock()
	defer c.storeMu.Unlock()

	for _, in := range tx.Inputs {
		k := key{txHash: in.PreviousOutput, index: in.Index}
		if _, ok := c.cache[k]; ok {
			continue
		}
		present, err := c.store.ContainsInput(in)
		if err != nil {
			return err
		}
		if !present {
			return chanerr.New(chanerr.KindUtxoNotFound, "input not found in cache or store")
		}
	}

	if err := c.store.RemoveInputs(tx.Inputs); err != nil {
		return err
	}

	for _, in := range tx.Inputs {
		delete(c.cache, key{txHash: in.PreviousOutput, index: in.Index})
	}

	c.log.Debugw("cache: transaction spent", "tx_hash", tx.Hash, "inputs", len(tx.Inputs))
	return nil
}

// GetUtxo looks up a single Utxo by cache, falling back to the store on a
// miss. It deliberately does not populate the cache from the store on a
// miss — a store hit is not write-back cached.
func (c *UtxoCache) GetUtxo(txHash utxo.Hash, outputIndex uint32) (utxo.Utxo, bool, error) {
	c.mapMu.RLock()
	u, ok := c.cache[key{txHash: txHash, index: outputIndex}]
	c.mapMu.RUnlock()
	if ok {
		return u, true, nil
	}

	out, found, err := c.store.Get(txHash, outputIndex)
	if err != nil {
		return utxo.Utxo{}, false, err
	}
	if !found {
		return utxo.Utxo{}, false, nil
	}
	return utxo.Utxo{Output: out, TxHash: txHash, OutputIndex: outputIndex}, true, nil
}

// ConfirmTransaction sets block_height and is_confirmed=true on every cache
// entry whose tx_hash matches txHash.
func (c *UtxoCache) ConfirmTransaction(txHash utxo.Hash, blockHeight uint32) {
	c.mapMu.Lock()
	defer c.mapMu.Unlock()
	for k, u := range c.cache {
		if k.txHash == txHash {
			u.BlockHeight = blockHeight
			u.IsConfirmed = true
			c.cache[k] = u
		}
	}
}

// Len returns the number of entries currently cached in memory.
func (c *UtxoCache) Len() int {
	c.mapMu.RLock()
	defer c.mapMu.RUnlock()
	return len(c.cache)
}
