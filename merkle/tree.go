// Package merkle implements C5: a binary Merkle tree with leaf/internal
// domain separation and duplicate-last-on-odd-level padding. Proofs are
// generated from the stored level arrays rather than a recursive node tree.
package merkle

import (
	"golang.org/x/crypto/sha3"
)

const (
	leafPrefix     = 0x00
	internalPrefix = 0x01
)

// HashLeaf computes the domain-separated leaf hash: Keccak256(0x00 || data).
func HashLeaf(data []byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte{leafPrefix})
	h.Write(data)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// HashInternal computes the domain-separated internal hash:
// Keccak256(0x01 || left || right).
func HashInternal(left, right [32]byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte{internalPrefix})
	h.Write(left[:])
	h.Write(right[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Tree is a Merkle tree built from an ordered list of leaves. It stores
// every level's hashes (not a recursive node graph) so Proof can be built
// directly from level arrays.
type Tree struct {
	levels    [][][32]byte // levels[0] = leaf hashes (padded), levels[last] = {root}
	leafCount int          // original, unpadded leaf count
}

// Root returns the tree's root hash, or false if the tree is empty.
func (t *Tree) Root() ([32]byte, bool) {
	if t == nil || len(t.levels) == 0 {
		return [32]byte{}, false
	}
	top := t.levels[len(t.levels)-1]
	if len(top) == 0 {
		return [32]byte{}, false
	}
	return top[0], true
}

// Build constructs a Tree from an ordered list of leaf byte-strings, per
// the rules:
//  - empty input -> empty tree (no root)
//  - odd leaf count > 1 -> duplicate the last leaf hash before pairing
//  - each subsequent odd-length level > 1 -> duplicate the last node
//  - single-leaf tree -> root = hash_internal(leaf, leaf)
func Build(leaves [][]byte) *Tree {
	if len(leaves) == 0 {
		return &Tree{}
	}

	leafHashes := make([][32]byte, len(leaves))
	for i, l := range leaves {
		leafHashes[i] = HashLeaf(l)
	}

	level := padOdd(leafHashes)
	levels := [][][32]byte{level}

	if len(level) == 1 {
		root := HashInternal(level[0], level[0])
		levels = append(levels, [][32]byte{root})
		return &Tree{levels: levels, leafCount: len(leaves)}
	}

	for len(level) > 1 {
		next := make([][32]byte, 0, (len(level)+1)/2)
		for i := 0; i+1 < len(level); i += 2 {
			next = append(next, HashInternal(level[i], level[i+1]))
		}
		level = padOdd(next)
		levels = append(levels, level)
	}

	return &Tree{levels: levels, leafCount: len(leaves)}
}

// padOdd duplicates the last hash if level has odd length > 1.
func padOdd(level [][32]byte) [][32]byte {
	if len(level) > 1 && len(level)%2 == 1 {
		level = append(level, level[len(level)-1])
	}
	return level
}

// GenerateProof returns the inclusion proof for the leaf at index i, or
// false if i is out of range.
func (t *Tree) GenerateProof(i int) (Proof, bool) {
	if t == nil || i < 0 || i >= t.leafCount {
		return Proof{}, false
	}

	initialLevelSize := t.leafCount
	if initialLevelSize > 1 && initialLevelSize%2 == 1 {
		initialLevelSize++
	}

	var siblings [][32]byte
	levelSize := initialLevelSize
	idx := i
	levelIdx := 0

	for levelSize > 1 {
		level := t.levels[levelIdx]
		siblingIdx := idx + 1
		if idx%2 != 0 {
			siblingIdx = idx - 1
		}

		current := hashAt(level, idx)
		var sibling [32]byte
		if siblingIdx < len(level) {
			sibling = level[siblingIdx]
		} else {
			sibling = current
		}

		siblings = append(siblings, sibling)

		idx /= 2
		levelSize = (levelSize + 1) / 2
		levelIdx++
	}

	return Proof{
		LeafIndex:        i,
		InitialLevelSize: initialLevelSize,
		Siblings:         siblings,
	}, true
}

func hashAt(level [][32]byte, idx int) [32]byte {
	if idx < len(level) {
		return level[idx]
	}
	return level[len(level)-1]
}
