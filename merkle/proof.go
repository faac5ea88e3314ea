package merkle

// Proof is an inclusion proof: the sibling hashes from the leaf level up,
// the leaf's index, and the (padded) initial level size.
type Proof struct {
	Siblings         [][32]byte
	LeafIndex        int
	InitialLevelSize int
}

// Verify recomputes the leaf hash for data and walks up using the sibling
// list, returning whether the resulting root matches root. Odd-sized levels
// self-duplicate exactly as Build does: when the current node is the last
// in an odd-sized level, it combines with itself rather than a sibling.
func (p Proof) Verify(root [32]byte, data []byte) bool {
	current := HashLeaf(data)
	idx := p.LeafIndex
	levelSize := p.InitialLevelSize

	if levelSize <= 1 {
		return HashInternal(current, current) == root
	}

	for _, sibling := range p.Siblings {
		isLeft := idx%2 == 0
		var left, right [32]byte
		if isLeft {
			if idx+1 >= levelSize {
				left, right = current, current
			} else {
				left, right = current, sibling
			}
		} else {
			left, right = sibling, current
		}
		current = HashInternal(left, right)

		idx /= 2
		levelSize = (levelSize + 1) / 2
	}

	return current == root
}
