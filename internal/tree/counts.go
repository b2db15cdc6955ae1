package tree

// LeafCount is the number of prayers in one leaf.
type LeafCount struct {
	Path  Path
	Count int
}

// Counts returns the size of every leaf in display order.
func (t *Tree) Counts() []LeafCount {
	var counts []LeafCount
	t.Walk(func(path Path, leaf Node) {
		counts = append(counts, LeafCount{Path: path, Count: len(leaf.Prayers)})
	})
	return counts
}
