package tree

import (
	"errors"
	"fmt"
	"sort"

	"github.com/jonesrussell/north-cloud/prayerbook/internal/domain"
)

// Merge unions the leaf at from into the leaf at into and removes from.
// The merged list is re-sorted by corpus index, stably.
func (t *Tree) Merge(into, from Path) (*Tree, error) {
	if into.Equal(from) {
		return nil, pathError(from, errors.New("cannot merge a node into itself"))
	}
	out := t.Clone()

	src, err := out.leaf(from)
	if err != nil {
		return nil, err
	}
	dst, err := out.leaf(into)
	if err != nil {
		return nil, err
	}

	merged := make([]domain.Prayer, 0, len(dst.Prayers)+len(src.Prayers))
	merged = append(merged, dst.Prayers...)
	merged = append(merged, src.Prayers...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Index < merged[j].Index
	})
	dst.Prayers = merged

	siblings, idx, err := out.siblings(from)
	if err != nil {
		return nil, err
	}
	*siblings = append((*siblings)[:idx], (*siblings)[idx+1:]...)
	return out, nil
}

// StripAnnotations drops content items annotated with kind from every
// prayer under the given paths. Affected prayers get new content slices;
// prayers elsewhere keep their content.
func (t *Tree) StripAnnotations(kind string, paths ...Path) (*Tree, error) {
	out := t.Clone()
	for _, path := range paths {
		n, err := out.node(path)
		if err != nil {
			return nil, err
		}
		eachLeaf(n, func(leaf *Node) {
			for i, p := range leaf.Prayers {
				leaf.Prayers[i] = p.WithoutAnnotations(kind)
			}
		})
	}
	return out, nil
}

// SortByLength orders the prayers of every leaf under path by ascending
// raw text length in runes. Equal lengths keep their order.
func (t *Tree) SortByLength(path Path) (*Tree, error) {
	out := t.Clone()
	n, err := out.node(path)
	if err != nil {
		return nil, err
	}
	eachLeaf(n, func(leaf *Node) {
		prayers := leaf.Prayers
		sort.SliceStable(prayers, func(i, j int) bool {
			return prayers[i].TextLength() < prayers[j].TextLength()
		})
	})
	return out, nil
}

// Promote lifts the node at path out of its parent to the top level,
// placing it before the top-level node labelled before. An empty before
// places it directly ahead of the node it was lifted from.
func (t *Tree) Promote(path Path, before string) (*Tree, error) {
	if len(path) < 2 {
		return nil, pathError(path, errors.New("only nested nodes can be promoted"))
	}
	out := t.Clone()

	siblings, idx, err := out.siblings(path)
	if err != nil {
		return nil, err
	}
	lifted := (*siblings)[idx]
	if indexOf(out.Nodes, lifted.Label) >= 0 {
		return nil, pathError(path, fmt.Errorf("%w at top level: %q", ErrDuplicateLabel, lifted.Label))
	}
	*siblings = append((*siblings)[:idx], (*siblings)[idx+1:]...)

	anchor := before
	if anchor == "" {
		anchor = path[0]
	}
	at := indexOf(out.Nodes, anchor)
	if at < 0 {
		return nil, pathError(Path{anchor}, ErrPathNotFound)
	}
	out.Nodes = insertAt(out.Nodes, at, lifted)
	return out, nil
}

// Flatten replaces the branch at path with its children, in place.
func (t *Tree) Flatten(path Path) (*Tree, error) {
	out := t.Clone()
	siblings, idx, err := out.siblings(path)
	if err != nil {
		return nil, err
	}
	branch := (*siblings)[idx]
	if branch.IsLeaf() {
		return nil, pathError(path, ErrNotBranch)
	}
	for _, child := range branch.Children {
		if j := indexOf(*siblings, child.Label); j >= 0 && j != idx {
			return nil, pathError(path, fmt.Errorf("%w: %q", ErrDuplicateLabel, child.Label))
		}
	}

	nodes := make([]Node, 0, len(*siblings)-1+len(branch.Children))
	nodes = append(nodes, (*siblings)[:idx]...)
	nodes = append(nodes, branch.Children...)
	nodes = append(nodes, (*siblings)[idx+1:]...)
	*siblings = nodes
	return out, nil
}

// Reorder moves the named top-level nodes to the front in the given order.
// Nodes not named keep their relative order after them; unknown names are
// ignored.
func (t *Tree) Reorder(order []string) *Tree {
	out := t.Clone()
	nodes := make([]Node, 0, len(out.Nodes))
	placed := make(map[string]bool, len(order))
	for _, label := range order {
		if placed[label] {
			continue
		}
		if idx := indexOf(out.Nodes, label); idx >= 0 {
			nodes = append(nodes, out.Nodes[idx])
			placed[label] = true
		}
	}
	for _, n := range out.Nodes {
		if !placed[n.Label] {
			nodes = append(nodes, n)
		}
	}
	out.Nodes = nodes
	return out
}

func (t *Tree) leaf(path Path) (*Node, error) {
	n, err := t.node(path)
	if err != nil {
		return nil, err
	}
	if !n.IsLeaf() {
		return nil, pathError(path, ErrNotLeaf)
	}
	return n, nil
}

func eachLeaf(n *Node, fn func(*Node)) {
	if n.IsLeaf() {
		fn(n)
		return
	}
	for i := range n.Children {
		eachLeaf(&n.Children[i], fn)
	}
}

func insertAt(nodes []Node, at int, n Node) []Node {
	out := make([]Node, 0, len(nodes)+1)
	out = append(out, nodes[:at]...)
	out = append(out, n)
	out = append(out, nodes[at:]...)
	return out
}
