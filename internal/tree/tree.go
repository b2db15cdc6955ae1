// Package tree holds the ordered category tree produced by classification
// and the named transformations that reshape it for presentation. Every
// transformation returns a fresh tree and leaves its receiver untouched.
package tree

import (
	"errors"
	"strings"

	"github.com/jonesrussell/north-cloud/prayerbook/internal/classifier"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/domain"
)

// PathSeparator joins the labels of a path.
const PathSeparator = "/"

var (
	// ErrPathNotFound is returned when a path addresses no node.
	ErrPathNotFound = errors.New("path not found")
	// ErrNotLeaf is returned when a leaf was required but a branch was found.
	ErrNotLeaf = errors.New("node is not a leaf")
	// ErrNotBranch is returned when a branch was required but a leaf was found.
	ErrNotBranch = errors.New("node is not a branch")
	// ErrDuplicateLabel is returned when a transformation would give two
	// siblings the same label.
	ErrDuplicateLabel = errors.New("duplicate label")
)

// Path addresses a node by its labels from the top level down.
type Path []string

// ParsePath splits a "Parent/Child" string into a Path.
func ParsePath(s string) Path {
	if s == "" {
		return nil
	}
	return Path(strings.Split(s, PathSeparator))
}

func (p Path) String() string {
	return strings.Join(p, PathSeparator)
}

// Parent returns the path without its last label.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1]
}

// Equal reports whether two paths address the same node.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Node is one category. A leaf holds prayers; a branch holds ordered
// children. A node is a leaf when Children is nil.
type Node struct {
	Label    string
	Prayers  []domain.Prayer
	Children []Node
}

// Leaf builds a leaf node.
func Leaf(label string, prayers []domain.Prayer) Node {
	if prayers == nil {
		prayers = []domain.Prayer{}
	}
	return Node{Label: label, Prayers: prayers}
}

// Branch builds a branch node. A branch with no children stays a branch.
func Branch(label string, children ...Node) Node {
	if children == nil {
		children = []Node{}
	}
	return Node{Label: label, Children: children}
}

// IsLeaf reports whether n holds prayers rather than children.
func (n Node) IsLeaf() bool {
	return n.Children == nil
}

// Len returns the number of prayers under n.
func (n Node) Len() int {
	if n.IsLeaf() {
		return len(n.Prayers)
	}
	total := 0
	for _, child := range n.Children {
		total += child.Len()
	}
	return total
}

func (n Node) clone() Node {
	out := Node{Label: n.Label}
	if n.IsLeaf() {
		out.Prayers = append([]domain.Prayer{}, n.Prayers...)
		return out
	}
	out.Children = cloneNodes(n.Children)
	return out
}

func cloneNodes(nodes []Node) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.clone()
	}
	return out
}

// Tree is the ordered list of top-level categories.
type Tree struct {
	Nodes []Node
}

// New builds a tree from top-level nodes.
func New(nodes ...Node) *Tree {
	if nodes == nil {
		nodes = []Node{}
	}
	return &Tree{Nodes: nodes}
}

// Assemble composes single-level partitions into a tree. Each level-1
// bucket becomes a top-level node; buckets named in splits are replaced by
// a branch holding the split's buckets as leaves, in split order.
func Assemble(level1 []classifier.Bucket, splits map[string][]classifier.Bucket) *Tree {
	nodes := make([]Node, 0, len(level1))
	for _, bucket := range level1 {
		sub, ok := splits[bucket.Label]
		if !ok {
			nodes = append(nodes, Leaf(bucket.Label, append([]domain.Prayer{}, bucket.Prayers...)))
			continue
		}
		children := make([]Node, 0, len(sub))
		for _, b := range sub {
			children = append(children, Leaf(b.Label, append([]domain.Prayer{}, b.Prayers...)))
		}
		nodes = append(nodes, Branch(bucket.Label, children...))
	}
	return New(nodes...)
}

// Clone returns a deep copy of the tree structure. Prayers are copied by
// value; their content slices are shared.
func (t *Tree) Clone() *Tree {
	return &Tree{Nodes: cloneNodes(t.Nodes)}
}

// Labels returns the top-level labels in order.
func (t *Tree) Labels() []string {
	labels := make([]string, len(t.Nodes))
	for i, n := range t.Nodes {
		labels[i] = n.Label
	}
	return labels
}

// Find returns the node at path.
func (t *Tree) Find(path Path) (Node, bool) {
	if len(path) == 0 {
		return Node{}, false
	}
	nodes := t.Nodes
	var found Node
	for depth, label := range path {
		idx := indexOf(nodes, label)
		if idx < 0 {
			return Node{}, false
		}
		found = nodes[idx]
		if depth < len(path)-1 && found.IsLeaf() {
			return Node{}, false
		}
		nodes = found.Children
	}
	return found, true
}

// Total returns the number of prayers in the tree.
func (t *Tree) Total() int {
	total := 0
	for _, n := range t.Nodes {
		total += n.Len()
	}
	return total
}

// Walk calls fn for every leaf in display order.
func (t *Tree) Walk(fn func(path Path, leaf Node)) {
	walk(nil, t.Nodes, fn)
}

func walk(prefix Path, nodes []Node, fn func(Path, Node)) {
	for _, n := range nodes {
		path := append(append(Path{}, prefix...), n.Label)
		if n.IsLeaf() {
			fn(path, n)
			continue
		}
		walk(path, n.Children, fn)
	}
}

func indexOf(nodes []Node, label string) int {
	for i, n := range nodes {
		if n.Label == label {
			return i
		}
	}
	return -1
}

// siblings returns a pointer to the slice holding the node at path, and the
// node's index within it.
func (t *Tree) siblings(path Path) (*[]Node, int, error) {
	if len(path) == 0 {
		return nil, -1, ErrPathNotFound
	}
	nodes := &t.Nodes
	for depth, label := range path {
		idx := indexOf(*nodes, label)
		if idx < 0 {
			return nil, -1, pathError(path, ErrPathNotFound)
		}
		if depth == len(path)-1 {
			return nodes, idx, nil
		}
		if (*nodes)[idx].IsLeaf() {
			return nil, -1, pathError(path, ErrPathNotFound)
		}
		nodes = &(*nodes)[idx].Children
	}
	return nil, -1, pathError(path, ErrPathNotFound)
}

func (t *Tree) node(path Path) (*Node, error) {
	nodes, idx, err := t.siblings(path)
	if err != nil {
		return nil, err
	}
	return &(*nodes)[idx], nil
}

// PathError reports the path a transformation failed on.
type PathError struct {
	Path Path
	Err  error
}

func (e *PathError) Error() string {
	return e.Path.String() + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error {
	return e.Err
}

func pathError(path Path, err error) error {
	return &PathError{Path: append(Path{}, path...), Err: err}
}
