// Package property implements the ordered, hierarchical property tree that
// carries the metadata of a decoded image.
//
// Paths are "/" separated. A key holds exactly one of: a leaf value, a
// sub-branch, or an ordered list of sequence items (each itself a tree).
// Leaf values are restricted to the types listed in `IsValue`.
package property

import (
	"fmt"
	"io"
	"strings"
)

// Separator splits path segments.
const Separator = "/"

type node struct {
	value  interface{}
	branch *Tree
	items  []*Tree
}

func (n *node) isLeaf() bool { return n.value != nil }

// Tree is an ordered property map. The zero value is not usable, use `New`.
// A Tree is not safe for concurrent mutation.
type Tree struct {
	keys  []string
	nodes map[string]*node
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{nodes: map[string]*node{}}
}

func splitPath(path string) []string {
	parts := strings.Split(path, Separator)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (t *Tree) put(key string, n *node) {
	if _, found := t.nodes[key]; !found {
		t.keys = append(t.keys, key)
	}
	t.nodes[key] = n
}

func (t *Tree) del(key string) {
	if _, found := t.nodes[key]; !found {
		return
	}
	delete(t.nodes, key)
	for i, k := range t.keys {
		if k == key {
			t.keys = append(t.keys[:i], t.keys[i+1:]...)
			break
		}
	}
}

// walkTo returns the tree holding the last segment of `parts`.
// With `create`, missing (or non branch) intermediate nodes are replaced by branches.
func (t *Tree) walkTo(parts []string, create bool) *Tree {
	cur := t
	for _, p := range parts[:len(parts)-1] {
		n, found := cur.nodes[p]
		if !found || n.branch == nil {
			if !create {
				return nil
			}
			n = &node{branch: New()}
			cur.put(p, n)
		}
		cur = n.branch
	}
	return cur
}

func (t *Tree) lookup(path string) *node {
	parts := splitPath(path)
	if len(parts) == 0 {
		return nil
	}
	parent := t.walkTo(parts, false)
	if parent == nil {
		return nil
	}
	return parent.nodes[parts[len(parts)-1]]
}

// Set stores `v` at `path`, creating intermediate branches as needed.
// It panics if `v` is not one of the supported value types.
func (t *Tree) Set(path string, v interface{}) {
	if !IsValue(v) {
		panic(fmt.Sprintf("property: unsupported value type %T at %q", v, path))
	}
	parts := splitPath(path)
	if len(parts) == 0 {
		panic("property: empty path")
	}
	t.walkTo(parts, true).put(parts[len(parts)-1], &node{value: v})
}

// Get returns the leaf value at `path`.
func (t *Tree) Get(path string) (interface{}, bool) {
	n := t.lookup(path)
	if n == nil || !n.isLeaf() {
		return nil, false
	}
	return n.value, true
}

// Has reports whether a leaf value exists at `path`.
func (t *Tree) Has(path string) bool {
	_, found := t.Get(path)
	return found
}

// Exists reports whether anything (leaf, branch or sequence) exists at `path`.
func (t *Tree) Exists(path string) bool {
	return t.lookup(path) != nil
}

// Remove deletes whatever is stored at `path`. Branches left empty are pruned.
func (t *Tree) Remove(path string) bool {
	parts := splitPath(path)
	if len(parts) == 0 {
		return false
	}
	return t.remove(parts)
}

func (t *Tree) remove(parts []string) bool {
	n, found := t.nodes[parts[0]]
	if !found {
		return false
	}
	if len(parts) == 1 {
		t.del(parts[0])
		return true
	}
	if n.branch == nil || !n.branch.remove(parts[1:]) {
		return false
	}
	if n.branch.Len() == 0 {
		t.del(parts[0])
	}
	return true
}

// Extract returns the leaf value at `path` and removes it.
func (t *Tree) Extract(path string) (interface{}, bool) {
	v, found := t.Get(path)
	if found {
		t.Remove(path)
	}
	return v, found
}

// Rename moves whatever is stored at `from` to `to`, replacing anything at `to`.
func (t *Tree) Rename(from, to string) bool {
	n := t.lookup(from)
	if n == nil {
		return false
	}
	parts := splitPath(to)
	if len(parts) == 0 {
		return false
	}
	t.Remove(from)
	t.walkTo(parts, true).put(parts[len(parts)-1], n)
	return true
}

// Branch returns the sub-tree at `path`, or nil if there is none.
func (t *Tree) Branch(path string) *Tree {
	n := t.lookup(path)
	if n == nil {
		return nil
	}
	return n.branch
}

// MakeBranch returns the sub-tree at `path`, creating it if needed.
func (t *Tree) MakeBranch(path string) *Tree {
	parts := splitPath(path)
	if len(parts) == 0 {
		return t
	}
	parent := t.walkTo(parts, true)
	key := parts[len(parts)-1]
	if n, found := parent.nodes[key]; found && n.branch != nil {
		return n.branch
	}
	b := New()
	parent.put(key, &node{branch: b})
	return b
}

// AppendItem appends `item` to the sequence stored at `path`.
func (t *Tree) AppendItem(path string, item *Tree) {
	parts := splitPath(path)
	if len(parts) == 0 {
		panic("property: empty path")
	}
	parent := t.walkTo(parts, true)
	key := parts[len(parts)-1]
	n, found := parent.nodes[key]
	if !found || n.items == nil {
		n = &node{items: make([]*Tree, 0, 1)}
		parent.put(key, n)
	}
	n.items = append(n.items, item)
}

// Items returns the sequence items stored at `path`.
func (t *Tree) Items(path string) []*Tree {
	n := t.lookup(path)
	if n == nil {
		return nil
	}
	return n.items
}

// Keys returns the top level keys in insertion order.
func (t *Tree) Keys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// Len returns the number of top level keys.
func (t *Tree) Len() int { return len(t.keys) }

// Merge moves every entry of `other` into `t`. Leaves in `other` win; branches are merged recursively.
func (t *Tree) Merge(other *Tree) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		src := other.nodes[k]
		if dst, found := t.nodes[k]; found && dst.branch != nil && src.branch != nil {
			dst.branch.Merge(src.branch)
			continue
		}
		t.put(k, src)
	}
	other.keys = nil
	other.nodes = map[string]*node{}
}

// Clone returns a deep copy. Leaf values are copied, including list values.
func (t *Tree) Clone() *Tree {
	c := New()
	for _, k := range t.keys {
		n := t.nodes[k]
		cn := &node{value: cloneValue(n.value)}
		if n.branch != nil {
			cn.branch = n.branch.Clone()
		}
		if n.items != nil {
			cn.items = make([]*Tree, len(n.items))
			for i, item := range n.items {
				cn.items[i] = item.Clone()
			}
		}
		c.put(k, cn)
	}
	return c
}

// Walk calls `fn` for every leaf in depth first order. Sequence items are
// addressed as "Name[i]".
func (t *Tree) Walk(fn func(path string, v interface{})) {
	t.walk("", fn)
}

func (t *Tree) walk(prefix string, fn func(string, interface{})) {
	for _, k := range t.keys {
		n := t.nodes[k]
		path := prefix + k
		switch {
		case n.isLeaf():
			fn(path, n.value)
		case n.branch != nil:
			n.branch.walk(path+Separator, fn)
		default:
			for i, item := range n.items {
				item.walk(fmt.Sprintf("%s[%d]%s", path, i, Separator), fn)
			}
		}
	}
}

// Describe writes an indented, human readable listing of the tree to `w`.
func (t *Tree) Describe(w io.Writer) error {
	return t.describe(w, 0)
}

func (t *Tree) describe(w io.Writer, depth int) error {
	indent := strings.Repeat("  ", depth)
	for _, k := range t.keys {
		n := t.nodes[k]
		var err error
		switch {
		case n.isLeaf():
			_, err = fmt.Fprintf(w, "%s%s: %s\n", indent, k, FormatValue(n.value))
		case n.branch != nil:
			if _, err = fmt.Fprintf(w, "%s%s/\n", indent, k); err == nil {
				err = n.branch.describe(w, depth+1)
			}
		default:
			for i, item := range n.items {
				if _, err = fmt.Fprintf(w, "%s%s[%d]\n", indent, k, i); err != nil {
					break
				}
				if err = item.describe(w, depth+1); err != nil {
					break
				}
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) String() string {
	var sb strings.Builder
	t.Describe(&sb)
	return sb.String()
}
