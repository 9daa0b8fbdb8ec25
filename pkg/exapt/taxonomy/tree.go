package taxonomy

import (
	"fmt"
	"io"
	"strings"

	"github.com/cognicore/exapt/pkg/exapt/internalerr"
)

// Root identity of every tree.
const (
	RootID   = "0"
	RootName = "Category"
)

// Ref addresses a node inside its tree's arena.
type Ref int

// NoRef marks an absent parent.
const NoRef Ref = -1

// Profile maps a token to its occurrence count.
type Profile map[string]int

// Node is one taxonomy category. Parent and children are arena references
// owned by the Tree.
type Node struct {
	Ref         Ref
	ID          string
	Name        string
	ParentID    string
	Parent      Ref
	Children    []Ref
	Tier        int
	StructureID StructureID
	Keywords    Profile
}

// IsRoot reports whether n is the synthetic root.
func (n *Node) IsRoot() bool {
	return n.Ref == 0
}

// Tree holds the synthetic root (at Ref 0) and every parsed category in
// table order. A built tree is read-only except for node keywords.
type Tree struct {
	nodes  []Node
	byName map[string]Ref
	byID   map[string]Ref
}

func newTree() *Tree {
	t := &Tree{
		byName: make(map[string]Ref),
		byID:   make(map[string]Ref),
	}
	t.nodes = append(t.nodes, Node{
		Ref:      0,
		ID:       RootID,
		Name:     RootName,
		Parent:   NoRef,
		Keywords: Profile{},
	})
	return t
}

func (t *Tree) add(id, name, parentID string) Ref {
	ref := Ref(len(t.nodes))
	t.nodes = append(t.nodes, Node{
		Ref:      ref,
		ID:       id,
		Name:     name,
		ParentID: parentID,
		Parent:   NoRef,
		Keywords: Profile{},
	})
	t.byName[name] = ref
	t.byID[id] = ref
	return ref
}

// Root returns the synthetic root.
func (t *Tree) Root() *Node {
	return &t.nodes[0]
}

// Len returns the number of categories, root excluded.
func (t *Tree) Len() int {
	return len(t.nodes) - 1
}

// Node returns the node at ref, or nil when ref is out of range.
func (t *Tree) Node(ref Ref) *Node {
	if ref < 0 || int(ref) >= len(t.nodes) {
		return nil
	}
	return &t.nodes[ref]
}

// Parent returns n's parent, or nil for the root.
func (t *Tree) Parent(n *Node) *Node {
	if n == nil {
		return nil
	}
	return t.Node(n.Parent)
}

// Children returns n's children in first-seen order.
func (t *Tree) Children(n *Node) []*Node {
	out := make([]*Node, 0, len(n.Children))
	for _, ref := range n.Children {
		out = append(out, &t.nodes[ref])
	}
	return out
}

// Nodes returns every category in table order, root excluded.
func (t *Tree) Nodes() []*Node {
	out := make([]*Node, 0, t.Len())
	for i := 1; i < len(t.nodes); i++ {
		out = append(out, &t.nodes[i])
	}
	return out
}

// All returns the root followed by every category in table order.
func (t *Tree) All() []*Node {
	out := make([]*Node, 0, len(t.nodes))
	for i := range t.nodes {
		out = append(out, &t.nodes[i])
	}
	return out
}

// ByName looks a category up by display name. The root answers to RootName.
func (t *Tree) ByName(name string) (*Node, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty category name", internalerr.ErrInvalidInput)
	}
	if name == RootName {
		return t.Root(), nil
	}
	ref, ok := t.byName[name]
	if !ok {
		return nil, fmt.Errorf("category %q: %w", name, internalerr.ErrNotFound)
	}
	return &t.nodes[ref], nil
}

// ByID looks a category up by its external id.
func (t *Tree) ByID(id string) (*Node, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty category id", internalerr.ErrInvalidInput)
	}
	if id == RootID {
		return t.Root(), nil
	}
	ref, ok := t.byID[id]
	if !ok {
		return nil, fmt.Errorf("category id %q: %w", id, internalerr.ErrNotFound)
	}
	return &t.nodes[ref], nil
}

// TopLevel walks parent links from n until it reaches tier 1. It returns nil
// for the root.
func (t *Tree) TopLevel(n *Node) *Node {
	for n != nil && n.Tier > 1 {
		n = t.Parent(n)
	}
	if n == nil || n.Tier != 1 {
		return nil
	}
	return n
}

// Walk visits the tree depth-first, parents before children, starting at the
// root. Returning false from fn skips that node's subtree.
func (t *Tree) Walk(fn func(n *Node) bool) {
	var visit func(ref Ref)
	visit = func(ref Ref) {
		n := &t.nodes[ref]
		if !fn(n) {
			return
		}
		for _, c := range n.Children {
			visit(c)
		}
	}
	visit(0)
}

// SetKeywords replaces the keyword profile of the named category.
// Callers must not run this concurrently with scoring on the same tree.
func (t *Tree) SetKeywords(name string, keywords Profile) error {
	n, err := t.ByName(name)
	if err != nil {
		return err
	}
	if keywords == nil {
		keywords = Profile{}
	}
	n.Keywords = keywords
	return nil
}

// Describe writes every category with its parent and children.
func (t *Tree) Describe(w io.Writer) error {
	root := t.Root()
	names := make([]string, 0, len(root.Children))
	for _, c := range t.Children(root) {
		names = append(names, c.Name)
	}
	if _, err := fmt.Fprintf(w, "Root category '%s' (%s) has no parent and the following children: %s\n",
		root.Name, root.ID, strings.Join(names, " - ")); err != nil {
		return err
	}

	for _, n := range t.Nodes() {
		parent := t.Parent(n)
		var line string
		switch {
		case parent == nil:
			line = fmt.Sprintf("'%s' (%s) has no parent", n.Name, n.ID)
		case parent.IsRoot():
			line = fmt.Sprintf("'%s' (%s) is a main category", n.Name, n.ID)
		default:
			line = fmt.Sprintf("'%s' (%s) has the parent category '%s' (%s)", n.Name, n.ID, parent.Name, parent.ID)
		}
		if len(n.Children) == 0 {
			line += " and no children."
		} else {
			children := make([]string, 0, len(n.Children))
			for _, c := range t.Children(n) {
				children = append(children, c.Name)
			}
			line += " and the following children: " + strings.Join(children, " - ")
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// DescribeStructureIDs writes one line per category with its structure id.
func (t *Tree) DescribeStructureIDs(w io.Writer) error {
	for _, n := range t.Nodes() {
		if _, err := fmt.Fprintf(w, "'%s' (%s) has the structure id: %s.\n", n.Name, n.ID, n.StructureID); err != nil {
			return err
		}
	}
	return nil
}
