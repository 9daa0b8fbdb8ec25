package taxonomy

import (
	"fmt"

	sliceutil "github.com/projectdiscovery/utils/slice"

	"github.com/cognicore/exapt/pkg/exapt/internalerr"
)

// BuildFile loads the table at path and builds a tree from it.
func BuildFile(path string) (*Tree, error) {
	rows, err := LoadTable(path)
	if err != nil {
		return nil, err
	}
	return Build(rows)
}

// Build constructs a taxonomy tree from table rows.
//
// Construction runs in passes:
//  1. create one node per distinct category name
//  2. link parent → child pairs along every row's path (ordering only)
//  3. drop repeated children, keeping first-seen order
//  4. assign each node's parent from its ParentID (authoritative)
//  5. store each row's inferred tier
//  6. derive structure ids from sibling ranks
//
// Any row that names an unknown category aborts the build.
func Build(rows []Row) (*Tree, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no taxonomy rows", internalerr.ErrInvalidInput)
	}

	t := newTree()
	if err := t.createNodes(rows); err != nil {
		return nil, err
	}
	if err := t.linkChildren(rows); err != nil {
		return nil, err
	}
	t.dedupeChildren()
	if err := t.assignParents(rows); err != nil {
		return nil, err
	}
	if err := t.assignTiers(rows); err != nil {
		return nil, err
	}
	if err := t.checkLinks(); err != nil {
		return nil, err
	}
	if err := t.assignStructureIDs(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tree) createNodes(rows []Row) error {
	for _, row := range rows {
		if row.Name == RootName || row.CategoryID == RootID {
			return fmt.Errorf("%w: %q (%s) collides with the root category", internalerr.ErrInvalidInput, row.Name, row.CategoryID)
		}
		refByName, nameSeen := t.byName[row.Name]
		refByID, idSeen := t.byID[row.CategoryID]
		switch {
		case !nameSeen && !idSeen:
			t.add(row.CategoryID, row.Name, row.ParentID)
		case nameSeen && idSeen && refByName == refByID:
			// repeated row for a known category
		case nameSeen:
			return fmt.Errorf("%w: category %q listed with ids %s and %s",
				internalerr.ErrDuplicate, row.Name, t.nodes[refByName].ID, row.CategoryID)
		default:
			return fmt.Errorf("%w: id %s used by %q and %q",
				internalerr.ErrDuplicate, row.CategoryID, t.nodes[refByID].Name, row.Name)
		}
	}
	return nil
}

func (t *Tree) linkChildren(rows []Row) error {
	for _, row := range rows {
		tier := row.Tier()
		if tier == 1 {
			child, err := t.lookupName(row.Name)
			if err != nil {
				return err
			}
			t.nodes[0].Children = append(t.nodes[0].Children, child)
			continue
		}
		for i := 1; i < tier; i++ {
			parent, err := t.lookupName(row.Path[i-1])
			if err != nil {
				return err
			}
			child, err := t.lookupName(row.Path[i])
			if err != nil {
				return err
			}
			t.nodes[parent].Children = append(t.nodes[parent].Children, child)
		}
	}
	return nil
}

func (t *Tree) dedupeChildren() {
	for i := range t.nodes {
		t.nodes[i].Children = sliceutil.Dedupe(t.nodes[i].Children)
	}
}

func (t *Tree) assignParents(rows []Row) error {
	for _, row := range rows {
		child, err := t.lookupID(row.CategoryID)
		if err != nil {
			return err
		}
		if row.Tier() == 1 {
			t.nodes[child].Parent = 0
			continue
		}
		parent, err := t.lookupID(row.ParentID)
		if err != nil {
			return fmt.Errorf("parent of %q: %w", row.Name, err)
		}
		t.nodes[child].Parent = parent
	}
	return nil
}

func (t *Tree) assignTiers(rows []Row) error {
	t.nodes[0].Tier = 0
	for _, row := range rows {
		ref, err := t.lookupName(row.Name)
		if err != nil {
			return err
		}
		t.nodes[ref].Tier = row.Tier()
	}
	return nil
}

// checkLinks verifies that every category hangs under exactly one parent one
// tier above it, and that the children lists agree with the parent links.
func (t *Tree) checkLinks() error {
	holder := make(map[Ref]Ref, len(t.nodes))
	for i := range t.nodes {
		for _, c := range t.nodes[i].Children {
			if prev, ok := holder[c]; ok && prev != Ref(i) {
				return fmt.Errorf("%w: %q is listed under both %q and %q", internalerr.ErrInvalidInput,
					t.nodes[c].Name, t.nodes[prev].Name, t.nodes[i].Name)
			}
			holder[c] = Ref(i)
		}
	}

	for i := 1; i < len(t.nodes); i++ {
		n := &t.nodes[i]
		if n.Tier < 1 || n.Tier > MaxTier {
			return fmt.Errorf("%w: %q has tier %d", internalerr.ErrInvalidInput, n.Name, n.Tier)
		}
		if n.Parent == NoRef {
			return fmt.Errorf("%w: %q has no parent", internalerr.ErrInvalidInput, n.Name)
		}
		parent := &t.nodes[n.Parent]
		if parent.Tier != n.Tier-1 {
			return fmt.Errorf("%w: %q (tier %d) has parent %q (tier %d)", internalerr.ErrInvalidInput,
				n.Name, n.Tier, parent.Name, parent.Tier)
		}
		if h, ok := holder[n.Ref]; !ok || h != n.Parent {
			return fmt.Errorf("%w: %q is not listed among the children of %q", internalerr.ErrInvalidInput,
				n.Name, parent.Name)
		}
	}
	return nil
}

func (t *Tree) assignStructureIDs() error {
	// Ranks restart at 1 under every parent; tier-1 ranks come from the root.
	rank := make([]int, len(t.nodes))
	for i := range t.nodes {
		if t.nodes[i].Tier >= MaxTier {
			continue
		}
		for pos, c := range t.nodes[i].Children {
			rank[c] = pos + 1
		}
	}

	for i := 1; i < len(t.nodes); i++ {
		n := &t.nodes[i]
		ranks := make([]int, n.Tier)
		for cur := n; !cur.IsRoot(); cur = &t.nodes[cur.Parent] {
			ranks[cur.Tier-1] = rank[cur.Ref]
		}
		id, err := newStructureID(ranks)
		if err != nil {
			return fmt.Errorf("structure id of %q: %w", n.Name, err)
		}
		n.StructureID = id
	}
	return nil
}

func (t *Tree) lookupName(name string) (Ref, error) {
	ref, ok := t.byName[name]
	if !ok {
		return NoRef, fmt.Errorf("category %q: %w", name, internalerr.ErrNotFound)
	}
	return ref, nil
}

func (t *Tree) lookupID(id string) (Ref, error) {
	ref, ok := t.byID[id]
	if !ok {
		return NoRef, fmt.Errorf("category id %q: %w", id, internalerr.ErrNotFound)
	}
	return ref, nil
}
