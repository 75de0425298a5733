package octree

// VisitCommand tells a fill or a walk whether to descend below the node that
// was just visited.
type VisitCommand int

const (
	Continue VisitCommand = iota
	SkipDescendants
)

// Entry is the node handed to fill visitors. Inserted is true when the node
// did not exist before this visit, so callers can initialize Value once.
type Entry[T any] struct {
	Value    *T
	Inserted bool
}

type FillFunc[T any] func(addr Address, entry Entry[T]) VisitCommand

type PathFunc[T any] func(addr Address, entry Entry[T])

// FillFromRoot inserts nodes top-down from root, parents before children.
// Every visited node is inserted before visit sees it, so an inserted node
// always has its whole ancestor chain up to root. Children are visited in
// ChildOffset order and recursion stops at level 0.
func (t *Octree[T]) FillFromRoot(root Address, initial T, visit FillFunc[T]) {
	t.FillFromRootToLevel(root, 0, initial, visit)
}

// FillFromRootToLevel is FillFromRoot that does not descend below minLevel.
// Roots outside of the index space insert nothing.
func (t *Octree[T]) FillFromRootToLevel(root Address, minLevel Level, initial T, visit FillFunc[T]) {
	if !root.InIndexSpace() {
		return
	}
	t.fill(root, minLevel, initial, visit)
}

func (t *Octree[T]) fill(addr Address, minLevel Level, initial T, visit FillFunc[T]) {
	value, inserted := t.GetOrInsert(addr, initial)
	if visit(addr, Entry[T]{Value: value, Inserted: inserted}) == SkipDescendants {
		return
	}
	if addr.Level <= minLevel {
		return
	}

	for _, child := range addr.Children() {
		t.fill(child, minLevel, initial, visit)
	}
}

// FillPathToNode inserts the straight chain of ancestors of target, from the
// root level down to target itself, without any sibling. visit is called once
// per level. Targets above the root level insert nothing.
func (t *Octree[T]) FillPathToNode(target Address, initial T, visit PathFunc[T]) {
	if target.Level > t.RootLevel() {
		return
	}

	for level := t.RootLevel(); ; level-- {
		addr := target.Ancestor(level)
		value, inserted := t.GetOrInsert(addr, initial)
		if visit != nil {
			visit(addr, Entry[T]{Value: value, Inserted: inserted})
		}

		if level == target.Level {
			return
		}
	}
}
