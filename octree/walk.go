package octree

type WalkFunc func(addr Address, bounds Bounds) VisitCommand

// VisitDepthFirst walks the stored subtree under root in pre-order. Only
// stored nodes are visited and nothing is inserted; siblings come in
// ChildOffset order. A root that is not stored visits nothing.
func (t *Octree[T]) VisitDepthFirst(root Address, visit WalkFunc) {
	t.VisitDepthFirstToLevel(root, 0, visit)
}

// VisitDepthFirstToLevel is VisitDepthFirst that does not descend below
// minLevel.
func (t *Octree[T]) VisitDepthFirstToLevel(root Address, minLevel Level, visit WalkFunc) {
	if !t.Contains(root) {
		return
	}
	t.walk(root, minLevel, visit)
}

func (t *Octree[T]) walk(addr Address, minLevel Level, visit WalkFunc) {
	if visit(addr, addr.Bounds()) == SkipDescendants {
		return
	}
	if addr.Level <= minLevel {
		return
	}

	for _, child := range addr.Children() {
		if t.Contains(child) {
			t.walk(child, minLevel, visit)
		}
	}
}
