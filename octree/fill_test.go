package octree

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func newLODTree(t *testing.T, height int, focus Address, detail int32) *Octree[struct{}] {
	tree, err := New[struct{}](height)
	require.NoError(t, err)

	root := focus.Ancestor(tree.RootLevel())
	tree.FillFromRoot(root, struct{}{}, func(addr Address, entry Entry[struct{}]) VisitCommand {
		if CanSubdivide(focus, addr, detail) {
			return Continue
		}
		return SkipDescendants
	})
	return tree
}

func TestFillFromRootAroundFocus(t *testing.T) {
	focus := NewAddress(0, Splat(0))
	tree := newLODTree(t, 4, focus, 1)

	// The root, then 8 children for each of the three refined nodes on the
	// path to the focus.
	require.Equal(t, 25, tree.Len())

	for level := Level(0); level <= 3; level++ {
		require.True(t, tree.Contains(focus.Ancestor(level)), "level %d", level)
	}

	for _, addr := range tree.Addresses() {
		if addr.Level != 0 {
			continue
		}
		for _, c := range addr.Coord.Array() {
			require.GreaterOrEqual(t, c, int32(0), addr.String())
			require.LessOrEqual(t, c, int32(1), addr.String())
		}
	}
}

func TestFillFromRootHasNoOrphans(t *testing.T) {
	focuses := []Address{
		NewAddress(0, Splat(0)),
		NewAddress(0, NewVec3(37, 12, 50)),
		NewAddress(0, NewVec3(63, 63, 0)),
	}

	for _, focus := range focuses {
		for detail := int32(0); detail <= 2; detail++ {
			tree := newLODTree(t, 7, focus, detail)
			require.True(t, tree.Contains(focus), "focus %s detail %d", focus, detail)

			for _, addr := range tree.Addresses() {
				if addr.Level == tree.RootLevel() {
					continue
				}
				require.True(t, tree.Contains(addr.Parent()), "parent of %s", addr)
			}
		}
	}
}

func TestFillFromRootPrunes(t *testing.T) {
	tree, err := New[struct{}](4)
	require.NoError(t, err)

	pruned := NewAddress(2, NewVec3(1, 0, 1))
	tree.FillFromRoot(NewAddress(3, Splat(0)), struct{}{}, func(addr Address, entry Entry[struct{}]) VisitCommand {
		if addr == pruned {
			return SkipDescendants
		}
		return Continue
	})

	require.True(t, tree.Contains(pruned))
	for _, addr := range tree.Addresses() {
		require.False(t, pruned.IsAncestorOf(addr), addr.String())
	}

	// Full tree minus the 8 + 64 nodes under the pruned node.
	require.Equal(t, 1+8+64+512-8-64, tree.Len())
}

func TestFillFromRootVisitOrder(t *testing.T) {
	tree, err := New[struct{}](2)
	require.NoError(t, err)

	root := NewAddress(1, Splat(0))
	var visited []Address
	tree.FillFromRoot(root, struct{}{}, func(addr Address, entry Entry[struct{}]) VisitCommand {
		visited = append(visited, addr)
		return Continue
	})

	children := root.Children()
	require.Equal(t, append([]Address{root}, children[:]...), visited)
}

func TestFillFromRootEntry(t *testing.T) {
	tree, err := New[int](3)
	require.NoError(t, err)

	root := NewAddress(2, Splat(0))
	fresh := 0
	tree.FillFromRoot(root, -1, func(addr Address, entry Entry[int]) VisitCommand {
		require.True(t, entry.Inserted)
		require.Equal(t, -1, *entry.Value)
		*entry.Value = int(addr.Level)
		fresh++
		return Continue
	})
	require.Equal(t, 1+8+64, fresh)

	tree.FillFromRoot(root, -1, func(addr Address, entry Entry[int]) VisitCommand {
		require.False(t, entry.Inserted)
		require.Equal(t, int(addr.Level), *entry.Value)
		return Continue
	})
	require.Equal(t, 1+8+64, tree.Len())
}

func TestFillFromRootToLevel(t *testing.T) {
	tree, err := New[struct{}](5)
	require.NoError(t, err)

	tree.FillFromRootToLevel(NewAddress(4, Splat(0)), 2, struct{}{}, func(addr Address, entry Entry[struct{}]) VisitCommand {
		require.GreaterOrEqual(t, addr.Level, Level(2))
		return Continue
	})
	require.Equal(t, 1+8+64, tree.Len())
}

func TestFillPathToNode(t *testing.T) {
	tree, err := New[struct{}](4)
	require.NoError(t, err)

	target := NewAddress(0, NewVec3(5, 3, -1))

	var levels []Level
	tree.FillPathToNode(target, struct{}{}, func(addr Address, entry Entry[struct{}]) {
		require.True(t, entry.Inserted)
		require.Equal(t, target.Ancestor(addr.Level), addr)
		levels = append(levels, addr.Level)
	})
	require.Equal(t, []Level{3, 2, 1, 0}, levels)
	require.Equal(t, 4, tree.Len())

	first := tree.Addresses()

	t.Run("idempotent", func(t *testing.T) {
		calls := 0
		tree.FillPathToNode(target, struct{}{}, func(addr Address, entry Entry[struct{}]) {
			require.False(t, entry.Inserted)
			calls++
		})
		require.Equal(t, 4, calls)
		require.Equal(t, first, tree.Addresses())
	})

	t.Run("intermediate target", func(t *testing.T) {
		tree, err := New[struct{}](4)
		require.NoError(t, err)

		tree.FillPathToNode(NewAddress(2, Splat(1)), struct{}{}, nil)
		require.Equal(t, []Address{NewAddress(3, Splat(0)), NewAddress(2, Splat(1))}, tree.Addresses())
	})

	t.Run("target above root", func(t *testing.T) {
		tree, err := New[struct{}](2)
		require.NoError(t, err)

		tree.FillPathToNode(NewAddress(3, Splat(0)), struct{}{}, nil)
		require.Zero(t, tree.Len())
	})
}

func TestFillFromRootFarFromOrigin(t *testing.T) {
	cases := []struct {
		height int
		near   Vec3
		far    Vec3
	}{
		{height: 10, near: NewVec3(5, 3, 3), far: NewVec3(1<<30+5, 3, 3)},
		{height: 6, near: Splat(0), far: Splat(-1_500_000_000)},
		{height: 6, near: Splat(31), far: Splat(math.MaxInt32)},
	}

	for _, c := range cases {
		near := newLODTree(t, c.height, NewAddress(0, c.near), 1)
		far := newLODTree(t, c.height, NewAddress(0, c.far), 1)

		require.True(t, far.Contains(NewAddress(0, c.far)), "focus %v", c.far)
		require.Equal(t, near.Len(), far.Len(), "focus %v", c.far)
	}
}

func TestFillFromRootOutsideIndexSpace(t *testing.T) {
	tree, err := New[struct{}](3)
	require.NoError(t, err)

	visited := 0
	tree.FillFromRoot(NewAddress(2, NewVec3(-(1<<29)-1, 0, 0)), struct{}{}, func(addr Address, entry Entry[struct{}]) VisitCommand {
		visited++
		return Continue
	})
	require.Zero(t, visited)
	require.Zero(t, tree.Len())
}
