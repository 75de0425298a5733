package lod

import (
	"math"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/lodtree/octree"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, c Config) *Manager {
	m, err := NewManager(c)
	require.NoError(t, err)
	return m
}

func TestNewManager(t *testing.T) {
	t.Run("default config", func(t *testing.T) {
		m := newTestManager(t, DefaultConfig())
		require.Equal(t, DefaultConfig(), m.Config())
		require.Zero(t, m.Latest().Cycle)
	})

	t.Run("invalid height", func(t *testing.T) {
		_, err := NewManager(Config{Height: 0, Workers: 1})
		require.Error(t, err)
		require.True(t, errors.IsType(err, octree.ErrTypeInvalidHeight))
	})

	t.Run("invalid config", func(t *testing.T) {
		configs := []Config{
			{Height: 4, Detail: -1, Workers: 1},
			{Height: 4, RootRadius: -1, Workers: 1},
			{Height: 4, RootRadius: MaxRootRadius + 1, Workers: 1},
			{Height: 4, Workers: 0},
		}
		for _, c := range configs {
			_, err := NewManager(c)
			require.Error(t, err)
			require.True(t, errors.IsType(err, ErrTypeInvalidConfig))
		}
	})
}

func TestManagerUpdate(t *testing.T) {
	m := newTestManager(t, Config{Height: 4, Detail: 1, Workers: 1})

	frame, err := m.Update(mgl64.Vec3{0.5, 0.25, 0.75})
	require.NoError(t, err)

	require.Equal(t, uint64(1), frame.Cycle)
	require.Equal(t, octree.NewAddress(0, octree.Splat(0)), frame.FocusAddress)
	require.Equal(t, octree.Level(3), frame.RootLevel)
	require.Len(t, frame.Nodes, 25)
	require.Equal(t, 1, frame.Count(Root))
	require.Equal(t, 16, frame.Count(Internal))
	require.Equal(t, 8, frame.Count(Leaf))
	require.Equal(t, 25, frame.Added)
	require.Zero(t, frame.Removed)

	require.Equal(t, octree.NewAddress(3, octree.Splat(0)), frame.Nodes[0].Address)
	for _, n := range frame.Nodes {
		size := int64(1) << n.Address.Level
		require.Equal(t, octree.WorldVec{X: size, Y: size, Z: size}, octree.Bounds{Min: n.Min, Max: n.Max}.Size())
		require.Equal(t, Categorize(n.Address.Level, 3), n.Category)
	}

	require.Equal(t, frame.Cycle, m.Latest().Cycle)
	require.Equal(t, frame.Nodes, m.Latest().Nodes)

	t.Run("same focus", func(t *testing.T) {
		again, err := m.Update(mgl64.Vec3{0.9, 0.9, 0.9})
		require.NoError(t, err)
		require.Equal(t, uint64(2), again.Cycle)
		require.Equal(t, frame.Nodes, again.Nodes)
		require.Zero(t, again.Added)
		require.Zero(t, again.Removed)
	})

	t.Run("moved focus", func(t *testing.T) {
		moved, err := m.Update(mgl64.Vec3{7.5, 7.5, 7.5})
		require.NoError(t, err)
		require.NotZero(t, moved.Added)
		require.NotZero(t, moved.Removed)
		require.Equal(t, 8, moved.Count(Leaf))
	})
}

func TestManagerParallelBuild(t *testing.T) {
	sequential := newTestManager(t, Config{Height: 5, Detail: 1, RootRadius: 1, Workers: 1})
	parallel := newTestManager(t, Config{Height: 5, Detail: 1, RootRadius: 1, Workers: 4})

	focuses := []mgl64.Vec3{{3, 4, 5}, {-7.5, 30, 2}, {15.9, 15.9, 16.1}}
	for _, focus := range focuses {
		a, err := sequential.Update(focus)
		require.NoError(t, err)
		b, err := parallel.Update(focus)
		require.NoError(t, err)

		require.Equal(t, 27, a.Count(Root))
		require.Equal(t, a.Nodes, b.Nodes)
		require.Equal(t, a.Added, b.Added)
		require.Equal(t, a.Removed, b.Removed)
	}
}

func TestFocusAddress(t *testing.T) {
	require.Equal(t, octree.NewAddress(0, octree.NewVec3(-1, 1, 3)), FocusAddress(mgl64.Vec3{-0.5, 1.9, 3}))
	require.Equal(t, octree.NewAddress(0, octree.NewVec3(0, math.MaxInt32, math.MinInt32)),
		FocusAddress(mgl64.Vec3{math.NaN(), 1e20, -1e20}))
}

func TestRootsAround(t *testing.T) {
	focus := octree.NewAddress(0, octree.NewVec3(20, -3, 7))

	roots := RootsAround(focus, 3, 0)
	require.Equal(t, []octree.Address{octree.NewAddress(3, octree.NewVec3(2, -1, 0))}, roots)

	roots = RootsAround(focus, 3, 1)
	require.Len(t, roots, 27)
	require.Equal(t, octree.NewAddress(3, octree.NewVec3(1, -2, -1)), roots[0])
	require.Equal(t, octree.NewAddress(3, octree.NewVec3(2, -1, 0)), roots[13])
	require.Equal(t, octree.NewAddress(3, octree.NewVec3(3, 0, 1)), roots[26])
}

func TestCategorize(t *testing.T) {
	require.Equal(t, Root, Categorize(5, 5))
	require.Equal(t, Internal, Categorize(3, 5))
	require.Equal(t, Leaf, Categorize(0, 5))
	require.Equal(t, Root, Categorize(0, 0))
}

func TestCategoryText(t *testing.T) {
	b, err := json.Marshal([]Category{Root, Internal, Leaf})
	require.NoError(t, err)
	require.Equal(t, `["root","internal","leaf"]`, string(b))

	var categories []Category
	require.NoError(t, json.Unmarshal(b, &categories))
	require.Equal(t, []Category{Root, Internal, Leaf}, categories)

	_, err = ParseCategory("branch")
	require.True(t, errors.IsType(err, ErrTypeUnknownCategory))

	require.Equal(t, "#ff0000", Root.Color())
	require.Equal(t, "#ffffff", Internal.Color())
	require.Equal(t, "#00ff00", Leaf.Color())
}

func TestFrameFilter(t *testing.T) {
	m := newTestManager(t, Config{Height: 4, Detail: 1, Workers: 1})
	frame, err := m.Update(mgl64.Vec3{})
	require.NoError(t, err)

	leaves := frame.Filter(Leaf)
	require.Len(t, leaves.Nodes, 8)
	require.Equal(t, frame.Cycle, leaves.Cycle)
	require.Len(t, frame.Nodes, 25)

	require.Empty(t, frame.Filter().Nodes)
}

func TestManagerFocusOutsideOriginRoot(t *testing.T) {
	m := newTestManager(t, Config{Height: 4, Detail: 1, Workers: 1})

	frame, err := m.Update(mgl64.Vec3{100.5, -3.2, 7.9})
	require.NoError(t, err)

	root := octree.NewAddress(3, octree.NewVec3(12, -1, 0))
	require.Equal(t, 1, frame.Count(Root))
	require.Equal(t, root, frame.Nodes[0].Address)
	require.Equal(t, octree.NewAddress(0, octree.NewVec3(100, -4, 7)), frame.FocusAddress)

	bounds := root.Bounds()
	var focusLeaf bool
	for _, n := range frame.Nodes {
		require.NotEqual(t, octree.NewAddress(3, octree.Splat(0)), n.Address)
		require.GreaterOrEqual(t, n.Min.X, bounds.Min.X)
		require.LessOrEqual(t, n.Max.X, bounds.Max.X)
		require.GreaterOrEqual(t, n.Min.Y, bounds.Min.Y)
		require.LessOrEqual(t, n.Max.Y, bounds.Max.Y)

		if n.Address == frame.FocusAddress {
			focusLeaf = n.Category == Leaf
		}
	}
	require.True(t, focusLeaf)
}

func TestManagerFarFocus(t *testing.T) {
	cases := []struct {
		height int
		near   mgl64.Vec3
		far    mgl64.Vec3
	}{
		{height: 6, near: mgl64.Vec3{0.5, 0.5, 0.5}, far: mgl64.Vec3{-1.5e9, -1.5e9, -1.5e9}},
		{height: 10, near: mgl64.Vec3{5.5, 3.5, 3.5}, far: mgl64.Vec3{1<<30 + 5.5, 3.5, 3.5}},
	}

	for _, c := range cases {
		m := newTestManager(t, Config{Height: c.height, Detail: 1, Workers: 1})

		near, err := m.Update(c.near)
		require.NoError(t, err)
		far, err := m.Update(c.far)
		require.NoError(t, err)

		require.Len(t, far.Nodes, len(near.Nodes), "focus %v", c.far)
		require.Equal(t, near.Count(Leaf), far.Count(Leaf))
	}
}

func TestManagerFocusAtIndexSpaceEdge(t *testing.T) {
	m := newTestManager(t, Config{Height: 3, Detail: 1, RootRadius: 1, Workers: 2})

	frame, err := m.Update(mgl64.Vec3{math.MinInt32, 0.5, 0.5})
	require.NoError(t, err)

	// The roots on the far side of x = MinInt32 do not exist.
	require.Equal(t, 18, frame.Count(Root))

	for _, n := range frame.Nodes {
		require.GreaterOrEqual(t, n.Min.X, int64(math.MinInt32), n.Address.String())
		require.LessOrEqual(t, n.Max.X, int64(math.MinInt32)+8, n.Address.String())
	}
}

func TestRootsAroundIndexSpaceEdge(t *testing.T) {
	focus := octree.NewAddress(0, octree.NewVec3(math.MaxInt32, 0, math.MinInt32))

	roots := RootsAround(focus, 0, 1)
	require.Len(t, roots, 12)
	for _, r := range roots {
		require.True(t, r.InIndexSpace(), r.String())
	}
}
