package lod

import (
	"math"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/lodtree/octree"
	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/sync/errgroup"
)

// Manager runs the update cycle: every call to Update drops the previous
// octree, fills a new one around the focus and walks it into a Frame.
//
// Update must be called from a single goroutine. Latest can be called from
// anywhere.
type Manager struct {
	config Config

	cycle uint64
	tree  *octree.Octree[struct{}]

	latestMutex sync.RWMutex
	latest      Frame
}

func NewManager(c Config) (*Manager, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if _, err := octree.New[struct{}](c.Height); err != nil {
		return nil, err
	}

	return &Manager{config: c}, nil
}

func (m *Manager) Config() Config {
	return m.config
}

// Latest returns the frame published by the last Update. Its Cycle is 0
// before the first update.
func (m *Manager) Latest() Frame {
	m.latestMutex.RLock()
	defer m.latestMutex.RUnlock()

	return m.latest
}

// Update rebuilds the octree around focus and publishes the resulting frame.
func (m *Manager) Update(focus mgl64.Vec3) (Frame, error) {
	start := time.Now()
	focusAddress := FocusAddress(focus)

	tree, err := m.build(focusAddress)
	if err != nil {
		return Frame{}, errors.New("building octree failed").
			WithTag("focus", focusAddress).
			Wrap(err)
	}

	added, removed := octree.Diff(m.tree, tree)
	m.tree = tree
	m.cycle++

	frame := Frame{
		Cycle:        m.cycle,
		Focus:        focus,
		FocusAddress: focusAddress,
		RootLevel:    tree.RootLevel(),
		Nodes:        make([]Node, 0, tree.Len()),
		Added:        len(added),
		Removed:      len(removed),
	}

	rootLevel := tree.RootLevel()
	for root := range tree.Roots() {
		tree.VisitDepthFirst(root, func(addr octree.Address, bounds octree.Bounds) octree.VisitCommand {
			frame.Nodes = append(frame.Nodes, Node{
				Address:  addr,
				Min:      bounds.Min,
				Max:      bounds.Max,
				Category: Categorize(addr.Level, rootLevel),
			})
			return octree.Continue
		})
	}
	frame.BuildDuration = time.Since(start)

	instrumentFrame(frame)

	m.latestMutex.Lock()
	m.latest = frame
	m.latestMutex.Unlock()

	return frame, nil
}

func (m *Manager) build(focus octree.Address) (*octree.Octree[struct{}], error) {
	tree, err := octree.New[struct{}](m.config.Height)
	if err != nil {
		return nil, err
	}

	roots := RootsAround(focus, tree.RootLevel(), m.config.RootRadius)
	if m.config.Workers <= 1 || len(roots) == 1 {
		for _, root := range roots {
			m.fill(tree, focus, root)
		}
		return tree, nil
	}

	// Every root owns a disjoint address subspace, so each one is filled
	// into a private octree and merged in root order afterwards.
	parts := make([]*octree.Octree[struct{}], len(roots))

	var g errgroup.Group
	g.SetLimit(m.config.Workers)
	for i, root := range roots {
		g.Go(func() error {
			part, err := octree.New[struct{}](m.config.Height)
			if err != nil {
				return err
			}
			m.fill(part, focus, root)
			parts[i] = part
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, part := range parts {
		if err := tree.Merge(part); err != nil {
			return nil, err
		}
	}
	return tree, nil
}

func (m *Manager) fill(tree *octree.Octree[struct{}], focus, root octree.Address) {
	detail := m.config.Detail

	tree.FillFromRoot(root, struct{}{}, func(addr octree.Address, entry octree.Entry[struct{}]) octree.VisitCommand {
		if octree.CanSubdivide(focus, addr, detail) {
			return octree.Continue
		}
		return octree.SkipDescendants
	})
}

// FocusAddress returns the level 0 cell that contains p. Components outside
// of the int32 range are clamped and NaN maps to 0.
func FocusAddress(p mgl64.Vec3) octree.Address {
	return octree.NewAddress(0, octree.NewVec3(
		floorToInt32(p.X()),
		floorToInt32(p.Y()),
		floorToInt32(p.Z()),
	))
}

func floorToInt32(v float64) int32 {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt32:
		return math.MaxInt32
	case v <= math.MinInt32:
		return math.MinInt32
	}
	return int32(math.Floor(v))
}

// RootsAround returns the root-level addresses within radius root cells of
// the root containing focus, ordered by x, then y, then z. Roots that would
// cover cells outside of the int32 index space are left out.
func RootsAround(focus octree.Address, rootLevel octree.Level, radius int32) []octree.Address {
	center := focus.Ancestor(rootLevel)
	if radius <= 0 {
		return []octree.Address{center}
	}

	side := int(2*radius + 1)
	roots := make([]octree.Address, 0, side*side*side)
	for dx := -radius; dx <= radius; dx++ {
		for dy := -radius; dy <= radius; dy++ {
			for dz := -radius; dz <= radius; dz++ {
				coord, ok := offsetCoord(center.Coord, dx, dy, dz)
				if !ok {
					continue
				}

				root := octree.NewAddress(rootLevel, coord)
				if root.InIndexSpace() {
					roots = append(roots, root)
				}
			}
		}
	}
	return roots
}

func offsetCoord(c octree.Vec3, dx, dy, dz int32) (octree.Vec3, bool) {
	x := int64(c.X) + int64(dx)
	y := int64(c.Y) + int64(dy)
	z := int64(c.Z) + int64(dz)

	for _, v := range [...]int64{x, y, z} {
		if v < math.MinInt32 || v > math.MaxInt32 {
			return octree.Vec3{}, false
		}
	}
	return octree.NewVec3(int32(x), int32(y), int32(z)), true
}
