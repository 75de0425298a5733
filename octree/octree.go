package octree

import (
	"iter"
	"slices"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

const (
	ErrTypeInvalidHeight  = "invalid_height"
	ErrTypeHeightMismatch = "height_mismatch"
)

// Octree is a sparse octree. Nodes only exist once they have been inserted;
// unvisited regions take no memory. Payloads live in a dense slice indexed
// through an address map so that nothing points between nodes.
//
// An Octree is not safe for concurrent use.
type Octree[T any] struct {
	height int
	slots  map[Address]int32
	keys   []Address
	nodes  []T
	roots  []Address
}

// New returns an empty octree whose root level is height-1.
func New[T any](height int) (*Octree[T], error) {
	if height <= 0 || height > MaxHeight {
		return nil, errors.New("invalid octree height").
			WithType(ErrTypeInvalidHeight).
			WithTag("height", height).
			WithTag("max_height", MaxHeight)
	}

	return &Octree[T]{
		height: height,
		slots:  make(map[Address]int32),
	}, nil
}

func (t *Octree[T]) Height() int {
	return t.height
}

func (t *Octree[T]) RootLevel() Level {
	return Level(t.height - 1)
}

// Len returns the number of stored nodes.
func (t *Octree[T]) Len() int {
	return len(t.nodes)
}

func (t *Octree[T]) Contains(addr Address) bool {
	_, ok := t.slots[addr]
	return ok
}

// Get returns the payload stored at addr. It never inserts.
func (t *Octree[T]) Get(addr Address) (*T, bool) {
	slot, ok := t.slots[addr]
	if !ok {
		return nil, false
	}
	return &t.nodes[slot], true
}

// GetOrInsert returns the payload stored at addr, inserting initial first when
// the node is absent. The returned bool reports whether the node was just
// inserted. The pointer is only valid until the next insertion.
func (t *Octree[T]) GetOrInsert(addr Address, initial T) (*T, bool) {
	if slot, ok := t.slots[addr]; ok {
		return &t.nodes[slot], false
	}

	slot := int32(len(t.nodes))
	t.slots[addr] = slot
	t.keys = append(t.keys, addr)
	t.nodes = append(t.nodes, initial)

	if addr.Level == t.RootLevel() {
		t.roots = append(t.roots, addr)
	}
	return &t.nodes[slot], true
}

// Roots iterates over the populated root nodes in insertion order. The
// sequence can be ranged over any number of times.
func (t *Octree[T]) Roots() iter.Seq2[Address, *T] {
	return func(yield func(Address, *T) bool) {
		for _, addr := range t.roots {
			if !yield(addr, &t.nodes[t.slots[addr]]) {
				return
			}
		}
	}
}

// Addresses returns every stored address sorted with CompareAddresses.
func (t *Octree[T]) Addresses() []Address {
	addrs := slices.Clone(t.keys)
	slices.SortFunc(addrs, CompareAddresses)
	return addrs
}

// Merge inserts every node of other that t does not hold yet, in the order
// other received them. Nodes present in both keep t's payload.
func (t *Octree[T]) Merge(other *Octree[T]) error {
	if other.height != t.height {
		return errors.New("merging octrees of different heights").
			WithType(ErrTypeHeightMismatch).
			WithTag("height", t.height).
			WithTag("other_height", other.height)
	}

	for i, addr := range other.keys {
		t.GetOrInsert(addr, other.nodes[i])
	}
	return nil
}
