package lod

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/lodtree/octree"
	"github.com/go-gl/mathgl/mgl64"
)

const ErrTypeUnknownCategory = "unknown_category"

// Category tells viewers how to draw a node.
type Category uint8

const (
	Internal Category = iota
	Root
	Leaf
)

// Categorize returns the category of a node at level in a tree whose root
// level is rootLevel. Root wins over Leaf in single-level trees.
func Categorize(level, rootLevel octree.Level) Category {
	switch level {
	case rootLevel:
		return Root
	case 0:
		return Leaf
	default:
		return Internal
	}
}

func (c Category) String() string {
	switch c {
	case Root:
		return "root"
	case Leaf:
		return "leaf"
	default:
		return "internal"
	}
}

// Color returns the debug color of the category as a hex RGB value.
func (c Category) Color() string {
	switch c {
	case Root:
		return "#ff0000"
	case Leaf:
		return "#00ff00"
	default:
		return "#ffffff"
	}
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(b []byte) error {
	category, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = category
	return nil
}

func ParseCategory(s string) (Category, error) {
	switch s {
	case "root":
		return Root, nil
	case "internal":
		return Internal, nil
	case "leaf":
		return Leaf, nil
	default:
		return Internal, errors.New("unknown node category").
			WithType(ErrTypeUnknownCategory).
			WithTag("category", s)
	}
}

// Node is one visible node of a frame.
type Node struct {
	Address  octree.Address  `json:"address"`
	Min      octree.WorldVec `json:"min"`
	Max      octree.WorldVec `json:"max"`
	Category Category        `json:"category"`
}

// Frame is the result of one update cycle. A published frame is never
// modified.
type Frame struct {
	Cycle        uint64         `json:"cycle"`
	Focus        mgl64.Vec3     `json:"focus"`
	FocusAddress octree.Address `json:"focus_address"`
	RootLevel    octree.Level   `json:"root_level"`
	Nodes        []Node         `json:"nodes"`

	// The number of nodes that appeared and disappeared since the previous
	// cycle.
	Added   int `json:"added"`
	Removed int `json:"removed"`

	BuildDuration time.Duration `json:"build_duration"`
}

// Count returns the number of nodes of the given category.
func (f Frame) Count(c Category) int {
	count := 0
	for _, n := range f.Nodes {
		if n.Category == c {
			count++
		}
	}
	return count
}

// Filter returns a copy of f that only keeps the nodes of the given
// categories.
func (f Frame) Filter(categories ...Category) Frame {
	keep := make(map[Category]bool, len(categories))
	for _, c := range categories {
		keep[c] = true
	}

	nodes := make([]Node, 0, len(f.Nodes))
	for _, n := range f.Nodes {
		if keep[n.Category] {
			nodes = append(nodes, n)
		}
	}
	f.Nodes = nodes
	return f
}
