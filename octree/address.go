package octree

import (
	"cmp"
	"fmt"
	"math"
)

// Level is a resolution tier of the octree. Level 0 holds unit cells and every
// level above doubles the cell edge length.
type Level uint8

// MaxHeight is the tallest octree whose nodes can be addressed with 32-bit
// grid coordinates.
const MaxHeight = 32

// Vec3 is an integer grid coordinate.
type Vec3 struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
	Z int32 `json:"z"`
}

func NewVec3(x, y, z int32) Vec3 {
	return Vec3{x, y, z}
}

func Splat(v int32) Vec3 {
	return Vec3{v, v, v}
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Shr shifts every component right, rounding toward negative infinity.
func (v Vec3) Shr(s uint) Vec3 {
	return Vec3{v.X >> s, v.Y >> s, v.Z >> s}
}

func (v Vec3) Array() [3]int32 {
	return [3]int32{v.X, v.Y, v.Z}
}

// WorldVec is a position in index space. It is 64 bits wide so that the
// corners of nodes at the top levels never overflow.
type WorldVec struct {
	X int64 `json:"x"`
	Y int64 `json:"y"`
	Z int64 `json:"z"`
}

// Bounds is the axis-aligned cube [Min, Max) covered by a node.
type Bounds struct {
	Min WorldVec `json:"min"`
	Max WorldVec `json:"max"`
}

func (b Bounds) Size() WorldVec {
	return WorldVec{b.Max.X - b.Min.X, b.Max.Y - b.Min.Y, b.Max.Z - b.Min.Z}
}

// Address identifies a node by level and grid coordinate. The node covers
// [Coord * 2^Level, (Coord+1) * 2^Level) on every axis.
type Address struct {
	Level Level `json:"level"`
	Coord Vec3  `json:"coord"`
}

func NewAddress(level Level, coord Vec3) Address {
	return Address{Level: level, Coord: coord}
}

// Parent returns the address of the node one level up that contains a.
func (a Address) Parent() Address {
	return Address{Level: a.Level + 1, Coord: a.Coord.Shr(1)}
}

// Ancestor returns the node at the given level that contains a. Levels at or
// below a's own level return a unchanged.
func (a Address) Ancestor(level Level) Address {
	if level <= a.Level {
		return a
	}
	return Address{Level: level, Coord: a.Coord.Shr(uint(level - a.Level))}
}

// IsAncestorOf reports whether b lies strictly below a.
func (a Address) IsAncestorOf(b Address) bool {
	return a.Level > b.Level && b.Ancestor(a.Level) == a
}

// ChildOffset returns the offset in {0,1}^3 of the i-th child. Children are
// ordered lexicographically by (x, y, z) offset.
func ChildOffset(i int) Vec3 {
	return Vec3{
		X: int32(i>>2) & 1,
		Y: int32(i>>1) & 1,
		Z: int32(i) & 1,
	}
}

// Child returns the i-th child of a, i in [0, 8). Calling it on a level 0
// address or on an address outside of the index space is a programming error.
func (a Address) Child(i int) Address {
	return Address{
		Level: a.Level - 1,
		Coord: Vec3{a.Coord.X * 2, a.Coord.Y * 2, a.Coord.Z * 2}.Add(ChildOffset(i)),
	}
}

func (a Address) Children() [8]Address {
	var children [8]Address
	for i := range children {
		children[i] = a.Child(i)
	}
	return children
}

// Bounds returns the world-space cube covered by a.
func (a Address) Bounds() Bounds {
	size := int64(1) << a.Level
	origin := WorldVec{
		X: int64(a.Coord.X) * size,
		Y: int64(a.Coord.Y) * size,
		Z: int64(a.Coord.Z) * size,
	}
	return Bounds{
		Min: origin,
		Max: WorldVec{origin.X + size, origin.Y + size, origin.Z + size},
	}
}

// InIndexSpace reports whether every level 0 cell below a has an int32
// coordinate. Children of such an address can be computed without
// overflowing.
func (a Address) InIndexSpace() bool {
	if a.Level >= MaxHeight {
		return false
	}

	b := a.Bounds()
	for _, v := range [...]int64{b.Min.X, b.Min.Y, b.Min.Z} {
		if v < math.MinInt32 {
			return false
		}
	}
	for _, v := range [...]int64{b.Max.X, b.Max.Y, b.Max.Z} {
		if v > math.MaxInt32+1 {
			return false
		}
	}
	return true
}

func (a Address) String() string {
	return fmt.Sprintf("L%d(%d,%d,%d)", a.Level, a.Coord.X, a.Coord.Y, a.Coord.Z)
}

// CompareAddresses orders addresses by level, highest first, then by
// coordinate.
func CompareAddresses(a, b Address) int {
	if c := cmp.Compare(b.Level, a.Level); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Coord.X, b.Coord.X); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Coord.Y, b.Coord.Y); c != 0 {
		return c
	}
	return cmp.Compare(a.Coord.Z, b.Coord.Z)
}
