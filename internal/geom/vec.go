package geom

import "math"

// Vec2 is a point or displacement in world units.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// V is shorthand for Vec2{x, y}.
func V(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

func (v Vec2) Add(o Vec2) Vec2      { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2      { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(k float64) Vec2 { return Vec2{v.X * k, v.Y * k} }
func (v Vec2) Neg() Vec2            { return Vec2{-v.X, -v.Y} }

// Len is the Euclidean length of v.
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// Dst is the Euclidean distance between v and o.
func (v Vec2) Dst(o Vec2) float64 { return v.Sub(o).Len() }

// ApproxEq compares component-wise within eps.
func (v Vec2) ApproxEq(o Vec2, eps float64) bool {
	return math.Abs(v.X-o.X) <= eps && math.Abs(v.Y-o.Y) <= eps
}

// Rect is an axis-aligned rectangle anchored at its lower-left corner.
type Rect struct {
	Pos Vec2    `json:"pos"`
	W   float64 `json:"w"`
	H   float64 `json:"h"`
}

// Contains reports whether p lies inside r (edges inclusive).
func (r Rect) Contains(p Vec2) bool {
	return p.X >= r.Pos.X && p.X <= r.Pos.X+r.W &&
		p.Y >= r.Pos.Y && p.Y <= r.Pos.Y+r.H
}
