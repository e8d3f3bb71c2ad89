// Package grid provides the integer tile geometry shared by the board, skill
// and AI packages.
package grid

import "fmt"

// Point is a tile coordinate. X grows to the right, Y grows away from the
// player's home row.
type Point struct {
	X int
	Y int
}

// String returns the "(x,y)" form used in combat log lines.
func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Add returns p translated by the offset o.
func (p Point) Add(o Point) Point {
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}

// KnightOffsets are the eight L-shaped offsets used by KNIGHT movement and
// leap steps, in a fixed evaluation order.
var KnightOffsets = [8]Point{
	{X: 1, Y: 2}, {X: 2, Y: 1}, {X: 2, Y: -1}, {X: 1, Y: -2},
	{X: -1, Y: -2}, {X: -2, Y: -1}, {X: -2, Y: 1}, {X: -1, Y: 2},
}

// Delta returns the absolute per-axis offsets between a and b.
//
// Postcondition: dx >= 0 and dy >= 0.
func Delta(a, b Point) (dx, dy int) {
	return abs(a.X - b.X), abs(a.Y - b.Y)
}

// Manhattan returns |dx| + |dy|.
func Manhattan(a, b Point) int {
	dx, dy := Delta(a, b)
	return dx + dy
}

// Chebyshev returns max(|dx|, |dy|).
func Chebyshev(a, b Point) int {
	dx, dy := Delta(a, b)
	if dx > dy {
		return dx
	}
	return dy
}

// Aligned reports whether a and b share a row or a column.
func Aligned(a, b Point) bool {
	return a.X == b.X || a.Y == b.Y
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
