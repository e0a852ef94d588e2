package optimize

import "github.com/mesh-intelligence/masterplan/pkg/types"

// Variable is one development decision: how many bricks of a service
// type to place on a block.
// Implements: prd006-optimize-interface R3.
type Variable struct {
	BlockID     int
	ServiceType string
	Brick       types.Brick
	Count       int
}

// Capacity returns the demand units the variable adds.
func (v Variable) Capacity() int {
	return v.Count * v.Brick.Capacity
}

// Area returns the floor or site area the variable consumes.
func (v Variable) Area() float64 {
	return float64(v.Count) * v.Brick.Area
}
