package provision

import (
	"context"
	"math"

	"github.com/mesh-intelligence/masterplan/pkg/city"
	"github.com/mesh-intelligence/masterplan/pkg/types"
)

// allocateGreedy satisfies demand one unit at a time, each time from the
// nearest block with remaining capacity. Sweeps repeat until demand or
// capacity runs out.
// Implements: prd005-provision-interface R2.
func allocateGreedy(ctx context.Context, c *city.City, st types.ServiceType, res *Result) error {
	m := c.Matrix()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		progress := false
		for i := range res.rows {
			row := &res.rows[i]
			if row.DemandLeft == 0 {
				continue
			}
			best := -1
			bestTime := math.Inf(1)
			for j := range res.rows {
				if res.rows[j].CapacityLeft == 0 {
					continue
				}
				t, err := m.At(row.BlockID, res.rows[j].BlockID)
				if err != nil {
					return err
				}
				if t < bestTime {
					bestTime = t
					best = j
				}
			}
			if best < 0 {
				return nil
			}
			res.rows[best].CapacityLeft--
			row.DemandLeft--
			if bestTime <= float64(st.Accessibility) {
				row.DemandWithin++
			} else {
				row.DemandWithout++
			}
			progress = true
		}
		if !progress {
			return nil
		}
	}
}
