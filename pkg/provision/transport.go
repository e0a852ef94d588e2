package provision

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/mesh-intelligence/masterplan/pkg/city"
	"github.com/mesh-intelligence/masterplan/pkg/types"
)

// vertex is one side of a transport arc: a row of the frame, or the
// dummy that absorbs the supply and demand imbalance at zero cost.
type vertex struct {
	row   int // index into res.rows, -1 for the dummy
	units int
}

// allocateTransport solves the remaining allocation as a balanced
// transportation problem: minimize total travel cost moving capacity
// units to demand units, cost being minutes for the linear method and
// minutes squared for the gravitational one. The equality-form LP drops
// one redundant constraint; the constraint matrix is totally unimodular,
// so the simplex solution is integral up to round-off.
// Implements: prd005-provision-interface R3.
func allocateTransport(ctx context.Context, c *city.City, st types.ServiceType, res *Result, method Method) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var sup, con []vertex
	supply, demand := 0, 0
	for i, row := range res.rows {
		if row.CapacityLeft > 0 {
			sup = append(sup, vertex{row: i, units: row.CapacityLeft})
			supply += row.CapacityLeft
		}
		if row.DemandLeft > 0 {
			con = append(con, vertex{row: i, units: row.DemandLeft})
			demand += row.DemandLeft
		}
	}
	if supply == 0 || demand == 0 {
		return nil
	}
	if supply > demand {
		con = append(con, vertex{row: -1, units: supply - demand})
	}
	if demand > supply {
		sup = append(sup, vertex{row: -1, units: demand - supply})
	}

	m := c.Matrix()
	S, C := len(sup), len(con)
	costs := make([]float64, S*C)
	for i, s := range sup {
		for j, cn := range con {
			if s.row < 0 || cn.row < 0 {
				continue
			}
			t, err := m.At(res.rows[cn.row].BlockID, res.rows[s.row].BlockID)
			if err != nil {
				return err
			}
			if method == MethodGravitational {
				t *= t
			}
			costs[i*C+j] = t
		}
	}

	// One equality row per supplier and per consumer, minus the last
	// consumer row, which is implied by the balance.
	rows := S + C - 1
	A := mat.NewDense(rows, S*C, nil)
	b := make([]float64, rows)
	for i, s := range sup {
		b[i] = float64(s.units)
		for j := 0; j < C; j++ {
			A.Set(i, i*C+j, 1)
		}
	}
	for j := 0; j < C-1; j++ {
		b[S+j] = float64(con[j].units)
		for i := 0; i < S; i++ {
			A.Set(S+j, i*C+j, 1)
		}
	}

	_, x, err := lp.Simplex(costs, A, b, 0, nil)
	if err != nil {
		return fmt.Errorf("transport simplex: %w", err)
	}

	for i, s := range sup {
		if s.row < 0 {
			continue
		}
		for j, cn := range con {
			if cn.row < 0 {
				continue
			}
			units := int(math.Round(x[i*C+j]))
			units = min(units, res.rows[s.row].CapacityLeft, res.rows[cn.row].DemandLeft)
			if units <= 0 {
				continue
			}
			t, err := m.At(res.rows[cn.row].BlockID, res.rows[s.row].BlockID)
			if err != nil {
				return err
			}
			res.rows[s.row].CapacityLeft -= units
			res.rows[cn.row].DemandLeft -= units
			if t <= float64(st.Accessibility) {
				res.rows[cn.row].DemandWithin += units
			} else {
				res.rows[cn.row].DemandWithout += units
			}
		}
	}
	return nil
}
