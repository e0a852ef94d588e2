// Package provision assesses how well facility capacity covers the
// normative demand of city blocks, allocating capacity to demand over
// the travel time matrix.
// Implements: prd005-provision-interface.
package provision

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/mesh-intelligence/masterplan/pkg/city"
	"github.com/mesh-intelligence/masterplan/pkg/types"
)

// Method selects the capacity allocation strategy.
type Method string

// Recognized allocation methods.
const (
	MethodGreedy        Method = "greedy"
	MethodLinear        Method = "linear"
	MethodGravitational Method = "gravitational"
)

// ErrUnknownMethod is returned for an unrecognized allocation method.
var ErrUnknownMethod = errors.New("unknown provision method")

// ParseMethod maps a string onto a Method. An empty string selects
// MethodLinear.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case "":
		return MethodLinear, nil
	case MethodGreedy, MethodLinear, MethodGravitational:
		return Method(s), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownMethod, s)
}

// Update shifts a block's population and service capacity before
// assessment. Optimizers score candidate developments through updates
// without mutating the city.
type Update struct {
	Population int
	Capacity   int
}

// Options tunes an assessment.
type Options struct {
	// Method is the allocation strategy, MethodLinear when empty.
	Method Method
	// SelfSupply consumes in-block capacity before any allocation.
	SelfSupply bool
	// Updates is a per-block overlay applied when building the frame.
	Updates map[int]Update
}

// Row is the per-block state of an assessment. Demand units that could
// not be allocated at all remain in DemandLeft.
type Row struct {
	BlockID       int
	Demand        int
	Capacity      int
	DemandLeft    int
	CapacityLeft  int
	DemandWithin  int
	DemandWithout int
}

// Provision returns the share of block demand served within normative
// accessibility. A block without demand counts as fully provided.
func (r Row) Provision() float64 {
	if r.Demand == 0 {
		return 1
	}
	return float64(r.DemandWithin) / float64(r.Demand)
}

// Result holds the outcome of one service type assessment.
type Result struct {
	ServiceType types.ServiceType
	Method      Method
	SelfSupply  bool

	rows  []Row
	index map[int]int
}

// Rows returns the per-block rows in city block order.
func (r *Result) Rows() []Row {
	return append([]Row(nil), r.rows...)
}

// Row returns the row of one block.
func (r *Result) Row(blockID int) (Row, bool) {
	i, ok := r.index[blockID]
	if !ok {
		return Row{}, false
	}
	return r.rows[i], true
}

// Total returns the city-wide provision: demand served within normative
// accessibility over total demand. A city without demand is fully
// provided.
func (r *Result) Total() float64 {
	within, demand := 0, 0
	for _, row := range r.rows {
		within += row.DemandWithin
		demand += row.Demand
	}
	if demand == 0 {
		return 1
	}
	return float64(within) / float64(demand)
}

// Stat summarizes per-block provision over blocks that have demand.
type Stat struct {
	Mean   float64
	Median float64
	Min    float64
	Max    float64
}

// Stat computes provision statistics over blocks with demand.
func (r *Result) Stat() Stat {
	var values []float64
	for _, row := range r.rows {
		if row.Demand == 0 {
			continue
		}
		values = append(values, row.Provision())
	}
	if len(values) == 0 {
		return Stat{Mean: 1, Median: 1, Min: 1, Max: 1}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return Stat{
		Mean:   stat.Mean(values, nil),
		Median: stat.Quantile(0.5, stat.LinInterp, sorted, nil),
		Min:    floats.Min(values),
		Max:    floats.Max(values),
	}
}

// Assess allocates facility capacity to block demand for one service
// type and reports per-block and total provision.
// Implements: prd005-provision-interface R1.
func Assess(ctx context.Context, c *city.City, serviceType string, opts Options) (*Result, error) {
	st, err := c.ServiceType(serviceType)
	if err != nil {
		return nil, err
	}
	method := opts.Method
	if method == "" {
		method = MethodLinear
	}
	switch method {
	case MethodGreedy, MethodLinear, MethodGravitational:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}

	res := &Result{
		ServiceType: st,
		Method:      method,
		SelfSupply:  opts.SelfSupply,
		index:       make(map[int]int, len(c.Blocks())),
	}
	for _, b := range c.Blocks() {
		upd := opts.Updates[b.BlockID]
		demand := st.InNeed(b.Population() + upd.Population)
		capacity := b.CapacityFor(st.Name) + upd.Capacity
		if capacity < 0 {
			capacity = 0
		}
		row := Row{
			BlockID:      b.BlockID,
			Demand:       demand,
			Capacity:     capacity,
			DemandLeft:   demand,
			CapacityLeft: capacity,
		}
		if opts.SelfSupply {
			supplied := min(demand, capacity)
			row.DemandWithin += supplied
			row.DemandLeft -= supplied
			row.CapacityLeft -= supplied
		}
		res.index[b.BlockID] = len(res.rows)
		res.rows = append(res.rows, row)
	}

	switch method {
	case MethodGreedy:
		err = allocateGreedy(ctx, c, st, res)
	default:
		err = allocateTransport(ctx, c, st, res, method)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}
