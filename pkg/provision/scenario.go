package provision

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/masterplan/pkg/city"
	"github.com/mesh-intelligence/masterplan/pkg/types"
)

// ScenarioItem weighs one service type inside a scenario.
type ScenarioItem struct {
	ServiceType string
	Weight      float64
}

// ScenarioResult is a weighted multi-service assessment.
type ScenarioResult struct {
	Results map[string]*Result
	// Total is the weight-blended sum of per-service totals.
	Total float64
}

// Scenario assesses several service types in parallel and blends their
// totals by weight.
// Implements: prd005-provision-interface R5.
func Scenario(ctx context.Context, c *city.City, items []ScenarioItem, opts Options) (*ScenarioResult, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: empty scenario", types.ErrInvalidData)
	}
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if seen[item.ServiceType] {
			return nil, fmt.Errorf("%w: %s", types.ErrDuplicateServiceType, item.ServiceType)
		}
		seen[item.ServiceType] = true
	}

	results := make([]*Result, len(items))
	g, ctx := errgroup.WithContext(ctx)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			res, err := Assess(ctx, c, item.ServiceType, opts)
			if err != nil {
				return fmt.Errorf("service type %s: %w", item.ServiceType, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &ScenarioResult{Results: make(map[string]*Result, len(items))}
	for i, item := range items {
		out.Results[item.ServiceType] = results[i]
		out.Total += item.Weight * results[i].Total()
	}
	return out, nil
}

// Bounds returns the provision range reachable for a service type: the
// lower bound lets blocks consume only their own capacity, the upper
// assumes capacity is perfectly distributable.
// Implements: prd005-provision-interface R6.
func Bounds(c *city.City, serviceType string, updates map[int]Update) (lower, upper float64, err error) {
	st, err := c.ServiceType(serviceType)
	if err != nil {
		return 0, 0, err
	}
	totalDemand, totalCapacity, selfServed := 0, 0, 0
	for _, b := range c.Blocks() {
		upd := updates[b.BlockID]
		demand := st.InNeed(b.Population() + upd.Population)
		capacity := b.CapacityFor(st.Name) + upd.Capacity
		if capacity < 0 {
			capacity = 0
		}
		totalDemand += demand
		totalCapacity += capacity
		selfServed += min(demand, capacity)
	}
	if totalDemand == 0 {
		return 1, 1, nil
	}
	lower = float64(selfServed) / float64(totalDemand)
	upper = math.Min(float64(totalCapacity)/float64(totalDemand), 1)
	return lower, upper, nil
}
