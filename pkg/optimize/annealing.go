// Package optimize searches development plans for city blocks: service
// placements by simulated annealing, land use assignments by genetic
// search, and the vacant area survey feeding both.
// Implements: prd006-optimize-interface.
package optimize

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/masterplan/pkg/city"
	"github.com/mesh-intelligence/masterplan/pkg/provision"
	"github.com/mesh-intelligence/masterplan/pkg/types"
)

// Annealing defaults.
const (
	DefaultTmax          = 100.0
	DefaultTmin          = 1e-3
	DefaultCoolingRate   = 0.95
	DefaultMaxIterations = 1000
)

// Candidate is a block offered for development, with its assigned land
// use and intensity.
type Candidate struct {
	BlockID int
	LandUse types.LandUse
	FSI     float64
	GSI     float64
}

// AnnealingOptions tunes the simulated annealing search. Zero values
// select the defaults; runs are deterministic per seed.
type AnnealingOptions struct {
	Tmax          float64
	Tmin          float64
	Rate          float64
	MaxIterations int
	Seed          int64
	// Method scores solutions through provision assessment,
	// MethodGravitational when empty.
	Method provision.Method
	// OnIteration, when set, observes every iteration.
	OnIteration func(iteration int, current, best float64)
	Logger      *zap.Logger
}

// Solution is a scored development plan.
type Solution struct {
	// Variables holds every decision variable with its final count.
	Variables []Variable
	// Indicators holds the development figures per candidate block.
	Indicators map[int]Indicator
	// Value is the weighted provision the plan reaches.
	Value float64
}

// CapacityByService sums the added capacity per service type and block,
// skipping empty variables.
func (s *Solution) CapacityByService() map[string]map[int]int {
	out := make(map[string]map[int]int)
	for _, v := range s.Variables {
		if v.Count == 0 {
			continue
		}
		byBlock := out[v.ServiceType]
		if byBlock == nil {
			byBlock = make(map[int]int)
			out[v.ServiceType] = byBlock
		}
		byBlock[v.BlockID] += v.Capacity()
	}
	return out
}

// annealer carries the mutable search state.
type annealer struct {
	c          *city.City
	method     provision.Method
	weights    map[string]float64
	services   []string
	indicators map[int]Indicator
	vars       []Variable
	counts     []int
	usedInt    map[int]float64
	usedNon    map[int]float64
}

// fits reports whether changing variable i by delta keeps counts
// non-negative and area budgets respected.
func (a *annealer) fits(i, delta int) bool {
	v := a.vars[i]
	if a.counts[i]+delta < 0 {
		return false
	}
	if delta <= 0 {
		return true
	}
	area := v.Brick.Area * float64(delta)
	ind := a.indicators[v.BlockID]
	if v.Brick.Integrated {
		return a.usedInt[v.BlockID]+area <= ind.IntegratedArea
	}
	return a.usedNon[v.BlockID]+area <= ind.NonIntegratedArea
}

func (a *annealer) apply(i, delta int) {
	v := a.vars[i]
	a.counts[i] += delta
	area := v.Brick.Area * float64(delta)
	if v.Brick.Integrated {
		a.usedInt[v.BlockID] += area
	} else {
		a.usedNon[v.BlockID] += area
	}
}

// updatesFor builds the provision overlay for one service type: every
// candidate contributes its projected population, variables of the type
// contribute capacity.
func (a *annealer) updatesFor(service string) map[int]provision.Update {
	upd := make(map[int]provision.Update, len(a.indicators))
	for id, ind := range a.indicators {
		upd[id] = provision.Update{Population: ind.Population}
	}
	for i, v := range a.vars {
		if v.ServiceType != service || a.counts[i] == 0 {
			continue
		}
		u := upd[v.BlockID]
		u.Capacity += a.counts[i] * v.Brick.Capacity
		upd[v.BlockID] = u
	}
	return upd
}

// objective is the weighted self-supplied provision over the scored
// service types.
func (a *annealer) objective(ctx context.Context) (float64, error) {
	total := 0.0
	for _, name := range a.services {
		res, err := provision.Assess(ctx, a.c, name, provision.Options{
			Method:     a.method,
			SelfSupply: true,
			Updates:    a.updatesFor(name),
		})
		if err != nil {
			return 0, err
		}
		total += a.weights[name] * res.Total()
	}
	return total, nil
}

// Anneal searches service placements on the candidate blocks that
// maximize weighted provision under the per-block area budgets. The
// search starts from an empty plan, perturbs one variable by one brick
// per iteration and accepts worse plans with probability exp(delta/T)
// on a geometric cooling schedule.
// Implements: prd006-optimize-interface R4.
func Anneal(ctx context.Context, c *city.City, candidates []Candidate, weights map[string]float64, opts AnnealingOptions) (*Solution, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidate blocks", types.ErrInvalidData)
	}
	if len(weights) == 0 {
		return nil, fmt.Errorf("%w: no weighted service types", types.ErrInvalidData)
	}

	method := opts.Method
	if method == "" {
		method = provision.MethodGravitational
	}
	if _, err := provision.ParseMethod(string(method)); err != nil {
		return nil, err
	}
	tmax, tmin, rate, maxIter := opts.Tmax, opts.Tmin, opts.Rate, opts.MaxIterations
	if tmax <= 0 {
		tmax = DefaultTmax
	}
	if tmin <= 0 {
		tmin = DefaultTmin
	}
	if rate <= 0 || rate >= 1 {
		rate = DefaultCoolingRate
	}
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	services := make([]string, 0, len(weights))
	for name := range weights {
		if _, err := c.ServiceType(name); err != nil {
			return nil, err
		}
		services = append(services, name)
	}
	sort.Strings(services)

	indicators := make(map[int]Indicator, len(candidates))
	for _, cand := range candidates {
		b, err := c.Block(cand.BlockID)
		if err != nil {
			return nil, err
		}
		if _, dup := indicators[cand.BlockID]; dup {
			return nil, fmt.Errorf("%w: candidate block %d", types.ErrDuplicateID, cand.BlockID)
		}
		indicators[cand.BlockID] = ComputeIndicator(b.SiteArea(), cand.LandUse, cand.FSI, cand.GSI)
	}

	var vars []Variable
	for _, cand := range candidates {
		for _, name := range services {
			st, err := c.ServiceType(name)
			if err != nil {
				return nil, err
			}
			if !st.AllowedOn(cand.LandUse) {
				continue
			}
			for _, brick := range st.Bricks {
				vars = append(vars, Variable{BlockID: cand.BlockID, ServiceType: name, Brick: brick})
			}
		}
	}
	if len(vars) == 0 {
		return nil, fmt.Errorf("%w: no placeable bricks for the candidate land uses", types.ErrNoBricks)
	}

	a := &annealer{
		c:          c,
		method:     method,
		weights:    weights,
		services:   services,
		indicators: indicators,
		vars:       vars,
		counts:     make([]int, len(vars)),
		usedInt:    make(map[int]float64, len(candidates)),
		usedNon:    make(map[int]float64, len(candidates)),
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	value, err := a.objective(ctx)
	if err != nil {
		return nil, err
	}
	best := append([]int(nil), a.counts...)
	bestValue := value
	logger.Debug("annealing start",
		zap.Int("variables", len(vars)),
		zap.Int("candidates", len(candidates)),
		zap.Float64("initial", value))

	temperature := tmax
	for iter := 1; iter <= maxIter && temperature > tmin; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		i := rng.Intn(len(a.vars))
		delta := 1
		if rng.Intn(2) == 0 {
			delta = -1
		}
		if a.fits(i, delta) {
			a.apply(i, delta)
			next, err := a.objective(ctx)
			if err != nil {
				return nil, err
			}
			if next >= value || rng.Float64() < math.Exp((next-value)/temperature) {
				value = next
				if value > bestValue {
					bestValue = value
					copy(best, a.counts)
				}
			} else {
				a.apply(i, -delta)
			}
		}
		if opts.OnIteration != nil {
			opts.OnIteration(iter, value, bestValue)
		}
		temperature *= rate
	}
	logger.Debug("annealing finished", zap.Float64("best", bestValue))

	out := &Solution{Indicators: indicators, Value: bestValue}
	for i, v := range a.vars {
		v.Count = best[i]
		out.Variables = append(out.Variables, v)
	}
	return out, nil
}
