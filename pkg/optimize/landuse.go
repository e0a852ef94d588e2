package optimize

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/MaxHalford/eaopt"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/masterplan/pkg/city"
	"github.com/mesh-intelligence/masterplan/pkg/provision"
	"github.com/mesh-intelligence/masterplan/pkg/types"
)

// Genetic search defaults.
const (
	DefaultGenerations = 10
	DefaultPopulation  = 8
)

// LandUseOptions tunes the genetic land use search.
type LandUseOptions struct {
	Generations uint
	Population  uint
	Seed        int64
	// Target, when set, rewards assignments by the share of site area
	// carrying this land use. Must be one of the allowed uses.
	Target types.LandUse
	// Method scores assignments through provision assessment,
	// MethodGravitational when empty.
	Method provision.Method
	Logger *zap.Logger
}

// LandUseResult is the best assignment found and its fitness.
type LandUseResult struct {
	Assignment map[int]types.LandUse
	Fitness    float64
}

// landUseSearch is the shared evaluation context of the genetic search.
type landUseSearch struct {
	ctx       context.Context
	c         *city.City
	blocks    []int
	allowed   []types.LandUse
	weights   map[string]float64
	method    provision.Method
	target    types.LandUse
	areas     []float64
	totalArea float64
}

// score rates an assignment: the weighted self-supplied provision with
// every block developed at its profile's minimum intensity, plus the
// site area share of the target land use.
func (s *landUseSearch) score(assign []int) (float64, error) {
	indicators := make(map[int]Indicator, len(s.blocks))
	for i, id := range s.blocks {
		lu := s.allowed[assign[i]]
		p, err := profileFor(lu)
		if err != nil {
			return 0, err
		}
		indicators[id] = ComputeIndicator(s.areas[i], lu, p.FSIMin, p.GSIMin)
	}
	upd := make(map[int]provision.Update, len(indicators))
	for id, ind := range indicators {
		upd[id] = provision.Update{Population: ind.Population}
	}

	total := 0.0
	for name, weight := range s.weights {
		res, err := provision.Assess(s.ctx, s.c, name, provision.Options{
			Method:     s.method,
			SelfSupply: true,
			Updates:    upd,
		})
		if err != nil {
			return 0, err
		}
		total += weight * res.Total()
	}

	if s.target != "" && s.totalArea > 0 {
		targetArea := 0.0
		for i := range s.blocks {
			if s.allowed[assign[i]] == s.target {
				targetArea += s.areas[i]
			}
		}
		total += targetArea / s.totalArea
	}
	return total, nil
}

// landUseGenome is one candidate assignment: allowed-list indices
// aligned with the searched blocks.
type landUseGenome struct {
	search *landUseSearch
	assign []int
}

// Evaluate returns the negated score, since the solver minimizes.
func (g *landUseGenome) Evaluate() (float64, error) {
	if err := g.search.ctx.Err(); err != nil {
		return 0, err
	}
	score, err := g.search.score(g.assign)
	if err != nil {
		return 0, err
	}
	return -score, nil
}

// Mutate reassigns one block to a random allowed use.
func (g *landUseGenome) Mutate(rng *rand.Rand) {
	g.assign[rng.Intn(len(g.assign))] = rng.Intn(len(g.search.allowed))
}

// Crossover swaps assignments uniformly with the other genome.
func (g *landUseGenome) Crossover(other eaopt.Genome, rng *rand.Rand) {
	o := other.(*landUseGenome)
	for i := range g.assign {
		if rng.Float64() < 0.5 {
			g.assign[i], o.assign[i] = o.assign[i], g.assign[i]
		}
	}
}

// Clone copies the assignment, sharing the search context.
func (g *landUseGenome) Clone() eaopt.Genome {
	return &landUseGenome{search: g.search, assign: append([]int(nil), g.assign...)}
}

// LandUseSearch runs a generational genetic search with tournament
// selection over per-block land use assignments.
// Implements: prd006-optimize-interface R5.
func LandUseSearch(ctx context.Context, c *city.City, blockIDs []int, allowed []types.LandUse, weights map[string]float64, opts LandUseOptions) (*LandUseResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(blockIDs) == 0 {
		return nil, fmt.Errorf("%w: no blocks to assign", types.ErrInvalidData)
	}
	if len(allowed) == 0 {
		return nil, fmt.Errorf("%w: no allowed land uses", types.ErrInvalidData)
	}
	if len(weights) == 0 {
		return nil, fmt.Errorf("%w: no weighted service types", types.ErrInvalidData)
	}
	for name := range weights {
		if _, err := c.ServiceType(name); err != nil {
			return nil, err
		}
	}
	for _, lu := range allowed {
		if _, err := profileFor(lu); err != nil {
			return nil, err
		}
	}
	if opts.Target != "" {
		found := false
		for _, lu := range allowed {
			found = found || lu == opts.Target
		}
		if !found {
			return nil, fmt.Errorf("%w: target %s not among allowed uses", types.ErrInvalidData, opts.Target)
		}
	}
	method := opts.Method
	if method == "" {
		method = provision.MethodGravitational
	}
	if _, err := provision.ParseMethod(string(method)); err != nil {
		return nil, err
	}

	s := &landUseSearch{
		ctx:     ctx,
		c:       c,
		blocks:  blockIDs,
		allowed: allowed,
		weights: weights,
		method:  method,
		target:  opts.Target,
		areas:   make([]float64, len(blockIDs)),
	}
	for i, id := range blockIDs {
		b, err := c.Block(id)
		if err != nil {
			return nil, err
		}
		s.areas[i] = b.SiteArea()
		s.totalArea += s.areas[i]
	}

	cfg := eaopt.NewDefaultGAConfig()
	cfg.PopSize = DefaultPopulation
	if opts.Population > 0 {
		cfg.PopSize = opts.Population
	}
	cfg.NGenerations = DefaultGenerations
	if opts.Generations > 0 {
		cfg.NGenerations = opts.Generations
	}
	cfg.RNG = rand.New(rand.NewSource(opts.Seed))
	ga, err := cfg.NewGA()
	if err != nil {
		return nil, err
	}

	logger.Debug("land use search start",
		zap.Int("blocks", len(blockIDs)),
		zap.Int("allowed_uses", len(allowed)),
		zap.Uint("generations", cfg.NGenerations),
		zap.Uint("population", cfg.PopSize))
	err = ga.Minimize(func(rng *rand.Rand) eaopt.Genome {
		assign := make([]int, len(blockIDs))
		for i := range assign {
			assign[i] = rng.Intn(len(allowed))
		}
		return &landUseGenome{search: s, assign: assign}
	})
	if err != nil {
		return nil, err
	}

	bestInd := ga.HallOfFame[0]
	best := bestInd.Genome.(*landUseGenome)
	out := &LandUseResult{
		Assignment: make(map[int]types.LandUse, len(blockIDs)),
		Fitness:    -bestInd.Fitness,
	}
	for i, id := range blockIDs {
		out.Assignment[id] = allowed[best.assign[i]]
	}
	logger.Debug("land use search finished", zap.Float64("fitness", out.Fitness))
	return out, nil
}
