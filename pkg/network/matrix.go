package network

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/graph/path"

	"github.com/mesh-intelligence/masterplan/pkg/types"
)

// unreachablePenalty scales the worst observed travel time to stand in
// for unreachable pairs, keeping medians and provision costs finite.
const unreachablePenalty = 1.5

// MatrixBuilder computes the block to block travel time matrix by
// snapping block centroids to the street layer and running one shortest
// path tree per source block.
// Implements: prd004-network-interface R2.
type MatrixBuilder struct {
	Network *RouteNetwork
	// Workers bounds the parallel Dijkstra runs; zero means GOMAXPROCS.
	Workers int
	// Progress, when set, is called after every finished source row,
	// possibly from concurrent workers.
	Progress func(done, total int)
	Logger   *zap.Logger
}

// Build computes travel times in minutes between all block pairs.
// Unreachable pairs get the worst finite time scaled by a fixed penalty
// instead of infinity, so downstream statistics stay defined.
// Implements: prd004-network-interface R2.1.
func (mb *MatrixBuilder) Build(ctx context.Context, blocks []*types.Block) (*types.Matrix, error) {
	logger := mb.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if mb.Network == nil || mb.Network.StreetNodeCount() == 0 {
		return nil, fmt.Errorf("%w: empty street layer", types.ErrInvalidData)
	}

	ids := make([]int, len(blocks))
	nodes := make([]int64, len(blocks))
	for i, b := range blocks {
		ids[i] = b.BlockID
		node, ok := mb.Network.NearestStreetNode(b.Centroid())
		if !ok {
			return nil, fmt.Errorf("%w: cannot snap block %d", types.ErrInvalidData, b.BlockID)
		}
		nodes[i] = node
	}
	matrix, err := types.NewMatrix(ids)
	if err != nil {
		return nil, err
	}

	workers := mb.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	logger.Debug("building travel matrix",
		zap.Int("blocks", len(blocks)),
		zap.Int("street_nodes", mb.Network.StreetNodeCount()),
		zap.Int("workers", workers))

	rows := make([][]float64, len(blocks))
	var done atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range blocks {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			shortest := path.DijkstraFrom(mb.Network.g.Node(nodes[i]), mb.Network.g)
			row := make([]float64, len(blocks))
			for j := range blocks {
				if i == j {
					continue
				}
				row[j] = shortest.WeightTo(nodes[j])
			}
			rows[i] = row
			if mb.Progress != nil {
				mb.Progress(int(done.Add(1)), len(blocks))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Cap unreachable pairs at a multiple of the worst finite time.
	worst := 0.0
	for _, row := range rows {
		for _, v := range row {
			if !math.IsInf(v, 1) && v > worst {
				worst = v
			}
		}
	}
	ceiling := worst * unreachablePenalty
	for i, row := range rows {
		for j, v := range row {
			if math.IsInf(v, 1) {
				v = ceiling
			}
			if err := matrix.Set(ids[i], ids[j], v); err != nil {
				return nil, err
			}
		}
	}
	logger.Debug("travel matrix complete", zap.Float64("worst_minutes", worst))
	return matrix, nil
}
