package network

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/path"

	"github.com/mesh-intelligence/masterplan/pkg/city"
	"github.com/mesh-intelligence/masterplan/pkg/types"
)

// Integration scores blocks by the harmonic closeness of their nearest
// street node: the sum of reciprocal travel minutes to every other
// reachable node. Harmonic closeness stays defined on disconnected
// street layers, where unreachable nodes simply contribute nothing.
// A positive radius (minutes) restricts each node's horizon to its
// local neighborhood; zero computes global integration.
// Implements: prd004-network-interface R7.
func Integration(c *city.City, net *RouteNetwork, radiusMinutes float64) (map[int]float64, error) {
	if net == nil || net.StreetNodeCount() == 0 {
		return nil, fmt.Errorf("%w: empty street layer", types.ErrInvalidData)
	}

	var closeness map[int64]float64
	if radiusMinutes > 0 {
		closeness = localHarmonic(net, radiusMinutes)
	} else {
		closeness = network.Harmonic(net.g, path.DijkstraAllPaths(net.g))
	}

	out := make(map[int]float64, len(c.Blocks()))
	for _, b := range c.Blocks() {
		node, ok := net.NearestStreetNode(b.Centroid())
		if !ok {
			return nil, fmt.Errorf("%w: cannot snap block %d", types.ErrInvalidData, b.BlockID)
		}
		out[b.BlockID] = closeness[node]
	}
	return out, nil
}

// localHarmonic is harmonic closeness within the radius, computed for
// street nodes over every graph vertex so that an infinite radius
// matches the global form.
func localHarmonic(net *RouteNetwork, radiusMinutes float64) map[int64]float64 {
	ids := make([]int64, 0, net.NodeCount())
	nodes := net.g.Nodes()
	for nodes.Next() {
		ids = append(ids, nodes.Node().ID())
	}
	out := make(map[int64]float64, len(net.streetNodes))
	for _, uid := range net.streetNodes {
		shortest := path.DijkstraFrom(net.g.Node(uid), net.g)
		sum := 0.0
		for _, vid := range ids {
			if uid == vid {
				continue
			}
			d := shortest.WeightTo(vid)
			if d <= 0 || math.IsInf(d, 1) || d > radiusMinutes {
				continue
			}
			sum += 1 / d
		}
		out[uid] = sum
	}
	return out
}
