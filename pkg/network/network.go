// Package network builds the multimodal travel graph, derives the block
// to block travel time matrix, and computes the spatial statistics that
// depend on it: connectivity, accessibility, centrality and integration.
// Implements: prd004-network-interface.
package network

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/quadtree"
	"gonum.org/v1/gonum/graph/simple"
)

// Mode identifies a travel mode carried by a route.
type Mode string

// Recognized travel modes.
const (
	ModeWalk       Mode = "walk"
	ModeDrive      Mode = "drive"
	ModeBus        Mode = "bus"
	ModeTram       Mode = "tram"
	ModeTrolleybus Mode = "trolleybus"
	ModeSubway     Mode = "subway"
)

// speedKmh is the normative travel speed per mode.
var speedKmh = map[Mode]float64{
	ModeWalk:       4,
	ModeDrive:      25,
	ModeBus:        17,
	ModeTram:       15,
	ModeTrolleybus: 12,
	ModeSubway:     12,
}

// waitingMin is the normative boarding wait per public transport mode.
var waitingMin = map[Mode]float64{
	ModeBus:        5,
	ModeTram:       5,
	ModeTrolleybus: 5,
	ModeSubway:     5,
}

// ErrUnknownMode is returned for routes with an unrecognized mode.
var ErrUnknownMode = fmt.Errorf("unknown travel mode")

// Speed returns the mode speed in meters per minute.
func Speed(mode Mode) (float64, error) {
	kmh, ok := speedKmh[mode]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownMode, mode)
	}
	return kmh * 1000 / 60, nil
}

// Waiting returns the boarding wait in minutes, zero for street modes.
func Waiting(mode Mode) float64 {
	return waitingMin[mode]
}

// IsTransit reports whether the mode requires boarding.
func IsTransit(mode Mode) bool {
	_, ok := waitingMin[mode]
	return ok
}

// Route is one typed polyline of the transport network.
type Route struct {
	Mode     Mode
	Geometry orb.LineString
	Oneway   bool
}

// RouteNetwork is the multimodal travel graph. Street modes (walk, drive)
// share one node layer; every transit mode keeps its own layer linked to
// the street layer with walk-speed boarding edges that carry the waiting
// time. Edge weights are minutes.
// Implements: prd004-network-interface R1.
type RouteNetwork struct {
	g           *simple.WeightedDirectedGraph
	streetNodes map[orb.Point]int64
	streetTree  *quadtree.Quadtree
	streetBound orb.Bound
	nextID      int64
}

type transitKey struct {
	mode Mode
	pt   orb.Point
}

// NewRouteNetwork assembles the graph from typed routes. Street segments
// are bidirectional unless the route is one-way; transit segments follow
// the line direction and are mirrored for non-oneway routes. Transit
// vertices are linked to their nearest street node.
// Implements: prd004-network-interface R1.1.
func NewRouteNetwork(routes []Route) (*RouteNetwork, error) {
	n := &RouteNetwork{
		g:           simple.NewWeightedDirectedGraph(0, math.Inf(1)),
		streetNodes: make(map[orb.Point]int64),
	}
	transitNodes := make(map[transitKey]int64)

	for i, route := range routes {
		speed, err := Speed(route.Mode)
		if err != nil {
			return nil, fmt.Errorf("route %d: %w", i, err)
		}
		transit := IsTransit(route.Mode)
		for s := 0; s+1 < len(route.Geometry); s++ {
			a, b := route.Geometry[s], route.Geometry[s+1]
			length := planarDistance(a, b)
			if length == 0 {
				continue
			}
			minutes := length / speed
			var u, v int64
			if transit {
				u = n.transitNode(transitNodes, route.Mode, a)
				v = n.transitNode(transitNodes, route.Mode, b)
			} else {
				u = n.streetNode(a)
				v = n.streetNode(b)
			}
			n.addEdge(u, v, minutes)
			if !route.Oneway {
				n.addEdge(v, u, minutes)
			}
		}
	}

	n.buildStreetTree()
	n.linkTransit(transitNodes)
	return n, nil
}

// streetNode returns the street layer node for the point, creating it on
// first sight.
func (n *RouteNetwork) streetNode(pt orb.Point) int64 {
	if id, ok := n.streetNodes[pt]; ok {
		return id
	}
	id := n.nextID
	n.nextID++
	n.g.AddNode(simple.Node(id))
	n.streetNodes[pt] = id
	if len(n.streetNodes) == 1 {
		n.streetBound = pt.Bound()
	} else {
		n.streetBound = n.streetBound.Union(pt.Bound())
	}
	return id
}

func (n *RouteNetwork) transitNode(nodes map[transitKey]int64, mode Mode, pt orb.Point) int64 {
	key := transitKey{mode: mode, pt: pt}
	if id, ok := nodes[key]; ok {
		return id
	}
	id := n.nextID
	n.nextID++
	n.g.AddNode(simple.Node(id))
	nodes[key] = id
	return id
}

// addEdge inserts a directed edge, keeping the faster weight when the
// edge already exists.
func (n *RouteNetwork) addEdge(u, v int64, minutes float64) {
	if u == v {
		return
	}
	if e := n.g.WeightedEdge(u, v); e != nil && e.Weight() <= minutes {
		return
	}
	n.g.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(u), T: simple.Node(v), W: minutes})
}

type streetPointer struct {
	pt orb.Point
	id int64
}

func (p streetPointer) Point() orb.Point { return p.pt }

func (n *RouteNetwork) buildStreetTree() {
	if len(n.streetNodes) == 0 {
		return
	}
	n.streetTree = quadtree.New(n.streetBound)
	for pt, id := range n.streetNodes {
		_ = n.streetTree.Add(streetPointer{pt: pt, id: id})
	}
}

// linkTransit connects every transit vertex with its nearest street node:
// boarding costs the walk plus the mode's waiting time, alighting costs
// the walk only.
func (n *RouteNetwork) linkTransit(transitNodes map[transitKey]int64) {
	if n.streetTree == nil {
		return
	}
	walkSpeed, _ := Speed(ModeWalk)
	for key, id := range transitNodes {
		nearest := n.streetTree.Find(key.pt)
		if nearest == nil {
			continue
		}
		sp := nearest.(streetPointer)
		walk := planarDistance(key.pt, sp.pt) / walkSpeed
		n.addEdge(sp.id, id, walk+Waiting(key.mode))
		n.addEdge(id, sp.id, walk)
	}
}

// NearestStreetNode snaps a point to the closest street layer node.
// The second return is false when the network has no street layer.
func (n *RouteNetwork) NearestStreetNode(pt orb.Point) (int64, bool) {
	if n.streetTree == nil {
		return 0, false
	}
	nearest := n.streetTree.Find(pt)
	if nearest == nil {
		return 0, false
	}
	return nearest.(streetPointer).id, true
}

// StreetNodeCount returns the number of street layer nodes.
func (n *RouteNetwork) StreetNodeCount() int {
	return len(n.streetNodes)
}

// NodeCount returns the total node count over all layers.
func (n *RouteNetwork) NodeCount() int {
	return n.g.Nodes().Len()
}

// planarDistance is the euclidean distance between projected points.
func planarDistance(a, b orb.Point) float64 {
	dx, dy := a[0]-b[0], a[1]-b[1]
	return math.Sqrt(dx*dx + dy*dy)
}
