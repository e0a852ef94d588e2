package network

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/graph/path"
)

func line(pts ...[2]float64) orb.LineString {
	ls := make(orb.LineString, len(pts))
	for i, p := range pts {
		ls[i] = orb.Point(p)
	}
	return ls
}

func TestSpeed(t *testing.T) {
	tests := []struct {
		name    string
		mode    Mode
		want    float64
		wantErr error
	}{
		{name: "walk", mode: ModeWalk, want: 4000.0 / 60},
		{name: "drive", mode: ModeDrive, want: 25000.0 / 60},
		{name: "bus", mode: ModeBus, want: 17000.0 / 60},
		{name: "tram", mode: ModeTram, want: 15000.0 / 60},
		{name: "trolleybus", mode: ModeTrolleybus, want: 12000.0 / 60},
		{name: "subway", mode: ModeSubway, want: 12000.0 / 60},
		{name: "unknown mode rejected", mode: "hoverboard", wantErr: ErrUnknownMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Speed(tt.mode)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestWaiting(t *testing.T) {
	assert.Zero(t, Waiting(ModeWalk))
	assert.Zero(t, Waiting(ModeDrive))
	assert.Equal(t, 5.0, Waiting(ModeBus))
	assert.Equal(t, 5.0, Waiting(ModeSubway))
}

func TestIsTransit(t *testing.T) {
	assert.False(t, IsTransit(ModeWalk))
	assert.False(t, IsTransit(ModeDrive))
	assert.True(t, IsTransit(ModeBus))
	assert.True(t, IsTransit(ModeTram))
}

func TestNewRouteNetworkStreets(t *testing.T) {
	n, err := NewRouteNetwork([]Route{
		{Mode: ModeWalk, Geometry: line([2]float64{0, 0}, [2]float64{1000, 0}, [2]float64{2000, 0})},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n.StreetNodeCount())
	assert.Equal(t, 3, n.NodeCount())

	u := n.streetNodes[orb.Point{0, 0}]
	v := n.streetNodes[orb.Point{1000, 0}]
	forward := n.g.WeightedEdge(u, v)
	require.NotNil(t, forward)
	assert.InDelta(t, 15.0, forward.Weight(), 1e-9)
	backward := n.g.WeightedEdge(v, u)
	require.NotNil(t, backward)
	assert.InDelta(t, 15.0, backward.Weight(), 1e-9)
}

func TestNewRouteNetworkOneway(t *testing.T) {
	n, err := NewRouteNetwork([]Route{
		{Mode: ModeDrive, Oneway: true, Geometry: line([2]float64{0, 0}, [2]float64{1000, 0})},
	})
	require.NoError(t, err)

	u := n.streetNodes[orb.Point{0, 0}]
	v := n.streetNodes[orb.Point{1000, 0}]
	require.NotNil(t, n.g.WeightedEdge(u, v))
	assert.Nil(t, n.g.WeightedEdge(v, u))
}

func TestNewRouteNetworkKeepsFasterEdge(t *testing.T) {
	tests := []struct {
		name   string
		routes []Route
	}{
		{
			name: "walk then drive",
			routes: []Route{
				{Mode: ModeWalk, Geometry: line([2]float64{0, 0}, [2]float64{1000, 0})},
				{Mode: ModeDrive, Geometry: line([2]float64{0, 0}, [2]float64{1000, 0})},
			},
		},
		{
			name: "drive then walk",
			routes: []Route{
				{Mode: ModeDrive, Geometry: line([2]float64{0, 0}, [2]float64{1000, 0})},
				{Mode: ModeWalk, Geometry: line([2]float64{0, 0}, [2]float64{1000, 0})},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := NewRouteNetwork(tt.routes)
			require.NoError(t, err)
			assert.Equal(t, 2, n.StreetNodeCount())

			u := n.streetNodes[orb.Point{0, 0}]
			v := n.streetNodes[orb.Point{1000, 0}]
			e := n.g.WeightedEdge(u, v)
			require.NotNil(t, e)
			assert.InDelta(t, 2.4, e.Weight(), 1e-9)
		})
	}
}

func TestNewRouteNetworkSkipsZeroSegments(t *testing.T) {
	n, err := NewRouteNetwork([]Route{
		{Mode: ModeWalk, Geometry: line([2]float64{0, 0}, [2]float64{0, 0}, [2]float64{100, 0})},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n.StreetNodeCount())
}

func TestNewRouteNetworkUnknownMode(t *testing.T) {
	_, err := NewRouteNetwork([]Route{
		{Mode: "teleport", Geometry: line([2]float64{0, 0}, [2]float64{100, 0})},
	})
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestNewRouteNetworkTransitLayer(t *testing.T) {
	n, err := NewRouteNetwork([]Route{
		{Mode: ModeWalk, Geometry: line([2]float64{0, 0}, [2]float64{1000, 0})},
		{Mode: ModeBus, Geometry: line([2]float64{0, 100}, [2]float64{1000, 100})},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n.StreetNodeCount())
	assert.Equal(t, 4, n.NodeCount())

	street := make(map[int64]bool, len(n.streetNodes))
	for _, id := range n.streetNodes {
		street[id] = true
	}
	walkSpeed, err := Speed(ModeWalk)
	require.NoError(t, err)
	boardWalk := 100 / walkSpeed

	// Each transit vertex hangs off its nearest street node: boarding
	// costs the walk plus waiting, alighting the walk alone.
	nodes := n.g.Nodes()
	transitSeen := 0
	for nodes.Next() {
		id := nodes.Node().ID()
		if street[id] {
			continue
		}
		transitSeen++
		var linked bool
		for sid := range street {
			board := n.g.WeightedEdge(sid, id)
			alight := n.g.WeightedEdge(id, sid)
			if board == nil || alight == nil {
				continue
			}
			linked = true
			assert.InDelta(t, boardWalk+5, board.Weight(), 1e-9)
			assert.InDelta(t, boardWalk, alight.Weight(), 1e-9)
		}
		assert.True(t, linked, "transit vertex %d not linked to street layer", id)
	}
	assert.Equal(t, 2, transitSeen)
}

func TestTransitBeatsWalking(t *testing.T) {
	n, err := NewRouteNetwork([]Route{
		{Mode: ModeWalk, Geometry: line([2]float64{0, 0}, [2]float64{1000, 0})},
		{Mode: ModeBus, Geometry: line([2]float64{0, 100}, [2]float64{1000, 100})},
	})
	require.NoError(t, err)

	u := n.streetNodes[orb.Point{0, 0}]
	v := n.streetNodes[orb.Point{1000, 0}]
	shortest := path.DijkstraFrom(n.g.Node(u), n.g)

	walkSpeed, err := Speed(ModeWalk)
	require.NoError(t, err)
	busSpeed, err := Speed(ModeBus)
	require.NoError(t, err)
	want := 100/walkSpeed + Waiting(ModeBus) + 1000/busSpeed + 100/walkSpeed
	assert.Less(t, want, 15.0)
	assert.InDelta(t, want, shortest.WeightTo(v), 1e-9)
}

func TestNearestStreetNode(t *testing.T) {
	n, err := NewRouteNetwork([]Route{
		{Mode: ModeWalk, Geometry: line([2]float64{0, 0}, [2]float64{1000, 0})},
	})
	require.NoError(t, err)

	id, ok := n.NearestStreetNode(orb.Point{900, 50})
	require.True(t, ok)
	assert.Equal(t, n.streetNodes[orb.Point{1000, 0}], id)

	empty, err := NewRouteNetwork(nil)
	require.NoError(t, err)
	_, ok = empty.NearestStreetNode(orb.Point{0, 0})
	assert.False(t, ok)
}
