// Network commands build the travel time matrix from route geometry.
// Implements: prd009-atlas-cli R4; prd004-network-interface R2.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/masterplan/pkg/network"
	"github.com/mesh-intelligence/masterplan/pkg/types"
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Build travel networks and matrices",
}

var networkWorkers int

var networkBuildCmd = &cobra.Command{
	Use:   "build <routes.geojson>",
	Short: "Compute and store the block travel time matrix",
	Long: `Network build reads a route layer (street, bus, tram, trolleybus and
subway lines as GeoJSON LineStrings with a "mode" property), snaps the
archived blocks onto it and computes minute travel times between every
block pair. The matrix is stored in the archive and recorded as a run.

Example:
  atlas network build routes.geojson
  atlas network build routes.geojson --workers 8`,
	Args: cobra.ExactArgs(1),
	RunE: runNetworkBuild,
}

func init() {
	networkBuildCmd.Flags().IntVar(&networkWorkers, "workers", 0, "parallel matrix rows (0 = all CPUs)")
	networkCmd.AddCommand(networkBuildCmd)
}

func runNetworkBuild(cmd *cobra.Command, args []string) error {
	data, err := readInput(args[0])
	if err != nil {
		return err
	}
	routes, err := network.RoutesFromGeoJSON(data)
	if err != nil {
		return fmt.Errorf("decode routes: %w", err)
	}
	net, err := network.NewRouteNetwork(routes)
	if err != nil {
		return fmt.Errorf("build network: %w", err)
	}

	backend, err := attachBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	blocks, err := archivedBlocks(backend)
	if err != nil {
		return err
	}
	if len(blocks) == 0 {
		return usageErrorf("no blocks in the archive; run import blocks first")
	}

	bar := newProgressBar(len(blocks), "matrix rows")
	builder := &network.MatrixBuilder{
		Network: net,
		Workers: networkWorkers,
		Progress: func(done, total int) {
			_ = bar.Set(done)
		},
		Logger: logger,
	}
	m, err := builder.Build(cmd.Context(), blocks)
	if err != nil {
		return fmt.Errorf("build matrix: %w", err)
	}
	_ = bar.Finish()

	table, err := backend.GetTable(types.MatrixTable)
	if err != nil {
		return err
	}
	if _, err := table.Set("", m); err != nil {
		return fmt.Errorf("store matrix: %w", err)
	}

	recordRun(backend, types.RunKindMatrix, "", map[string]any{
		"routes":  args[0],
		"workers": networkWorkers,
	}, map[string]any{
		"blocks":       m.Len(),
		"street_nodes": net.StreetNodeCount(),
		"nodes":        net.NodeCount(),
	})

	fmt.Printf("Built %dx%d travel matrix over %d network nodes\n", m.Len(), m.Len(), net.NodeCount())
	return nil
}

// archivedBlocks fetches every block in the archive.
func archivedBlocks(backend types.Atlas) ([]*types.Block, error) {
	table, err := backend.GetTable(types.BlocksTable)
	if err != nil {
		return nil, err
	}
	items, err := table.Fetch(nil)
	if err != nil {
		return nil, err
	}
	blocks := make([]*types.Block, len(items))
	for i, item := range items {
		blocks[i] = item.(*types.Block)
	}
	return blocks, nil
}
