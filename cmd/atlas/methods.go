// Network analysis commands over the city model and its travel matrix.
// Implements: prd009-atlas-cli R4; prd004-network-interface R3-R6.
package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/masterplan/pkg/network"
	"github.com/mesh-intelligence/masterplan/pkg/types"
)

var (
	accessBlock      int
	centralityRadius float64
)

var connectivityCmd = &cobra.Command{
	Use:   "connectivity",
	Short: "Median travel time from each block to all others",
	Args:  cobra.NoArgs,
	RunE:  runConnectivity,
}

var accessibilityCmd = &cobra.Command{
	Use:   "accessibility",
	Short: "Travel times between one block and every other",
	Args:  cobra.NoArgs,
	RunE:  runAccessibility,
}

var centralityCmd = &cobra.Command{
	Use:   "centrality",
	Short: "Connectivity weighted by service diversity",
	Args:  cobra.NoArgs,
	RunE:  runCentrality,
}

var populationCentralityCmd = &cobra.Command{
	Use:   "population-centrality",
	Short: "Population-weighted closeness within a travel radius",
	Args:  cobra.NoArgs,
	RunE:  runPopulationCentrality,
}

func init() {
	accessibilityCmd.Flags().IntVar(&accessBlock, "block", -1, "block to measure from (required)")
	_ = accessibilityCmd.MarkFlagRequired("block")
	populationCentralityCmd.Flags().Float64Var(&centralityRadius, "radius", network.DefaultCentralityRadius, "neighborhood radius in meters")
}

func runConnectivity(cmd *cobra.Command, args []string) error {
	backend, err := attachBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	c, err := loadCity(backend)
	if err != nil {
		return err
	}
	values, err := network.Connectivity(c)
	if err != nil {
		return err
	}
	recordRun(backend, types.RunKindConnectivity, "", nil, summarize(values))
	return printBlockValues(values, "CONNECTIVITY")
}

func runAccessibility(cmd *cobra.Command, args []string) error {
	backend, err := attachBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	c, err := loadCity(backend)
	if err != nil {
		return err
	}
	rows, err := network.AccessibilityOf(c, accessBlock)
	if err != nil {
		return err
	}
	recordRun(backend, types.RunKindAccessibility, "", map[string]any{
		"block": accessBlock,
	}, map[string]any{
		"blocks": len(rows),
	})

	if flagJSON {
		return printJSON(rows)
	}
	ids := make([]int, 0, len(rows))
	for id := range rows {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BLOCK\tFROM (min)\tTO (min)")
	fmt.Fprintln(w, "-----\t----------\t--------")
	for _, id := range ids {
		fmt.Fprintf(w, "%d\t%.1f\t%.1f\n", id, rows[id].From, rows[id].To)
	}
	w.Flush()
	fmt.Print(sb.String())
	return nil
}

func runCentrality(cmd *cobra.Command, args []string) error {
	backend, err := attachBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	c, err := loadCity(backend)
	if err != nil {
		return err
	}
	values, err := network.DiversityCentrality(c)
	if err != nil {
		return err
	}
	recordRun(backend, types.RunKindCentrality, "", nil, summarize(values))
	return printBlockValues(values, "CENTRALITY")
}

func runPopulationCentrality(cmd *cobra.Command, args []string) error {
	backend, err := attachBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	c, err := loadCity(backend)
	if err != nil {
		return err
	}
	values := network.PopulationCentrality(c, centralityRadius)
	recordRun(backend, types.RunKindPopulationCentrality, "", map[string]any{
		"radius": centralityRadius,
	}, summarize(values))
	return printBlockValues(values, "CENTRALITY")
}

// summarize reduces a per-block metric to headline numbers for the run
// record.
func summarize(values map[int]float64) map[string]any {
	if len(values) == 0 {
		return map[string]any{"blocks": 0}
	}
	min, max, sum := values[firstKey(values)], values[firstKey(values)], 0.0
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}
	return map[string]any{
		"blocks": len(values),
		"min":    min,
		"max":    max,
		"mean":   sum / float64(len(values)),
	}
}

func firstKey(values map[int]float64) int {
	for id := range values {
		return id
	}
	return 0
}

// printBlockValues prints a per-block metric sorted by block ID.
func printBlockValues(values map[int]float64, header string) error {
	if flagJSON {
		return printJSON(values)
	}
	ids := make([]int, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BLOCK\t"+header)
	fmt.Fprintln(w, "-----\t"+strings.Repeat("-", len(header)))
	for _, id := range ids {
		fmt.Fprintf(w, "%d\t%.3f\n", id, values[id])
	}
	w.Flush()
	fmt.Print(sb.String())
	return nil
}
