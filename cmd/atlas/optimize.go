// Optimize commands search development plans that raise provision.
// Implements: prd009-atlas-cli R5; prd006-optimize-interface R4, R5.
package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/masterplan/pkg/optimize"
	"github.com/mesh-intelligence/masterplan/pkg/provision"
	"github.com/mesh-intelligence/masterplan/pkg/types"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Search development plans",
}

var (
	optBlocks     string
	optServices   []string
	optMethod     string
	optLandUse    string
	optFSI        float64
	optGSI        float64
	optTmax       float64
	optTmin       float64
	optRate       float64
	optIterations int
	optSeed       int64

	optGenerations uint
	optPopulation  uint
	optObjective   string
	optAllowed     []string
)

var optimizeBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Place service capacity on candidate blocks by simulated annealing",
	Long: `Optimize build develops the candidate blocks at the given land use and
intensity and searches brick placements that maximize the weighted
provision of the chosen service types.

Example:
  atlas optimize build --blocks 12,17 --service school --service kindergarten=2
  atlas optimize build --blocks 12 --land-use residential --fsi 1.2 --gsi 0.4 \
    --iterations 2000 --seed 42`,
	Args: cobra.NoArgs,
	RunE: runOptimizeBuild,
}

var optimizeLandUseCmd = &cobra.Command{
	Use:   "landuse",
	Short: "Assign land uses to blocks by genetic search",
	Long: `Optimize landuse searches a land use assignment for the given blocks
that maximizes weighted self-supplied provision, optionally rewarding
the site area share of an objective land use.

Example:
  atlas optimize landuse --blocks 12,17,23 --service school
  atlas optimize landuse --blocks 12,17 --objective residential --generations 30`,
	Args: cobra.NoArgs,
	RunE: runOptimizeLandUse,
}

func init() {
	optimizeBuildCmd.Flags().StringVar(&optBlocks, "blocks", "", "candidate block ids, comma separated (required)")
	optimizeBuildCmd.Flags().StringArrayVar(&optServices, "service", nil, "weighted service type as name[=weight] (repeatable, required)")
	optimizeBuildCmd.Flags().StringVar(&optMethod, "method", "", "provision method used for scoring")
	optimizeBuildCmd.Flags().StringVar(&optLandUse, "land-use", "residential", "development land use of the candidates")
	optimizeBuildCmd.Flags().Float64Var(&optFSI, "fsi", 0, "floor space index (0 = profile midpoint)")
	optimizeBuildCmd.Flags().Float64Var(&optGSI, "gsi", 0, "ground space index (0 = profile midpoint)")
	optimizeBuildCmd.Flags().Float64Var(&optTmax, "t-max", 0, "starting temperature")
	optimizeBuildCmd.Flags().Float64Var(&optTmin, "t-min", 0, "final temperature")
	optimizeBuildCmd.Flags().Float64Var(&optRate, "rate", 0, "geometric cooling rate")
	optimizeBuildCmd.Flags().IntVar(&optIterations, "iterations", 0, "iteration budget")
	optimizeBuildCmd.Flags().Int64Var(&optSeed, "seed", 0, "random seed")
	_ = optimizeBuildCmd.MarkFlagRequired("blocks")
	_ = optimizeBuildCmd.MarkFlagRequired("service")

	optimizeLandUseCmd.Flags().StringVar(&optBlocks, "blocks", "", "block ids, comma separated (required)")
	optimizeLandUseCmd.Flags().StringArrayVar(&optServices, "service", nil, "weighted service type as name[=weight] (repeatable, required)")
	optimizeLandUseCmd.Flags().StringVar(&optMethod, "method", "", "provision method used for scoring")
	optimizeLandUseCmd.Flags().StringSliceVar(&optAllowed, "allowed", nil, "allowed land uses (default: all with a development profile)")
	optimizeLandUseCmd.Flags().StringVar(&optObjective, "objective", "", "land use rewarded by site area share")
	optimizeLandUseCmd.Flags().UintVar(&optGenerations, "generations", 0, "generation budget")
	optimizeLandUseCmd.Flags().UintVar(&optPopulation, "population", 0, "population size")
	optimizeLandUseCmd.Flags().Int64Var(&optSeed, "seed", 0, "random seed")
	_ = optimizeLandUseCmd.MarkFlagRequired("blocks")
	_ = optimizeLandUseCmd.MarkFlagRequired("service")

	optimizeCmd.AddCommand(optimizeBuildCmd)
	optimizeCmd.AddCommand(optimizeLandUseCmd)
}

func runOptimizeBuild(cmd *cobra.Command, args []string) error {
	ids, err := parseBlockIDs(optBlocks)
	if err != nil {
		return err
	}
	weights, err := parseWeights(optServices)
	if err != nil {
		return err
	}
	lu, err := types.ParseLandUse(optLandUse)
	if err != nil {
		return err
	}
	profile, ok := optimize.ProfileFor(lu)
	if !ok {
		return usageErrorf("land use %q has no development profile", lu)
	}
	fsi, gsi := optFSI, optGSI
	if fsi == 0 {
		fsi = (profile.FSIMin + profile.FSIMax) / 2
	}
	if gsi == 0 {
		gsi = (profile.GSIMin + profile.GSIMax) / 2
	}
	if !profile.Contains(fsi, gsi) {
		return usageErrorf("intensity fsi=%.2f gsi=%.2f outside the %s profile", fsi, gsi, lu)
	}

	candidates := make([]optimize.Candidate, len(ids))
	for i, id := range ids {
		candidates[i] = optimize.Candidate{BlockID: id, LandUse: lu, FSI: fsi, GSI: gsi}
	}

	backend, err := attachBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	c, err := loadCity(backend)
	if err != nil {
		return err
	}

	iterations := optIterations
	if iterations <= 0 {
		iterations = optimize.DefaultMaxIterations
	}
	bar := newProgressBar(iterations, "annealing")
	sol, err := optimize.Anneal(cmd.Context(), c, candidates, weights, optimize.AnnealingOptions{
		Tmax:          optTmax,
		Tmin:          optTmin,
		Rate:          optRate,
		MaxIterations: iterations,
		Seed:          optSeed,
		Method:        provision.Method(optMethod),
		OnIteration: func(iteration int, current, best float64) {
			_ = bar.Set(iteration)
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}
	_ = bar.Finish()

	recordRun(backend, types.RunKindAnnealing, "", map[string]any{
		"blocks":     ids,
		"weights":    weights,
		"land_use":   string(lu),
		"fsi":        fsi,
		"gsi":        gsi,
		"iterations": iterations,
		"seed":       optSeed,
	}, map[string]any{
		"value": sol.Value,
	})

	if flagJSON {
		return printJSON(map[string]any{
			"value":     sol.Value,
			"variables": sol.Variables,
		})
	}
	printSolution(sol)
	return nil
}

func runOptimizeLandUse(cmd *cobra.Command, args []string) error {
	ids, err := parseBlockIDs(optBlocks)
	if err != nil {
		return err
	}
	weights, err := parseWeights(optServices)
	if err != nil {
		return err
	}
	allowed, err := allowedLandUses(optAllowed)
	if err != nil {
		return err
	}
	var target types.LandUse
	if optObjective != "" {
		if target, err = types.ParseLandUse(optObjective); err != nil {
			return err
		}
	}

	backend, err := attachBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	c, err := loadCity(backend)
	if err != nil {
		return err
	}

	res, err := optimize.LandUseSearch(cmd.Context(), c, ids, allowed, weights, optimize.LandUseOptions{
		Generations: optGenerations,
		Population:  optPopulation,
		Seed:        optSeed,
		Target:      target,
		Method:      provision.Method(optMethod),
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	recordRun(backend, types.RunKindLandUse, "", map[string]any{
		"blocks":      ids,
		"weights":     weights,
		"objective":   optObjective,
		"generations": optGenerations,
		"population":  optPopulation,
		"seed":        optSeed,
	}, map[string]any{
		"fitness": res.Fitness,
	})

	if flagJSON {
		return printJSON(res)
	}
	printAssignment(res)
	return nil
}

// allowedLandUses resolves the allowed set, defaulting to every land use
// that carries a development profile.
func allowedLandUses(raw []string) ([]types.LandUse, error) {
	if len(raw) == 0 {
		var out []types.LandUse
		for _, lu := range types.AllLandUses() {
			if _, ok := optimize.ProfileFor(lu); ok {
				out = append(out, lu)
			}
		}
		return out, nil
	}
	out := make([]types.LandUse, 0, len(raw))
	for _, s := range raw {
		lu, err := types.ParseLandUse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, lu)
	}
	return out, nil
}

// printSolution prints the annealed development plan.
func printSolution(sol *optimize.Solution) {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "BLOCK\tSERVICE\tBRICKS\tCAPACITY\tAREA")
	fmt.Fprintln(w, "-----\t-------\t------\t--------\t----")
	placed := 0
	for _, v := range sol.Variables {
		if v.Count == 0 {
			continue
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%.0f\n",
			v.BlockID, v.ServiceType, v.Count, v.Capacity(), v.Area())
		placed++
	}
	w.Flush()
	if placed == 0 {
		fmt.Println("No placements improve provision.")
	} else {
		fmt.Print(sb.String())
	}
	fmt.Printf("Weighted provision: %.3f\n", sol.Value)
}

// printAssignment prints the best land use assignment.
func printAssignment(res *optimize.LandUseResult) {
	ids := make([]int, 0, len(res.Assignment))
	for id := range res.Assignment {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BLOCK\tLAND USE")
	fmt.Fprintln(w, "-----\t--------")
	for _, id := range ids {
		fmt.Fprintf(w, "%d\t%s\n", id, res.Assignment[id])
	}
	w.Flush()
	fmt.Print(sb.String())
	fmt.Printf("Fitness: %.3f\n", res.Fitness)
}
