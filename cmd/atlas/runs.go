// Runs commands browse the analysis audit trail.
// Implements: prd009-atlas-cli R5; prd001-atlas-core R5.
package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/masterplan/pkg/types"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Browse recorded analysis runs",
}

var (
	runsKind        string
	runsServiceType string
	runsLimit       int
)

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run with its parameters and result",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

func init() {
	runsListCmd.Flags().StringVar(&runsKind, "kind", "", "filter by run kind")
	runsListCmd.Flags().StringVar(&runsServiceType, "service-type", "", "filter by service type")
	runsListCmd.Flags().IntVar(&runsLimit, "limit", 0, "maximum number of results (0 = no limit)")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
}

func runRunsList(cmd *cobra.Command, args []string) error {
	backend, err := attachBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	table, err := backend.GetTable(types.RunsTable)
	if err != nil {
		return err
	}

	filter := types.Filter{}
	if runsKind != "" {
		filter["kind"] = runsKind
	}
	if runsServiceType != "" {
		filter["service_type"] = runsServiceType
	}
	if runsLimit > 0 {
		filter["limit"] = runsLimit
	}

	items, err := table.Fetch(filter)
	if err != nil {
		return err
	}
	runs := make([]*types.Run, len(items))
	for i, item := range items {
		runs[i] = item.(*types.Run)
	}

	if flagJSON {
		return printJSON(runs)
	}
	printRunTable(runs)
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	backend, err := attachBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	table, err := backend.GetTable(types.RunsTable)
	if err != nil {
		return err
	}
	item, err := table.Get(args[0])
	if err != nil {
		if isEntityNotFound(err) {
			return fmt.Errorf("%w: run %s", types.ErrNotFound, args[0])
		}
		return err
	}
	run := item.(*types.Run)

	if flagJSON {
		return printJSON(run)
	}
	fmt.Println("Run:         ", run.RunID)
	fmt.Println("Kind:        ", run.Kind)
	if run.ServiceType != "" {
		fmt.Println("Service type:", run.ServiceType)
	}
	fmt.Println("Created:     ", run.CreatedAt.Format("2006-01-02 15:04:05"))
	if len(run.Params) > 0 {
		fmt.Println("Params:")
		printKV(run.Params)
	}
	if len(run.Result) > 0 {
		fmt.Println("Result:")
		printKV(run.Result)
	}
	return nil
}

// printKV prints a string-keyed map with aligned keys.
func printKV(m map[string]any) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %s: %v\n", k, m[k])
	}
}

// printRunTable prints runs in a human-readable table.
func printRunTable(runs []*types.Run) {
	if len(runs) == 0 {
		fmt.Println("No runs found.")
		return
	}

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "ID\tKIND\tSERVICE\tCREATED")
	fmt.Fprintln(w, "--\t----\t-------\t-------")
	for _, r := range runs {
		shortID := r.RunID
		if len(shortID) > 8 {
			shortID = shortID[:8]
		}
		service := r.ServiceType
		if service == "" {
			service = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			shortID,
			r.Kind,
			service,
			r.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	w.Flush()
	fmt.Print(sb.String())
	fmt.Printf("Total: %d run(s)\n", len(runs))
}
