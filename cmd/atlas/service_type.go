// Service type commands manage the service catalog.
// Implements: prd009-atlas-cli R3; prd003-city-interface R3.
package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/masterplan/pkg/types"
)

var serviceTypeCmd = &cobra.Command{
	Use:   "service-type",
	Short: "Manage the service type catalog",
}

var (
	stAddDemand        int
	stAddAccessibility int
	stAddLandUses      []string
	stAddBricks        []string
)

var serviceTypeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List service types",
	Args:  cobra.NoArgs,
	RunE:  runServiceTypeList,
}

var serviceTypeAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add or replace a service type",
	Long: `Add a service type to the catalog. Bricks are capacity:area pairs,
optionally suffixed with :integrated for bricks embedded in living
buildings.

Example:
  atlas service-type add library --demand 10 --accessibility 20 \
    --land-use residential,mixed_use --brick 200:800 --brick 50:150:integrated`,
	Args: cobra.ExactArgs(1),
	RunE: runServiceTypeAdd,
}

func init() {
	serviceTypeAddCmd.Flags().IntVar(&stAddDemand, "demand", 0, "demand units per 1000 residents")
	serviceTypeAddCmd.Flags().IntVar(&stAddAccessibility, "accessibility", 0, "normative accessibility in minutes")
	serviceTypeAddCmd.Flags().StringSliceVar(&stAddLandUses, "land-use", nil, "allowed land uses")
	serviceTypeAddCmd.Flags().StringArrayVar(&stAddBricks, "brick", nil, "brick as capacity:area[:integrated]")

	serviceTypeCmd.AddCommand(serviceTypeListCmd)
	serviceTypeCmd.AddCommand(serviceTypeAddCmd)
}

func runServiceTypeList(cmd *cobra.Command, args []string) error {
	backend, err := attachBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	table, err := backend.GetTable(types.ServiceTypesTable)
	if err != nil {
		return err
	}
	items, err := table.Fetch(nil)
	if err != nil {
		return err
	}
	sts := make([]*types.ServiceType, len(items))
	for i, item := range items {
		sts[i] = item.(*types.ServiceType)
	}

	if flagJSON {
		return printJSON(sts)
	}
	printServiceTypeTable(sts)
	return nil
}

func runServiceTypeAdd(cmd *cobra.Command, args []string) error {
	st := types.ServiceType{
		Name:          args[0],
		Demand:        stAddDemand,
		Accessibility: stAddAccessibility,
	}
	for _, raw := range stAddLandUses {
		lu, err := types.ParseLandUse(raw)
		if err != nil {
			return err
		}
		st.LandUses = append(st.LandUses, lu)
	}
	for _, raw := range stAddBricks {
		brick, err := parseBrick(raw)
		if err != nil {
			return err
		}
		st.Bricks = append(st.Bricks, brick)
	}
	if err := st.Validate(); err != nil {
		return err
	}

	backend, err := attachBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	table, err := backend.GetTable(types.ServiceTypesTable)
	if err != nil {
		return err
	}
	if _, err := table.Set(st.Name, &st); err != nil {
		return fmt.Errorf("store service type: %w", err)
	}

	fmt.Printf("Service type %q stored\n", st.Name)
	return nil
}

// parseBrick parses a capacity:area[:integrated] flag value.
func parseBrick(raw string) (types.Brick, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return types.Brick{}, usageErrorf("invalid brick %q (expected capacity:area[:integrated])", raw)
	}
	var brick types.Brick
	if _, err := fmt.Sscanf(parts[0], "%d", &brick.Capacity); err != nil {
		return types.Brick{}, usageErrorf("invalid brick capacity %q", parts[0])
	}
	if _, err := fmt.Sscanf(parts[1], "%g", &brick.Area); err != nil {
		return types.Brick{}, usageErrorf("invalid brick area %q", parts[1])
	}
	if len(parts) == 3 {
		if parts[2] != "integrated" {
			return types.Brick{}, usageErrorf("invalid brick suffix %q", parts[2])
		}
		brick.Integrated = true
	}
	return brick, nil
}

// printServiceTypeTable prints service types in a human-readable table.
func printServiceTypeTable(sts []*types.ServiceType) {
	if len(sts) == 0 {
		fmt.Println("No service types found.")
		return
	}

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "NAME\tDEMAND\tACCESS\tLAND USES\tBRICKS")
	fmt.Fprintln(w, "----\t------\t------\t---------\t------")
	for _, st := range sts {
		uses := make([]string, len(st.LandUses))
		for i, lu := range st.LandUses {
			uses[i] = string(lu)
		}
		fmt.Fprintf(w, "%s\t%d\t%d min\t%s\t%d\n",
			st.Name,
			st.Demand,
			st.Accessibility,
			strings.Join(uses, ","),
			len(st.Bricks),
		)
	}
	w.Flush()
	fmt.Print(sb.String())
	fmt.Printf("Total: %d service type(s)\n", len(sts))
}
