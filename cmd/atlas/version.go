// Version command for the atlas CLI.
// Implements: prd009-atlas-cli R2.2.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/masterplan/pkg/masterplan"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the atlas version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("atlas", masterplan.Version)
	},
}
