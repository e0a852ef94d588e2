// Init command for the atlas CLI.
// Implements: prd009-atlas-cli R2.1; prd010-configuration-directories R1.2, R1.6, R2, R5.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the atlas archive",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := resolveConfigDir()
		if err != nil {
			return err
		}
		if err := ensureConfigDir(configDir); err != nil {
			return err
		}
		if err := ensureDefaultConfigFile(configDir); err != nil {
			return err
		}

		// Attach creates the data directory, the database and the JSONL
		// files, and seeds the default service type catalog.
		backend, err := attachBackend()
		if err != nil {
			return err
		}
		defer backend.Detach()

		fmt.Println("Atlas initialized successfully")
		fmt.Println("  config:", configDir)
		fmt.Println("  data:  ", backend.DataDir())
		return nil
	},
}
