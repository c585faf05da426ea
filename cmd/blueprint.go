package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/ecobuild/internal/blueprint"
)

var blueprintCmd = &cobra.Command{
	Use:   "blueprint FILE",
	Short: "Analyse a DXF blueprint",
	Long:  "Counts drawing entities and estimates the footprint and drafting complexity of an ASCII DXF file.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := blueprint.CheckFilename(args[0]); err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), blueprint.AnalyzeFile(args[0]))
	},
}

func init() {
	rootCmd.AddCommand(blueprintCmd)
}
