package main

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var proximityCmd = &cobra.Command{
	Use:   "proximity",
	Short: "Find the sensitive zone nearest to a city centre",
	RunE: func(cmd *cobra.Command, _ []string) error {
		city, _ := cmd.Flags().GetString("city")
		if strings.TrimSpace(city) == "" {
			return eris.New("proximity: --city is required")
		}

		eng, err := initEngine(cmd.Context(), "assess")
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), eng.ResolveCityProximity(city))
	},
}

func init() {
	proximityCmd.Flags().String("city", "", "city name")
	rootCmd.AddCommand(proximityCmd)
}
