package main

import (
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/ecobuild/internal/model"
)

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Compute the rule-based impact assessment for a project",
	Long: `Enriches a project with its city's pollution baseline, runs the dispersion
model and scores air, water, land, waste and noise impact.

Examples:
  # Assess a project described in JSON
  assess --input project.json

  # Read from stdin and print a table
  cat project.json | assess --input - --format table`,
	RunE: runAssess,
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Ask the trained classifier for an impact class",
	Long: `Enriches a project the same way assess does and asks the configured
classifier (classifier.provider forest or http) for its impact category
and confidence.

Examples:
  # Predict with a local random-forest model
  ECOBUILD_CLASSIFIER_PROVIDER=forest ECOBUILD_CLASSIFIER_MODEL_PATH=models/rf.json \
    predict --input project.json

  # Predict through the model service
  ECOBUILD_CLASSIFIER_PROVIDER=http ECOBUILD_CLASSIFIER_SERVICE_URL=http://localhost:5000 \
    predict --input - < project.json`,
	RunE: runPredict,
}

func init() {
	f := assessCmd.Flags()
	f.String("input", "-", "project file (.json, .yaml) or - for stdin")
	f.String("format", "json", "output format: json or table")

	predictCmd.Flags().String("input", "-", "project file (.json, .yaml) or - for stdin")

	rootCmd.AddCommand(assessCmd, predictCmd)
}

func runAssess(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	input, _ := cmd.Flags().GetString("input")
	format, _ := cmd.Flags().GetString("format")

	if format != "json" && format != "table" {
		return eris.Errorf("assess: --format must be json or table (got %q)", format)
	}

	raw, err := readProject(input, cmd.InOrStdin())
	if err != nil {
		return eris.Wrap(err, "assess")
	}

	eng, err := initEngine(ctx, "assess")
	if err != nil {
		return err
	}

	res, err := eng.ComputeImpact(raw)
	if err != nil {
		return eris.Wrap(err, "assess")
	}

	zap.L().Debug("assessment complete",
		zap.String("city", raw.City),
		zap.Float64("overall_score", res.OverallScore),
		zap.String("impact_class", res.ImpactClass),
	)

	if format == "table" {
		return writeImpactTable(cmd.OutOrStdout(), raw, res)
	}
	return writeJSON(cmd.OutOrStdout(), res)
}

func runPredict(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	input, _ := cmd.Flags().GetString("input")
	raw, err := readProject(input, cmd.InOrStdin())
	if err != nil {
		return eris.Wrap(err, "predict")
	}

	eng, err := initEngine(ctx, "predict")
	if err != nil {
		return err
	}

	pred, err := eng.PredictImpactML(ctx, raw)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), pred)
}

func writeImpactTable(w io.Writer, raw model.RawProjectInput, res model.ImpactResult) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "City:          %s\n", raw.City)
	fmt.Fprintf(&sb, "Project type:  %s\n", raw.Normalize().ProjectType)
	fmt.Fprintf(&sb, "Overall score: %.1f (%s)\n\n", res.OverallScore, res.ImpactClass)

	fmt.Fprintf(&sb, "%-14s %7s\n", "Component", "Score")
	fmt.Fprintln(&sb, strings.Repeat("-", 22))
	rows := []struct {
		name  string
		score float64
	}{
		{"Air", res.Breakdown.Air},
		{"Water", res.Breakdown.Water},
		{"Land", res.Breakdown.Land},
		{"Waste", res.Breakdown.Waste},
		{"Noise", res.Breakdown.Noise},
	}
	for _, r := range rows {
		fmt.Fprintf(&sb, "%-14s %7.1f\n", r.name, r.score)
	}

	fmt.Fprintf(&sb, "\n%-14s %9s %9s\n", "Pollutant", "Added", "Final")
	fmt.Fprintln(&sb, strings.Repeat("-", 34))
	fmt.Fprintf(&sb, "%-14s %9.4f %9.2f\n", "PM2.5", res.AddedPollution.PM25, res.FinalPollution.PM25)
	fmt.Fprintf(&sb, "%-14s %9.4f %9.2f\n", "NO2", res.AddedPollution.NO2, res.FinalPollution.NO2)
	fmt.Fprintf(&sb, "%-14s %9.4f\n", "Dust", res.ConstructionDust)

	if len(res.Recommendations) > 0 {
		fmt.Fprintln(&sb, "\nRecommendations:")
		for _, rec := range res.Recommendations {
			fmt.Fprintf(&sb, "  - %s\n", rec)
		}
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return eris.Wrap(err, "assess: write table")
	}
	return nil
}
