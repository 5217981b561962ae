// Command punter seeds samples, simulates and predicts horse races over a
// range of dates, deletes what it derived for them, or runs the daily
// prediction on a schedule.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

const dateLayout = "2006-01-02"

var (
	configFile   string
	fromDate     string
	toDate       string
	fixturesPath string
	outputPath   string
)

var rootCmd = &cobra.Command{
	Use:           "punter",
	Short:         "Predict the outcome of horse races",
	Long:          `Trains per-class predictors on historical races and predicts win and exotic bets for upcoming races.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Build and normalize the samples of every runner in the date range",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDates(cmd, commandSeed)
	},
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Generate and store predictions for every race in the date range",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDates(cmd, commandSimulate)
	},
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Report predictions for every race in the date range as CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDates(cmd, commandPredict)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the samples and predictions of every race in the date range",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDates(cmd, commandDelete)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the health server and the scheduled daily processing",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&fixturesPath, "fixtures", "", "Load meets from a JSON fixtures file into the memory store")

	for _, cmd := range []*cobra.Command{seedCmd, simulateCmd, predictCmd, deleteCmd} {
		cmd.Flags().StringVar(&fromDate, "from", "", "First date to process (YYYY-MM-DD, default today)")
		cmd.Flags().StringVar(&toDate, "to", "", "Last date to process (YYYY-MM-DD, default --from)")
	}
	for _, cmd := range []*cobra.Command{predictCmd, serveCmd} {
		cmd.Flags().StringVarP(&outputPath, "output", "o", "-", "Prediction report file, - for stdout")
	}

	rootCmd.AddCommand(seedCmd, simulateCmd, predictCmd, deleteCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parseDateRange defaults from to today and to to from
func parseDateRange(from, to string, now time.Time) (time.Time, time.Time, error) {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if from != "" {
		parsed, err := time.Parse(dateLayout, from)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from date %q: %w", from, err)
		}
		start = parsed
	}

	end := start
	if to != "" {
		parsed, err := time.Parse(dateLayout, to)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to date %q: %w", to, err)
		}
		end = parsed
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to %s is before --from %s", end.Format(dateLayout), start.Format(dateLayout))
	}
	return start, end, nil
}
