package commands

import (
	"os"
	"time"

	"amtrak-price-tracker/services"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Runs one sweep over all trips now and prints the result.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		report, err := a.newTracker().Sweep(ctx)
		if err != nil {
			return err
		}
		services.PrintSweepReport(os.Stdout, report)

		trips, err := a.trips.GetAll(ctx)
		if err != nil {
			return err
		}
		services.PrintTrips(os.Stdout, trips, time.Now())
		return nil
	},
}
