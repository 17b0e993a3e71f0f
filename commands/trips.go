package commands

import (
	"fmt"
	"os"
	"time"

	"amtrak-price-tracker/models"
	"amtrak-price-tracker/services"

	"github.com/spf13/cobra"
)

var (
	tripInput   models.Trip
	showSummary bool
)

func init() {
	tripsListCmd.Flags().BoolVar(&showSummary, "summary", false, "Also print an overview of savings.")

	f := tripsAddCmd.Flags()
	f.StringVar(&tripInput.Origin, "from", "", "Origin station code, e.g. NYP.")
	f.StringVar(&tripInput.Destination, "to", "", "Destination station code, e.g. WAS.")
	f.StringVar(&tripInput.TravelDate, "date", "", "Travel date as YYYY-MM-DD.")
	f.StringVar(&tripInput.TrainNumber, "train", "", "Train number; omit to track the cheapest train.")
	f.Float64Var(&tripInput.PricePaid, "paid", 0, "Fare paid in dollars.")
	f.StringVar(&tripInput.TicketClass, "class", "", "Ticket class, informational.")
	for _, name := range []string{"from", "to", "date", "paid"} {
		_ = tripsAddCmd.MarkFlagRequired(name)
	}

	tripsCmd.AddCommand(tripsListCmd, tripsAddCmd, tripsDeleteCmd, tripsPruneCmd)
	rootCmd.AddCommand(tripsCmd)
}

var tripsCmd = &cobra.Command{
	Use:   "trips",
	Short: "Manages tracked trips.",
}

var tripsListCmd = &cobra.Command{
	Use:   "list [--summary]",
	Short: "Lists tracked trips with their latest fares.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		trips, err := a.trips.GetAll(ctx)
		if err != nil {
			return err
		}
		now := time.Now()
		services.PrintTrips(os.Stdout, trips, now)
		if showSummary {
			services.PrintSummary(os.Stdout, services.NewInsightService(a.logger).Summarize(trips, now))
		}
		return nil
	},
}

var tripsAddCmd = &cobra.Command{
	Use:   "add --from <code> --to <code> --date <YYYY-MM-DD> --paid <amount> [--train <number>]",
	Short: "Starts tracking a booked trip.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		trip, err := services.NewTrip(tripInput, time.Now())
		if err != nil {
			return err
		}
		if err := a.trips.Save(ctx, trip); err != nil {
			return err
		}
		fmt.Printf("Tracking %s on %s as %s\n", trip.Route(), trip.TravelDate, trip.ID)
		return nil
	},
}

var tripsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Stops tracking a trip.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.trips.Delete(ctx, args[0]); err != nil {
			return fmt.Errorf("failed to delete %s: %w", args[0], err)
		}
		fmt.Println("Deleted", args[0])
		return nil
	},
}

var tripsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Deletes trips whose travel date has passed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		removed, err := services.NewTripCleaner(a.trips, a.logger).PruneDeparted(ctx, time.Now())
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d departed trip(s)\n", removed)
		return nil
	},
}
