package services

import (
	"fmt"
	"io"
	"strings"
	"time"

	"amtrak-price-tracker/models"

	"github.com/jedib0t/go-pretty/v6/table"
)

// PrintTrips renders the tracked trips as a table
func PrintTrips(w io.Writer, trips []*models.Trip, now time.Time) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"ID", "Route", "Date", "Train", "Paid", "Current", "Savings", "Last checked", "Status"})
	for _, trip := range trips {
		t.AppendRow(table.Row{
			trip.ID,
			trip.Route(),
			trip.TravelDate,
			orDash(trip.TrainNumber),
			fmt.Sprintf("$%.2f", trip.PricePaid),
			formatPrice(trip.CurrentPrice),
			formatSavings(trip),
			formatChecked(trip.LastChecked),
			tripStatus(trip, now),
		})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

// PrintSweepReport renders the result of one sweep
func PrintSweepReport(w io.Writer, report *models.SweepReport) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Sweep finished in %v", report.Duration().Round(time.Second))
	t.AppendHeader(table.Row{"Trips", "Checked", "Failed", "Skipped", "Unavailable", "Price drops", "Not found"})
	t.AppendRow(table.Row{
		report.Total, report.Checked, report.Failed, report.Skipped,
		report.Unavailable, report.PriceDrops, report.NewlyNotFound,
	})
	t.SetStyle(table.StyleRounded)
	t.Render()
}

// PrintSummary formats and prints the trip overview
func PrintSummary(w io.Writer, summary *models.TripSummary) {
	border := strings.Repeat("═", 55)
	thin := strings.Repeat("─", 55)

	fmt.Fprintf(w, "\n╔%s╗\n", border)
	fmt.Fprintf(w, "║%s║\n", center("FARE TRACKER SUMMARY", 55))
	fmt.Fprintf(w, "╚%s╝\n", border)

	fmt.Fprintf(w, "\n OVERVIEW\n%s\n", thin)
	fmt.Fprintf(w, "  Tracked Trips           : %d\n", summary.Total)
	fmt.Fprintf(w, "  Upcoming                : %d\n", summary.Upcoming)
	fmt.Fprintf(w, "  Departed                : %d\n", summary.Departed)
	fmt.Fprintf(w, "  Not Yet Priced          : %d\n", summary.Unchecked)
	fmt.Fprintf(w, "  Train Not Found         : %d\n", summary.NotFound)
	fmt.Fprintf(w, "  Cheaper Than Paid       : %d\n", summary.PriceDrops)
	fmt.Fprintf(w, "  Potential Savings       : $%.2f\n", summary.TotalSavings)

	if best := summary.BestSaving; best != nil {
		fmt.Fprintf(w, "\n BIGGEST DROP\n%s\n", thin)
		fmt.Fprintf(w, "  Route    : %s\n", best.Route())
		fmt.Fprintf(w, "  Date     : %s\n", best.TravelDate)
		fmt.Fprintf(w, "  Paid     : $%.2f\n", best.PricePaid)
		fmt.Fprintf(w, "  Now      : %s\n", formatPrice(best.CurrentPrice))
	}

	fmt.Fprintf(w, "\n%s\n\n", border)
}

func tripStatus(trip *models.Trip, now time.Time) string {
	switch {
	case trip.IsPast(now):
		return "departed"
	case trip.LastChecked == nil:
		return "pending"
	case trip.CurrentPrice == nil:
		return "unavailable"
	case trip.TrainNotFound:
		return "train not found"
	case trip.Savings() > 0:
		return "price drop"
	default:
		return "ok"
	}
}

func formatPrice(p *float64) string {
	if p == nil {
		return "—"
	}
	return fmt.Sprintf("$%.2f", *p)
}

func formatSavings(trip *models.Trip) string {
	if trip.CurrentPrice == nil {
		return "—"
	}
	return fmt.Sprintf("$%.2f", trip.Savings())
}

func formatChecked(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Local().Format("Jan 2 15:04")
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

func center(s string, width int) string {
	runes := []rune(s)
	if len(runes) >= width {
		return s
	}
	pad := (width - len(runes)) / 2
	return strings.Repeat(" ", pad) + s + strings.Repeat(" ", width-len(runes)-pad)
}
