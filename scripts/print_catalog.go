package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"car-rental-storefront/config"
	"car-rental-storefront/models"
	"car-rental-storefront/services"

	"github.com/kataras/golog"
)

// Prints the catalog as the storefront would show it, for checking the price
// policy against a live rental API.
func main() {
	from := flag.String("from", "", "journey start date (YYYY-MM-DD)")
	to := flag.String("to", "", "journey end date (YYYY-MM-DD)")
	sortBy := flag.String("sort", "cheapest", "cheapest or rating")
	breakdown := flag.Bool("breakdown", false, "print the per-rate-type table of every car")
	flag.Parse()

	cfg, err := config.Load("")
	if err != nil {
		golog.Fatalf("Error loading configuration: %v", err)
	}

	api := services.NewRentalAPI(cfg.GetString(config.RentalAPIURL), cfg.GetDuration(config.RentalAPITimeout))
	catalog := services.NewCatalog(api, nil, services.ParsePricePolicy(cfg.GetString(config.PricePolicy)), api.BaseURL())

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	var window *models.JourneyDetails
	if *from != "" && *to != "" {
		window = &models.JourneyDetails{JourneyFromDate: *from, JourneyEndDate: *to}
	}
	cards, err := catalog.ListCars(ctx, window)
	if err != nil {
		golog.Fatalf("Error listing cars: %v", err)
	}
	cards = services.SortCards(cards, services.ParseSortMode(*sortBy))

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCAR\tSEATS\tRATING\tPRICE\tOFF\tACTIVE")
	for _, c := range cards {
		off := "-"
		if c.Price.HasPercent {
			off = fmt.Sprintf("%d%%", c.Price.DiscountPercent)
		}
		fmt.Fprintf(w, "%d\t%s %s\t%d\t%.1f\t%s\t%s\t%v\n", c.ID, c.Name, c.Model, c.Seats, c.Rating, c.Price.Label, off, c.IsActive)
	}
	w.Flush()

	if !*breakdown {
		return
	}
	for _, c := range cards {
		prices, err := catalog.PriceBreakdown(ctx, c.ID)
		if err != nil {
			golog.Warnf("car %d: %v", c.ID, err)
			continue
		}
		fmt.Printf("\n%s %s\n", c.Name, c.Model)
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TYPE\tREGULAR\tDISCOUNT\tMIN HOURS")
		for _, r := range prices.Rows {
			d := r.Discount
			if r.DiscountPercent > 0 {
				d = fmt.Sprintf("%s (%d%% off)", d, r.DiscountPercent)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.RateType, r.Regular, d, r.MinHours)
		}
		w.Flush()
	}

	fmt.Println("\nCatalog printed successfully!")
}
