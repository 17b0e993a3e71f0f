package models

// TripSummary is an overview of the tracked trips
type TripSummary struct {
	Total        int     `json:"total"`
	Upcoming     int     `json:"upcoming"`
	Departed     int     `json:"departed"`
	Unchecked    int     `json:"unchecked"`  // upcoming trips with no observed price yet
	PriceDrops   int     `json:"priceDrops"` // upcoming trips currently cheaper than paid
	NotFound     int     `json:"notFound"`
	TotalSavings float64 `json:"totalSavings"`
	BestSaving   *Trip   `json:"bestSaving,omitempty"`
}
