package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormatTravelDate(t *testing.T) {
	got, err := FormatTravelDate("2026-03-15")
	require.NoError(t, err)
	require.Equal(t, "03/15/2026", got)

	_, err = FormatTravelDate("15/03/2026")
	require.Error(t, err)
}

func TestTripIsPast(t *testing.T) {
	now := time.Date(2026, 3, 15, 18, 30, 0, 0, time.UTC)

	cases := []struct {
		date string
		past bool
	}{
		{"2026-03-14", true},
		{"2026-03-15", false},
		{"2026-03-16", false},
		{"not-a-date", false},
	}
	for _, c := range cases {
		trip := &Trip{TravelDate: c.date}
		require.Equal(t, c.past, trip.IsPast(now), c.date)
	}
}

func TestTripValidate(t *testing.T) {
	trip := &Trip{Origin: " nyp", Destination: "was ", TravelDate: "2026-03-15", TrainNumber: "#171", PricePaid: 89}
	trip.Normalize()
	require.NoError(t, trip.Validate())
	require.Equal(t, "NYP", trip.Origin)
	require.Equal(t, "171", trip.TrainNumber)

	bad := []*Trip{
		{Origin: "NY", Destination: "WAS", TravelDate: "2026-03-15"},
		{Origin: "NYP", Destination: "NYP", TravelDate: "2026-03-15"},
		{Origin: "NYP", Destination: "WAS", TravelDate: "03/15/2026"},
		{Origin: "NYP", Destination: "WAS", TravelDate: "2026-03-15", PricePaid: -1},
	}
	for _, b := range bad {
		require.Error(t, b.Validate())
	}
}

func TestTripSavings(t *testing.T) {
	current := 72.0
	trip := &Trip{PricePaid: 89, CurrentPrice: &current}
	require.Equal(t, 17.0, trip.Savings())

	require.Equal(t, 0.0, (&Trip{PricePaid: 89}).Savings())
}

func TestSettingsPatchApply(t *testing.T) {
	s := DefaultSettings()
	interval := 6
	off := false
	addr := "me@example.com"
	SettingsPatch{CheckInterval: &interval, NotificationsEnabled: &off, EmailAddress: &addr}.Apply(&s)

	require.Equal(t, 6, s.CheckInterval)
	require.False(t, s.NotificationsEnabled)
	require.Equal(t, addr, s.EmailAddress)
	require.Equal(t, 6*time.Hour, s.Interval())

	zero := 0
	SettingsPatch{CheckInterval: &zero}.Apply(&s)
	require.Equal(t, 6, s.CheckInterval)
}
