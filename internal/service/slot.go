package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/turf-booking/internal/model"
)

// Slot grid shape: bookable days ahead (today included) and the opening
// hours, one slot per hour from OpenHour to LastSlotHour inclusive.
const (
	BookingWindowDays = 7
	OpenHour          = 9
	LastSlotHour      = 21
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// SlotRequest names one slot: a turf, a calendar date (YYYY-MM-DD) and a
// time of day (HH:MM).
type SlotRequest struct {
	TurfID uint64 `json:"turf_id"`
	Date   string `json:"date"`
	Time   string `json:"time"`
}

// Start parses the slot start as a UTC instant.  Missing or malformed
// fields are reported as validation errors.
func (r SlotRequest) Start() (time.Time, error) {
	date := strings.TrimSpace(r.Date)
	clock := strings.TrimSpace(r.Time)
	if r.TurfID == 0 || date == "" || clock == "" {
		return time.Time{}, invalid("Missing booking information. Please select a date and time.")
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return time.Time{}, invalid(fmt.Sprintf("Invalid date %q, expected YYYY-MM-DD.", date))
	}
	if _, err := time.Parse(timeLayout, clock); err != nil {
		return time.Time{}, invalid(fmt.Sprintf("Invalid time %q, expected HH:MM.", clock))
	}
	at, err := time.ParseInLocation(model.SlotLayout, date+" "+clock, time.UTC)
	if err != nil {
		return time.Time{}, invalid("Invalid booking slot.")
	}
	return at, nil
}

// SlotGrid is what the turf detail page offers: the bookable dates, the
// hourly time slots and which of those are already taken.
type SlotGrid struct {
	Turf   model.Turf `json:"turf"`
	Dates  []string   `json:"dates"`
	Times  []string   `json:"time_slots"`
	Booked []string   `json:"booked"`
}

// gridDates lists BookingWindowDays dates starting with the calendar day
// of now in its own location.
func gridDates(now time.Time) []string {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dates := make([]string, 0, BookingWindowDays)
	for i := 0; i < BookingWindowDays; i++ {
		dates = append(dates, today.AddDate(0, 0, i).Format(dateLayout))
	}
	return dates
}

// gridTimes lists the hourly slot start times.
func gridTimes() []string {
	times := make([]string, 0, LastSlotHour-OpenHour+1)
	for h := OpenHour; h <= LastSlotHour; h++ {
		times = append(times, fmt.Sprintf("%02d:00", h))
	}
	return times
}
