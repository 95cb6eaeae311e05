package models

import (
	"fmt"
	"strings"
	"time"
)

// Accepted layouts for slot date and start time. Dates come in ISO or
// day-first form, times in 24h or am/pm form with or without a space
// before the meridiem, matching what the presentation client submits.
var (
	dateLayouts = []string{"2006-01-02", "02/01/2006"}
	timeLayouts = []string{"15:04", "3:04PM", "3:04 PM", "3PM", "3 PM"}
)

// ParseSlotStart combines a slot date and start time into a local timestamp.
func ParseSlotStart(date, startTime string) (time.Time, error) {
	date = strings.TrimSpace(date)
	startTime = strings.ToUpper(strings.TrimSpace(startTime))

	var day time.Time
	var err error
	for _, layout := range dateLayouts {
		day, err = time.ParseInLocation(layout, date, time.Local)
		if err == nil {
			break
		}
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("parse slot date %q: %w", date, err)
	}

	var clock time.Time
	for _, layout := range timeLayouts {
		clock, err = time.Parse(layout, startTime)
		if err == nil {
			break
		}
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("parse slot time %q: %w", startTime, err)
	}

	return time.Date(day.Year(), day.Month(), day.Day(),
		clock.Hour(), clock.Minute(), 0, 0, time.Local), nil
}
