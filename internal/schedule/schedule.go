// Package schedule decides whether a run that woke up "now" is on time for
// one of the configured daily publish slots.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Slot is one named daily publish opportunity.
type Slot struct {
	Name string `yaml:"name"`
	Time string `yaml:"time"` // "HH:MM" wall clock in the configured timezone
}

// ParseClock converts "HH:MM" into minutes since midnight.
func ParseClock(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid slot time %q: want HH:MM", s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid slot time %q: %w", s, err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid slot time %q: %w", s, err)
	}

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid slot time %q: out of range", s)
	}

	return hour*60 + minute, nil
}

// DetermineSlot returns the first slot whose window covers now, expressed in
// loc's wall clock. A slot is active while 0 <= now-slot <= toleranceMinutes.
//
// Slots are checked in declaration order, so if two windows overlap the first
// declared wins. The delta is computed without wraparound: a slot scheduled
// near midnight whose tolerance crosses 00:00 stops matching at 23:59. That is
// a known limitation, kept as is; configure slots so windows stay inside one
// calendar day.
func DetermineSlot(now time.Time, loc *time.Location, slots []Slot, toleranceMinutes int) (string, bool) {
	local := now.In(loc)
	current := local.Hour()*60 + local.Minute()

	for _, slot := range slots {
		scheduled, err := ParseClock(slot.Time)
		if err != nil {
			// Config validation rejects malformed times before we get here.
			continue
		}

		delta := current - scheduled
		if delta >= 0 && delta <= toleranceMinutes {
			return slot.Name, true
		}
	}

	return "", false
}
