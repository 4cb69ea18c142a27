package tzdb

import (
	"fmt"
	"sort"
	"time"

	"github.com/ngrash/tzperiod/tzdata"
)

// LeapSecond is an entry of the leapseconds file.
type LeapSecond struct {
	// Time is the UTC instant following the leap second,
	// midnight after the inserted 23:59:60.
	Time time.Time
	// Correction is +1 for an inserted and -1 for a skipped second.
	Correction int
	// Total is the sum of all corrections up to and including this one.
	Total int
}

func leapSeconds(leaps []tzdata.Leap) ([]LeapSecond, error) {
	result := make([]LeapSecond, 0, len(leaps))
	for _, l := range leaps {
		if l.Mode != tzdata.StationaryLeapTime {
			return nil, fmt.Errorf("leap second %d-%02d-%02d: rolling leap seconds are not supported", l.Year, l.Month, l.Day)
		}
		ls := LeapSecond{Correction: 1}
		if l.Corr == tzdata.LeapSkipped {
			ls.Correction = -1
		}
		// time.Date normalizes 23:59:60 to midnight of the next day.
		ls.Time = time.Date(l.Year, l.Month, l.Day, l.Time.Hours, l.Time.Minutes, l.Time.Seconds, 0, time.UTC)
		if ls.Correction < 0 {
			ls.Time = ls.Time.Add(time.Second)
		}
		result = append(result, ls)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Time.Before(result[j].Time)
	})
	total := 0
	for i := range result {
		total += result[i].Correction
		result[i].Total = total
	}
	return result, nil
}

// LeapSeconds returns the leap seconds in chronological order.
func (db *DB) LeapSeconds() []LeapSecond {
	return append([]LeapSecond(nil), db.leapSeconds...)
}

// LeapSecondsExpire returns the expiry of the leap second list if the
// leapseconds file carried an Expires line.
func (db *DB) LeapSecondsExpire() (time.Time, bool) {
	return db.leapExpires, db.hasLeapExpires
}

// IsLeapSecond reports whether a second was inserted at the end of the given UTC day,
// that is whether 23:59:60 is a valid time on that day.
func (db *DB) IsLeapSecond(year int, month time.Month, day int) bool {
	end := time.Date(year, month, day+1, 0, 0, 0, 0, time.UTC)
	i := sort.Search(len(db.leapSeconds), func(i int) bool {
		return !db.leapSeconds[i].Time.Before(end)
	})
	return i < len(db.leapSeconds) && db.leapSeconds[i].Time.Equal(end) && db.leapSeconds[i].Correction > 0
}
