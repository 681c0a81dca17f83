// Package threshold decides the alert level for a monitoring session from
// the local time of day.
package threshold

import "time"

// Policy maps an hour of the day to an alert threshold in dB proxy units.
// Hours in [DayStart, DayEnd) use Day, all others use Night.
type Policy struct {
	DayStart float64
	DayEnd   float64
	Day      float64
	Night    float64
}

// Default is the daytime 55 dB / nighttime 45 dB policy with the day
// running from 06:00 to 22:00.
var Default = Policy{
	DayStart: 6,
	DayEnd:   22,
	Day:      55,
	Night:    45,
}

// Compute returns the threshold for hour under the default policy.
func Compute(hour float64) float64 {
	return Default.Compute(hour)
}

// Compute returns the threshold for hour, a value in [0,24) that includes
// fractional minutes.
func (p Policy) Compute(hour float64) float64 {
	if hour >= p.DayStart && hour < p.DayEnd {
		return p.Day
	}
	return p.Night
}

// HourOf converts a wall-clock time to hours with minute precision, so 06:30
// becomes 6.5. Seconds are ignored.
func HourOf(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60
}
