// Package level turns time-domain byte samples into a relative decibel
// reading and formats readings for display.
package level

import (
	"fmt"
	"math"
	"strconv"
)

// EstimateDecibels returns 20*log10(rms) over the raw byte amplitudes with a
// reference level of 1. The samples are not centered, so the result is an
// uncalibrated proxy rather than a sound pressure level.
//
// A buffer with no energy (all zeros, or empty) yields negative infinity.
func EstimateDecibels(samples []byte) float64 {
	if len(samples) == 0 {
		return math.Inf(-1)
	}

	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	rms := math.Sqrt(sum / float64(len(samples)))

	return 20 * math.Log10(rms)
}

// Round rounds half up, keeping infinities and never returning negative zero.
func Round(db float64) float64 {
	if math.IsInf(db, 0) || math.IsNaN(db) {
		return db
	}
	r := math.Floor(db + 0.5)
	if r == 0 {
		return 0
	}
	return r
}

// FormatLevel renders a reading with two decimals, e.g. "43.21 dB".
func FormatLevel(db float64) string {
	return fmt.Sprintf("%.2f dB", db)
}

// FormatValue renders a rounded reading, e.g. "43 dB".
func FormatValue(db float64) string {
	return fmt.Sprintf("%.0f dB", Round(db))
}

// FormatThreshold renders a threshold without unit, e.g. "55".
func FormatThreshold(threshold float64) string {
	return strconv.FormatFloat(threshold, 'f', -1, 64)
}
