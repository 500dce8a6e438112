// Package quality holds the defect metrics math, alerting thresholds
// and trend analysis shared by dashboards, exports and realtime events.
package quality

import "math"

// Metrics summarizes the outcome of a set of inspected pieces.
// The derived fields are nil when no pieces were inspected, so that
// "no data" is distinguishable from "0% defects".
type Metrics struct {
	Good  int `json:"good"`
	Bad   int `json:"bad"`
	Total int `json:"total"`

	// DefectRate is a percentage rounded to 2 decimals.
	DefectRate *float64 `json:"defect_rate"`
	// FirstPassYield is a percentage rounded to 1 decimal.
	FirstPassYield *float64 `json:"first_pass_yield"`
	// PPM is defective parts per million, rounded to the nearest integer.
	PPM *int `json:"ppm"`
}

// Compute derives the metrics for the given good and bad piece counts.
func Compute(good, bad int) Metrics {
	m := Metrics{Good: good, Bad: bad, Total: good + bad}
	if m.Total == 0 {
		return m
	}

	rate := Round(float64(bad)/float64(m.Total)*100, 2)
	fpy := Round(float64(good)/float64(m.Total)*100, 1)
	ppm := int(math.Round(float64(bad) / float64(m.Total) * 1_000_000))

	m.DefectRate = &rate
	m.FirstPassYield = &fpy
	m.PPM = &ppm
	return m
}

// DefectRatePct returns the defect rate as a percentage rounded to the
// given number of decimals, or nil when total is zero.
func DefectRatePct(bad, total, decimals int) *float64 {
	if total == 0 {
		return nil
	}
	rate := Round(float64(bad)/float64(total)*100, decimals)
	return &rate
}

// Round rounds half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}
