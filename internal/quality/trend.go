package quality

// Trend directions.
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

// TrendDay is one day of the 30-day series shown on dashboards.
type TrendDay struct {
	Date    string  `json:"date"`
	Metrics Metrics `json:"metrics"`
}

// minTrendSamples is the minimum number of days with data required
// before a direction other than stable is reported.
const minTrendSamples = 4

// trendDelta is how far the half averages must drift apart, in
// percentage points, before the series counts as moving.
const trendDelta = 1.0

// ComputeDirection compares the average of the first half of a daily
// quality series (higher is better, e.g. first-pass yield) against the
// second half. Days without data are nil and skipped. Odd-length
// series put the middle day in the first half.
func ComputeDirection(series []*float64) string {
	vals := make([]float64, 0, len(series))
	for _, v := range series {
		if v != nil {
			vals = append(vals, *v)
		}
	}
	if len(vals) < minTrendSamples {
		return TrendStable
	}

	mid := (len(vals) + 1) / 2
	first := avg(vals[:mid])
	second := avg(vals[mid:])

	switch diff := second - first; {
	case diff > trendDelta:
		return TrendImproving
	case diff < -trendDelta:
		return TrendDeclining
	default:
		return TrendStable
	}
}

func avg(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
