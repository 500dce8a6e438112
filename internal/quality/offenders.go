package quality

// OffenderRow is an aggregated candidate for the "worst of the month"
// slot of one dimension.
type OffenderRow struct {
	Identifier string
	Defects    int
	Total      int
}

// TopOffender holds the worst identifier of a dimension, its own defect
// rate and its share of the period's defects, both rounded to 1 decimal.
type TopOffender struct {
	Identifier string  `json:"identifier"`
	Defects    int     `json:"defects"`
	Total      int     `json:"total"`
	DefectRate float64 `json:"defect_rate"`
	PctOfTotal float64 `json:"pct_of_total"`
}

// PickTopOffender selects the row with the most defects. Ties keep the
// first row. It returns false when no row has any defects, so clean
// dimensions are omitted from the report.
func PickTopOffender(rows []OffenderRow, totalDefects int) (TopOffender, bool) {
	best := OffenderRow{}
	for _, row := range rows {
		if row.Defects > best.Defects {
			best = row
		}
	}
	if best.Defects == 0 {
		return TopOffender{}, false
	}

	rate := 0.0
	if best.Total > 0 {
		rate = Round(float64(best.Defects)/float64(best.Total)*100, 1)
	}
	pct := 0.0
	if totalDefects > 0 {
		pct = Round(float64(best.Defects)/float64(totalDefects)*100, 1)
	}
	return TopOffender{
		Identifier: best.Identifier,
		Defects:    best.Defects,
		Total:      best.Total,
		DefectRate: rate,
		PctOfTotal: pct,
	}, true
}
