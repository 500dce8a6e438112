package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// itemJoin builds the base query over items joined to their part and
// inspection, excluding soft-deleted inspections and rows outside the
// caller's scope.
func (s *Store) itemJoin(ctx context.Context) *gorm.DB {
	db := getDBFromContext(ctx, s.db).
		Table("inspection_items").
		Joins("JOIN inspection_parts ON inspection_parts.id = inspection_items.part_id").
		Joins("JOIN inspections ON inspections.id = inspection_parts.inspection_id").
		Where("inspections.deleted_at IS NULL")
	return scopedColumn(ctx, db, "inspections.company_id")
}

type sumRow struct {
	Good    int
	Defects int
}

// RangeTotals sums good and defect quantities over the inclusive date
// window.
func (s *Store) RangeTotals(ctx context.Context, from, to string) (int, int, error) {
	var row sumRow
	err := s.itemJoin(ctx).
		Select("COALESCE(SUM(inspection_items.good_qty),0) AS good, COALESCE(SUM(inspection_items.defect_qty),0) AS defects").
		Where("inspections.date BETWEEN ? AND ?", from, to).
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.Good, row.Defects, nil
}

// dimensionKey maps an aggregation dimension to its grouping column.
func dimensionKey(dimension string) (string, error) {
	switch dimension {
	case DimPart:
		return "inspection_parts.part_number", nil
	case DimLot:
		return "inspection_items.lot_code", nil
	case DimShift:
		return "inspections.shift", nil
	case DimArea:
		return "inspections.area_line", nil
	default:
		return "", fmt.Errorf("unknown aggregation dimension: %s", dimension)
	}
}

// DimensionTotals sums good and defect quantities per identifier of
// one dimension over the inclusive date window. Rows with an empty
// identifier are skipped.
func (s *Store) DimensionTotals(ctx context.Context, dimension, from, to string) ([]AggregateRow, error) {
	key, err := dimensionKey(dimension)
	if err != nil {
		return nil, err
	}

	var rows []AggregateRow
	err = s.itemJoin(ctx).
		Select(key+" AS ident, COALESCE(SUM(inspection_items.good_qty),0) AS good, COALESCE(SUM(inspection_items.defect_qty),0) AS defects").
		Where("inspections.date BETWEEN ? AND ?", from, to).
		Where(key+" <> ''").
		Group(key).
		Order("defects DESC").
		Scan(&rows).Error
	return rows, err
}

// DailySeries sums good and defect quantities per calendar day over
// the inclusive date window, oldest day first. Days without rows are
// absent; the caller decides how to render gaps.
func (s *Store) DailySeries(ctx context.Context, from, to string) ([]DailyRow, error) {
	var rows []DailyRow
	err := s.itemJoin(ctx).
		Select("inspections.date AS date, COALESCE(SUM(inspection_items.good_qty),0) AS good, COALESCE(SUM(inspection_items.defect_qty),0) AS defects").
		Where("inspections.date BETWEEN ? AND ?", from, to).
		Group("inspections.date").
		Order("inspections.date ASC").
		Scan(&rows).Error
	return rows, err
}

// RecentInspections returns the latest inspections visible to the
// scope, newest first.
func (s *Store) RecentInspections(ctx context.Context, limit int) ([]*Inspection, error) {
	if limit < 1 {
		limit = 10
	}
	var inspections []*Inspection
	err := scoped(ctx, getDBFromContext(ctx, s.db)).
		Preload("Parts.Items").
		Order("created_at desc").
		Limit(limit).
		Find(&inspections).Error
	return inspections, err
}
