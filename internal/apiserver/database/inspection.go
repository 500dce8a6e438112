package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxRefCodeAttempts bounds the retry loop when concurrent creations
// race for the same daily sequence slot.
const maxRefCodeAttempts = 5

// referenceCode formats the per-company per-day sequence code,
// e.g. INS-20260315-0007.
func referenceCode(date string, seq int64) string {
	return fmt.Sprintf("INS-%s-%04d", strings.ReplaceAll(date, "-", ""), seq)
}

// CreateInspection persists an inspection with its nested parts and
// items in one transaction and assigns the next reference code for the
// company and day. Collisions with a concurrent creation are retried
// with a fresh count.
func (s *Store) CreateInspection(ctx context.Context, inspection *Inspection) error {
	if !allowed(ctx, inspection) {
		return ErrScopeDenied
	}
	stampChildren(inspection)

	joinedTx := TransactionFromContext(ctx) != nil
	var lastErr error
	for attempt := 0; attempt < maxRefCodeAttempts; attempt++ {
		lastErr = s.Transaction(ctx, func(ctx context.Context) error {
			count, err := s.CountInspectionsOnDay(ctx, inspection.CompanyID, inspection.Date)
			if err != nil {
				return err
			}
			inspection.ReferenceCode = referenceCode(inspection.Date, count+1)
			return getDBFromContext(ctx, s.db).Create(inspection).Error
		})
		if lastErr == nil {
			return nil
		}
		// Inside a caller-owned transaction a conflict poisons the tx,
		// so retrying is pointless.
		if joinedTx || !errors.Is(lastErr, gorm.ErrDuplicatedKey) {
			return lastErr
		}
		resetIDs(inspection)
	}
	return fmt.Errorf("reference code contention for company %d on %s: %w",
		inspection.CompanyID, inspection.Date, lastErr)
}

// resetIDs clears primary and foreign keys assigned by a failed
// create attempt so the retry inserts fresh rows.
func resetIDs(inspection *Inspection) {
	inspection.ID = 0
	for pi := range inspection.Parts {
		inspection.Parts[pi].ID = 0
		inspection.Parts[pi].InspectionID = 0
		for ii := range inspection.Parts[pi].Items {
			inspection.Parts[pi].Items[ii].ID = 0
			inspection.Parts[pi].Items[ii].PartID = 0
		}
	}
}

// stampChildren propagates the company onto nested parts and items.
func stampChildren(inspection *Inspection) {
	for pi := range inspection.Parts {
		inspection.Parts[pi].CompanyID = inspection.CompanyID
		for ii := range inspection.Parts[pi].Items {
			inspection.Parts[pi].Items[ii].CompanyID = inspection.CompanyID
		}
	}
}

// GetInspectionByID fetches an inspection visible to the caller's
// scope, with parts, items and assigned inspectors preloaded.
func (s *Store) GetInspectionByID(ctx context.Context, id uint) (*Inspection, error) {
	var inspection Inspection
	err := scoped(ctx, getDBFromContext(ctx, s.db)).
		Preload("Parts.Items").
		Preload("Inspectors").
		First(&inspection, id).Error
	if err != nil {
		return nil, err
	}
	return &inspection, nil
}

// ListInspections returns a filtered, paginated page plus the total
// row count for the filter.
func (s *Store) ListInspections(ctx context.Context, filter InspectionFilter) ([]*Inspection, int64, error) {
	db := scoped(ctx, getDBFromContext(ctx, s.db)).Model(&Inspection{})

	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Shift != "" {
		db = db.Where("shift = ?", filter.Shift)
	}
	if filter.Project != "" {
		db = db.Where("project = ?", filter.Project)
	}
	if filter.AreaLine != "" {
		db = db.Where("area_line = ?", filter.AreaLine)
	}
	if filter.DateFrom != "" {
		db = db.Where("date >= ?", filter.DateFrom)
	}
	if filter.DateTo != "" {
		db = db.Where("date <= ?", filter.DateTo)
	}
	if filter.Search != "" {
		db = db.Where("reference_code LIKE ?", "%"+filter.Search+"%")
	}
	if filter.InspectorID != 0 {
		db = db.Where("id IN (?)", getDBFromContext(ctx, s.db).
			Table("inspection_inspectors").
			Select("inspection_id").
			Where("user_id = ?", filter.InspectorID))
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	var inspections []*Inspection
	err := db.
		Preload("Parts.Items").
		Preload("Inspectors").
		Order("date desc, id desc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&inspections).Error
	return inspections, total, err
}

// UpdateInspection saves the inspection's own fields. Parts, items and
// inspector assignments are managed through their dedicated operations.
func (s *Store) UpdateInspection(ctx context.Context, inspection *Inspection) error {
	if !allowed(ctx, inspection) {
		return ErrScopeDenied
	}
	return getDBFromContext(ctx, s.db).
		Omit(clause.Associations).
		Save(inspection).Error
}

// ReplaceInspectors resets the assigned inspectors of an inspection.
func (s *Store) ReplaceInspectors(ctx context.Context, inspectionID uint, userIDs []uint) error {
	inspection, err := s.GetInspectionByID(ctx, inspectionID)
	if err != nil {
		return err
	}
	users := make([]User, 0, len(userIDs))
	for _, id := range userIDs {
		users = append(users, User{ID: id})
	}
	return getDBFromContext(ctx, s.db).
		Model(inspection).
		Association("Inspectors").
		Replace(&users)
}

// DeleteInspection soft-deletes an inspection. Its reference code slot
// stays burned so the daily sequence never reuses it.
func (s *Store) DeleteInspection(ctx context.Context, id uint) error {
	res := scoped(ctx, getDBFromContext(ctx, s.db)).Delete(&Inspection{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountInspectionsOnDay counts all inspections a company created on a
// calendar day, soft-deleted ones included.
func (s *Store) CountInspectionsOnDay(ctx context.Context, companyID uint, date string) (int64, error) {
	var count int64
	err := getDBFromContext(ctx, s.db).
		Unscoped().
		Model(&Inspection{}).
		Where("company_id = ? AND date = ?", companyID, date).
		Count(&count).Error
	return count, err
}
