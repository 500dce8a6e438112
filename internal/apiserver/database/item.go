package database

import (
	"context"

	"gorm.io/gorm"
)

// CreatePart adds a part to an inspection.
func (s *Store) CreatePart(ctx context.Context, part *InspectionPart) error {
	if !allowed(ctx, part) {
		return ErrScopeDenied
	}
	return getDBFromContext(ctx, s.db).Create(part).Error
}

// GetPartByID fetches a part visible to the caller's scope, items
// included.
func (s *Store) GetPartByID(ctx context.Context, id uint) (*InspectionPart, error) {
	var part InspectionPart
	err := scoped(ctx, getDBFromContext(ctx, s.db)).
		Preload("Items").
		First(&part, id).Error
	if err != nil {
		return nil, err
	}
	return &part, nil
}

// DeletePart removes a part and its items.
func (s *Store) DeletePart(ctx context.Context, id uint) error {
	part, err := s.GetPartByID(ctx, id)
	if err != nil {
		return err
	}
	return s.Transaction(ctx, func(ctx context.Context) error {
		db := getDBFromContext(ctx, s.db)
		if err := db.Where("part_id = ?", part.ID).Delete(&InspectionItem{}).Error; err != nil {
			return err
		}
		return db.Delete(&InspectionPart{}, part.ID).Error
	})
}

// CreateItem records a captured item.
func (s *Store) CreateItem(ctx context.Context, item *InspectionItem) error {
	if !allowed(ctx, item) {
		return ErrScopeDenied
	}
	return getDBFromContext(ctx, s.db).Create(item).Error
}

// GetItemByID fetches an item visible to the caller's scope.
func (s *Store) GetItemByID(ctx context.Context, id uint) (*InspectionItem, error) {
	var item InspectionItem
	err := scoped(ctx, getDBFromContext(ctx, s.db)).First(&item, id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem saves an item's fields.
func (s *Store) UpdateItem(ctx context.Context, item *InspectionItem) error {
	if !allowed(ctx, item) {
		return ErrScopeDenied
	}
	return getDBFromContext(ctx, s.db).Save(item).Error
}

// DeleteItem removes an item. Deleting the last item of a part also
// removes the now-empty part, so the capture flow never leaves orphan
// parts behind.
func (s *Store) DeleteItem(ctx context.Context, id uint) error {
	item, err := s.GetItemByID(ctx, id)
	if err != nil {
		return err
	}
	return s.Transaction(ctx, func(ctx context.Context) error {
		db := getDBFromContext(ctx, s.db)
		res := db.Delete(&InspectionItem{}, item.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		var remaining int64
		if err := db.Model(&InspectionItem{}).
			Where("part_id = ?", item.PartID).
			Count(&remaining).Error; err != nil {
			return err
		}
		if remaining == 0 {
			return db.Delete(&InspectionPart{}, item.PartID).Error
		}
		return nil
	})
}
