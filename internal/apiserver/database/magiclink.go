package database

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// CreateMagicLink persists a freshly issued portal login link.
func (s *Store) CreateMagicLink(ctx context.Context, link *MagicLink) error {
	return getDBFromContext(ctx, s.db).Create(link).Error
}

// GetMagicLinkByJTI fetches a link by its token ID.
func (s *Store) GetMagicLinkByJTI(ctx context.Context, jti string) (*MagicLink, error) {
	var link MagicLink
	if err := getDBFromContext(ctx, s.db).
		Where("jti = ?", jti).
		First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

// FindOrCreateViewer returns the portal viewer row for the address,
// creating it on the first accepted link request.
func (s *Store) FindOrCreateViewer(ctx context.Context, companyID uint, email string) (*CompanyViewer, error) {
	viewer := CompanyViewer{CompanyID: companyID, Email: email}
	if err := getDBFromContext(ctx, s.db).
		Where(&CompanyViewer{CompanyID: companyID, Email: email}).
		FirstOrCreate(&viewer).Error; err != nil {
		return nil, err
	}
	return &viewer, nil
}

// TouchViewerLogin stamps the viewer's last successful portal login.
func (s *Store) TouchViewerLogin(ctx context.Context, companyID uint, email string) error {
	now := time.Now()
	return getDBFromContext(ctx, s.db).
		Model(&CompanyViewer{}).
		Where("company_id = ? AND email = ?", companyID, email).
		Update("last_login_at", &now).Error
}

// ConsumeMagicLink atomically marks a link as used. A second call for
// the same JTI returns ErrMagicLinkConsumed; replayed links fail even
// under concurrent verification.
func (s *Store) ConsumeMagicLink(ctx context.Context, jti string) error {
	now := time.Now()
	res := getDBFromContext(ctx, s.db).
		Model(&MagicLink{}).
		Where("jti = ? AND consumed_at IS NULL", jti).
		Update("consumed_at", &now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetMagicLinkByJTI(ctx, jti); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return gorm.ErrRecordNotFound
			}
			return err
		}
		return ErrMagicLinkConsumed
	}
	return nil
}
