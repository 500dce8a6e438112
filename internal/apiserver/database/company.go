package database

import (
	"context"
)

// CreateCompany persists a new client company.
func (s *Store) CreateCompany(ctx context.Context, company *Company) error {
	return getDBFromContext(ctx, s.db).Create(company).Error
}

// GetCompanyByID fetches a company visible to the caller's scope.
func (s *Store) GetCompanyByID(ctx context.Context, id uint) (*Company, error) {
	var company Company
	db := scopedColumn(ctx, getDBFromContext(ctx, s.db), "id")
	if err := db.First(&company, id).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

// GetCompanyByCode looks a company up by its portal code. Unscoped:
// the portal login flow runs before any scope exists.
func (s *Store) GetCompanyByCode(ctx context.Context, code string) (*Company, error) {
	var company Company
	if err := getDBFromContext(ctx, s.db).
		Where("code = ?", code).
		First(&company).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

// ListCompanies returns the companies visible to the caller's scope.
func (s *Store) ListCompanies(ctx context.Context) ([]*Company, error) {
	var companies []*Company
	db := scopedColumn(ctx, getDBFromContext(ctx, s.db), "id")
	err := db.Order("name asc").Find(&companies).Error
	return companies, err
}

// UpdateCompany saves a company's fields.
func (s *Store) UpdateCompany(ctx context.Context, company *Company) error {
	if !tenantAllowsCompany(ctx, company.ID) {
		return ErrScopeDenied
	}
	return getDBFromContext(ctx, s.db).Save(company).Error
}

// DeleteCompany soft-deletes a company.
func (s *Store) DeleteCompany(ctx context.Context, id uint) error {
	if !tenantAllowsCompany(ctx, id) {
		return ErrScopeDenied
	}
	return getDBFromContext(ctx, s.db).Delete(&Company{}, id).Error
}

// CreateDefectTag persists a defect category for a company.
func (s *Store) CreateDefectTag(ctx context.Context, tag *DefectTag) error {
	if !allowed(ctx, tag) {
		return ErrScopeDenied
	}
	return getDBFromContext(ctx, s.db).Create(tag).Error
}

// ListDefectTags returns the defect categories visible to the scope.
func (s *Store) ListDefectTags(ctx context.Context) ([]*DefectTag, error) {
	var tags []*DefectTag
	err := scoped(ctx, getDBFromContext(ctx, s.db)).Order("name asc").Find(&tags).Error
	return tags, err
}
