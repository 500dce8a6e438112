package database

import (
	"context"
	"time"

	"gorm.io/gorm/clause"
)

// CreateUser persists a new employee.
func (s *Store) CreateUser(ctx context.Context, user *User) error {
	return getDBFromContext(ctx, s.db).Create(user).Error
}

// GetUserByID fetches an employee with their assigned companies.
func (s *Store) GetUserByID(ctx context.Context, id uint) (*User, error) {
	var user User
	if err := getDBFromContext(ctx, s.db).
		Preload("Companies").
		First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail fetches an employee by normalized email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	if err := getDBFromContext(ctx, s.db).
		Preload("Companies").
		Where("email = ?", email).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers returns all employees.
func (s *Store) ListUsers(ctx context.Context) ([]*User, error) {
	var users []*User
	err := getDBFromContext(ctx, s.db).Order("name asc").Find(&users).Error
	return users, err
}

// UpdateUser saves an employee's own fields. Company assignments are
// managed through ReplaceUserCompanies.
func (s *Store) UpdateUser(ctx context.Context, user *User) error {
	return getDBFromContext(ctx, s.db).
		Omit(clause.Associations).
		Save(user).Error
}

// ReplaceUserCompanies resets the employee's assigned companies.
func (s *Store) ReplaceUserCompanies(ctx context.Context, userID uint, companyIDs []uint) error {
	companies := make([]Company, 0, len(companyIDs))
	for _, id := range companyIDs {
		companies = append(companies, Company{ID: id})
	}
	return getDBFromContext(ctx, s.db).
		Model(&User{ID: userID}).
		Association("Companies").
		Replace(&companies)
}

// DeleteUser removes an employee.
func (s *Store) DeleteUser(ctx context.Context, id uint) error {
	return getDBFromContext(ctx, s.db).Delete(&User{}, id).Error
}

// TouchLastLogin stamps the employee's last successful login.
func (s *Store) TouchLastLogin(ctx context.Context, id uint) error {
	now := time.Now()
	return getDBFromContext(ctx, s.db).
		Model(&User{}).
		Where("id = ?", id).
		Update("last_login_at", &now).Error
}
