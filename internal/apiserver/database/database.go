package database

import (
	"context"
	"errors"
)

// ErrMagicLinkConsumed is returned when a portal login link is
// presented a second time.
var ErrMagicLinkConsumed = errors.New("magic link already consumed")

// ErrScopeDenied is returned when a write targets a company outside
// the caller's tenant scope.
var ErrScopeDenied = errors.New("company out of tenant scope")

// InspectionFilter narrows inspection listings. Zero values are
// ignored. Page is 1-based.
type InspectionFilter struct {
	Status   string
	Shift    string
	Project  string
	AreaLine string
	DateFrom string
	DateTo   string
	Search   string
	// InspectorID restricts the listing to inspections the user is
	// assigned to. Used for inspector visibility.
	InspectorID uint
	Page        int
	PageSize    int
}

// AggregateRow is the per-identifier sum of one aggregation dimension.
type AggregateRow struct {
	Key     string `gorm:"column:ident"`
	Good    int
	Defects int
}

// DailyRow is one day of the trend series.
type DailyRow struct {
	Date    string
	Good    int
	Defects int
}

// Aggregation dimensions, named after the item or inspection column
// the rows are grouped by.
const (
	DimPart  = "part"
	DimLot   = "lot"
	DimShift = "shift"
	DimArea  = "area"
)

// Database defines the storage operations. Methods that read or write
// company-owned rows derive their visibility from the tenant scope on
// the context and fail closed when none is attached.
type Database interface {
	// Close closes the database connection.
	Close() error

	// Transaction runs fn inside a transaction. The transaction is
	// carried on the context so nested calls join it.
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Companies.
	CreateCompany(ctx context.Context, company *Company) error
	GetCompanyByID(ctx context.Context, id uint) (*Company, error)
	GetCompanyByCode(ctx context.Context, code string) (*Company, error)
	ListCompanies(ctx context.Context) ([]*Company, error)
	UpdateCompany(ctx context.Context, company *Company) error
	DeleteCompany(ctx context.Context, id uint) error

	// Employees.
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id uint) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)
	UpdateUser(ctx context.Context, user *User) error
	DeleteUser(ctx context.Context, id uint) error
	TouchLastLogin(ctx context.Context, id uint) error
	// ReplaceUserCompanies resets the employee's assigned-companies
	// set, which drives their tenant scope on the next request.
	ReplaceUserCompanies(ctx context.Context, userID uint, companyIDs []uint) error

	// Portal magic links.
	CreateMagicLink(ctx context.Context, link *MagicLink) error
	GetMagicLinkByJTI(ctx context.Context, jti string) (*MagicLink, error)
	// ConsumeMagicLink marks the link used. Returns
	// ErrMagicLinkConsumed when it was already spent.
	ConsumeMagicLink(ctx context.Context, jti string) error

	// Portal viewers, created lazily on the first accepted link
	// request for a (company, email) pair.
	FindOrCreateViewer(ctx context.Context, companyID uint, email string) (*CompanyViewer, error)
	TouchViewerLogin(ctx context.Context, companyID uint, email string) error

	// Defect tags.
	CreateDefectTag(ctx context.Context, tag *DefectTag) error
	ListDefectTags(ctx context.Context) ([]*DefectTag, error)

	// Inspections. CreateInspection assigns the reference code and
	// persists nested parts and items atomically.
	CreateInspection(ctx context.Context, inspection *Inspection) error
	GetInspectionByID(ctx context.Context, id uint) (*Inspection, error)
	ListInspections(ctx context.Context, filter InspectionFilter) ([]*Inspection, int64, error)
	UpdateInspection(ctx context.Context, inspection *Inspection) error
	ReplaceInspectors(ctx context.Context, inspectionID uint, userIDs []uint) error
	DeleteInspection(ctx context.Context, id uint) error
	// CountInspectionsOnDay counts rows including soft-deleted ones;
	// the reference code sequence never reuses a slot.
	CountInspectionsOnDay(ctx context.Context, companyID uint, date string) (int64, error)

	// Parts and items.
	CreatePart(ctx context.Context, part *InspectionPart) error
	GetPartByID(ctx context.Context, id uint) (*InspectionPart, error)
	DeletePart(ctx context.Context, id uint) error
	CreateItem(ctx context.Context, item *InspectionItem) error
	GetItemByID(ctx context.Context, id uint) (*InspectionItem, error)
	UpdateItem(ctx context.Context, item *InspectionItem) error
	// DeleteItem removes the item and, when it was the part's last
	// item, the now-empty part as well.
	DeleteItem(ctx context.Context, id uint) error

	// Aggregates. Date arguments are inclusive YYYY-MM-DD bounds.
	RangeTotals(ctx context.Context, from, to string) (good, defects int, err error)
	DimensionTotals(ctx context.Context, dimension, from, to string) ([]AggregateRow, error)
	DailySeries(ctx context.Context, from, to string) ([]DailyRow, error)
	RecentInspections(ctx context.Context, limit int) ([]*Inspection, error)
}
