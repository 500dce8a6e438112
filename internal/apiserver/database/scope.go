package database

import (
	"context"

	"github.com/inspectrack/inspectrack/internal/tenant"
	"gorm.io/gorm"
)

// scoped narrows a query over a company-owned table to the tenant
// scope on the context. An absent or empty scope matches nothing.
func scoped(ctx context.Context, db *gorm.DB) *gorm.DB {
	return scopedColumn(ctx, db, "company_id")
}

// scopedColumn is scoped for queries where the company column needs a
// table qualifier, e.g. joins.
func scopedColumn(ctx context.Context, db *gorm.DB, column string) *gorm.DB {
	s := tenant.FromContext(ctx)
	if s.IsWildcard() {
		return db
	}
	ids := s.IDs()
	if len(ids) == 0 {
		return db.Where("1 = 0")
	}
	return db.Where(column+" IN ?", ids)
}

// allowed reports whether the context's scope may touch the model.
func allowed(ctx context.Context, m Scoped) bool {
	return tenant.FromContext(ctx).Allows(m.GetCompanyID())
}

// tenantAllowsCompany is allowed for the company table itself, whose
// primary key is the company ID.
func tenantAllowsCompany(ctx context.Context, companyID uint) bool {
	return tenant.FromContext(ctx).Allows(companyID)
}
