package database

import (
	"time"

	"gorm.io/gorm"
)

// Company statuses.
const (
	CompanyActive   = "active"
	CompanyInactive = "inactive"
)

// Employee roles.
const (
	RoleSuperAdmin = "superadmin"
	RoleAdmin      = "admin"
	RoleSupervisor = "supervisor"
	RoleInspector  = "inspector"
)

// Inspection statuses.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Scoped is implemented by every model owned by a client company. The
// generic query scoping operates over this capability instead of
// per-model filter code.
type Scoped interface {
	GetCompanyID() uint
}

// Company is a client company whose inspection data is isolated from
// every other company.
type Company struct {
	ID           uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	Name         string `json:"name" gorm:"type:varchar(120);not null"`
	Code         string `json:"code" gorm:"type:varchar(40);uniqueIndex"`
	ContactEmail string `json:"contact_email" gorm:"type:varchar(190)"`
	// AllowedEmails and AllowedDomains are comma or newline separated
	// allow lists consulted by the portal login flow.
	AllowedEmails  string         `json:"allowed_emails" gorm:"type:text"`
	AllowedDomains string         `json:"allowed_domains" gorm:"type:text"`
	PortalCode     string         `json:"-" gorm:"type:varchar(64);index"`
	AllowExports   bool           `json:"allow_exports" gorm:"not null;default:true"`
	Status         string         `json:"status" gorm:"type:varchar(16);not null;default:'active'"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
}

// User is a plant employee of the inspection provider, not a portal
// viewer. Portal viewers never get a row here. Companies is the set of
// client companies the employee is assigned to work with; super admins
// ignore it and see everything.
type User struct {
	ID          uint       `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string     `json:"name" gorm:"type:varchar(120);not null"`
	Email       string     `json:"email" gorm:"type:varchar(190);uniqueIndex;not null"`
	Password    string     `json:"-" gorm:"type:varchar(120);not null"`
	Role        string     `json:"role" gorm:"type:varchar(20);not null;default:'inspector'"`
	IsActive    bool       `json:"is_active" gorm:"not null;default:true"`
	LastLoginAt *time.Time `json:"last_login_at"`

	Companies []Company `json:"companies,omitempty" gorm:"many2many:user_companies;"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CompanyIDs returns the assigned company IDs. Empty means the
// employee sees no tenant-owned data unless they are a super admin.
func (u *User) CompanyIDs() []uint {
	ids := make([]uint, 0, len(u.Companies))
	for i := range u.Companies {
		ids = append(ids, u.Companies[i].ID)
	}
	return ids
}

// CompanyViewer is a portal identity, one per (company, email) pair.
// Rows appear lazily the first time an address passes the magic-link
// checks; a viewer is bound to exactly one company for its lifetime.
type CompanyViewer struct {
	ID          uint       `json:"id" gorm:"primaryKey;autoIncrement"`
	CompanyID   uint       `json:"company_id" gorm:"not null;uniqueIndex:idx_company_viewers_company_email,priority:1"`
	Email       string     `json:"email" gorm:"type:varchar(190);not null;uniqueIndex:idx_company_viewers_company_email,priority:2"`
	Name        string     `json:"name" gorm:"type:varchar(120)"`
	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (v *CompanyViewer) GetCompanyID() uint { return v.CompanyID }

// MagicLink is a single-use portal login token. The JTI is embedded in
// the signed link; consumption is recorded so replays fail.
type MagicLink struct {
	ID         uint       `json:"id" gorm:"primaryKey;autoIncrement"`
	CompanyID  uint       `json:"company_id" gorm:"index;not null"`
	Email      string     `json:"email" gorm:"type:varchar(190);not null"`
	JTI        string     `json:"-" gorm:"column:jti;type:varchar(64);uniqueIndex;not null"`
	ExpiresAt  time.Time  `json:"expires_at" gorm:"not null"`
	ConsumedAt *time.Time `json:"consumed_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (m *MagicLink) GetCompanyID() uint { return m.CompanyID }

// DefectTag labels a defect category a company tracks.
type DefectTag struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	CompanyID uint      `json:"company_id" gorm:"index;not null"`
	Name      string    `json:"name" gorm:"type:varchar(80);not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d *DefectTag) GetCompanyID() uint { return d.CompanyID }

// Inspection is one quality inspection session on the shop floor.
// Date, StartTime and EndTime are stored as plain strings (YYYY-MM-DD
// and HH:MM) so grouping behaves identically across drivers.
type Inspection struct {
	ID             uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	CompanyID      uint   `json:"company_id" gorm:"not null;uniqueIndex:idx_inspections_company_ref,priority:1"`
	ReferenceCode  string `json:"reference_code" gorm:"type:varchar(32);not null;uniqueIndex:idx_inspections_company_ref,priority:2"`
	Date           string `json:"date" gorm:"type:varchar(10);index;not null"`
	Shift          string `json:"shift" gorm:"type:varchar(40)"`
	Project        string `json:"project" gorm:"type:varchar(120)"`
	AreaLine       string `json:"area_line" gorm:"type:varchar(80)"`
	Status         string `json:"status" gorm:"type:varchar(16);not null;default:'pending'"`
	StartTime      string `json:"start_time" gorm:"type:varchar(5)"`
	EndTime        string `json:"end_time" gorm:"type:varchar(5)"`
	GeneralComment string `json:"general_comment" gorm:"type:text"`
	CreatedByID    uint   `json:"created_by_id"`

	Inspectors []User           `json:"inspectors,omitempty" gorm:"many2many:inspection_inspectors;"`
	Parts      []InspectionPart `json:"parts,omitempty" gorm:"foreignKey:InspectionID"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (i *Inspection) GetCompanyID() uint { return i.CompanyID }

// InspectionPart groups the inspected items of one part number within
// an inspection. Order preserves the capture sequence on the sheet.
type InspectionPart struct {
	ID           uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	CompanyID    uint   `json:"company_id" gorm:"index;not null"`
	InspectionID uint   `json:"inspection_id" gorm:"index;not null"`
	PartNumber   string `json:"part_number" gorm:"type:varchar(80);not null"`
	Description  string `json:"description" gorm:"type:varchar(190)"`
	Order        int    `json:"order" gorm:"not null;default:0"`

	Items []InspectionItem `json:"items,omitempty" gorm:"foreignKey:PartID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *InspectionPart) GetCompanyID() uint { return p.CompanyID }

// InspectionItem is one captured unit or batch of a part.
type InspectionItem struct {
	ID           uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	CompanyID    uint   `json:"company_id" gorm:"index;not null"`
	PartID       uint   `json:"part_id" gorm:"index;not null"`
	SerialNumber string `json:"serial_number" gorm:"type:varchar(80)"`
	LotCode      string `json:"lot_code" gorm:"type:varchar(80);index"`
	GoodQty      int    `json:"good_qty" gorm:"not null;default:0"`
	DefectQty    int    `json:"defect_qty" gorm:"not null;default:0"`
	DefectTagID  *uint  `json:"defect_tag_id"`
	Comment      string `json:"comment" gorm:"type:varchar(190)"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (it *InspectionItem) GetCompanyID() uint { return it.CompanyID }

// Total is the number of pieces the item accounts for.
func (it *InspectionItem) Total() int { return it.GoodQty + it.DefectQty }
