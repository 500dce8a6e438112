package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/inspectrack/inspectrack/internal/apiserver/database"
	"github.com/inspectrack/inspectrack/internal/i18n"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Company handles the client-company catalog and its defect tags.
type Company struct {
	db     database.Database
	logger *zap.Logger
}

// NewCompany creates the company handler.
func NewCompany(db database.Database, logger *zap.Logger) *Company {
	return &Company{db: db, logger: logger.Named("apiserver.handler.company")}
}

// requireAdmin gates company mutations to administrators.
func requireAdmin(c *gin.Context) bool {
	actor, _, ok := actorFrom(c)
	if !ok {
		i18n.RespondWithError(c, i18n.ErrUnauthorized)
		return false
	}
	if actor.Role != database.RoleSuperAdmin && actor.Role != database.RoleAdmin {
		i18n.RespondWithError(c, i18n.ErrForbidden)
		return false
	}
	return true
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		i18n.RespondWithError(c, i18n.ErrBadRequest.WithParam("Reason", "invalid id"))
		return 0, false
	}
	return uint(id), true
}

// List returns every company visible to the caller.
func (h *Company) List(c *gin.Context) {
	companies, err := h.db.ListCompanies(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list companies", zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}
	c.JSON(http.StatusOK, gin.H{"companies": companies})
}

// Get returns one company.
func (h *Company) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	company, err := h.db.GetCompanyByID(c.Request.Context(), id)
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrorCompanyNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"company": company})
}

type companyRequest struct {
	Name           string `json:"name"`
	Code           string `json:"code"`
	ContactEmail   string `json:"contact_email"`
	AllowedEmails  string `json:"allowed_emails"`
	AllowedDomains string `json:"allowed_domains"`
	AllowExports   *bool  `json:"allow_exports"`
	Status         string `json:"status"`
}

// Create registers a new client company. Non-super-admin creators are
// assigned to it immediately so they can keep working with it.
func (h *Company) Create(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}
	actor, user, _ := actorFrom(c)

	var req companyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		i18n.RespondWithError(c, i18n.ErrBadRequest.WithParam("Reason", err.Error()))
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		i18n.RespondWithError(c, i18n.ErrorCompanyNameRequired)
		return
	}

	company := &database.Company{
		Name:           strings.TrimSpace(req.Name),
		Code:           strings.TrimSpace(req.Code),
		ContactEmail:   strings.ToLower(strings.TrimSpace(req.ContactEmail)),
		AllowedEmails:  req.AllowedEmails,
		AllowedDomains: req.AllowedDomains,
		Status:         database.CompanyActive,
	}
	if req.AllowExports != nil {
		company.AllowExports = *req.AllowExports
	} else {
		company.AllowExports = true
	}

	if err := h.db.CreateCompany(c.Request.Context(), company); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			i18n.RespondWithError(c, i18n.ErrorCompanyCodeExists)
			return
		}
		h.logger.Error("failed to create company", zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	if actor.Role != database.RoleSuperAdmin {
		ids := append(user.CompanyIDs(), company.ID)
		if err := h.db.ReplaceUserCompanies(c.Request.Context(), user.ID, ids); err != nil {
			h.logger.Error("failed to assign creator to company", zap.Uint("company_id", company.ID), zap.Error(err))
			i18n.RespondWithError(c, i18n.ErrInternalServer)
			return
		}
	}

	h.logger.Info("company created", zap.Uint("company_id", company.ID), zap.String("code", company.Code))
	i18n.RespondCreated(c, i18n.SuccessCompanyCreated, nil, gin.H{"company": company})
}

// Update modifies a company's profile and portal allow lists.
func (h *Company) Update(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req companyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		i18n.RespondWithError(c, i18n.ErrBadRequest.WithParam("Reason", err.Error()))
		return
	}

	company, err := h.db.GetCompanyByID(c.Request.Context(), id)
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrorCompanyNotFound)
		return
	}

	if req.Name != "" {
		company.Name = strings.TrimSpace(req.Name)
	}
	if req.Code != "" {
		company.Code = strings.TrimSpace(req.Code)
	}
	if req.ContactEmail != "" {
		company.ContactEmail = strings.ToLower(strings.TrimSpace(req.ContactEmail))
	}
	if req.AllowedEmails != "" {
		company.AllowedEmails = req.AllowedEmails
	}
	if req.AllowedDomains != "" {
		company.AllowedDomains = req.AllowedDomains
	}
	if req.AllowExports != nil {
		company.AllowExports = *req.AllowExports
	}
	if req.Status == database.CompanyActive || req.Status == database.CompanyInactive {
		company.Status = req.Status
	}

	if err := h.db.UpdateCompany(c.Request.Context(), company); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			i18n.RespondWithError(c, i18n.ErrorCompanyCodeExists)
			return
		}
		h.logger.Error("failed to update company", zap.Uint("company_id", id), zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	i18n.RespondOK(c, i18n.SuccessCompanyUpdated, nil, gin.H{"company": company})
}

// Delete removes a company.
func (h *Company) Delete(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.db.DeleteCompany(c.Request.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			i18n.RespondWithError(c, i18n.ErrorCompanyNotFound)
			return
		}
		h.logger.Error("failed to delete company", zap.Uint("company_id", id), zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	h.logger.Info("company deleted", zap.Uint("company_id", id))
	i18n.RespondOK(c, i18n.SuccessCompanyDeleted, nil, nil)
}

type defectTagRequest struct {
	CompanyID uint   `json:"company_id" binding:"required"`
	Name      string `json:"name" binding:"required"`
}

// ListDefectTags returns the defect catalog visible to the caller.
func (h *Company) ListDefectTags(c *gin.Context) {
	tags, err := h.db.ListDefectTags(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list defect tags", zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}
	c.JSON(http.StatusOK, gin.H{"defect_tags": tags})
}

// CreateDefectTag adds a defect category to a company's catalog.
func (h *Company) CreateDefectTag(c *gin.Context) {
	var req defectTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		i18n.RespondWithError(c, i18n.ErrBadRequest.WithParam("Reason", err.Error()))
		return
	}

	tag := &database.DefectTag{CompanyID: req.CompanyID, Name: strings.TrimSpace(req.Name)}
	if err := h.db.CreateDefectTag(c.Request.Context(), tag); err != nil {
		if errors.Is(err, database.ErrScopeDenied) {
			i18n.RespondWithError(c, i18n.ErrorCompanyScopeDenied)
			return
		}
		h.logger.Error("failed to create defect tag", zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	i18n.RespondCreated(c, i18n.SuccessOperationCompleted, nil, gin.H{"defect_tag": tag})
}
