package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ifuryst/lol"
	"github.com/inspectrack/inspectrack/internal/apiserver/database"
	"github.com/inspectrack/inspectrack/internal/i18n"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User handles the employee directory.
type User struct {
	db     database.Database
	logger *zap.Logger
}

// NewUser creates the user handler.
func NewUser(db database.Database, logger *zap.Logger) *User {
	return &User{db: db, logger: logger.Named("apiserver.handler.user")}
}

var validRoles = map[string]bool{
	database.RoleSuperAdmin: true,
	database.RoleAdmin:      true,
	database.RoleSupervisor: true,
	database.RoleInspector:  true,
}

// List returns every employee.
func (h *User) List(c *gin.Context) {
	users, err := h.db.ListUsers(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list users", zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

type createUserRequest struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
	Role       string `json:"role" binding:"required"`
	CompanyIDs []uint `json:"company_ids"`
}

// Create registers a new employee.
func (h *User) Create(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}

	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		i18n.RespondWithError(c, i18n.ErrBadRequest.WithParam("Reason", err.Error()))
		return
	}
	if !validRoles[req.Role] {
		i18n.RespondWithError(c, i18n.ErrorInvalidValue.WithParam("Field", "role"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	user := &database.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Password: string(hashed),
		Role:     req.Role,
		IsActive: true,
	}
	if err := h.db.CreateUser(c.Request.Context(), user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			i18n.RespondWithError(c, i18n.ErrorEmailExists)
			return
		}
		h.logger.Error("failed to create user", zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	if len(req.CompanyIDs) > 0 {
		if err := h.db.ReplaceUserCompanies(c.Request.Context(), user.ID, lol.UniqSlice(req.CompanyIDs)); err != nil {
			h.logger.Error("failed to assign companies", zap.Uint("user_id", user.ID), zap.Error(err))
			i18n.RespondWithError(c, i18n.ErrInternalServer)
			return
		}
		for _, id := range lol.UniqSlice(req.CompanyIDs) {
			user.Companies = append(user.Companies, database.Company{ID: id})
		}
	}

	h.logger.Info("user created", zap.Uint("user_id", user.ID), zap.String("role", user.Role))
	i18n.RespondCreated(c, i18n.SuccessUserCreated, nil, gin.H{
		"user": newUserInfo(user),
	})
}

// Get returns one employee.
func (h *User) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	user, err := h.db.GetUserByID(c.Request.Context(), id)
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrorUserNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user": newUserInfo(user),
	})
}

type updateUserRequest struct {
	Name       string  `json:"name"`
	Role       string  `json:"role"`
	IsActive   *bool   `json:"is_active"`
	Password   string  `json:"password"`
	CompanyIDs *[]uint `json:"company_ids"`
}

// Update modifies an employee's profile, role or status.
func (h *User) Update(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		i18n.RespondWithError(c, i18n.ErrBadRequest.WithParam("Reason", err.Error()))
		return
	}

	user, err := h.db.GetUserByID(c.Request.Context(), id)
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrorUserNotFound)
		return
	}

	if req.Name != "" {
		user.Name = strings.TrimSpace(req.Name)
	}
	if req.Role != "" {
		if !validRoles[req.Role] {
			i18n.RespondWithError(c, i18n.ErrorInvalidValue.WithParam("Field", "role"))
			return
		}
		user.Role = req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			i18n.RespondWithError(c, i18n.ErrInternalServer)
			return
		}
		user.Password = string(hashed)
	}

	if err := h.db.UpdateUser(c.Request.Context(), user); err != nil {
		h.logger.Error("failed to update user", zap.Uint("user_id", id), zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	if req.CompanyIDs != nil {
		ids := lol.UniqSlice(*req.CompanyIDs)
		if err := h.db.ReplaceUserCompanies(c.Request.Context(), user.ID, ids); err != nil {
			h.logger.Error("failed to reassign companies", zap.Uint("user_id", id), zap.Error(err))
			i18n.RespondWithError(c, i18n.ErrInternalServer)
			return
		}
		user.Companies = user.Companies[:0]
		for _, cid := range ids {
			user.Companies = append(user.Companies, database.Company{ID: cid})
		}
	}

	i18n.RespondOK(c, i18n.SuccessUserUpdated, nil, gin.H{
		"user": newUserInfo(user),
	})
}

// Delete removes an employee account.
func (h *User) Delete(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.db.DeleteUser(c.Request.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			i18n.RespondWithError(c, i18n.ErrorUserNotFound)
			return
		}
		h.logger.Error("failed to delete user", zap.Uint("user_id", id), zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	i18n.RespondOK(c, i18n.SuccessUserDeleted, nil, nil)
}
