package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inspectrack/inspectrack/internal/apiserver/database"
	"github.com/inspectrack/inspectrack/internal/apiserver/middleware"
	"github.com/inspectrack/inspectrack/internal/auth/jwt"
	"github.com/inspectrack/inspectrack/internal/i18n"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Auth handles employee authentication.
type Auth struct {
	db         database.Database
	jwtService *jwt.Service
	logger     *zap.Logger
}

// NewAuth creates the authentication handler.
func NewAuth(db database.Database, jwtService *jwt.Service, logger *zap.Logger) *Auth {
	return &Auth{
		db:         db,
		jwtService: jwtService,
		logger:     logger.Named("apiserver.handler.auth"),
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type userInfo struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	CompanyIDs []uint `json:"company_ids"`
}

func newUserInfo(user *database.User) userInfo {
	return userInfo{
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email,
		Role:       user.Role,
		CompanyIDs: user.CompanyIDs(),
	}
}

// Login verifies employee credentials and issues a session token.
func (h *Auth) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		i18n.RespondWithError(c, i18n.ErrBadRequest.WithParam("Reason", err.Error()))
		return
	}

	user, err := h.db.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		h.logger.Warn("login with unknown email", zap.String("email", req.Email), zap.String("remote_addr", c.ClientIP()))
		i18n.RespondWithError(c, i18n.ErrorInvalidCredentials)
		return
	}

	if !user.IsActive {
		i18n.RespondWithError(c, i18n.ErrorUserDisabled)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		h.logger.Warn("login with wrong password", zap.Uint("user_id", user.ID), zap.String("remote_addr", c.ClientIP()))
		i18n.RespondWithError(c, i18n.ErrorInvalidCredentials)
		return
	}

	token, err := h.jwtService.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		h.logger.Error("failed to generate token", zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	if err := h.db.TouchLastLogin(c.Request.Context(), user.ID); err != nil {
		h.logger.Warn("failed to stamp last login", zap.Uint("user_id", user.ID), zap.Error(err))
	}

	h.logger.Info("employee logged in", zap.Uint("user_id", user.ID), zap.String("role", user.Role))
	i18n.RespondOK(c, i18n.SuccessLogin, nil, gin.H{
		"token": token,
		"user":  newUserInfo(user),
	})
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// ChangePassword updates the authenticated employee's password.
func (h *Auth) ChangePassword(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		i18n.RespondWithError(c, i18n.ErrUnauthorized)
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		i18n.RespondWithError(c, i18n.ErrBadRequest.WithParam("Reason", err.Error()))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		i18n.RespondWithError(c, i18n.ErrorInvalidCredentials)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	user.Password = string(hashed)
	if err := h.db.UpdateUser(c.Request.Context(), user); err != nil {
		h.logger.Error("failed to update password", zap.Uint("user_id", user.ID), zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	i18n.RespondOK(c, i18n.SuccessPasswordChanged, nil, nil)
}

// Me returns the authenticated employee's profile.
func (h *Auth) Me(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		i18n.RespondWithError(c, i18n.ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user": newUserInfo(user),
	})
}
