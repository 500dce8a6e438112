package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inspectrack/inspectrack/internal/apiserver/database"
	"github.com/inspectrack/inspectrack/internal/apiserver/middleware"
	"github.com/inspectrack/inspectrack/internal/auth/jwt"
	"github.com/inspectrack/inspectrack/internal/common/config"
	"github.com/inspectrack/inspectrack/internal/i18n"
	"github.com/inspectrack/inspectrack/internal/mailer"
	"github.com/inspectrack/inspectrack/internal/quality"
	"github.com/inspectrack/inspectrack/internal/tenant"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// defaultMagicLinkTTL applies when the portal config leaves the TTL
// unset.
const defaultMagicLinkTTL = 15 * time.Minute

// Portal handles the client-company portal: passwordless login and the
// read-only quality views.
type Portal struct {
	db         database.Database
	jwtService *jwt.Service
	mail       *mailer.Mailer
	cfg        config.PortalConfig
	thresholds quality.Thresholds
	logger     *zap.Logger
}

// NewPortal creates the portal handler.
func NewPortal(db database.Database, jwtService *jwt.Service, mail *mailer.Mailer, cfg config.PortalConfig, thresholds quality.Thresholds, logger *zap.Logger) *Portal {
	return &Portal{
		db:         db,
		jwtService: jwtService,
		mail:       mail,
		cfg:        cfg,
		thresholds: thresholds,
		logger:     logger.Named("apiserver.handler.portal"),
	}
}

type requestLinkRequest struct {
	CompanyCode string `json:"company_code"`
	Email       string `json:"email" binding:"required,email"`
}

// splitList parses a comma, semicolon or newline separated allow list.
func splitList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n' || r == '\r'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if v := strings.ToLower(strings.TrimSpace(f)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// emailAllowed reports whether the email may enter the company portal:
// the registered contact, an allow-listed address, or an allow-listed
// domain.
func emailAllowed(company *database.Company, email string) bool {
	if company.ContactEmail != "" && company.ContactEmail == email {
		return true
	}
	for _, allowed := range splitList(company.AllowedEmails) {
		if allowed == email {
			return true
		}
	}
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	domain := email[at+1:]
	for _, allowed := range splitList(company.AllowedDomains) {
		if strings.TrimPrefix(allowed, "@") == domain {
			return true
		}
	}
	return false
}

// resolveCompany finds the company an access request belongs to. With
// a code the match is direct; without one the email is tried against
// every active company's contact, allow list and domain list, in that
// order.
func (h *Portal) resolveCompany(c *gin.Context, code, email string) *database.Company {
	// Resolution needs cross-tenant visibility; the caller has no scope yet.
	ctx := tenant.WithScope(c.Request.Context(), tenant.AllCompanies())

	if code != "" {
		company, err := h.db.GetCompanyByCode(ctx, code)
		if err != nil {
			return nil
		}
		return company
	}

	companies, err := h.db.ListCompanies(ctx)
	if err != nil {
		h.logger.Error("failed to list companies for portal resolution", zap.Error(err))
		return nil
	}
	for _, match := range []func(*database.Company) bool{
		func(co *database.Company) bool { return co.ContactEmail == email },
		func(co *database.Company) bool {
			for _, a := range splitList(co.AllowedEmails) {
				if a == email {
					return true
				}
			}
			return false
		},
		func(co *database.Company) bool { return emailAllowed(co, email) },
	} {
		for _, co := range companies {
			if co.Status == database.CompanyActive && match(co) {
				return co
			}
		}
	}
	return nil
}

// RequestLink starts the passwordless login flow. Every rejection is
// the same generic error so callers cannot probe which companies or
// addresses exist.
func (h *Portal) RequestLink(c *gin.Context) {
	var req requestLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		i18n.RespondWithError(c, i18n.ErrorPortalAccessDenied)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	company := h.resolveCompany(c, strings.TrimSpace(req.CompanyCode), email)
	if company == nil || company.Status != database.CompanyActive || !emailAllowed(company, email) {
		h.logger.Warn("portal access request rejected",
			zap.String("email", email),
			zap.String("remote_addr", c.ClientIP()))
		i18n.RespondWithError(c, i18n.ErrorPortalAccessDenied)
		return
	}

	ttl := h.cfg.MagicLinkTTL
	if ttl <= 0 {
		ttl = defaultMagicLinkTTL
	}

	token, jti, err := h.jwtService.GenerateMagicLinkToken(company.ID, email, ttl)
	if err != nil {
		h.logger.Error("failed to issue magic link token", zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	ctx := tenant.WithScope(c.Request.Context(), tenant.Company(company.ID))
	link := &database.MagicLink{
		CompanyID: company.ID,
		Email:     email,
		JTI:       jti,
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := h.db.CreateMagicLink(ctx, link); err != nil {
		h.logger.Error("failed to persist magic link", zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	// The viewer identity appears on the first accepted request
	if _, err := h.db.FindOrCreateViewer(ctx, company.ID, email); err != nil {
		h.logger.Error("failed to register portal viewer", zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	if err := h.mail.SendMagicLink(c.Request.Context(), email, mailer.MagicLinkData{
		CompanyName: company.Name,
		Email:       email,
		Link:        h.cfg.BaseURL + "?token=" + token,
		ExpiresIn:   ttl,
	}); err != nil {
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	h.logger.Info("magic link issued", zap.Uint("company_id", company.ID))
	i18n.RespondOK(c, i18n.SuccessPortalLinkSent, nil, nil)
}

type verifyRequest struct {
	Token string `json:"token" binding:"required"`
}

// Verify consumes a magic link and exchanges it for a portal session
// token. A link works exactly once.
func (h *Portal) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		i18n.RespondWithError(c, i18n.ErrorPortalAccessDenied)
		return
	}

	claims, err := h.jwtService.ValidatePortalToken(req.Token)
	if err != nil {
		if errors.Is(err, jwt.ErrExpiredToken) {
			i18n.RespondWithError(c, i18n.ErrorPortalLinkExpired)
			return
		}
		i18n.RespondWithError(c, i18n.ErrorPortalAccessDenied)
		return
	}
	if claims.ID == "" {
		// A session token is not a login link
		i18n.RespondWithError(c, i18n.ErrorPortalAccessDenied)
		return
	}

	ctx := tenant.WithScope(c.Request.Context(), tenant.Company(claims.CompanyID))
	if err := h.db.ConsumeMagicLink(ctx, claims.ID); err != nil {
		switch {
		case errors.Is(err, database.ErrMagicLinkConsumed):
			i18n.RespondWithError(c, i18n.ErrorPortalLinkConsumed)
		case errors.Is(err, gorm.ErrRecordNotFound):
			i18n.RespondWithError(c, i18n.ErrorPortalAccessDenied)
		default:
			h.logger.Error("failed to consume magic link", zap.Error(err))
			i18n.RespondWithError(c, i18n.ErrInternalServer)
		}
		return
	}

	company, err := h.db.GetCompanyByID(ctx, claims.CompanyID)
	if err != nil || company.Status != database.CompanyActive {
		i18n.RespondWithError(c, i18n.ErrorPortalCompanyClosed)
		return
	}

	session, err := h.jwtService.GeneratePortalToken(company.ID, claims.Email)
	if err != nil {
		h.logger.Error("failed to issue portal session", zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	if err := h.db.TouchViewerLogin(ctx, company.ID, claims.Email); err != nil {
		h.logger.Warn("failed to stamp viewer login", zap.Uint("company_id", company.ID), zap.Error(err))
	}

	h.logger.Info("portal viewer logged in", zap.Uint("company_id", company.ID))
	i18n.RespondOK(c, i18n.SuccessPortalLogin, nil, gin.H{
		"token":   session,
		"company": companyHeader(company),
	})
}

// companyHeader is the public company payload portal pages render.
func companyHeader(company *database.Company) gin.H {
	return gin.H{
		"id":            company.ID,
		"name":          company.Name,
		"code":          company.Code,
		"allow_exports": company.AllowExports,
	}
}

// Logout ends a portal session. Sessions are stateless, the endpoint
// exists so clients have an explicit place to drop their token.
func (h *Portal) Logout(c *gin.Context) {
	i18n.RespondOK(c, i18n.SuccessLogout, nil, nil)
}

// Dashboard returns the viewer company's quality summary.
func (h *Portal) Dashboard(c *gin.Context) {
	company, ok := middleware.GetPortalCompany(c)
	if !ok {
		i18n.RespondWithError(c, i18n.ErrUnauthorized)
		return
	}

	payload, err := buildDashboard(c.Request.Context(), h.db, h.thresholds, time.Now())
	if err != nil {
		h.logger.Error("failed to build portal dashboard", zap.Uint("company_id", company.ID), zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	recent, err := h.db.RecentInspections(c.Request.Context(), 20)
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	i18n.RespondOK(c, i18n.SuccessPortalDashboard, nil, gin.H{
		"company":   companyHeader(company),
		"dashboard": payload,
		"recent":    recent,
	})
}

// Inspections lists the viewer company's inspections.
func (h *Portal) Inspections(c *gin.Context) {
	filter := filterFromQuery(c)
	inspections, total, err := h.db.ListInspections(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list portal inspections", zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inspections": inspections, "total": total})
}

// Inspection returns one of the viewer company's inspections.
func (h *Portal) Inspection(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	insp, err := h.db.GetInspectionByID(c.Request.Context(), id)
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrorInspectionNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inspection": insp})
}

// Export streams the company's inspections as CSV when exports are
// enabled for it.
func (h *Portal) Export(c *gin.Context) {
	company, ok := middleware.GetPortalCompany(c)
	if !ok {
		i18n.RespondWithError(c, i18n.ErrUnauthorized)
		return
	}
	if !company.AllowExports {
		i18n.RespondWithError(c, i18n.ErrForbidden)
		return
	}

	filter := filterFromQuery(c)
	filter.PageSize = exportPageSize
	writeInspectionsCSV(c, h.logger, func(page int) ([]*database.Inspection, error) {
		filter.Page = page
		inspections, _, err := h.db.ListInspections(c.Request.Context(), filter)
		return inspections, err
	})
}
