package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inspectrack/inspectrack/internal/apiserver/database"
	"github.com/inspectrack/inspectrack/internal/apiserver/middleware"
	"github.com/inspectrack/inspectrack/internal/auth/jwt"
	"github.com/inspectrack/inspectrack/internal/common/config"
	"github.com/inspectrack/inspectrack/internal/mailer"
	"github.com/inspectrack/inspectrack/internal/notifier"
	"github.com/inspectrack/inspectrack/internal/quality"
	"github.com/inspectrack/inspectrack/internal/tenant"
	"github.com/inspectrack/inspectrack/pkg/metrics"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// captureSender keeps sent mail in memory for assertions.
type captureSender struct {
	mu   sync.Mutex
	sent []*mailer.Message
}

func (s *captureSender) Send(_ context.Context, msg *mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

func (s *captureSender) last(t *testing.T) *mailer.Message {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.sent, "no mail was sent")
	return s.sent[len(s.sent)-1]
}

type testEnv struct {
	db       database.Database
	jwt      *jwt.Service
	ntf      *notifier.MemoryNotifier
	pub      *Publisher
	mail     *captureSender
	router   *gin.Engine
	adminCtx context.Context
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.NewDatabase(&config.DatabaseConfig{Type: "sqlite", DBName: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	jwtSvc, err := jwt.NewService(jwt.Config{
		SecretKey: "0123456789abcdef0123456789abcdef",
		Duration:  time.Hour,
	})
	require.NoError(t, err)

	ntf := notifier.NewMemoryNotifier(zap.NewNop(), config.RoleBoth)
	m := metrics.New(config.MetricsConfig{})
	pub := NewPublisher(zap.NewNop(), ntf, m)
	thresholds := quality.DefaultThresholds()
	logger := zap.NewNop()

	tmplDir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(tmplDir, "magic_link.tmpl"),
		[]byte("Hola, entra aqui: {{ .Link }}\n"), 0o600))
	portalCfg := config.PortalConfig{
		BaseURL:       "https://portal.test/acceso",
		MagicLinkTTL:  15 * time.Minute,
		MailFrom:      "calidad@inspectrack.test",
		MailTemplates: tmplDir,
	}
	sender := &captureSender{}
	mail, err := mailer.NewMailer(logger, portalCfg, sender)
	require.NoError(t, err)

	authHandler := NewAuth(db, jwtSvc, logger)
	companyHandler := NewCompany(db, logger)
	userHandler := NewUser(db, logger)
	inspHandler := NewInspection(db, pub, thresholds, logger)
	dashHandler := NewDashboard(db, thresholds, logger)
	realtimeHandler := NewRealtime(ntf, m, logger)
	portalHandler := NewPortal(db, jwtSvc, mail, portalCfg, thresholds, logger)

	r := gin.New()
	r.Use(middleware.LangMiddleware())
	r.POST("/api/auth/login", authHandler.Login)
	r.POST("/api/portal/request-link", portalHandler.RequestLink)
	r.POST("/api/portal/verify", portalHandler.Verify)

	portal := r.Group("/api/portal", middleware.PortalAuthMiddleware(jwtSvc, db))
	portal.POST("/logout", portalHandler.Logout)
	portal.GET("/dashboard", portalHandler.Dashboard)
	portal.GET("/inspections", portalHandler.Inspections)
	portal.GET("/inspections/:id", portalHandler.Inspection)
	portal.GET("/export", portalHandler.Export)
	portal.GET("/events", realtimeHandler.PortalEvents)

	api := r.Group("/api", middleware.JWTAuthMiddleware(jwtSvc, db))
	api.GET("/auth/me", authHandler.Me)
	api.POST("/auth/change-password", authHandler.ChangePassword)
	api.GET("/companies", companyHandler.List)
	api.POST("/companies", companyHandler.Create)
	api.GET("/companies/:id", companyHandler.Get)
	api.PUT("/companies/:id", companyHandler.Update)
	api.DELETE("/companies/:id", companyHandler.Delete)
	api.GET("/users", userHandler.List)
	api.POST("/users", userHandler.Create)
	api.GET("/users/:id", userHandler.Get)
	api.PUT("/users/:id", userHandler.Update)
	api.DELETE("/users/:id", userHandler.Delete)
	api.GET("/defect-tags", companyHandler.ListDefectTags)
	api.POST("/defect-tags", companyHandler.CreateDefectTag)
	api.GET("/inspections", inspHandler.List)
	api.POST("/inspections", inspHandler.Create)
	api.GET("/inspections/export", inspHandler.Export)
	api.GET("/inspections/:id", inspHandler.Get)
	api.PUT("/inspections/:id", inspHandler.Update)
	api.DELETE("/inspections/:id", inspHandler.Delete)
	api.POST("/inspections/:id/start", inspHandler.Start)
	api.POST("/inspections/:id/complete", inspHandler.Complete)
	api.POST("/inspections/:id/items", inspHandler.AddItem)
	api.PUT("/items/:id", inspHandler.UpdateItem)
	api.DELETE("/items/:id", inspHandler.DeleteItem)
	api.GET("/dashboard", dashHandler.Get)
	api.GET("/events/companies/:id", realtimeHandler.CompanyEvents)

	return &testEnv{
		db:       db,
		jwt:      jwtSvc,
		ntf:      ntf,
		pub:      pub,
		mail:     sender,
		router:   r,
		adminCtx: tenant.WithScope(context.Background(), tenant.AllCompanies()),
	}
}

func (e *testEnv) seedUser(t *testing.T, name, email, role, password string, companies ...*database.Company) *database.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &database.User{Name: name, Email: email, Password: string(hashed), Role: role, IsActive: true}
	require.NoError(t, e.db.CreateUser(e.adminCtx, user))
	if len(companies) > 0 {
		ids := make([]uint, 0, len(companies))
		for _, co := range companies {
			ids = append(ids, co.ID)
		}
		require.NoError(t, e.db.ReplaceUserCompanies(e.adminCtx, user.ID, ids))
	}
	return user
}

func (e *testEnv) seedCompany(t *testing.T, name, code string) *database.Company {
	t.Helper()
	company := &database.Company{Name: name, Code: code, Status: database.CompanyActive, AllowExports: true}
	require.NoError(t, e.db.CreateCompany(e.adminCtx, company))
	return company
}

func (e *testEnv) token(t *testing.T, user *database.User) string {
	t.Helper()
	token, err := e.jwt.GenerateToken(user.ID, user.Email, user.Role)
	require.NoError(t, err)
	return token
}

func (e *testEnv) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func mustStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equalf(t, want, w.Code, "unexpected status, body: %s", w.Body.String())
}
