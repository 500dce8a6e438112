package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inspectrack/inspectrack/internal/apiserver/database"
	"github.com/inspectrack/inspectrack/internal/apiserver/handler"
	"github.com/inspectrack/inspectrack/internal/apiserver/middleware"
	"github.com/inspectrack/inspectrack/internal/auth/jwt"
	"github.com/inspectrack/inspectrack/internal/common/config"
	"github.com/inspectrack/inspectrack/internal/i18n"
	"github.com/inspectrack/inspectrack/internal/mailer"
	"github.com/inspectrack/inspectrack/internal/notifier"
	"github.com/inspectrack/inspectrack/internal/quality"
	pkglogger "github.com/inspectrack/inspectrack/pkg/logger"
	"github.com/inspectrack/inspectrack/pkg/metrics"
	"github.com/inspectrack/inspectrack/pkg/version"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of apiserver",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("apiserver version %s\n", version.Get())
		},
	}

	rootCmd = &cobra.Command{
		Use:   "apiserver",
		Short: "Inspectrack API Server",
		Long:  `Inspectrack API Server provides the quality inspection backoffice and client portal APIs`,
		Run: func(cmd *cobra.Command, args []string) {
			run()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "conf", "configs/apiserver.yaml", "path to configuration file")
	rootCmd.AddCommand(versionCmd)
}

func run() {
	// Load configuration
	cfg, cfgPath, err := config.LoadConfig[config.APIServerConfig](configPath)
	if err != nil {
		fmt.Printf("Failed to load config from %s: %v\n", cfgPath, err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := pkglogger.NewLogger(&cfg.Logger)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	logger.Info("Starting apiserver",
		zap.String("version", version.Get()),
		zap.String("config", cfgPath))

	// Initialize i18n
	if err := i18n.InitTranslator(cfg.I18n.Path); err != nil {
		logger.Warn("Failed to load translations, falling back to message IDs",
			zap.String("path", cfg.I18n.Path),
			zap.Error(err))
	}

	// Initialize database
	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Initialize notifier
	ntf, err := notifier.NewNotifier(logger, &cfg.Notifier)
	if err != nil {
		logger.Fatal("Failed to initialize notifier", zap.Error(err))
	}
	defer ntf.Close()

	// Initialize JWT service
	jwtService, err := jwt.NewService(jwt.Config{
		SecretKey: cfg.JWT.SecretKey,
		Duration:  cfg.JWT.Duration,
	})
	if err != nil {
		logger.Fatal("Failed to initialize JWT service", zap.Error(err))
	}

	// Initialize mailer
	mail, err := mailer.NewMailer(logger, cfg.Portal, mailer.NewSenderFromConfig(logger, cfg.Portal))
	if err != nil {
		logger.Fatal("Failed to initialize mailer", zap.Error(err))
	}

	m := metrics.New(cfg.Metrics)
	thresholds := quality.ThresholdsFromConfig(cfg.Quality)
	pub := handler.NewPublisher(logger, ntf, m)

	authHandler := handler.NewAuth(db, jwtService, logger)
	companyHandler := handler.NewCompany(db, logger)
	userHandler := handler.NewUser(db, logger)
	inspHandler := handler.NewInspection(db, pub, thresholds, logger)
	dashHandler := handler.NewDashboard(db, thresholds, logger)
	realtimeHandler := handler.NewRealtime(ntf, m, logger)
	portalHandler := handler.NewPortal(db, jwtService, mail, cfg.Portal, thresholds, logger)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.LangMiddleware())
	r.Use(m.Middleware())

	r.GET("/metrics", gin.WrapH(m.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.Get()})
	})

	// Employee authentication
	r.POST("/api/auth/login", authHandler.Login)

	// Backoffice routes
	api := r.Group("/api", middleware.JWTAuthMiddleware(jwtService, db))
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

	// Client portal routes
	r.POST("/api/portal/request-link", portalHandler.RequestLink)
	r.POST("/api/portal/verify", portalHandler.Verify)

	portal := r.Group("/api/portal", middleware.PortalAuthMiddleware(jwtService, db))
	portal.POST("/logout", portalHandler.Logout)
	portal.GET("/dashboard", portalHandler.Dashboard)
	portal.GET("/inspections", portalHandler.Inspections)
	portal.GET("/inspections/:id", portalHandler.Inspection)
	portal.GET("/export", portalHandler.Export)
	portal.GET("/events", realtimeHandler.PortalEvents)

	port := cfg.Port
	if port == 0 {
		port = 5235
	}
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
	}

	go func() {
		logger.Info("Server starting", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
