package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type (
	APIServerConfig struct {
		Port     int            `yaml:"port"`
		Database DatabaseConfig `yaml:"database"`
		Notifier NotifierConfig `yaml:"notifier"`
		Logger   LoggerConfig   `yaml:"logger"`
		Metrics  MetricsConfig  `yaml:"metrics"`
		JWT      JWTConfig      `yaml:"jwt"`
		I18n     I18nConfig     `yaml:"i18n"`
		Quality  QualityConfig  `yaml:"quality"`
		Portal   PortalConfig   `yaml:"portal"`
	}

	// I18nConfig represents the internationalization configuration
	I18nConfig struct {
		Path string `yaml:"path"` // Path to i18n translation files
	}

	DatabaseConfig struct {
		Type     string `yaml:"type"`     // mysql, postgres, sqlite
		Host     string `yaml:"host"`     // localhost
		Port     int    `yaml:"port"`     // 3306 (for mysql), 5432 (for postgres)
		User     string `yaml:"user"`     // root (for mysql), postgres (for postgres)
		Password string `yaml:"password"` // password
		DBName   string `yaml:"dbname"`   // database name, or file path for sqlite
		SSLMode  string `yaml:"sslmode"`  // disable (for postgres)
	}

	JWTConfig struct {
		SecretKey string        `yaml:"secret_key"`
		Duration  time.Duration `yaml:"duration"`
	}

	// QualityConfig overrides the default alerting thresholds.
	// Zero values fall back to the built-in defaults.
	QualityConfig struct {
		CriticalDefectRate float64 `yaml:"critical_defect_rate"`
		WarningDefectRate  float64 `yaml:"warning_defect_rate"`
		CriticalPPM        int     `yaml:"critical_ppm"`
		WarningPPM         int     `yaml:"warning_ppm"`
		LotAtRiskRate      float64 `yaml:"lot_at_risk_rate"`
	}

	// PortalConfig configures the client-company portal.
	PortalConfig struct {
		BaseURL       string        `yaml:"base_url"`       // public URL the magic link points at
		MagicLinkTTL  time.Duration `yaml:"magic_link_ttl"` // default 15m
		MailFrom      string        `yaml:"mail_from"`
		MailTemplates string        `yaml:"mail_templates"` // directory of mail templates
		SMTPAddr      string        `yaml:"smtp_addr"`      // host:port, empty logs mail instead
		SMTPUser      string        `yaml:"smtp_user"`
		SMTPPassword  string        `yaml:"smtp_password"`
	}
)

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	switch c.Type {
	case "postgres":
		return c.getPostgresDSN()
	case "mysql":
		return c.getMySQLDSN()
	case "sqlite":
		// Ensure the directory for the SQLite database exists.
		// If the directory cannot be created, it's a fatal error.
		if err := os.MkdirAll(filepath.Dir(c.DBName), 0755); err != nil {
			panic(fmt.Errorf("failed to create directory for sqlite database: %w", err))
		}
		return c.DBName // For SQLite, DBName is the file path
	default:
		return ""
	}
}

// getPostgresDSN returns PostgreSQL connection string
func (c *DatabaseConfig) getPostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// getMySQLDSN returns MySQL connection string
func (c *DatabaseConfig) getMySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}
