package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"InvoiceFlow"`
		Port int    `envconfig:"PORT" default:"8080"`
		// PublicURL is where browsers reach the API; used for OAuth redirects.
		PublicURL string `envconfig:"PUBLIC_URL" default:"http://localhost:8080"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"invoiceflow"`
	}

	Server struct {
		Timeout        time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		AllowedOrigins []string      `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173"`
	}

	Log struct {
		Level  string `envconfig:"LOG_LEVEL" default:"info"`
		Format string `envconfig:"LOG_FORMAT" default:"console"`
	}

	Auth struct {
		JWTSecret      string        `envconfig:"AUTH_JWT_SECRET"`
		SessionTTL     time.Duration `envconfig:"AUTH_SESSION_TTL" default:"168h"`
		CookieName     string        `envconfig:"AUTH_COOKIE_NAME" default:"iflow_session"`
		SecureCookie   bool          `envconfig:"AUTH_SECURE_COOKIE" default:"false"`
		LoginPerMinute float64       `envconfig:"AUTH_LOGIN_PER_MINUTE" default:"10"`
		LoginBurst     int           `envconfig:"AUTH_LOGIN_BURST" default:"5"`
	}

	Google struct {
		ClientID     string `envconfig:"GOOGLE_CLIENT_ID"`
		ClientSecret string `envconfig:"GOOGLE_CLIENT_SECRET"`
		SuccessURL   string `envconfig:"GOOGLE_SUCCESS_URL" default:"http://localhost:5173/"`
		FailureURL   string `envconfig:"GOOGLE_FAILURE_URL" default:"http://localhost:5173/login?error=google"`
	}

	PDF struct {
		// Converter is "maroto" (in-process) or "chrome" (headless browser).
		Converter  string        `envconfig:"PDF_CONVERTER" default:"maroto"`
		ChromePath string        `envconfig:"PDF_CHROME_PATH" default:"chromium"`
		Timeout    time.Duration `envconfig:"PDF_TIMEOUT" default:"30s"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

// GoogleRedirectURL is the OAuth callback registered with Google.
func (c *Config) GoogleRedirectURL() string {
	return c.App.PublicURL + "/auth/google/callback"
}

// Validate checks settings the API server cannot start without.
func (c *Config) Validate() error {
	var errs []error

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("AUTH_JWT_SECRET is required"))
	}

	switch c.PDF.Converter {
	case "maroto", "chrome":
	default:
		errs = append(errs, fmt.Errorf("PDF_CONVERTER must be maroto or chrome, got %q", c.PDF.Converter))
	}

	return errors.Join(errs...)
}

// CLI is the iflow client configuration.
type CLI struct {
	APIURL string `envconfig:"IFLOW_API_URL" default:"http://localhost:8080"`
	// SessionFile defaults to $HOME/.iflow/session when empty.
	SessionFile string `envconfig:"IFLOW_SESSION"`
	OutDir      string `envconfig:"IFLOW_OUT" default:"."`
	LogLevel    string `envconfig:"IFLOW_LOG_LEVEL" default:"warn"`
}

// LoadCLI reads .env when present, then the IFLOW_* environment.
func LoadCLI() (*CLI, error) {
	_ = godotenv.Load()

	var cfg CLI
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
