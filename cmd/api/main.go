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

	"github.com/rs/zerolog/log"

	"github.com/MrJamesThe3rd/invoiceflow/internal/billing"
	billingStore "github.com/MrJamesThe3rd/invoiceflow/internal/billing/store"
	"github.com/MrJamesThe3rd/invoiceflow/internal/config"
	"github.com/MrJamesThe3rd/invoiceflow/internal/database"
	apiHttp "github.com/MrJamesThe3rd/invoiceflow/internal/http"
	authHandler "github.com/MrJamesThe3rd/invoiceflow/internal/http/auth"
	dataHandler "github.com/MrJamesThe3rd/invoiceflow/internal/http/data"
	importHandler "github.com/MrJamesThe3rd/invoiceflow/internal/http/importcsv"
	invoiceHandler "github.com/MrJamesThe3rd/invoiceflow/internal/http/invoice"
	"github.com/MrJamesThe3rd/invoiceflow/internal/importer"
	"github.com/MrJamesThe3rd/invoiceflow/internal/invoicing"
	"github.com/MrJamesThe3rd/invoiceflow/internal/logger"
	"github.com/MrJamesThe3rd/invoiceflow/internal/oauth"
	"github.com/MrJamesThe3rd/invoiceflow/internal/pdf"
	"github.com/MrJamesThe3rd/invoiceflow/internal/session"
	"github.com/MrJamesThe3rd/invoiceflow/internal/user"
	userStore "github.com/MrJamesThe3rd/invoiceflow/internal/user/store"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("api stopped")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	appLog, err := logger.Setup(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, cfg.ConnectionString()); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	db, err := database.New(ctx, cfg.ConnectionString())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	var converter pdf.Converter = pdf.NewMaroto()
	if cfg.PDF.Converter == "chrome" {
		converter = pdf.NewChrome(pdf.ChromeConfig{
			Binary:  cfg.PDF.ChromePath,
			Timeout: cfg.PDF.Timeout,
		}, logger.WithComponent("pdf"))
	}

	sessions := session.NewManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL, cfg.App.Name)
	google := oauth.NewGoogle(oauth.GoogleConfig{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL(),
	})

	var (
		billingService   = billing.NewService(billingStore.New(db), logger.WithComponent("billing"))
		userService      = user.NewService(userStore.New(db), user.NewLoginLimiter(cfg.Auth.LoginPerMinute, cfg.Auth.LoginBurst), logger.WithComponent("user"))
		invoicingService = invoicing.NewService(billingService, converter, logger.WithComponent("invoicing"))
		importService    = importer.NewService(billingService, logger.WithComponent("importer"))
	)

	httpLog := logger.WithComponent("http")

	var (
		authH = authHandler.NewHandler(userService, sessions, google, authHandler.Config{
			CookieName:   cfg.Auth.CookieName,
			SecureCookie: cfg.Auth.SecureCookie,
			SuccessURL:   cfg.Google.SuccessURL,
			FailureURL:   cfg.Google.FailureURL,
		}, httpLog)
		dataH    = dataHandler.NewHandler(billingService, httpLog)
		invoiceH = invoiceHandler.NewHandler(invoicingService, httpLog)
		importH  = importHandler.NewHandler(importService, httpLog)
	)

	router := apiHttp.New(apiHttp.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		CookieName:     cfg.Auth.CookieName,
		Sessions:       sessions,
		Log:            httpLog,
	}, authH, dataH, invoiceH, importH)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		// PDF conversion may take up to its own timeout.
		WriteTimeout: cfg.Server.Timeout + cfg.PDF.Timeout,
		IdleTimeout:  2 * time.Minute,
	}

	errCh := make(chan error, 1)

	go func() {
		appLog.Info().Str("addr", srv.Addr).Str("pdf_converter", cfg.PDF.Converter).Msg("starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}

		return nil
	case <-ctx.Done():
	}

	appLog.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
