package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/MrJamesThe3rd/invoiceflow/internal/http/auth"
	"github.com/MrJamesThe3rd/invoiceflow/internal/http/data"
	"github.com/MrJamesThe3rd/invoiceflow/internal/http/importcsv"
	"github.com/MrJamesThe3rd/invoiceflow/internal/http/invoice"
	apimw "github.com/MrJamesThe3rd/invoiceflow/internal/http/middleware"
	"github.com/MrJamesThe3rd/invoiceflow/internal/session"
)

type Options struct {
	AllowedOrigins []string
	CookieName     string
	Sessions       *session.Manager
	Log            zerolog.Logger
}

func New(
	opts Options,
	authV1 *auth.Handler,
	dataV1 *data.Handler,
	invoiceV1 *invoice.Handler,
	importV1 *importcsv.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(apimw.RequestLogger(opts.Log))
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Invoice-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticate := apimw.Authenticate(opts.Sessions, opts.CookieName, opts.Log)

	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Route("/auth", func(r chi.Router) {
		authV1.Routes(r)
		r.With(authenticate).Get("/me", authV1.Me)
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(authenticate)

		r.Route("/data", func(r chi.Router) {
			r.Route("/recipients/import", importV1.Routes)

			r.Group(func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				dataV1.Routes(r)
			})
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			invoiceV1.Routes(r)
		})

		r.With(middleware.AllowContentType("application/json")).Post("/generate-pdf", invoiceV1.GeneratePDF)
	})

	return router
}
