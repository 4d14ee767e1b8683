package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"flyerflix/internal/http/handlers"
	"flyerflix/internal/middleware"
)

// Options carries the router-level settings that do not belong on the
// handler App.
type Options struct {
	AllowedOrigins  []string
	RateLimitPerMin int
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup

	// StaticAvatarDir, when set, is served under /static/avatars for the
	// filesystem avatar store. Empty when S3 is configured.
	StaticAvatarDir string
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimiddleware.RealIP,
		chimiddleware.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(opts.AllowedOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)
	if opts.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
	}

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/auth", func(r chi.Router) {
		r.Post("/google", app.AuthGoogleVerify)
		r.Post("/register", app.Register)
		r.Post("/login", app.Login)
		r.With(middleware.AuthJWT(app.JWTSecret)).Post("/signout", app.SignOut)
	})

	r.Route("/v1/templates", func(r chi.Router) {
		r.Get("/", app.ListTemplates)
		r.Get("/{id}", app.GetTemplate)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthJWT(app.JWTSecret))
			r.Post("/{id}/view", app.RecordTemplateView)
			r.Post("/{id}/favorite", app.ToggleFavorite)
			r.Post("/{id}/download", app.DownloadTemplate)
		})
	})

	r.Route("/v1/me", func(r chi.Router) {
		r.Use(middleware.AuthJWT(app.JWTSecret))
		r.Get("/", app.Me)
		r.Patch("/", app.UpdateProfile)
		r.Post("/avatar", app.UploadAvatar)
		r.Get("/favorites", app.MyFavorites)
		r.Get("/downloads", app.MyDownloads)
		r.Get("/history", app.MyHistory)
		r.Get("/downloads/export", app.ExportMyData)
	})

	r.Route("/v1/recommendations", func(r chi.Router) {
		r.Use(middleware.AuthJWT(app.JWTSecret))
		r.Get("/also-like", app.AlsoLike)
		r.Get("/personalized", app.Personalized)
	})

	r.Route("/v1/billing", func(r chi.Router) {
		r.Post("/webhook", app.BillingWebhook)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthJWT(app.JWTSecret))
			r.Post("/checkout", app.CreateCheckout)
			r.Get("/subscription", app.MySubscription)
			r.Delete("/subscription", app.CancelSubscription)
		})
	})

	r.Route("/v1/admin", func(r chi.Router) {
		r.Use(middleware.AuthJWT(app.JWTSecret), middleware.RequireAdmin)
		r.Get("/stats", app.StatsSummary)
		r.Get("/users", app.ListUsers)
		r.Put("/users/{id}/plan", app.SetUserPlan)
		r.Post("/templates", app.UpsertTemplate)
		r.Delete("/templates/{id}", app.DeleteTemplate)
	})

	if opts.StaticAvatarDir != "" {
		fs := http.StripPrefix("/static/avatars/", http.FileServer(http.Dir(opts.StaticAvatarDir)))
		r.Get("/static/avatars/*", fs.ServeHTTP)
	}

	return r
}
