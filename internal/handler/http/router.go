package http

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"github.com/kestrelhq/leave-backend-go/internal/handler/http/middleware"
)

func NewRouter(tokenAuth *jwtauth.JWTAuth, appEnv string, leaveHandler LeaveHandler) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "leave-backend"),
		slog.String("version", "v1.0.0"),
		slog.String("env", appEnv),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(tokenAuth))
			r.Use(jwtauth.Authenticator(tokenAuth))

			r.Route("/leave", func(r chi.Router) {

				r.Route("/types", func(r chi.Router) {
					r.Get("/", leaveHandler.ListTypes)
					r.Get("/{id}", leaveHandler.GetType)

					// HR/admin only
					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireRole("hr", "admin"))
						r.Post("/", leaveHandler.CreateType)
						r.Put("/{id}", leaveHandler.UpdateType)
						r.Delete("/{id}", leaveHandler.DeleteType)
					})
				})

				r.Route("/settings", func(r chi.Router) {
					r.Get("/", leaveHandler.GetSettings)
					r.With(middleware.RequireRole("hr", "admin")).Put("/", leaveHandler.UpdateSettings)
				})

				r.Route("/balances", func(r chi.Router) {
					r.Get("/my", leaveHandler.GetMyBalances)

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireRole("hr", "admin"))
						r.Get("/", leaveHandler.ListBalances)
						r.Post("/adjust", leaveHandler.AdjustBalance)
					})
				})

				r.Route("/requests", func(r chi.Router) {
					r.Post("/", leaveHandler.CreateApplication)
					r.Get("/my", leaveHandler.GetMyApplications)
					r.Get("/{id}", leaveHandler.GetApplication)
					r.Get("/{id}/history", leaveHandler.ApprovalHistory)
					r.Post("/{id}/cancel", leaveHandler.CancelApplication)

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireRole("supervisor", "hr", "ceo", "admin"))
						r.Get("/", leaveHandler.ListApplications)
						r.Post("/{id}/approve", leaveHandler.ApproveApplication)
						r.Post("/{id}/reject", leaveHandler.RejectApplication)
					})
				})

				r.Route("/recalls", func(r chi.Router) {
					r.With(middleware.RequireRole("supervisor", "hr", "ceo", "admin")).
						Post("/", leaveHandler.CreateRecall)
					r.Post("/{id}/respond", leaveHandler.RespondRecall)
					r.Delete("/{id}", leaveHandler.CancelRecall)
				})

				r.Get("/encashment/quote", leaveHandler.QuoteEncashment)
			})
		})
	})
	return r
}
