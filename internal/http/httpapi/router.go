package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"weaver/internal/http/handlers"
	"weaver/internal/infra"
	"weaver/internal/middleware"
)

func NewRouter(app *handlers.App, cfg *infra.Config, logger infra.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(logger),
		middleware.CORS(cfg.AllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/catalog", func(r chi.Router) {
		r.Get("/styles", app.CatalogStyles)
		r.Get("/starters", app.CatalogStarters)
	})

	r.Route("/v1/sessions", func(r chi.Router) {
		r.Post("/", app.SessionCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", app.SessionGet)
			r.Post("/reset", app.SessionReset)
			r.Post("/subject", app.SubjectUpload)
			r.Post("/prompt", app.PromptSet)
			r.Post("/prompt/surprise", app.PromptSurprise)
			r.Post("/prompt/style", app.PromptStyle)
			r.Post("/generate", app.Generate)
			r.Post("/variations/{index}/regenerate", app.Regenerate)
			r.Get("/variations/{index}/download", app.ExportOne)
			r.Get("/export", app.ExportAll)
			r.Post("/preview", app.PreviewOpen)
			r.Delete("/preview", app.PreviewClose)
			r.Post("/chat", app.ChatSend)
			r.Get("/chat", app.ChatHistory)
		})
	})

	return r
}
