package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(app *App) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/ping", PingHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/gallery", app.GalleryHandler)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", app.OpenSessionHandler)

			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", app.SessionStateHandler)
				r.Delete("/", app.CloseSessionHandler)

				r.Get("/overlay.png", app.OverlayHandler)

				r.Post("/tool", app.SetToolHandler)
				r.Post("/class", app.SetClassHandler)
				r.Post("/zoom", app.ZoomHandler)
				r.Delete("/boxes/{index}", app.DeleteBoxHandler)

				r.Post("/save", app.SaveHandler)
				r.Post("/approve", app.ApproveHandler)
				r.Post("/reject", app.RejectHandler)
				r.Post("/edit-approved", app.EditApprovedHandler)

				r.Post("/layers/{layerID}/toggle", app.ToggleLayerHandler)
				r.Post("/layers/{layerID}/deprecate", app.DeprecateHandler)

				r.Post("/previews", app.UploadPreviewHandler)
				r.Get("/previews/{handle}", app.PreviewHandler)
				r.Delete("/previews/{handle}", app.ReleasePreviewHandler)
			})
		})
	})

	r.Get("/ws/gallery", app.GallerySocketHandler)
	r.Get("/ws/sessions/{sessionID}", app.SessionSocketHandler)

	return r
}
