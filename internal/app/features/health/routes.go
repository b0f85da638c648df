package health

import "github.com/go-chi/chi/v5"

// Routes mounts under /health. The bare path is the readiness probe.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeReady)
	r.Get("/live", h.ServeLive)
	return r
}
