package chi

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/lspl/gradereco/internal/metrics"
)

//go:embed static
var staticFiles embed.FS

// RouterConfig configures NewRouter.
type RouterConfig struct {
	APIKeys []string
	Logger  *zap.Logger
}

// NewRouter mounts the server's handlers with the standard middleware stack.
func NewRouter(s *Server, cfg RouterConfig) http.Handler {
	assets, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic("static assets: " + err.Error())
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEvent(cfg.Logger))
	r.Use(JSONRecoverer(cfg.Logger))
	r.Use(CORS())
	r.Use(BearerAuthMiddleware(cfg.APIKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeValidationFailed, "method not allowed")
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFileFS(w, r, assets, "index.html")
	})
	r.Handle(staticPrefix+"*", http.StripPrefix(staticPrefix, http.FileServerFS(assets)))

	r.Route("/api", func(r chi.Router) {
		r.Post("/recommend", s.Recommend)
		r.Get("/tickets", s.ListTickets)
		r.Post("/tickets", s.CreateTicket)
		r.Get("/tools", s.ListTools)
		r.Post("/tools/{name}", s.CallTool)
	})

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	return r
}
