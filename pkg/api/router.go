package api

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/voxhall/callstream/internal/logger"
	"github.com/voxhall/callstream/pkg/api/handlers"
	"github.com/voxhall/callstream/pkg/metrics"
)

// NewRouter wires the middleware stack and every route. REST routes run
// under a 30s timeout; the WebSocket route stays outside it because upgraded
// connections are long-lived.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger,
		middleware.Recoverer,
	)

	callHandler := handlers.NewCallHandler(deps.Store, deps.Processor, deps.Metrics)
	healthHandler := handlers.NewHealthHandler(deps.Store)
	dashboardHandler := handlers.NewDashboardHandler(deps.Hub, deps.Metrics)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		r.Route("/v1", func(r chi.Router) {
			r.Post("/call/stream/{call_id}", callHandler.Stream)
			r.Get("/call/{call_id}/status", callHandler.Status)
			r.Post("/call/{call_id}/retry", callHandler.Retry)
			r.Get("/calls", callHandler.List)
		})

		r.Get("/health", healthHandler.Health)
		r.Get("/", handlers.NewBannerHandler(deps.Version))

		// Serves the exposition format when metrics are enabled, an empty
		// page otherwise.
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	})

	r.Get("/ws/dashboard", dashboardHandler.Dashboard)

	return r
}

// quietPaths complete at DEBUG; probes and scrapes would otherwise dominate
// the log.
var quietPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// requestLogger emits one line per served request, plus a DEBUG line on
// arrival. It also seeds the request's log fields (request_id, client_ip)
// so the *Ctx logging helpers pick them up anywhere down the chain.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		lc := logger.NewLogContext(clientHost(r.RemoteAddr)).
			WithRequestID(middleware.GetReqID(r.Context()))
		r = r.WithContext(logger.WithContext(r.Context(), lc))

		logger.DebugCtx(r.Context(), "Request received",
			slog.String(logger.KeyMethod, r.Method),
			slog.String(logger.KeyPath, r.URL.Path),
		)

		defer func() {
			logFn := logger.InfoCtx
			if quietPaths[r.URL.Path] {
				logFn = logger.DebugCtx
			}
			logFn(r.Context(), "Request served",
				slog.String(logger.KeyMethod, r.Method),
				slog.String(logger.KeyPath, r.URL.Path),
				slog.Int(logger.KeyStatus, ww.Status()),
				"bytes", ww.BytesWritten(),
				logger.DurationMs(lc.DurationMs()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// clientHost strips the port from a RemoteAddr. RealIP may already have
// replaced the address with a bare IP, which SplitHostPort rejects.
func clientHost(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
