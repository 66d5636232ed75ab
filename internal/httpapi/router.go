package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/cory-johannsen/lotto/internal/observability"
)

// NewRouter wires every route and middleware.
//
// Precondition: all arguments are non-nil.
func NewRouter(h *Handlers, auth *OperatorAuth, limiter *RateLimiter, metrics *observability.Metrics, logger *zap.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(MetricsMiddleware(metrics), LoggingMiddleware(logger))

	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeData(w, "ok", nil)
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/results", h.GetResults).Methods(http.MethodGet)
	api.HandleFunc("/purchases", h.GetPurchases).Methods(http.MethodGet)
	api.HandleFunc("/check-winning", h.PostCheckWinning).Methods(http.MethodPost)

	limited := api.NewRoute().Subrouter()
	limited.Use(limiter.Handler)
	limited.HandleFunc("/purchase", h.PostPurchase).Methods(http.MethodPost)
	limited.HandleFunc("/predict", h.PostPredict).Methods(http.MethodPost)

	operator := api.NewRoute().Subrouter()
	operator.Use(auth.Handler)
	operator.HandleFunc("/results", h.PostResults).Methods(http.MethodPost)
	operator.HandleFunc("/winners", h.GetWinners).Methods(http.MethodGet)

	return r
}
