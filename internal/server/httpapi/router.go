// Package httpapi is the backend's REST surface: upload authorization, the
// asset store, reference data and the record store.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrijs2005/gophstore/internal/api"
	"github.com/dmitrijs2005/gophstore/internal/catalog"
	"github.com/dmitrijs2005/gophstore/internal/logging"
	"github.com/dmitrijs2005/gophstore/internal/server/metrics"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/products"
	"github.com/dmitrijs2005/gophstore/internal/server/storage"
)

// Issuer mints and consumes upload credentials.
type Issuer interface {
	Issue() (catalog.Credential, error)
	Verify(cred catalog.Credential) error
}

// Store persists asset bytes.
type Store interface {
	Put(ctx context.Context, r storage.PutRequest) (storage.Object, error)
}

type Handler struct {
	issuer        Issuer
	store         Store
	records       products.Repository
	metrics       *metrics.Metrics
	logger        logging.Logger
	maxUploadSize int64
}

func NewHandler(issuer Issuer, store Store, records products.Repository, m *metrics.Metrics, l logging.Logger, maxUploadSize int64) *Handler {
	return &Handler{
		issuer:        issuer,
		store:         store,
		records:       records,
		metrics:       m,
		logger:        l.With("module", "http_api"),
		maxUploadSize: maxUploadSize,
	}
}

// Routes builds the chi router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)

	r.Get(api.UploadAuthPath, h.uploadAuth)
	r.Post(api.UploadPath, h.upload)
	r.Get(api.CategoriesPath, h.categories)
	r.Get(api.CollectionsPath, h.collections)
	r.Post(api.ProductsPath, h.createProduct)
	r.Method(http.MethodGet, api.MetricsPath, h.metrics.Handler())

	return r
}

// logRequests logs each request and records its latency by route pattern.
func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			h.metrics.ObserveRequest(r.Method, route, status, time.Since(start))
			if route != api.MetricsPath {
				h.logger.Info(r.Context(), "http_request",
					"request_id", middleware.GetReqID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"status", status,
					"duration", time.Since(start),
				)
			}
		}()
		next.ServeHTTP(ww, r)
	})
}
