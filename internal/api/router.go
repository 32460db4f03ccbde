package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nmalik/paysplit/internal/auth"
)

// NewRouter builds the chi router. The get-by-link route is public: the
// link code itself is the capability. Everything else under /v1 requires
// a bearer token.
func NewRouter(h *Handler, jwtManager *auth.JWTManager) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Get("/group-payment/{code}", h.getPaymentByLink)

	r.Route("/v1", func(r chi.Router) {
		r.Use(RequireAuth(jwtManager))

		r.Route("/groups", func(r chi.Router) {
			r.Post("/", h.createGroup)
			r.Get("/", h.listGroups)
			r.Get("/{groupID}", h.getGroup)
			r.Put("/{groupID}", h.updateGroup)
			r.Delete("/{groupID}", h.deleteGroup)
			r.Get("/{groupID}/payments", h.listGroupPayments)
		})

		r.Route("/group-payments", func(r chi.Router) {
			r.Post("/", h.createGroupPayment)
		})

		r.Route("/quick-share", func(r chi.Router) {
			r.Post("/", h.createQuickShare)
			r.Post("/{code}/join", h.joinQuickShare)
		})

		r.Route("/requests", func(r chi.Router) {
			r.Post("/", h.createRequest)
			r.Get("/", h.listRequests)
			r.Post("/{requestID}/accept", h.acceptRequest)
			r.Post("/{requestID}/deny", h.denyRequest)
		})

		r.Route("/schedules", func(r chi.Router) {
			r.Post("/", h.createSchedule)
			r.Get("/", h.listSchedules)
			r.Get("/{scheduleID}", h.getSchedule)
			r.Post("/{scheduleID}/pause", h.pauseSchedule)
			r.Post("/{scheduleID}/resume", h.resumeSchedule)
			r.Post("/{scheduleID}/cancel", h.cancelSchedule)
			r.Delete("/{scheduleID}", h.deleteSchedule)
		})
	})

	return r
}
