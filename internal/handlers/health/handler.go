package health

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"berth/infras/postgres"
	"berth/transport/http/response"
)

type Handler struct {
	db *postgres.Connection
}

func New(db *postgres.Connection) Handler {
	return Handler{
		db: db,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/health", func(routerGroup chi.Router) {
		routerGroup.Get("/", handler.HealthCheck)
	})
}

// HealthCheck reports whether the service can reach its database.
// @Summary Health check
// @Description Report service liveness and database connectivity.
// @Tags Health
// @Produce json
// @Success 200 {object} response.Message "Service healthy"
// @Failure 503 {object} response.Message "Service unhealthy"
// @Router /v1/health [get]
func (handler *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := handler.db.Read.PingContext(ctx); err != nil {
		log.Error().Err(err).Msg("read database unreachable")

		response.WithUnhealthy(w)

		return
	}

	if err := handler.db.Write.PingContext(ctx); err != nil {
		log.Error().Err(err).Msg("write database unreachable")

		response.WithUnhealthy(w)

		return
	}

	response.WithMessage(w, http.StatusOK, "OK")
}
