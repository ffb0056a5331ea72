package handler

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/db-assistant/internal/api/response"
	"github.com/Rrens/db-assistant/internal/database"
)

// HealthCheck returns a simple health check response
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{
		"status": "ok",
	})
}

// ReadyCheck reports whether a session can be opened against the target database
func ReadyCheck(connector database.Connector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := database.Ping(r.Context(), connector); err != nil {
			log.Warn().Err(err).Msg("readiness check failed")
			response.Error(w, http.StatusServiceUnavailable, "database not ready")
			return
		}

		response.OK(w, map[string]string{
			"status": "ready",
		})
	}
}
