package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/trame/internal/trame/store"
	"github.com/aussiebroadwan/trame/pkg/httpx"
)

type ReadyzResponse struct {
	Status   string `json:"status"`
	Uptime   string `json:"uptime"`
	Version  string `json:"version"`
	Database string `json:"database"`
}

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe endpoint checking database connectivity alongside
//	@Description	uptime and version
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	ReadyzResponse	"status, uptime, version, database"
//	@Failure		503	{object}	ReadyzResponse	"status, uptime, version, database - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(startTime time.Time, version string, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		database := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			database = "error: " + err.Error()
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, statusCode, ReadyzResponse{
			Status:   status,
			Uptime:   time.Since(startTime).String(),
			Version:  version,
			Database: database,
		})
	}
}
