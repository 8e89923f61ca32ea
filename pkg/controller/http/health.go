package http

import (
	"net/http"

	"github.com/m-mizutani/modsync/pkg/domain/model"
	"github.com/m-mizutani/modsync/pkg/domain/types"
)

// handleHealth reports liveness and the running version
func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, &model.HealthStatus{
		Status:  "healthy",
		Service: "modsync",
		Version: types.Version,
	})
}
