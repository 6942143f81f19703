package http

import (
	"net/http"

	"github.com/m-mizutani/cupnotifier/pkg/domain/model"
	"github.com/m-mizutani/cupnotifier/pkg/domain/types"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, &model.HealthStatus{
		Status:  "healthy",
		Service: types.ServiceName,
		Version: types.Version,
	})
}
