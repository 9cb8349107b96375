package handlers

import (
	"net/http"
	"time"

	"github.com/deepgram/taskboard/pkg/httpext"
)

type HealthResponse struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}

func HandleHealth(w http.ResponseWriter, r *http.Request) {
	httpext.JSON(w, http.StatusOK, HealthResponse{
		Status: "healthy",
		Time:   time.Now().UTC(),
	})
}
