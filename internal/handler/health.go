package handler

import "net/http"

// healthResponse is fixed at startup — liveness only, no dependency checks.
type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HandleHealth answers liveness probes.
//
// HTTP: GET /health
//
// This deliberately does NOT touch the database: a liveness probe asks "is
// the process serving requests", not "are the dependencies happy". Wiring
// dependency checks into liveness gets servers restarted because a disk
// hiccuped.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Message: "Server is running",
	})
}
