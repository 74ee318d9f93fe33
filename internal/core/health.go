package core

import "net/http"

// healthResponse is the JSON response body for the health check endpoint.
type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// HandleHealth reports liveness. The service holds no connections to
// probe, so a running process is a healthy one.
//
// This endpoint is public and is mounted at GET /health.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	version := "dev"
	if s.Config != nil && s.Config.Build.Version != "" {
		version = s.Config.Build.Version
	}

	JSON(w, r, http.StatusOK, healthResponse{Status: "healthy", Version: version})
}
