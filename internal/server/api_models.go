package server

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status       string `json:"status" example:"ok"`
	LiveSessions int    `json:"liveSessions" example:"2"`
}
