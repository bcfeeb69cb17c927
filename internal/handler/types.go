package handler

import "time"

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Store     string            `json:"store"`
	Captcha   string            `json:"captcha"`
	Metrics   map[string]string `json:"metrics,omitempty"`
}
