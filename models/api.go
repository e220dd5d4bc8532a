package models

// APIResponse is the common envelope for API errors and status-only replies.
type APIResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// RecordResponse is the response for GET /api/v1/records/:id.
type RecordResponse struct {
	Success bool             `json:"success"`
	Record  *CanonicalRecord `json:"record,omitempty"`
	Error   *ErrorDetail     `json:"error,omitempty"`
}

// ReportResponse is the response for GET /api/v1/qa/report.
type ReportResponse struct {
	Success bool         `json:"success"`
	Report  *QAReport    `json:"report,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string `json:"status"` // "healthy" or "degraded"
	Uptime  string `json:"uptime"`
	Records int    `json:"records"`
	Version string `json:"version"`
}
