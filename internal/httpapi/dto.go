package httpapi

import docconv "github.com/ggondim/simple-service-doc-converter"

// convertJSON is the JSON request body for remote-fetch conversions.
type convertJSON struct {
	DownloadURL string `json:"downloadUrl"`
	From        string `json:"from"`
	To          string `json:"to"`
	UploadURL   string `json:"uploadUrl,omitempty"`
	Filename    string `json:"filename,omitempty"`
}

// errorResponse is the structured JSON error payload.
type errorResponse struct {
	Error       string               `json:"error"`
	Message     string               `json:"message"`
	Diagnostics *docconv.Diagnostics `json:"diagnostics,omitempty"`
}

// healthResponse reports service liveness and load.
type healthResponse struct {
	Status          string  `json:"status"`
	ActiveJobs      int64   `json:"active_jobs"`
	Capacity        int     `json:"capacity"`
	RequestsTotal   int64   `json:"requests_total"`
	ConversionsOK   int64   `json:"conversions_ok"`
	ConversionsFail int64   `json:"conversions_failed"`
	Uptime          string  `json:"uptime"`
	MemoryMB        float64 `json:"memory_mb"`
}
