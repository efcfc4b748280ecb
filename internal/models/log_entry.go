package models

// RequestInfo carries HTTP request context into log entries.
type RequestInfo struct {
	Method     string `json:"method"`
	Path       string `json:"path"`
	RemoteAddr string `json:"remote_addr"`
	UserAgent  string `json:"user_agent"`
}

// ErrorInfo carries structured error details into log entries.
type ErrorInfo struct {
	Message    string `json:"message"`
	Type       string `json:"type,omitempty"` // e.g. "store_error", "upstream_model_error"
	StatusCode int    `json:"status_code,omitempty"`
}
