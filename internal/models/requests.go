package models

// ClaudeRequest defines the structure for the /claude request body.
type ClaudeRequest struct {
	Prompt      string `json:"prompt"`
	ProjectPath string `json:"project_path,omitempty"`
	// Model is accepted for compatibility with existing callers; it is not passed to the CLI.
	Model string `json:"model,omitempty"`
}

// ClaudeResponse defines the structure for the /claude response body.
type ClaudeResponse struct {
	Success bool   `json:"success"`
	Output  string `json:"output"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse is returned by the liveness endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is returned when a request body cannot be accepted.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
