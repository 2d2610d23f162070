package handler

// StatusResponse is the body for status and enable/disable endpoints.
type StatusResponse struct {
	Enabled bool   `json:"enabled"`
	Version int64  `json:"version"`
	Message string `json:"message"`
}

// ClearResponse is the body for the clear endpoint.
type ClearResponse struct {
	Version int64  `json:"version"`
	Cleared bool   `json:"cleared"`
	Message string `json:"message"`
}
