package response

// ErrorResponse is the body of every rejected request
type ErrorResponse struct {
	Error string `json:"error"` // Human-readable reason
}

// MessageResponse is a bare acknowledgement
type MessageResponse struct {
	Message string `json:"message"`
}
