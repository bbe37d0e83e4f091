package dtos

// ErrorResponse is the single error envelope of every endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}
