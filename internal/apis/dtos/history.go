package dtos

type CreateHistoryResponse struct {
	ID string `json:"id"`
}

type VoidHistoryRequest struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
	Status string `json:"status"`
}
