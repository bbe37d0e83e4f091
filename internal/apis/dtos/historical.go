package dtos

type HistoricalQueryParams struct {
	Page      string `form:"page"`
	Limit     string `form:"limit"`
	SortField string `form:"sortField"`
	SortOrder string `form:"sortOrder"`
	Search    string `form:"search"`
	Cedula    string `form:"cedula"`
}

type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

type HistoricalQueryResponse struct {
	Data       []map[string]interface{} `json:"data"`
	Pagination Pagination               `json:"pagination"`
}
