package dtos

import (
	"pbm-portal/pkg/dbmanager"
	"pbm-portal/pkg/llm"
)

type PingResponse struct {
	Message string `json:"message"`
	Time    string `json:"time"`
}

type DiagnoseResponse struct {
	Status      string                     `json:"status"`
	Message     string                     `json:"message"`
	DBTime      interface{}                `json:"dbTime,omitempty"`
	RowCount    int64                      `json:"rowCount"`
	Connections []dbmanager.ConnectionInfo `json:"connections"`
	Models      map[string]llm.ModelInfo   `json:"models,omitempty"`
	Env         map[string]bool            `json:"env"`
	Error       string                     `json:"error,omitempty"`
}

type EnvCheckResponse struct {
	Variables   map[string]bool `json:"variables"`
	Environment string          `json:"environment"`
}
