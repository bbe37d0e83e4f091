package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"pbm-portal/internal/apis/dtos"
	"pbm-portal/internal/constants"
	"pbm-portal/internal/models"
	"pbm-portal/internal/repositories"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type HistoryService interface {
	// List returns the stored payloads with id and timestamp taken from the row.
	List(ctx context.Context, pharmacyCode string) ([]map[string]interface{}, uint32, error)
	// Create stores the raw authorization body, which must carry a pharmacy.
	Create(ctx context.Context, body []byte) (*dtos.CreateHistoryResponse, uint32, error)
	Void(ctx context.Context, req *dtos.VoidHistoryRequest) (*dtos.SuccessResponse, uint32, error)
}

type historyService struct {
	historyRepo repositories.HistoryRepository
}

func NewHistoryService(historyRepo repositories.HistoryRepository) HistoryService {
	return &historyService{historyRepo: historyRepo}
}

func (s *historyService) List(ctx context.Context, pharmacyCode string) ([]map[string]interface{}, uint32, error) {
	entries, err := s.historyRepo.List(ctx, strings.TrimSpace(pharmacyCode), constants.HistoryListLimit)
	if err != nil {
		log.Error().Str("component", "history").Err(err).Msg("List failed")
		return nil, http.StatusInternalServerError, errors.New("Internal Server Error")
	}

	items := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		item := map[string]interface{}{}
		if len(entry.Data) > 0 {
			if err := json.Unmarshal(entry.Data, &item); err != nil {
				log.Warn().Str("component", "history").Str("id", entry.ID.String()).Err(err).Msg("List -> stored data is not an object")
				item = map[string]interface{}{}
			}
		}
		item["id"] = entry.ID.String()
		item["timestamp"] = entry.CreatedAt
		items = append(items, item)
	}
	return items, http.StatusOK, nil
}

type historyPayload struct {
	Pharmacy *struct {
		Code string `json:"code"`
	} `json:"pharmacy"`
}

func (s *historyService) Create(ctx context.Context, body []byte) (*dtos.CreateHistoryResponse, uint32, error) {
	var payload historyPayload
	if err := json.Unmarshal(body, &payload); err != nil || payload.Pharmacy == nil {
		return nil, http.StatusBadRequest, errors.New("Invalid data")
	}

	code := strings.TrimSpace(payload.Pharmacy.Code)
	if code == "" {
		code = constants.UnknownPharmacy
	}

	entry := models.NewAuthHistory(code, body)
	if err := s.historyRepo.Create(ctx, entry); err != nil {
		log.Error().Str("component", "history").Err(err).Msg("Create failed")
		return nil, http.StatusInternalServerError, errors.New("Internal Server Error")
	}
	log.Info().Str("component", "history").Str("id", entry.ID.String()).Str("pharmacy", code).Msg("authorization stored")
	return &dtos.CreateHistoryResponse{ID: entry.ID.String()}, http.StatusCreated, nil
}

func (s *historyService) Void(ctx context.Context, req *dtos.VoidHistoryRequest) (*dtos.SuccessResponse, uint32, error) {
	if strings.TrimSpace(req.ID) == "" || strings.TrimSpace(req.Reason) == "" {
		return nil, http.StatusBadRequest, errors.New("Missing id or reason")
	}
	id, err := uuid.Parse(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, http.StatusBadRequest, errors.New("Invalid id")
	}

	status := req.Status
	if status == "" {
		status = constants.AuthStatusVoided
	}
	found, err := s.historyRepo.Void(ctx, id, status, constants.VoidMessagePrefix+req.Reason)
	if err != nil {
		log.Error().Str("component", "history").Err(err).Msg("Void failed")
		return nil, http.StatusInternalServerError, errors.New("Internal Server Error")
	}
	if !found {
		return nil, http.StatusNotFound, errors.New("Authorization not found")
	}
	return &dtos.SuccessResponse{Success: true}, http.StatusOK, nil
}
