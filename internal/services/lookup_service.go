package services

import (
	"context"
	"errors"
	"net/http"
	"pbm-portal/internal/constants"
	"pbm-portal/internal/models"
	"pbm-portal/internal/repositories"
	"strings"

	"github.com/rs/zerolog/log"
)

type LookupService interface {
	SearchPharmacies(ctx context.Context, term string) ([]models.Pharmacy, uint32, error)
	SearchMedications(ctx context.Context, term string) ([]models.Medication, uint32, error)
}

type lookupService struct {
	lookupRepo repositories.LookupRepository
}

func NewLookupService(lookupRepo repositories.LookupRepository) LookupService {
	return &lookupService{lookupRepo: lookupRepo}
}

func (s *lookupService) SearchPharmacies(ctx context.Context, term string) ([]models.Pharmacy, uint32, error) {
	pharmacies, err := s.lookupRepo.SearchPharmacies(ctx, strings.TrimSpace(term), constants.LookupSearchLimit)
	if err != nil {
		log.Error().Str("component", "lookup").Err(err).Msg("SearchPharmacies failed")
		return nil, http.StatusInternalServerError, errors.New("Internal Server Error")
	}
	if pharmacies == nil {
		pharmacies = []models.Pharmacy{}
	}
	return pharmacies, http.StatusOK, nil
}

func (s *lookupService) SearchMedications(ctx context.Context, term string) ([]models.Medication, uint32, error) {
	medications, err := s.lookupRepo.SearchMedications(ctx, strings.TrimSpace(term), constants.LookupSearchLimit)
	if err != nil {
		log.Error().Str("component", "lookup").Err(err).Msg("SearchMedications failed")
		return nil, http.StatusInternalServerError, errors.New("Internal Server Error")
	}
	if medications == nil {
		medications = []models.Medication{}
	}
	return medications, http.StatusOK, nil
}
