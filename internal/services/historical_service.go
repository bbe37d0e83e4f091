package services

import (
	"context"
	"errors"
	"math"
	"net/http"
	"pbm-portal/internal/apis/dtos"
	"pbm-portal/internal/constants"
	"pbm-portal/internal/repositories"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

type HistoricalService interface {
	Query(ctx context.Context, params *dtos.HistoricalQueryParams) (*dtos.HistoricalQueryResponse, uint32, error)
}

type historicalService struct {
	claimsRepo        repositories.ClaimsRepository
	exposeStoreErrors bool
}

func NewHistoricalService(claimsRepo repositories.ClaimsRepository, exposeStoreErrors bool) HistoricalService {
	return &historicalService{claimsRepo: claimsRepo, exposeStoreErrors: exposeStoreErrors}
}

func (s *historicalService) Query(ctx context.Context, params *dtos.HistoricalQueryParams) (*dtos.HistoricalQueryResponse, uint32, error) {
	filter := ParseClaimsFilter(params)
	page := filter.Offset/filter.Limit + 1

	rows, total, err := s.claimsRepo.List(ctx, filter)
	if err != nil {
		log.Error().Str("component", "historical").Err(err).Msg("Query failed")
		if s.exposeStoreErrors {
			return nil, http.StatusInternalServerError, err
		}
		return nil, http.StatusInternalServerError, errors.New("Internal Server Error")
	}
	if rows == nil {
		rows = []map[string]interface{}{}
	}

	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	return &dtos.HistoricalQueryResponse{
		Data: rows,
		Pagination: dtos.Pagination{
			Total:      total,
			Page:       page,
			Limit:      filter.Limit,
			TotalPages: totalPages,
		},
	}, http.StatusOK, nil
}

// ParseClaimsFilter applies defaults and the sort allowlist to raw query
// parameters. Unparseable or non-positive numbers fall back to the defaults
// and the page is capped so the offset fits in a 32-bit integer.
func ParseClaimsFilter(params *dtos.HistoricalQueryParams) repositories.ClaimsFilter {
	page := positiveInt(params.Page, 1)
	limit := positiveInt(params.Limit, constants.HistoricalDefaultLimit)
	if limit > constants.HistoricalMaxLimit {
		limit = constants.HistoricalMaxLimit
	}
	// Keep the OFFSET within a Postgres integer.
	if maxPage := math.MaxInt32/limit + 1; page > maxPage {
		page = maxPage
	}

	sortField := constants.HistoricalDefaultSort
	for _, field := range constants.HistoricalSortFields {
		if params.SortField == field {
			sortField = field
			break
		}
	}
	sortOrder := constants.HistoricalDefaultOrder
	if strings.EqualFold(params.SortOrder, "ASC") {
		sortOrder = "ASC"
	}

	return repositories.ClaimsFilter{
		Search:    strings.TrimSpace(params.Search),
		Cedula:    strings.TrimSpace(params.Cedula),
		SortField: sortField,
		SortOrder: sortOrder,
		Limit:     limit,
		Offset:    (page - 1) * limit,
	}
}

func positiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
