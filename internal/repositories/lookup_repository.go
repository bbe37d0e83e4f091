package repositories

import (
	"context"
	"pbm-portal/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LookupRepository searches and maintains the pharmacy directory and the
// medication catalogue.
type LookupRepository interface {
	SearchPharmacies(ctx context.Context, term string, limit int) ([]models.Pharmacy, error)
	SearchMedications(ctx context.Context, term string, limit int) ([]models.Medication, error)
	UpsertPharmacies(ctx context.Context, pharmacies []models.Pharmacy) error
	UpsertMedications(ctx context.Context, medications []models.Medication) error
}

type lookupRepository struct {
	db *gorm.DB
}

func NewLookupRepository(db *gorm.DB) LookupRepository {
	return &lookupRepository{db: db}
}

func (r *lookupRepository) SearchPharmacies(ctx context.Context, term string, limit int) ([]models.Pharmacy, error) {
	var pharmacies []models.Pharmacy
	err := r.search(ctx, term, limit).Find(&pharmacies).Error
	return pharmacies, err
}

func (r *lookupRepository) SearchMedications(ctx context.Context, term string, limit int) ([]models.Medication, error) {
	var medications []models.Medication
	err := r.search(ctx, term, limit).Find(&medications).Error
	return medications, err
}

func (r *lookupRepository) search(ctx context.Context, term string, limit int) *gorm.DB {
	query := r.db.WithContext(ctx).Limit(limit)
	if term != "" {
		pattern := "%" + term + "%"
		query = query.Where("name ILIKE ? OR code ILIKE ?", pattern, pattern)
	}
	return query
}

func (r *lookupRepository) UpsertPharmacies(ctx context.Context, pharmacies []models.Pharmacy) error {
	if len(pharmacies) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(upsertName()).Create(&pharmacies).Error
}

func (r *lookupRepository) UpsertMedications(ctx context.Context, medications []models.Medication) error {
	if len(medications) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(upsertName()).Create(&medications).Error
}

func upsertName() clause.OnConflict {
	return clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name"}),
	}
}
