package repositories

import (
	"context"
	"pbm-portal/internal/constants"
	"pbm-portal/internal/models"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// HistoryContext is an authorization joined with its pharmacy name, as fed to
// the FAQ assistant.
type HistoryContext struct {
	CreatedAt    time.Time      `gorm:"column:created_at"`
	PharmacyCode string         `gorm:"column:pharmacy_code"`
	PharmacyName *string        `gorm:"column:pharmacy_name"`
	Data         datatypes.JSON `gorm:"column:data"`
}

type HistoryRepository interface {
	// List returns the newest entries, of every pharmacy when pharmacyCode is
	// empty or the all-pharmacies code.
	List(ctx context.Context, pharmacyCode string, limit int) ([]models.AuthHistory, error)
	Create(ctx context.Context, entry *models.AuthHistory) error
	// Void merges status and message into the stored payload. It reports
	// whether a row matched.
	Void(ctx context.Context, id uuid.UUID, status, message string) (bool, error)
	RecentWithPharmacy(ctx context.Context, pharmacyCode string, limit int) ([]HistoryContext, error)
}

type historyRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) List(ctx context.Context, pharmacyCode string, limit int) ([]models.AuthHistory, error) {
	var entries []models.AuthHistory
	query := r.db.WithContext(ctx).
		Select("id", "data", "created_at").
		Order("created_at DESC").
		Limit(limit)
	if pharmacyCode != "" && pharmacyCode != constants.AllPharmaciesCode {
		query = query.Where("pharmacy_code = ?", pharmacyCode)
	}
	err := query.Find(&entries).Error
	return entries, err
}

func (r *historyRepository) Create(ctx context.Context, entry *models.AuthHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *historyRepository) Void(ctx context.Context, id uuid.UUID, status, message string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.AuthHistory{}).
		Where("id = ?", id).
		Update("data", gorm.Expr("data || jsonb_build_object('status', ?::text, 'message', ?::text)", status, message))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *historyRepository) RecentWithPharmacy(ctx context.Context, pharmacyCode string, limit int) ([]HistoryContext, error) {
	var rows []HistoryContext
	query := r.db.WithContext(ctx).
		Table("auth_history AS h").
		Select("h.created_at, h.pharmacy_code, p.name AS pharmacy_name, h.data").
		Joins("LEFT JOIN pharmacies p ON h.pharmacy_code = p.code").
		Order("h.created_at DESC").
		Limit(limit)
	if pharmacyCode != constants.AllPharmaciesCode {
		query = query.Where("h.pharmacy_code = ?", pharmacyCode)
	}
	err := query.Scan(&rows).Error
	return rows, err
}
