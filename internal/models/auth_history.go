package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuthHistory is one medication authorization as submitted by the portal. The
// whole client payload lives in Data.
type AuthHistory struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PharmacyCode string         `gorm:"size:50;index:idx_history_pharmacy" json:"pharmacy_code"`
	Data         datatypes.JSON `gorm:"type:jsonb;not null" json:"data"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (AuthHistory) TableName() string {
	return "auth_history"
}

func NewAuthHistory(pharmacyCode string, data []byte) *AuthHistory {
	return &AuthHistory{
		ID:           uuid.New(),
		PharmacyCode: pharmacyCode,
		Data:         datatypes.JSON(data),
		CreatedAt:    time.Now(),
	}
}
