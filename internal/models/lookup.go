package models

// Pharmacy is an entry of the pharmacy directory.
type Pharmacy struct {
	Code string `gorm:"primaryKey;size:50" json:"code"`
	Name string `gorm:"size:255;not null" json:"name"`
}

func (Pharmacy) TableName() string {
	return "pharmacies"
}

// Medication is an entry of the medication catalogue.
type Medication struct {
	Code string `gorm:"primaryKey;size:50" json:"code"`
	Name string `gorm:"size:255;not null" json:"name"`
}

func (Medication) TableName() string {
	return "medications"
}
