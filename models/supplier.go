package models

import "time"

// Supplier is a counterparty that sold miles or travel products. Names are
// unique after normalization (trim + lower) so free-text imports don't pile
// up near-duplicates.
type Supplier struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Name        string `gorm:"size:255;not null;uniqueIndex"`
	Contact     string `gorm:"size:255"`
	AccountType string `gorm:"size:64"`
}
