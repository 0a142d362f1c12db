package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MilesProgram is immutable reference data (Latam Pass, Smiles, ...).
type MilesProgram struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Name      string `gorm:"size:128;uniqueIndex;not null"`
}

// Batch statuses.
const (
	BatchStatusActive  = "active"
	BatchStatusRemoved = "removed"
)

// MilesBatch is one purchased lot of loyalty-program miles. RemainingQuantity
// is decremented as later consumption draws on the lot, never below zero and
// never above Quantity.
type MilesBatch struct {
	ID                uint `gorm:"primaryKey"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ProgramID         uint            `gorm:"index;not null"`
	Program           MilesProgram    `gorm:"foreignKey:ProgramID;references:ID"`
	SupplierID        *uint           `gorm:"index"`
	Supplier          *Supplier       `gorm:"foreignKey:SupplierID;references:ID"`
	Quantity          int64           `gorm:"not null"`
	RemainingQuantity int64           `gorm:"not null"`
	CostPerThousand   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PurchaseDate      time.Time       `gorm:"index;not null"`
	Status            string          `gorm:"size:32;not null;default:active;index"`
}

// TableName keeps the historical table name.
func (MilesBatch) TableName() string { return "miles_inventory" }

// Miles ledger event types.
const (
	MilesTxPurchase = "purchase"
	MilesTxUsage    = "usage"
)

// MilesTransaction is an append-only record of one event against a batch.
type MilesTransaction struct {
	ID              uint `gorm:"primaryKey"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
	BatchID         uint            `gorm:"index;not null"`
	Batch           MilesBatch      `gorm:"foreignKey:BatchID;references:ID"`
	Type            string          `gorm:"size:32;not null;index"`
	Quantity        int64           `gorm:"not null"`
	CostPerThousand decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalValue      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Description     string          `gorm:"size:512"`
}

func (MilesTransaction) TableName() string { return "miles_transactions" }
