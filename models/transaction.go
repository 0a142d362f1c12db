package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Financial ledger entry types and the fixed miles categorization.
const (
	TxReceita = "receita"
	TxDespesa = "despesa"

	CategoryMilhas           = "Milhas"
	SubcategoryCompraDemanda = "Compra Sob Demanda"
)

// FinancialTransaction is a general receipts/expenses ledger entry,
// independent from the miles ledger. Append-only.
type FinancialTransaction struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Date        time.Time       `gorm:"index;not null"`
	Description string          `gorm:"size:512;not null"`
	Type        string          `gorm:"size:16;not null;index"` // receita | despesa
	Category    string          `gorm:"size:128;not null;index"`
	Subcategory string          `gorm:"size:128"`
	Value       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

// TableName keeps the historical table name.
func (FinancialTransaction) TableName() string { return "transactions" }
