package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Canonical payment methods produced by normalization. Anything else is
// stored as typed by the user.
const (
	PaymentCartao  = "Cartão"
	PaymentPix     = "PIX"
	PaymentCliente = "Cliente"
	PaymentOutros  = "Outros"
)

// Sale is a client sale header; line items live in SaleProduct.
type Sale struct {
	ID            uint `gorm:"primaryKey"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ClientName    string            `gorm:"size:255;not null"`
	SaleDate      time.Time         `gorm:"index;not null"`
	PaymentMethod string            `gorm:"size:64"`
	SellerID      *uint             `gorm:"index"` // user who registered the sale
	TotalValue    decimal.Decimal   `gorm:"type:decimal(12,2);not null"`
	Products      []SaleProduct     `gorm:"foreignKey:SaleID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Installments  []SaleInstallment `gorm:"foreignKey:SaleID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// SaleProduct is one line item. Details is an open key/value bag for
// product-type specific fields (locator, ticket number, ...) serialized as
// JSON; keys are strings, values primitives.
type SaleProduct struct {
	ID           uint `gorm:"primaryKey"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	SaleID       uint            `gorm:"index;not null"`
	Type         string          `gorm:"size:64;not null"`
	Quantity     int             `gorm:"not null;default:1"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Cost         decimal.Decimal `gorm:"type:decimal(12,2)"`
	BoardingTax  decimal.Decimal `gorm:"type:decimal(12,2)"`
	GrossProfit  decimal.Decimal `gorm:"type:decimal(12,2)"`
	SupplierName string          `gorm:"size:255"`
	Origin       string          `gorm:"size:128"`
	Destination  string          `gorm:"size:128"`
	Details      map[string]any  `gorm:"serializer:json"`
}

// SaleInstallment is one scheduled payment of a sale.
type SaleInstallment struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	SaleID    uint            `gorm:"index;not null"`
	Number    int             `gorm:"not null"`
	DueDate   time.Time       `gorm:"not null"`
	Value     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Paid      bool            `gorm:"default:false"`
}
