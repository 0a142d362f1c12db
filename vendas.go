package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/interleads/travelagency-system-sub001/models"
	"github.com/interleads/travelagency-system-sub001/pkg/csvimport"
)

type saleProductInput struct {
	Type         string          `json:"tipo" binding:"required"`
	Quantity     int             `json:"quantidade"`
	UnitPrice    decimal.Decimal `json:"valor_unitario"`
	Cost         decimal.Decimal `json:"custo"`
	BoardingTax  decimal.Decimal `json:"taxa_embarque"`
	SupplierName string          `json:"fornecedor"`
	Route        string          `json:"trecho"`
	Details      map[string]any  `json:"detalhes"`
}

type saleInstallmentInput struct {
	DueDate string          `json:"vencimento" binding:"required"` // AAAA-MM-DD
	Value   decimal.Decimal `json:"valor"`
}

// createSaleHandler registers a sale with its line items (and optional
// installments) atomically.
func createSaleHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req struct {
		Client        string                 `json:"cliente" binding:"required"`
		SaleDate      string                 `json:"data_venda"` // AAAA-MM-DD, optional
		PaymentMethod string                 `json:"forma_pagamento"`
		Products      []saleProductInput     `json:"produtos" binding:"required,min=1"`
		Installments  []saleInstallmentInput `json:"parcelas"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saleDate := time.Now()
	if req.SaleDate != "" {
		t, err := time.Parse("2006-01-02", req.SaleDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "data_venda must be AAAA-MM-DD"})
			return
		}
		saleDate = t
	}

	sellerID := user.ID
	sale := models.Sale{
		ClientName:    req.Client,
		SaleDate:      saleDate,
		PaymentMethod: csvimport.NormalizePaymentMethod(req.PaymentMethod),
		SellerID:      &sellerID,
	}
	total := decimal.Zero
	for _, p := range req.Products {
		qty := p.Quantity
		if qty <= 0 {
			qty = 1
		}
		lineValue := p.UnitPrice.Mul(decimal.NewFromInt(int64(qty)))
		if !lineValue.IsPositive() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "valor_unitario must be positive"})
			return
		}
		origin, destination := csvimport.SplitRoute(p.Route)
		total = total.Add(lineValue)
		sale.Products = append(sale.Products, models.SaleProduct{
			Type:         p.Type,
			Quantity:     qty,
			UnitPrice:    p.UnitPrice,
			Cost:         p.Cost,
			BoardingTax:  p.BoardingTax,
			GrossProfit:  lineValue.Sub(p.Cost.Add(p.BoardingTax)),
			SupplierName: p.SupplierName,
			Origin:       origin,
			Destination:  destination,
			Details:      p.Details,
		})
	}
	sale.TotalValue = total
	for i, inst := range req.Installments {
		due, err := time.Parse("2006-01-02", inst.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "vencimento must be AAAA-MM-DD"})
			return
		}
		sale.Installments = append(sale.Installments, models.SaleInstallment{
			Number:  i + 1,
			DueDate: due,
			Value:   inst.Value,
		})
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&sale).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, sale)
}

func listSalesHandler(c *gin.Context) {
	q := db.Model(&models.Sale{}).Preload("Products").Preload("Installments")
	if cliente := c.Query("cliente"); cliente != "" {
		q = q.Where("client_name ILIKE ?", "%"+cliente+"%")
	}
	var sales []models.Sale
	if err := q.Order("id desc").Limit(200).Find(&sales).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, sales)
}

// importSalesHandler ingests the legacy sales CSV export. Rows fail
// independently; the response reports successes, per-line errors and the
// number of suppliers created along the way.
func importSalesHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file missing"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot open file"})
		return
	}
	defer f.Close()

	sellerID := user.ID
	imp := csvimport.New(db)
	imp.SellerID = &sellerID
	lastLogged := -1
	imp.OnProgress = func(percent int) {
		if percent/10 > lastLogged/10 {
			log.Printf("import %s: %d%%", file.Filename, percent)
			lastLogged = percent
		}
	}
	report, err := imp.Run(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}
