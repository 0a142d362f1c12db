package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/interleads/travelagency-system-sub001/models"
	"github.com/interleads/travelagency-system-sub001/pkg/milhas"
)

func listSuppliersHandler(c *gin.Context) {
	var suppliers []models.Supplier
	if err := db.Order("name asc").Find(&suppliers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, suppliers)
}

func createSupplierHandler(c *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required"`
		Contact     string `json:"contact"`
		AccountType string `json:"account_type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sup, created, err := findOrCreateSupplier(req.Name, req.Contact, req.AccountType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create supplier"})
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, sup)
}

// findOrCreateSupplier looks a supplier up by normalized name (trim +
// case-fold) and creates it when absent, so near-miss spellings don't fork
// new counterparties.
func findOrCreateSupplier(name, contact, accountType string) (models.Supplier, bool, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return models.Supplier{}, false, fmt.Errorf("supplier name required")
	}
	var sup models.Supplier
	if err := db.Where("LOWER(name) = ?", strings.ToLower(name)).First(&sup).Error; err == nil {
		return sup, false, nil
	}
	sup = models.Supplier{Name: name, Contact: contact, AccountType: accountType}
	if err := db.Create(&sup).Error; err != nil {
		if isUniqueConstraintError(err) { // race: someone else created
			if err2 := db.Where("LOWER(name) = ?", strings.ToLower(name)).First(&sup).Error; err2 == nil {
				return sup, false, nil
			}
		}
		return models.Supplier{}, false, err
	}
	return sup, true, nil
}

func listProgramsHandler(c *gin.Context) {
	var programs []models.MilesProgram
	if err := db.Order("name asc").Find(&programs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, programs)
}

func listBatchesHandler(c *gin.Context) {
	q := db.Model(&models.MilesBatch{}).Preload("Program").Preload("Supplier")
	if pid := c.Query("programa_id"); pid != "" {
		q = q.Where("program_id = ?", pid)
	}
	var batches []models.MilesBatch
	if err := q.Order("purchase_date asc, id asc").Find(&batches).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, batches)
}

// deleteBatchHandler is the explicit administrative removal of a lot. Lots
// are retired via status, not erased, so their ledger history stays intact.
func deleteBatchHandler(c *gin.Context) {
	caller, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	// check the stored role, not the token claim, so a demotion takes
	// effect before the access token expires
	if !isAdministrador(caller) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	var batch models.MilesBatch
	if err := db.First(&batch, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if err := db.Model(&batch).Update("status", models.BatchStatusRemoved).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// activeBatchesFIFO loads the drawable batches of a program, oldest first.
func activeBatchesFIFO(programID string) ([]models.MilesBatch, error) {
	var batches []models.MilesBatch
	err := db.Where("program_id = ? AND status = ? AND remaining_quantity > 0", programID, models.BatchStatusActive).
		Order("purchase_date asc, id asc").
		Find(&batches).Error
	return batches, err
}

// milesStockHandler reports remaining quantity and the blended cost of the
// remaining stock per program.
func milesStockHandler(c *gin.Context) {
	var programs []models.MilesProgram
	if err := db.Order("name asc").Find(&programs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	type stock struct {
		ProgramID uint   `json:"programa_id"`
		Program   string `json:"programa"`
		Remaining int64  `json:"milhas_disponiveis"`
		AvgCost   string `json:"custo_medio_milheiro"`
	}
	out := make([]stock, 0, len(programs))
	for _, p := range programs {
		var batches []models.MilesBatch
		if err := db.Where("program_id = ? AND status = ?", p.ID, models.BatchStatusActive).Find(&batches).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
		var remaining int64
		totalCost := decimal.Zero
		for _, b := range batches {
			remaining += b.RemainingQuantity
			totalCost = totalCost.Add(milhas.PurchaseValue(b.RemainingQuantity, b.CostPerThousand))
		}
		avg := decimal.Zero
		if remaining > 0 {
			avg = totalCost.Mul(decimal.NewFromInt(1000)).Div(decimal.NewFromInt(remaining))
		}
		out = append(out, stock{ProgramID: p.ID, Program: p.Name, Remaining: remaining, AvgCost: avg.Round(2).String()})
	}
	c.JSON(http.StatusOK, out)
}

// milesCostPreviewHandler answers "what would Q miles cost today" without
// touching inventory. Insufficient stock is a valid answer, not an error.
func milesCostPreviewHandler(c *gin.Context) {
	programID := c.Query("programa_id")
	if programID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "programa_id is required"})
		return
	}
	var quantity int64
	if _, err := fmt.Sscan(c.Query("quantidade"), &quantity); err != nil || quantity <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantidade must be a positive integer"})
		return
	}
	records, err := activeBatchesFIFO(programID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	batches := make([]milhas.Batch, len(records))
	for i, b := range records {
		batches[i] = milhas.Batch{
			ID:                b.ID,
			RemainingQuantity: b.RemainingQuantity,
			CostPerThousand:   b.CostPerThousand,
			PurchaseDate:      b.PurchaseDate,
		}
	}
	alloc, ok, err := milhas.Allocate(batches, quantity)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{"disponivel": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"disponivel":           true,
		"custo_total":          alloc.TotalCost.Round(2),
		"custo_medio_milheiro": alloc.AverageCostPerThousand.Round(2),
		"lotes":                alloc.Legs,
	})
}

func listMilesTransactionsHandler(c *gin.Context) {
	q := db.Model(&models.MilesTransaction{}).Preload("Batch")
	if tp := c.Query("tipo"); tp != "" {
		q = q.Where("type = ?", tp)
	}
	var txs []models.MilesTransaction
	if err := q.Order("id desc").Limit(200).Find(&txs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, txs)
}

// createMilesPurchaseHandler persists a purchase as batch + miles-ledger +
// financial-ledger rows. Supplier resolution happens first (idempotent,
// shared reference data); the three dependent writes run in one transaction
// so they either all land or none do.
func createMilesPurchaseHandler(c *gin.Context) {
	var req struct {
		ProgramID       uint            `json:"programa_id" binding:"required"`
		SupplierID      *uint           `json:"fornecedor_id"`
		SupplierName    string          `json:"fornecedor_nome"`
		Quantity        int64           `json:"quantidade"`
		CostPerThousand decimal.Decimal `json:"custo_milheiro"`
		PurchaseDate    string          `json:"data_compra"` // ISO AAAA-MM-DD, optional
		Description     string          `json:"descricao"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Quantity <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantidade must be positive"})
		return
	}
	if !req.CostPerThousand.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "custo_milheiro must be positive"})
		return
	}
	var program models.MilesProgram
	if err := db.First(&program, req.ProgramID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "program not found"})
		return
	}

	supplierID := req.SupplierID
	if supplierID == nil && strings.TrimSpace(req.SupplierName) != "" {
		sup, _, err := findOrCreateSupplier(req.SupplierName, "", "milhas")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve supplier"})
			return
		}
		supplierID = &sup.ID
	}

	purchaseDate := time.Now()
	if req.PurchaseDate != "" {
		t, err := time.Parse("2006-01-02", req.PurchaseDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "data_compra must be AAAA-MM-DD"})
			return
		}
		purchaseDate = t
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = fmt.Sprintf("Compra de %d milhas %s", req.Quantity, program.Name)
	}

	value := milhas.PurchaseValue(req.Quantity, req.CostPerThousand)
	batch := models.MilesBatch{
		ProgramID:         program.ID,
		SupplierID:        supplierID,
		Quantity:          req.Quantity,
		RemainingQuantity: req.Quantity,
		CostPerThousand:   req.CostPerThousand,
		PurchaseDate:      purchaseDate,
		Status:            models.BatchStatusActive,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&batch).Error; err != nil {
			return err
		}
		ledger := models.MilesTransaction{
			BatchID:         batch.ID,
			Type:            models.MilesTxPurchase,
			Quantity:        req.Quantity,
			CostPerThousand: req.CostPerThousand,
			TotalValue:      value,
			Description:     description,
		}
		if err := tx.Create(&ledger).Error; err != nil {
			return err
		}
		financial := models.FinancialTransaction{
			Date:        purchaseDate,
			Description: description,
			Type:        models.TxDespesa,
			Category:    models.CategoryMilhas,
			Subcategory: models.SubcategoryCompraDemanda,
			Value:       value,
		}
		return tx.Create(&financial).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "purchase failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"lote": batch, "valor_compra": value.Round(2)})
}
