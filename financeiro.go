package main

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/interleads/travelagency-system-sub001/models"
)

func createTransactionHandler(c *gin.Context) {
	var req struct {
		Date        string          `json:"data" binding:"required"` // AAAA-MM-DD
		Description string          `json:"descricao" binding:"required"`
		Type        string          `json:"tipo" binding:"required"`
		Category    string          `json:"categoria" binding:"required"`
		Subcategory string          `json:"subcategoria"`
		Value       decimal.Decimal `json:"valor"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Type != models.TxReceita && req.Type != models.TxDespesa {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tipo must be receita or despesa"})
		return
	}
	if !req.Value.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "valor must be positive"})
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "data must be AAAA-MM-DD"})
		return
	}
	tx := models.FinancialTransaction{
		Date:        date,
		Description: req.Description,
		Type:        req.Type,
		Category:    req.Category,
		Subcategory: req.Subcategory,
		Value:       req.Value,
	}
	if err := db.Create(&tx).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, tx)
}

func listTransactionsHandler(c *gin.Context) {
	q := db.Model(&models.FinancialTransaction{})
	if tp := c.Query("tipo"); tp != "" {
		q = q.Where("type = ?", tp)
	}
	if cat := c.Query("categoria"); cat != "" {
		q = q.Where("category = ?", cat)
	}
	if from := c.Query("inicio"); from != "" {
		q = q.Where("date >= ?", from)
	}
	if to := c.Query("fim"); to != "" {
		q = q.Where("date <= ?", to)
	}
	var txs []models.FinancialTransaction
	if err := q.Order("date desc, id desc").Limit(500).Find(&txs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, txs)
}

// financialSummaryHandler returns receitas/despesas/resultado grouped by month.
func financialSummaryHandler(c *gin.Context) {
	rows, err := db.Model(&models.FinancialTransaction{}).
		Select("to_char(date, 'YYYY-MM') as month, type, sum(value) as total").
		Group("month, type").
		Rows()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	defer rows.Close()

	type monthTotals struct {
		Receitas decimal.Decimal `json:"receitas"`
		Despesas decimal.Decimal `json:"despesas"`
	}
	byMonth := map[string]*monthTotals{}
	for rows.Next() {
		var (
			month string
			tp    string
			total decimal.Decimal
		)
		if err := rows.Scan(&month, &tp, &total); err != nil {
			continue
		}
		mt, ok := byMonth[month]
		if !ok {
			mt = &monthTotals{Receitas: decimal.Zero, Despesas: decimal.Zero}
			byMonth[month] = mt
		}
		switch tp {
		case models.TxReceita:
			mt.Receitas = mt.Receitas.Add(total)
		case models.TxDespesa:
			mt.Despesas = mt.Despesas.Add(total)
		}
	}

	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)

	type summary struct {
		Month     string          `json:"mes"`
		Receitas  decimal.Decimal `json:"receitas"`
		Despesas  decimal.Decimal `json:"despesas"`
		Resultado decimal.Decimal `json:"resultado"`
	}
	out := make([]summary, 0, len(months))
	for _, m := range months {
		mt := byMonth[m]
		out = append(out, summary{
			Month:     m,
			Receitas:  mt.Receitas,
			Despesas:  mt.Despesas,
			Resultado: mt.Receitas.Sub(mt.Despesas),
		})
	}
	c.JSON(http.StatusOK, out)
}
