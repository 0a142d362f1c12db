package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/interleads/travelagency-system-sub001/models"
)

// The export has two header lines before data starts.
const headerLines = 2

// Fixed positional column order of the sales export.
const (
	colDate = iota
	colClient
	colRoute
	colSupplier
	colCost
	colBoardingTax
	colRevenue
	colProfit
	colPayment
	numColumns
)

// Row is one validated, normalized line of the export.
type Row struct {
	Line          int // 1-based source line, headers included
	Date          time.Time
	HasDate       bool
	Client        string
	Origin        string
	Destination   string
	SupplierName  string
	Cost          decimal.Decimal
	BoardingTax   decimal.Decimal
	Revenue       decimal.Decimal
	GrossProfit   decimal.Decimal
	PaymentMethod string
}

// Report is the outcome of one import run. Rows fail independently; Errors
// carries one message per rejected row with its source line number.
type Report struct {
	RunID            string   `json:"run_id"`
	TotalRows        int      `json:"total_rows"`
	Imported         int      `json:"imported"`
	SuppliersCreated int      `json:"suppliers_created"`
	Errors           []string `json:"errors"`
}

// ParseFile decodes the CSV export into normalized rows. It skips the two
// header lines and rejects rows missing a client name or carrying a
// non-positive revenue; rejects come back as messages in the second return,
// each prefixed with the 1-based source line number. All other fields are
// best-effort: a bad date or amount never rejects the row by itself.
func ParseFile(r io.Reader) ([]Row, []string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var (
		rows    []Row
		rowErrs []string
	)
	recordNo := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		recordNo++
		if err != nil {
			if recordNo > headerLines {
				rowErrs = append(rowErrs, fmt.Sprintf("line %d: unreadable row: %v", recordNo, err))
			}
			continue
		}
		if recordNo <= headerLines {
			continue
		}
		row, rerr := parseRecord(rec, recordNo)
		if rerr != nil {
			rowErrs = append(rowErrs, rerr.Error())
			continue
		}
		rows = append(rows, row)
	}
	if recordNo == 0 {
		return nil, nil, errors.New("empty file")
	}
	return rows, rowErrs, nil
}

func parseRecord(rec []string, line int) (Row, error) {
	field := func(i int) string {
		if i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	row := Row{Line: line}
	row.Client = field(colClient)
	if row.Client == "" {
		return Row{}, fmt.Errorf("line %d: missing client name", line)
	}
	row.Revenue = ParseCurrency(field(colRevenue))
	if !row.Revenue.IsPositive() {
		return Row{}, fmt.Errorf("line %d: missing or invalid revenue", line)
	}

	row.Date, row.HasDate = ParseDate(field(colDate))
	row.Origin, row.Destination = SplitRoute(field(colRoute))
	row.SupplierName = field(colSupplier)
	row.Cost = ParseCurrency(field(colCost))
	row.BoardingTax = ParseCurrency(field(colBoardingTax))
	// The sheet carries a profit column but it is derived; recompute so a
	// stale formula in the export cannot disagree with the stored amounts.
	row.GrossProfit = row.Revenue.Sub(row.Cost.Add(row.BoardingTax))
	row.PaymentMethod = NormalizePaymentMethod(field(colPayment))
	return row, nil
}

// Importer fans validated rows out into sale + sale-line writes. Rows are
// processed strictly sequentially so error attribution stays per-row.
type Importer struct {
	DB *gorm.DB
	// SellerID, when set, is recorded on every imported sale.
	SellerID *uint
	// OnProgress, when set, receives the percentage of rows attempted.
	// It reaches 100 at completion regardless of how many rows failed.
	OnProgress func(percent int)
}

func New(db *gorm.DB) *Importer {
	return &Importer{DB: db}
}

// Run parses and imports one export. Each row is inserted in its own
// transaction (sale header + line together); a row failure is reported and
// the run continues. Only an unreadable file aborts the run as a whole.
func (imp *Importer) Run(r io.Reader) (*Report, error) {
	rows, rowErrs, err := ParseFile(r)
	if err != nil {
		return nil, err
	}
	rep := &Report{
		RunID:     uuid.NewString(),
		TotalRows: len(rows) + len(rowErrs),
		Errors:    rowErrs,
	}
	// names created (or confirmed) during this run, to count creations once
	suppliers := make(map[string]uint, 16)

	done := len(rowErrs)
	imp.progress(done, rep.TotalRows)
	for _, row := range rows {
		if err := imp.importRow(row, suppliers, rep); err != nil {
			rep.Errors = append(rep.Errors, fmt.Sprintf("line %d: %v", row.Line, err))
		} else {
			rep.Imported++
		}
		done++
		imp.progress(done, rep.TotalRows)
	}
	return rep, nil
}

func (imp *Importer) progress(done, total int) {
	if imp.OnProgress == nil {
		return
	}
	if total == 0 {
		imp.OnProgress(100)
		return
	}
	imp.OnProgress(done * 100 / total)
}

func (imp *Importer) importRow(row Row, suppliers map[string]uint, rep *Report) error {
	if row.SupplierName != "" {
		if _, ok := suppliers[row.SupplierName]; !ok {
			id, created, err := imp.resolveSupplier(row.SupplierName)
			if err != nil {
				return fmt.Errorf("supplier %q: %w", row.SupplierName, err)
			}
			suppliers[row.SupplierName] = id
			if created {
				rep.SuppliersCreated++
			}
		}
	}

	saleDate := row.Date
	if !row.HasDate {
		saleDate = time.Now()
	}
	sale := models.Sale{
		ClientName:    row.Client,
		SaleDate:      saleDate,
		PaymentMethod: row.PaymentMethod,
		SellerID:      imp.SellerID,
		TotalValue:    row.Revenue,
	}
	product := models.SaleProduct{
		Type:         "passagem",
		Quantity:     1,
		UnitPrice:    row.Revenue,
		Cost:         row.Cost,
		BoardingTax:  row.BoardingTax,
		GrossProfit:  row.GrossProfit,
		SupplierName: row.SupplierName,
		Origin:       row.Origin,
		Destination:  row.Destination,
		Details:      map[string]any{"import_run": rep.RunID},
	}
	return imp.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&sale).Error; err != nil {
			return err
		}
		product.SaleID = sale.ID
		return tx.Create(&product).Error
	})
}

// resolveSupplier looks a supplier up by exact name and creates it with
// placeholder metadata when absent.
func (imp *Importer) resolveSupplier(name string) (uint, bool, error) {
	var sup models.Supplier
	err := imp.DB.Where("name = ?", name).First(&sup).Error
	if err == nil {
		return sup.ID, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, err
	}
	sup = models.Supplier{Name: name, Contact: "importado via CSV", AccountType: "outros"}
	if err := imp.DB.Create(&sup).Error; err != nil {
		return 0, false, err
	}
	return sup.ID, true, nil
}
