package csvimport

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, ok := ParseDate("05/03/2025")
	require.True(t, ok)
	assert.Equal(t, "2025-03-05", d.Format("2006-01-02"))

	_, ok = ParseDate("")
	assert.False(t, ok)
	_, ok = ParseDate("2025-03-05") // wrong locale
	assert.False(t, ok)
	_, ok = ParseDate("31/02/2025")
	assert.False(t, ok)
}

func TestParseCurrency(t *testing.T) {
	cases := map[string]string{
		"R$ 1.234,56": "1234.56",
		"R$1.234,56":  "1234.56",
		"1234,56":     "1234.56",
		"R$ 0,50":     "0.5",
		"1.000.000":   "1000000",
		"":            "0",
		"abc":         "0",
	}
	for in, want := range cases {
		got := ParseCurrency(in)
		assert.True(t, got.Equal(decimal.RequireFromString(want)), "%q => %s, want %s", in, got, want)
	}
}

func TestCurrencyRoundTrip(t *testing.T) {
	for _, raw := range []string{"0", "0.5", "1234.56", "1000000"} {
		x := decimal.RequireFromString(raw)
		back := ParseCurrency(FormatCurrency(x))
		assert.True(t, back.Equal(x), "round trip of %s via %q gave %s", raw, FormatCurrency(x), back)
	}
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "R$ 1.234,56", FormatCurrency(decimal.RequireFromString("1234.56")))
	assert.Equal(t, "R$ 1.000.000,00", FormatCurrency(decimal.NewFromInt(1000000)))
	assert.Equal(t, "R$ 0,00", FormatCurrency(decimal.Zero))
	assert.Equal(t, "-R$ 12,30", FormatCurrency(decimal.RequireFromString("-12.3")))
}

func TestNormalizePaymentMethod(t *testing.T) {
	cases := map[string]string{
		"Mercado Pago":     "Cartão",
		"cartao infinity":  "Cartão",
		"Infinte":          "Cartão", // typo lives in the historical data
		"SumUp":            "Cartão",
		"pix":              "PIX",
		"Pagamento PIX":    "PIX",
		"conta do cliente": "Cliente",
		"":                 "Outros",
		"Boleto":           "Boleto", // unknown values pass through
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizePaymentMethod(in), "input %q", in)
	}
}

func TestSplitRoute(t *testing.T) {
	origin, dest := SplitRoute("GRU-LIS")
	assert.Equal(t, "GRU", origin)
	assert.Equal(t, "LIS", dest)

	origin, dest = SplitRoute("GRU-LIS-MAD")
	assert.Equal(t, "GRU", origin)
	assert.Equal(t, "LIS-MAD", dest)

	origin, dest = SplitRoute("LIS")
	assert.Equal(t, "", origin)
	assert.Equal(t, "LIS", dest)

	origin, dest = SplitRoute("")
	assert.Equal(t, "", origin)
	assert.Equal(t, "", dest)
}

const csvHeader = "PERÍODO,,,,,,,,\nData,Cliente,Trecho,Fornecedor,Custo,Taxa Embarque,Receita,Lucro,Forma Pagamento\n"

func csvRow(client, revenue string) string {
	return fmt.Sprintf("05/03/2025,%s,GRU-LIS,MaxMilhas,\"R$ 1.000,00\",\"R$ 100,00\",%s,,pix\n", client, revenue)
}

func TestParseFileRowIsolation(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(csvHeader)
	for i := 1; i <= 10; i++ {
		revenue := "\"R$ 2.500,00\""
		if i == 5 {
			revenue = "" // rejected: empty revenue
		}
		sb.WriteString(csvRow(fmt.Sprintf("Cliente %d", i), revenue))
	}

	rows, rowErrs, err := ParseFile(strings.NewReader(sb.String()))
	require.NoError(t, err)
	assert.Len(t, rows, 9)
	require.Len(t, rowErrs, 1)
	// row 5 sits on source line 7 because of the two header lines
	assert.Contains(t, rowErrs[0], "line 7")
}

func TestParseFileNormalizesFields(t *testing.T) {
	data := csvHeader +
		"05/03/2025,\"Silva, João\",GRU-LIS-MAD,MaxMilhas,\"R$ 1.000,00\",\"R$ 100,00\",\"R$ 2.500,00\",whatever,Mercado Pago\n"
	rows, rowErrs, err := ParseFile(strings.NewReader(data))
	require.NoError(t, err)
	require.Empty(t, rowErrs)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, 3, row.Line)
	assert.Equal(t, "Silva, João", row.Client)
	assert.True(t, row.HasDate)
	assert.Equal(t, time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC), row.Date)
	assert.Equal(t, "GRU", row.Origin)
	assert.Equal(t, "LIS-MAD", row.Destination)
	assert.Equal(t, "MaxMilhas", row.SupplierName)
	assert.Equal(t, "Cartão", row.PaymentMethod)
	assert.True(t, row.Revenue.Equal(decimal.RequireFromString("2500")))
	// profit is recomputed, never trusted from the sheet
	assert.True(t, row.GrossProfit.Equal(decimal.RequireFromString("1400")), "got %s", row.GrossProfit)
}

func TestParseFileBestEffortDefaults(t *testing.T) {
	// bad date and malformed money columns do not reject the row
	data := csvHeader + "bogus,Cliente X,,ignoto,n/a,,\"R$ 100,00\",,\n"
	rows, rowErrs, err := ParseFile(strings.NewReader(data))
	require.NoError(t, err)
	require.Empty(t, rowErrs)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.False(t, row.HasDate)
	assert.True(t, row.Cost.IsZero())
	assert.True(t, row.BoardingTax.IsZero())
	assert.Equal(t, "Outros", row.PaymentMethod)
	assert.Equal(t, "", row.Origin)
	assert.Equal(t, "", row.Destination)
}

func TestParseFileMissingClient(t *testing.T) {
	data := csvHeader + "05/03/2025,,GRU-LIS,,,,\"R$ 100,00\",,pix\n"
	rows, rowErrs, err := ParseFile(strings.NewReader(data))
	require.NoError(t, err)
	assert.Empty(t, rows)
	require.Len(t, rowErrs, 1)
	assert.Contains(t, rowErrs[0], "line 3")
	assert.Contains(t, rowErrs[0], "client")
}

func TestParseFileEmpty(t *testing.T) {
	_, _, err := ParseFile(strings.NewReader(""))
	assert.Error(t, err)
}

func TestProgressReaches100(t *testing.T) {
	var last int
	imp := &Importer{OnProgress: func(p int) { last = p }}

	total := 10
	for done := 0; done <= total; done++ {
		imp.progress(done, total)
	}
	assert.Equal(t, 100, last)

	imp.progress(0, 0) // empty run still completes
	assert.Equal(t, 100, last)
}
