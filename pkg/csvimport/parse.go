package csvimport

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/interleads/travelagency-system-sub001/models"
)

const dateLayout = "02/01/2006" // DD/MM/AAAA, as exported by the agency sheet

// ParseDate converts DD/MM/AAAA into a time.Time. Empty or malformed input
// returns ok=false; callers decide whether to default to today.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseCurrency parses Brazilian-formatted money ("R$ 1.234,56"). The R$
// prefix and thousands dots are stripped, the decimal comma becomes a dot.
// Empty or unparseable input yields zero.
func ParseCurrency(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatCurrency renders a value in the same Brazilian format ParseCurrency
// accepts, so parse(format(x)) == x.
func FormatCurrency(d decimal.Decimal) string {
	neg := d.IsNegative()
	if neg {
		d = d.Neg()
	}
	fixed := d.StringFixed(2)
	dot := strings.IndexByte(fixed, '.')
	intPart, frac := fixed[:dot], fixed[dot+1:]
	var b strings.Builder
	for i := 0; i < len(intPart); i++ {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteByte(intPart[i])
	}
	out := "R$ " + b.String() + "," + frac
	if neg {
		out = "-" + out
	}
	return out
}

// NormalizePaymentMethod maps the free-text payment column onto the
// canonical methods. Card acquirers (and their common typos) collapse into
// Cartão; unknown values pass through as typed.
func NormalizePaymentMethod(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return models.PaymentOutros
	}
	lower := strings.ToLower(trimmed)
	switch {
	case strings.Contains(lower, "infinity"),
		strings.Contains(lower, "infinte"),
		strings.Contains(lower, "sumup"),
		strings.Contains(lower, "mercado pago"):
		return models.PaymentCartao
	case strings.Contains(lower, "pix"):
		return models.PaymentPix
	case strings.Contains(lower, "cliente"):
		return models.PaymentCliente
	}
	return trimmed
}

// SplitRoute splits a hyphen-delimited "origin-destination" string. The
// first segment is the origin; everything after the first hyphen is the
// destination (rejoined, so "GRU-LIS-MAD" keeps the connection). A single
// segment is destination-only.
func SplitRoute(s string) (origin, destination string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}
	parts := strings.Split(s, "-")
	if len(parts) == 1 {
		return "", strings.TrimSpace(parts[0])
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(strings.Join(parts[1:], "-"))
}
