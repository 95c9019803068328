// Package format holds the pure helpers that turn billing values into
// invoice text and storage keys.
package format

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

const InvoiceNumberPrefix = "INV-"

// InvoiceNumber returns "INV-" followed by a ULID stamped at issuedAt, so
// numbers sort by issue time.
func InvoiceNumber(issuedAt time.Time, entropy io.Reader) (string, error) {
	if entropy == nil {
		entropy = ulid.DefaultEntropy()
	}
	id, err := ulid.New(ulid.Timestamp(issuedAt), entropy)
	if err != nil {
		return "", fmt.Errorf("invoice number: %w", err)
	}
	return InvoiceNumberPrefix + id.String(), nil
}

// Money renders amount with two fraction digits after symbol.
func Money(symbol string, amount decimal.Decimal) string {
	value := amount.StringFixed(2)
	if strings.TrimSpace(symbol) == "" {
		return value
	}
	return symbol + " " + value
}

// Period renders "2024-01" as "January 2024". Unparseable input is returned as is.
func Period(month string) string {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return month
	}
	return t.Format("January 2006")
}

// ObjectKey builds invoices/<yyyy>/<mm>/<slug(name)>-<customer id>.pdf.
func ObjectKey(month string, customerName string, customerID snowflake.ID) (string, error) {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return "", fmt.Errorf("invalid invoice month %q", month)
	}
	name := slug.Make(customerName)
	if name == "" {
		name = "customer"
	}
	return fmt.Sprintf("invoices/%s/%s/%s-%s.pdf", t.Format("2006"), t.Format("01"), name, customerID), nil
}
