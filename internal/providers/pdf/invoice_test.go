package pdf

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMonthlyInvoice(t *testing.T) {
	doc, err := New().RenderMonthlyInvoice(context.Background(), MonthlyInvoiceData{
		BusinessName:  "KsheerMitra",
		InvoiceNumber: "INV-01HQ",
		IssueDate:     "2024-02-01",
		Period:        "January 2024",
		CustomerName:  "Asha",
		Lines: []InvoiceLine{
			{Date: "2024-01-01", Product: "Cow milk", Quantity: 2, UnitPrice: "Rs. 28.00", Amount: "Rs. 56.00"},
			{Date: "2024-01-02", Product: "Cow milk", Quantity: 2, UnitPrice: "Rs. 28.00", Amount: "Rs. 56.00"},
		},
		Total:  "Rs. 112.00",
		Footer: "Thank you",
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))
}

func TestRenderMonthlyInvoiceRequiresLines(t *testing.T) {
	_, err := New().RenderMonthlyInvoice(context.Background(), MonthlyInvoiceData{BusinessName: "KsheerMitra"})
	assert.ErrorIs(t, err, ErrNoLines)
}
