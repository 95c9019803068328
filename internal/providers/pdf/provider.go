package pdf

import "context"

// Provider renders billing documents.
type Provider interface {
	RenderMonthlyInvoice(ctx context.Context, data MonthlyInvoiceData) ([]byte, error)
}

type NoOpProvider struct{}

func (p *NoOpProvider) RenderMonthlyInvoice(ctx context.Context, data MonthlyInvoiceData) ([]byte, error) {
	return nil, nil
}
