package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/ksheermitra/backend/internal/billing/domain"
	"github.com/ksheermitra/backend/internal/clock"
	"github.com/ksheermitra/backend/internal/config"
	customerdomain "github.com/ksheermitra/backend/internal/customer/domain"
	"github.com/ksheermitra/backend/internal/invoice/domain"
	"github.com/ksheermitra/backend/internal/invoice/format"
	"github.com/ksheermitra/backend/internal/invoice/render"
	"github.com/ksheermitra/backend/internal/observability/logger"
	"github.com/ksheermitra/backend/internal/observability/metrics"
	"github.com/ksheermitra/backend/internal/providers/email"
	"github.com/ksheermitra/backend/internal/providers/pdf"
	"github.com/ksheermitra/backend/internal/providers/storage"
	"github.com/ksheermitra/backend/internal/providers/whatsapp"
	"github.com/ksheermitra/backend/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const pdfContentType = "application/pdf"

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	BillingSvc  billingdomain.Service
	CustomerSvc customerdomain.Service
	PDF         pdf.Provider
	Storage     storage.Storage
	Renderer    render.Renderer
	Branding    *config.InvoiceConfigHolder
	WhatsApp    whatsapp.Sender  `optional:"true"`
	Email       email.Provider   `optional:"true"`
	Metrics     *metrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	billingSvc  billingdomain.Service
	customerSvc customerdomain.Service
	pdf         pdf.Provider
	storage     storage.Storage
	renderer    render.Renderer
	branding    *config.InvoiceConfigHolder
	whatsapp    whatsapp.Sender
	email       email.Provider
	metrics     *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("invoice.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		billingSvc:  p.BillingSvc,
		customerSvc: p.CustomerSvc,
		pdf:         p.PDF,
		storage:     p.Storage,
		renderer:    p.Renderer,
		branding:    p.Branding,
		whatsapp:    p.WhatsApp,
		email:       p.Email,
		metrics:     p.Metrics,
	}
}

func (s *Service) GenerateMonthlyInvoice(ctx context.Context, customerID string, month string) (*domain.Invoice, error) {
	bill, err := s.billingSvc.ComputeMonthlyBilling(ctx, customerID, month)
	if err != nil {
		return nil, err
	}
	if bill.IsEmpty() {
		return nil, domain.ErrNothingToBill
	}

	customer, err := s.customerSvc.GetByID(ctx, customerdomain.GetCustomerRequest{ID: customerID})
	if err != nil {
		return nil, err
	}

	branding := s.branding.Get()
	now := s.clock.Now().UTC()
	monthKey := bill.Month.String()

	existing, err := s.repo.FindByPeriod(ctx, s.db, customer.ID, domain.TypeMonthly, monthKey)
	if err != nil {
		return nil, err
	}

	invoice := &domain.Invoice{
		CustomerID: customer.ID,
		Type:       domain.TypeMonthly,
		Month:      monthKey,
		Amount:     bill.MonthTotal.Decimal,
		Currency:   branding.CurrencyCode,
		Metadata: datatypes.NewJSONType(domain.Metadata{
			LineCount: countLines(bill),
			DayCount:  len(bill.DailyBreakdown),
			Warnings:  bill.Warnings,
		}),
		IssuedOn:  time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		UpdatedAt: now,
	}
	if existing != nil {
		invoice.ID = existing.ID
		invoice.Number = existing.Number
		invoice.CreatedAt = existing.CreatedAt
	} else {
		invoice.ID = s.genID.Generate()
		invoice.CreatedAt = now
		invoice.Number, err = format.InvoiceNumber(now, nil)
		if err != nil {
			return nil, err
		}
	}

	key, err := format.ObjectKey(monthKey, customer.Name, customer.ID)
	if err != nil {
		return nil, err
	}
	invoice.StorageKey = key

	doc, err := s.pdf.RenderMonthlyInvoice(ctx, buildPDFData(bill, customer, invoice, branding))
	if err != nil {
		return nil, fmt.Errorf("render invoice: %w", err)
	}
	if err := s.storage.Put(ctx, key, doc, pdfContentType); err != nil {
		return nil, fmt.Errorf("store invoice: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if existing != nil {
			return s.repo.UpdateDocument(ctx, tx, invoice)
		}
		return s.repo.Insert(ctx, tx, invoice)
	})
	if err != nil {
		return nil, err
	}

	log := logger.WithContext(ctx, s.log)
	log.Info("monthly invoice generated",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("invoice_number", invoice.Number),
		zap.String("customer_id", customer.ID.String()),
		zap.String("month", monthKey),
		zap.String("amount", invoice.Amount.StringFixed(2)),
		zap.Bool("regenerated", existing != nil),
	)
	s.metrics.RecordInvoiceGenerated(ctx, string(domain.TypeMonthly))

	s.notify(ctx, customer, invoice, doc, branding)
	return invoice, nil
}

// notify delivers the document over WhatsApp, falling back to email. Failures
// are recorded on the invoice and never returned.
func (s *Service) notify(ctx context.Context, customer customerdomain.Customer, invoice *domain.Invoice, doc []byte, branding config.InvoiceConfig) {
	log := logger.WithContext(ctx, s.log).With(zap.String("invoice_id", invoice.ID.String()))
	meta := invoice.Metadata.Data()
	fileName := path.Base(invoice.StorageKey)
	period := format.Period(invoice.Month)
	total := format.Money(branding.CurrencySymbol, invoice.Amount)

	var failures []string
	if s.whatsapp != nil && strings.TrimSpace(customer.Phone) != "" {
		messageID, err := s.whatsapp.SendDocument(ctx, whatsapp.Document{
			To:          customer.Phone,
			FileName:    fileName,
			Caption:     fmt.Sprintf("%s invoice for %s: %s", branding.BusinessName, period, total),
			ContentType: pdfContentType,
			Body:        doc,
		})
		if err != nil {
			log.Warn("whatsapp delivery failed", zap.Error(err))
			failures = append(failures, "whatsapp: "+err.Error())
			s.metrics.RecordNotification(ctx, "whatsapp", "error")
		} else {
			invoice.SentViaWhatsApp = true
			meta.WhatsAppMessageID = messageID
			s.metrics.RecordNotification(ctx, "whatsapp", "ok")
		}
	}

	if !invoice.SentViaWhatsApp && s.email != nil && strings.TrimSpace(customer.Email) != "" {
		if err := s.sendEmail(ctx, customer, invoice, doc, fileName, period, total, branding); err != nil {
			log.Warn("email delivery failed", zap.Error(err))
			failures = append(failures, "email: "+err.Error())
			s.metrics.RecordNotification(ctx, "email", "error")
		} else {
			invoice.SentViaEmail = true
			s.metrics.RecordNotification(ctx, "email", "ok")
		}
	}

	if !invoice.SentViaWhatsApp && !invoice.SentViaEmail && len(failures) == 0 {
		log.Info("no delivery channel available for invoice")
		return
	}

	meta.NotifyError = strings.Join(failures, "; ")
	invoice.Metadata = datatypes.NewJSONType(meta)
	invoice.UpdatedAt = s.clock.Now().UTC()
	if err := s.repo.UpdateDelivery(ctx, s.db, invoice); err != nil {
		log.Error("failed to record invoice delivery", zap.Error(err))
	}
}

func (s *Service) sendEmail(ctx context.Context, customer customerdomain.Customer, invoice *domain.Invoice, doc []byte, fileName, period, total string, branding config.InvoiceConfig) error {
	body, err := s.renderer.RenderEmail(render.EmailView{
		BusinessName: branding.BusinessName,
		CustomerName: customer.Name,
		Number:       invoice.Number,
		Period:       period,
		Total:        total,
		Footer:       branding.Footer,
	})
	if err != nil {
		return err
	}
	return s.email.Send(ctx, email.Message{
		To:       []string{customer.Email},
		Subject:  fmt.Sprintf("%s invoice for %s", branding.BusinessName, period),
		HTMLBody: body,
		Attachments: []email.Attachment{{
			FileName:    fileName,
			ContentType: pdfContentType,
			Body:        doc,
		}},
	})
}

func (s *Service) GenerateMonthlyInvoices(ctx context.Context, month string) (domain.BatchResult, error) {
	m, err := billingdomain.ParseMonth(month)
	if err != nil {
		return domain.BatchResult{}, err
	}
	result := domain.BatchResult{Month: m.String()}

	ids, err := s.customerSvc.ListIDs(ctx)
	if err != nil {
		return result, err
	}
	result.Customers = len(ids)

	log := logger.WithContext(ctx, s.log).With(zap.String("month", result.Month))
	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		_, err := s.GenerateMonthlyInvoice(ctx, id.String(), result.Month)
		switch {
		case err == nil:
			result.Generated++
		case errors.Is(err, domain.ErrNothingToBill):
			result.Skipped++
		default:
			result.Failed++
			errs = append(errs, fmt.Errorf("customer %s: %w", id, err))
			log.Error("monthly invoice failed", zap.String("customer_id", id.String()), zap.Error(err))
		}
	}

	log.Info("monthly invoice batch finished",
		zap.Int("customers", result.Customers),
		zap.Int("generated", result.Generated),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
	return result, errors.Join(errs...)
}

func (s *Service) List(ctx context.Context, req domain.ListInvoiceRequest) (domain.ListInvoiceResponse, error) {
	var filter domain.ListFilter
	if strings.TrimSpace(req.CustomerID) != "" {
		id, err := parseID(req.CustomerID)
		if err != nil {
			return domain.ListInvoiceResponse{}, domain.ErrInvalidCustomerID
		}
		filter.CustomerID = id
	}
	if strings.TrimSpace(req.Month) != "" {
		m, err := billingdomain.ParseMonth(req.Month)
		if err != nil {
			return domain.ListInvoiceResponse{}, domain.ErrInvalidMonth
		}
		filter.Month = m.String()
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListInvoiceResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(invoice *domain.Invoice) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        invoice.ID.String(),
			CreatedAt: invoice.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	invoices := make([]domain.Invoice, 0, len(items))
	for _, item := range items {
		if item != nil {
			invoices = append(invoices, *item)
		}
	}

	resp := domain.ListInvoiceResponse{Invoices: invoices}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.Invoice, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	invoice, err := s.repo.FindByID(ctx, s.db, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, domain.ErrNotFound
	}
	return invoice, nil
}

func (s *Service) Download(ctx context.Context, id string) (*domain.Document, error) {
	invoice, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	body, err := s.storage.Get(ctx, invoice.StorageKey)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, domain.ErrDocumentMissing
	}
	if err != nil {
		return nil, err
	}
	return &domain.Document{
		FileName:    invoice.Number + ".pdf",
		ContentType: pdfContentType,
		Body:        body,
	}, nil
}

func buildPDFData(bill billingdomain.MonthlyBill, customer customerdomain.Customer, invoice *domain.Invoice, branding config.InvoiceConfig) pdf.MonthlyInvoiceData {
	data := pdf.MonthlyInvoiceData{
		BusinessName:    branding.BusinessName,
		BusinessAddress: branding.Address,
		BusinessPhone:   branding.Phone,
		InvoiceNumber:   invoice.Number,
		IssueDate:       billingdomain.DateKey(invoice.IssuedOn),
		Period:          format.Period(invoice.Month),
		CustomerName:    customer.Name,
		CustomerPhone:   customer.Phone,
		CustomerAddress: customer.Address,
		Total:           format.Money(branding.CurrencySymbol, bill.MonthTotal.Decimal),
		Footer:          branding.Footer,
	}
	for _, day := range bill.DailyBreakdown {
		for _, item := range day.Items {
			data.Lines = append(data.Lines, pdf.InvoiceLine{
				Date:      day.Date,
				Product:   item.ProductName,
				Quantity:  item.Quantity,
				UnitPrice: format.Money(branding.CurrencySymbol, item.UnitPrice.Decimal),
				Amount:    format.Money(branding.CurrencySymbol, item.LineTotal.Decimal),
			})
		}
	}
	if len(bill.Warnings) > 0 {
		data.Notes = append(data.Notes, fmt.Sprintf("%d item(s) could not be billed and were left out.", len(bill.Warnings)))
	}
	return data
}

func countLines(bill billingdomain.MonthlyBill) int {
	n := 0
	for _, day := range bill.DailyBreakdown {
		n += len(day.Items)
	}
	return n
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}
