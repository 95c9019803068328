package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	billingdomain "github.com/ksheermitra/backend/internal/billing/domain"
	"github.com/ksheermitra/backend/internal/clock"
	"github.com/ksheermitra/backend/internal/config"
	customerdomain "github.com/ksheermitra/backend/internal/customer/domain"
	customerrepo "github.com/ksheermitra/backend/internal/customer/repository"
	customerservice "github.com/ksheermitra/backend/internal/customer/service"
	"github.com/ksheermitra/backend/internal/invoice/domain"
	"github.com/ksheermitra/backend/internal/invoice/render"
	"github.com/ksheermitra/backend/internal/invoice/repository"
	"github.com/ksheermitra/backend/internal/providers/email"
	"github.com/ksheermitra/backend/internal/providers/pdf"
	"github.com/ksheermitra/backend/internal/providers/storage"
	"github.com/ksheermitra/backend/internal/providers/whatsapp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fakeBilling returns a fixed bill per customer id; unknown customers get
// an empty bill.
type fakeBilling struct {
	bills map[string]billingdomain.MonthlyBill
	err   map[string]error
	calls int
}

func (f *fakeBilling) ComputeMonthlyBilling(_ context.Context, customerID string, month string) (billingdomain.MonthlyBill, error) {
	f.calls++
	if err := f.err[customerID]; err != nil {
		return billingdomain.MonthlyBill{}, err
	}
	m, err := billingdomain.ParseMonth(month)
	if err != nil {
		return billingdomain.MonthlyBill{}, err
	}
	bill, ok := f.bills[customerID]
	if !ok {
		return billingdomain.MonthlyBill{Month: m, DailyBreakdown: []billingdomain.DailyBreakdown{}}, nil
	}
	bill.Month = m
	return bill, nil
}

type fakePDF struct {
	rendered []pdf.MonthlyInvoiceData
}

func (f *fakePDF) RenderMonthlyInvoice(_ context.Context, data pdf.MonthlyInvoiceData) ([]byte, error) {
	f.rendered = append(f.rendered, data)
	return []byte(fmt.Sprintf("%%PDF %s %s", data.InvoiceNumber, data.Total)), nil
}

type fakeWhatsApp struct {
	sent []whatsapp.Document
	err  error
}

func (f *fakeWhatsApp) SendDocument(_ context.Context, doc whatsapp.Document) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, doc)
	return fmt.Sprintf("wamid.%d", len(f.sent)), nil
}

type fakeEmail struct {
	sent []email.Message
}

func (f *fakeEmail) Send(_ context.Context, msg email.Message) error {
	f.sent = append(f.sent, msg)
	return nil
}

type fixture struct {
	svc       domain.Service
	db        *gorm.DB
	billing   *fakeBilling
	pdf       *fakePDF
	whatsapp  *fakeWhatsApp
	email     *fakeEmail
	store     storage.Storage
	clock     *clock.FakeClock
	customers customerdomain.Service
}

func sampleBill(customerID snowflake.ID, name string) billingdomain.MonthlyBill {
	price := decimal.RequireFromString("28")
	return billingdomain.MonthlyBill{
		CustomerID:   customerID,
		CustomerName: name,
		DailyBreakdown: []billingdomain.DailyBreakdown{{
			Date: "2024-01-01",
			Items: []billingdomain.BillItem{{
				ProductID:   1,
				ProductName: "Cow milk",
				UnitPrice:   billingdomain.NewMoney(price),
				Quantity:    2,
				LineTotal:   billingdomain.NewMoney(price.Mul(decimal.NewFromInt(2))),
			}},
			DayTotal: billingdomain.NewMoney(decimal.RequireFromString("56")),
		}},
		MonthTotal: billingdomain.NewMoney(decimal.RequireFromString("56")),
	}
}

func setup(t *testing.T, withWhatsApp, withEmail bool) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&customerdomain.Customer{}, &domain.Invoice{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()

	store, err := storage.NewLocal(t.TempDir(), log)
	require.NoError(t, err)

	f := &fixture{
		db:        db,
		billing:   &fakeBilling{bills: map[string]billingdomain.MonthlyBill{}, err: map[string]error{}},
		pdf:       &fakePDF{},
		store:     store,
		clock:     clock.NewFakeClock(time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)),
		customers: customerservice.New(customerservice.Params{DB: db, Log: log, GenID: node, Repo: customerrepo.Provide()}),
	}

	p := Params{
		DB:          db,
		Log:         log,
		GenID:       node,
		Clock:       f.clock,
		Repo:        repository.Provide(),
		BillingSvc:  f.billing,
		CustomerSvc: f.customers,
		PDF:         f.pdf,
		Storage:     store,
		Renderer:    render.NewRenderer(),
		Branding:    config.NewStaticInvoiceConfigHolder(config.DefaultInvoiceConfig()),
	}
	if withWhatsApp {
		f.whatsapp = &fakeWhatsApp{}
		p.WhatsApp = f.whatsapp
	}
	if withEmail {
		f.email = &fakeEmail{}
		p.Email = f.email
	}
	f.svc = New(p)
	return f
}

func (f *fixture) addCustomer(t *testing.T, name, phone, mail string) customerdomain.Customer {
	t.Helper()
	c, err := f.customers.Create(context.Background(), customerdomain.CreateCustomerRequest{Name: name, Phone: phone, Email: mail})
	require.NoError(t, err)
	return c
}

func TestGenerateMonthlyInvoiceStoresAndNotifies(t *testing.T) {
	f := setup(t, true, true)
	ctx := context.Background()
	c := f.addCustomer(t, "Asha Devi", "9876543210", "asha@example.com")
	f.billing.bills[c.ID.String()] = sampleBill(c.ID, c.Name)

	inv, err := f.svc.GenerateMonthlyInvoice(ctx, c.ID.String(), "2024-01")
	require.NoError(t, err)

	assert.Regexp(t, `^INV-[0-9A-Z]{26}$`, inv.Number)
	assert.Equal(t, "2024-01", inv.Month)
	assert.Equal(t, "56.00", inv.Amount.StringFixed(2))
	assert.Equal(t, "INR", inv.Currency)
	assert.Equal(t, fmt.Sprintf("invoices/2024/01/asha-devi-%s.pdf", c.ID), inv.StorageKey)
	assert.True(t, inv.SentViaWhatsApp)
	assert.False(t, inv.SentViaEmail)

	require.Len(t, f.pdf.rendered, 1)
	assert.Equal(t, "January 2024", f.pdf.rendered[0].Period)
	assert.Equal(t, "Rs. 56.00", f.pdf.rendered[0].Total)
	require.Len(t, f.pdf.rendered[0].Lines, 1)

	require.Len(t, f.whatsapp.sent, 1)
	assert.Equal(t, "9876543210", f.whatsapp.sent[0].To)
	assert.Equal(t, "application/pdf", f.whatsapp.sent[0].ContentType)
	assert.Empty(t, f.email.sent)

	stored, err := f.svc.GetByID(ctx, inv.ID.String())
	require.NoError(t, err)
	assert.True(t, stored.SentViaWhatsApp)
	assert.Equal(t, "wamid.1", stored.Metadata.Data().WhatsAppMessageID)
	assert.Equal(t, 1, stored.Metadata.Data().LineCount)

	doc, err := f.svc.Download(ctx, inv.ID.String())
	require.NoError(t, err)
	assert.Equal(t, inv.Number+".pdf", doc.FileName)
	assert.Contains(t, string(doc.Body), inv.Number)
}

func TestGenerateMonthlyInvoiceFallsBackToEmail(t *testing.T) {
	f := setup(t, true, true)
	f.whatsapp.err = errors.New("rate limited")
	c := f.addCustomer(t, "Ravi", "9876500001", "ravi@example.com")
	f.billing.bills[c.ID.String()] = sampleBill(c.ID, c.Name)

	inv, err := f.svc.GenerateMonthlyInvoice(context.Background(), c.ID.String(), "2024-01")
	require.NoError(t, err)
	assert.False(t, inv.SentViaWhatsApp)
	assert.True(t, inv.SentViaEmail)

	require.Len(t, f.email.sent, 1)
	msg := f.email.sent[0]
	assert.Equal(t, []string{"ravi@example.com"}, msg.To)
	require.Len(t, msg.Attachments, 1)
	assert.Contains(t, msg.HTMLBody, inv.Number)

	stored, err := f.svc.GetByID(context.Background(), inv.ID.String())
	require.NoError(t, err)
	assert.Contains(t, stored.Metadata.Data().NotifyError, "rate limited")
}

func TestGenerateMonthlyInvoiceWithoutChannels(t *testing.T) {
	f := setup(t, false, false)
	c := f.addCustomer(t, "Meera", "9876500002", "")
	f.billing.bills[c.ID.String()] = sampleBill(c.ID, c.Name)

	inv, err := f.svc.GenerateMonthlyInvoice(context.Background(), c.ID.String(), "2024-01")
	require.NoError(t, err)
	assert.False(t, inv.SentViaWhatsApp)
	assert.False(t, inv.SentViaEmail)
}

func TestGenerateMonthlyInvoiceNothingToBill(t *testing.T) {
	f := setup(t, true, false)
	c := f.addCustomer(t, "Gopal", "9876500003", "")

	_, err := f.svc.GenerateMonthlyInvoice(context.Background(), c.ID.String(), "2024-01")
	assert.ErrorIs(t, err, domain.ErrNothingToBill)
	assert.Empty(t, f.pdf.rendered)
	assert.Empty(t, f.whatsapp.sent)

	var count int64
	require.NoError(t, f.db.Model(&domain.Invoice{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRegenerateKeepsNumberAndReplacesDocument(t *testing.T) {
	f := setup(t, false, false)
	ctx := context.Background()
	c := f.addCustomer(t, "Asha", "9876543210", "")
	f.billing.bills[c.ID.String()] = sampleBill(c.ID, c.Name)

	first, err := f.svc.GenerateMonthlyInvoice(ctx, c.ID.String(), "2024-01")
	require.NoError(t, err)

	bill := sampleBill(c.ID, c.Name)
	bill.MonthTotal = billingdomain.NewMoney(decimal.RequireFromString("84"))
	f.billing.bills[c.ID.String()] = bill
	f.clock.Advance(24 * time.Hour)

	second, err := f.svc.GenerateMonthlyInvoice(ctx, c.ID.String(), "2024-01")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Number, second.Number)
	assert.Equal(t, "84.00", second.Amount.StringFixed(2))

	list, err := f.svc.List(ctx, domain.ListInvoiceRequest{CustomerID: c.ID.String()})
	require.NoError(t, err)
	require.Len(t, list.Invoices, 1)
	assert.Equal(t, "84.00", list.Invoices[0].Amount.StringFixed(2))

	doc, err := f.svc.Download(ctx, second.ID.String())
	require.NoError(t, err)
	assert.Contains(t, string(doc.Body), "Rs. 84.00")
}

func TestGenerateMonthlyInvoicesCollectsFailures(t *testing.T) {
	f := setup(t, false, false)
	ctx := context.Background()

	billed := f.addCustomer(t, "Billed", "9876500010", "")
	f.addCustomer(t, "Idle", "9876500011", "")
	broken := f.addCustomer(t, "Broken", "9876500012", "")
	f.billing.bills[billed.ID.String()] = sampleBill(billed.ID, billed.Name)
	f.billing.err[broken.ID.String()] = errors.New("db down")

	res, err := f.svc.GenerateMonthlyInvoices(ctx, "2024-01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.Equal(t, domain.BatchResult{Month: "2024-01", Customers: 3, Generated: 1, Skipped: 1, Failed: 1}, res)

	_, err = f.svc.GenerateMonthlyInvoices(ctx, "2024-13")
	assert.ErrorIs(t, err, billingdomain.ErrInvalidMonth)
}

func TestListPaginatesAndValidates(t *testing.T) {
	f := setup(t, false, false)
	ctx := context.Background()
	c := f.addCustomer(t, "Asha", "9876543210", "")
	f.billing.bills[c.ID.String()] = sampleBill(c.ID, c.Name)

	for _, month := range []string{"2023-11", "2023-12", "2024-01"} {
		_, err := f.svc.GenerateMonthlyInvoice(ctx, c.ID.String(), month)
		require.NoError(t, err)
		f.clock.Advance(time.Hour)
	}

	page, err := f.svc.List(ctx, domain.ListInvoiceRequest{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page.Invoices, 2)
	assert.True(t, page.HasMore)
	assert.Equal(t, "2024-01", page.Invoices[0].Month)

	next, err := f.svc.List(ctx, domain.ListInvoiceRequest{PageSize: 2, PageToken: page.NextPageToken})
	require.NoError(t, err)
	require.Len(t, next.Invoices, 1)
	assert.Equal(t, "2023-11", next.Invoices[0].Month)

	byMonth, err := f.svc.List(ctx, domain.ListInvoiceRequest{Month: "2023-12"})
	require.NoError(t, err)
	require.Len(t, byMonth.Invoices, 1)

	_, err = f.svc.List(ctx, domain.ListInvoiceRequest{Month: "12-2023"})
	assert.ErrorIs(t, err, domain.ErrInvalidMonth)
	_, err = f.svc.List(ctx, domain.ListInvoiceRequest{CustomerID: "abc"})
	assert.ErrorIs(t, err, domain.ErrInvalidCustomerID)
	_, err = f.svc.GetByID(ctx, "123")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.svc.Download(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}
