package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/ksheermitra/backend/internal/billing/domain"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Type string

const TypeMonthly Type = "MONTHLY"

// Invoice records one generated document per customer, type and month.
type Invoice struct {
	ID              snowflake.ID                 `gorm:"primaryKey" json:"id"`
	Number          string                       `gorm:"not null;uniqueIndex" json:"number"`
	CustomerID      snowflake.ID                 `gorm:"not null;uniqueIndex:ux_invoices_customer_type_month" json:"customer_id"`
	Type            Type                         `gorm:"type:text;not null;uniqueIndex:ux_invoices_customer_type_month" json:"type"`
	Month           string                       `gorm:"not null;uniqueIndex:ux_invoices_customer_type_month" json:"month"`
	Amount          decimal.Decimal              `gorm:"type:decimal(14,2);not null" json:"amount"`
	Currency        string                       `gorm:"not null" json:"currency"`
	StorageKey      string                       `gorm:"not null" json:"storage_key"`
	SentViaWhatsApp bool                         `gorm:"column:sent_via_whatsapp;not null" json:"sent_via_whatsapp"`
	SentViaEmail    bool                         `gorm:"not null" json:"sent_via_email"`
	Metadata        datatypes.JSONType[Metadata] `json:"metadata"`
	IssuedOn        time.Time                    `gorm:"type:date;not null" json:"issued_on"`
	CreatedAt       time.Time                    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time                    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Invoice) TableName() string { return "invoices" }

// Metadata is stored as JSON next to the invoice.
type Metadata struct {
	LineCount int                     `json:"line_count"`
	DayCount  int                     `json:"day_count"`
	Warnings  []billingdomain.Warning `json:"warnings,omitempty"`
	// WhatsAppMessageID is set once the document was delivered.
	WhatsAppMessageID string `json:"whatsapp_message_id,omitempty"`
	NotifyError       string `json:"notify_error,omitempty"`
}

// Document is a stored invoice file.
type Document struct {
	FileName    string
	ContentType string
	Body        []byte
}
