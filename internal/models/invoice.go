package models

import (
	"encoding/json"

	"github.com/skywaveads/erp-core/internal/errors"
)

// Invoice statuses.
const (
	InvoiceStatusDraft   = "draft"
	InvoiceStatusSent    = "sent"
	InvoiceStatusPartial = "partially_paid"
	InvoiceStatusPaid    = "paid"
	InvoiceStatusVoid    = "void"
)

// InvoiceItem is a single invoice line.
type InvoiceItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Total       float64 `json:"total"`
}

// Invoice represents a client invoice. Items are stored as a JSON column
// locally and as a JSON string in remote documents. InvoiceNumber is
// assigned from the local sequence counter and is local-authoritative: a
// remote-wins merge never overwrites it.
type Invoice struct {
	SyncMeta

	InvoiceNumber  string        `db:"invoice_number" json:"invoice_number"`
	ClientID       string        `db:"client_id" json:"client_id"`
	ProjectID      string        `db:"project_id" json:"project_id,omitempty"`
	IssueDate      string        `db:"issue_date" json:"issue_date"`
	DueDate        string        `db:"due_date" json:"due_date"`
	Items          []InvoiceItem `db:"items" json:"items"`
	Subtotal       float64       `db:"subtotal" json:"subtotal"`
	DiscountRate   float64       `db:"discount_rate" json:"discount_rate"`
	DiscountAmount float64       `db:"discount_amount" json:"discount_amount"`
	TaxRate        float64       `db:"tax_rate" json:"tax_rate"`
	TaxAmount      float64       `db:"tax_amount" json:"tax_amount"`
	TotalAmount    float64       `db:"total_amount" json:"total_amount"`
	AmountPaid     float64       `db:"amount_paid" json:"amount_paid"`
	Status         string        `db:"status" json:"status"`
	Currency       string        `db:"currency" json:"currency"`
	Notes          string        `db:"notes" json:"notes,omitempty"`
}

// TableName returns the table name for Invoice.
func (Invoice) TableName() string {
	return "invoices"
}

// Validate checks required fields.
func (i *Invoice) Validate() error {
	if i.ClientID == "" {
		return errors.New(errors.ErrValidation, "invoice client is required")
	}
	if i.IssueDate == "" {
		return errors.New(errors.ErrValidation, "invoice issue date is required")
	}
	if i.TotalAmount < 0 {
		return errors.New(errors.ErrValidation, "invoice total must not be negative")
	}
	return nil
}

// ItemsJSON returns the invoice lines serialized for storage.
func (i *Invoice) ItemsJSON() string {
	if len(i.Items) == 0 {
		return "[]"
	}
	data, err := json.Marshal(i.Items)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// SetItemsJSON parses serialized invoice lines.
func (i *Invoice) SetItemsJSON(raw string) {
	if raw == "" {
		i.Items = nil
		return
	}
	_ = json.Unmarshal([]byte(raw), &i.Items)
}

// ToDocument serializes the invoice for the remote store.
func (i *Invoice) ToDocument() Document {
	return metaToDoc(&i.SyncMeta, Document{
		"invoice_number":  i.InvoiceNumber,
		"client_id":       i.ClientID,
		"project_id":      i.ProjectID,
		"issue_date":      i.IssueDate,
		"due_date":        i.DueDate,
		"items":           i.ItemsJSON(),
		"subtotal":        i.Subtotal,
		"discount_rate":   i.DiscountRate,
		"discount_amount": i.DiscountAmount,
		"tax_rate":        i.TaxRate,
		"tax_amount":      i.TaxAmount,
		"total_amount":    i.TotalAmount,
		"amount_paid":     i.AmountPaid,
		"status":          i.Status,
		"currency":        i.Currency,
		"notes":           i.Notes,
	})
}

// InvoiceFromDocument builds an invoice from a remote document.
func InvoiceFromDocument(doc Document) *Invoice {
	inv := &Invoice{
		SyncMeta:       metaFromDoc(doc),
		InvoiceNumber:  docString(doc, "invoice_number"),
		ClientID:       docString(doc, "client_id"),
		ProjectID:      docString(doc, "project_id"),
		IssueDate:      docString(doc, "issue_date"),
		DueDate:        docString(doc, "due_date"),
		Subtotal:       docFloat(doc, "subtotal"),
		DiscountRate:   docFloat(doc, "discount_rate"),
		DiscountAmount: docFloat(doc, "discount_amount"),
		TaxRate:        docFloat(doc, "tax_rate"),
		TaxAmount:      docFloat(doc, "tax_amount"),
		TotalAmount:    docFloat(doc, "total_amount"),
		AmountPaid:     docFloat(doc, "amount_paid"),
		Status:         docString(doc, "status"),
		Currency:       docString(doc, "currency"),
		Notes:          docString(doc, "notes"),
	}
	inv.SetItemsJSON(docString(doc, "items"))
	return inv
}
