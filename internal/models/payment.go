package models

import (
	"time"

	"github.com/skywaveads/erp-core/internal/errors"
)

// DateLayout is the storage format for business dates.
const DateLayout = "2006-01-02"

// Payment represents a payment received against a project.
type Payment struct {
	SyncMeta

	ProjectID string  `db:"project_id" json:"project_id"`
	ClientID  string  `db:"client_id" json:"client_id"`
	Date      string  `db:"date" json:"date"`
	Amount    float64 `db:"amount" json:"amount"`
	AccountID string  `db:"account_id" json:"account_id"`
	Method    string  `db:"method" json:"method,omitempty"`
}

// TableName returns the table name for Payment.
func (Payment) TableName() string {
	return "payments"
}

// Validate checks required fields.
func (p *Payment) Validate() error {
	if p.ProjectID == "" {
		return errors.New(errors.ErrValidation, "payment project is required")
	}
	if p.Amount <= 0 {
		return errors.New(errors.ErrValidation, "payment amount must be positive")
	}
	if p.Date == "" {
		return errors.New(errors.ErrValidation, "payment date is required")
	}
	if _, err := time.Parse(DateLayout, p.Date); err != nil {
		return errors.Newf(errors.ErrValidation, "payment date %q is not %s", p.Date, DateLayout)
	}
	return nil
}

// Day returns the date truncated to day, the granularity used by the
// duplicate check on project+date+amount.
func (p *Payment) Day() string {
	if len(p.Date) >= len(DateLayout) {
		return p.Date[:len(DateLayout)]
	}
	return p.Date
}

// ToDocument serializes the payment for the remote store.
func (p *Payment) ToDocument() Document {
	return metaToDoc(&p.SyncMeta, Document{
		"project_id": p.ProjectID,
		"client_id":  p.ClientID,
		"date":       p.Date,
		"amount":     p.Amount,
		"account_id": p.AccountID,
		"method":     p.Method,
	})
}

// PaymentFromDocument builds a payment from a remote document.
func PaymentFromDocument(doc Document) *Payment {
	return &Payment{
		SyncMeta:  metaFromDoc(doc),
		ProjectID: docString(doc, "project_id"),
		ClientID:  docString(doc, "client_id"),
		Date:      docString(doc, "date"),
		Amount:    docFloat(doc, "amount"),
		AccountID: docString(doc, "account_id"),
		Method:    docString(doc, "method"),
	}
}
