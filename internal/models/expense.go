package models

import (
	"time"

	"github.com/skywaveads/erp-core/internal/errors"
)

// Expense represents a recorded business expense.
type Expense struct {
	SyncMeta

	Date             string  `db:"date" json:"date"`
	Category         string  `db:"category" json:"category"`
	Amount           float64 `db:"amount" json:"amount"`
	Description      string  `db:"description" json:"description,omitempty"`
	AccountID        string  `db:"account_id" json:"account_id"`
	PaymentAccountID string  `db:"payment_account_id" json:"payment_account_id,omitempty"`
	ProjectID        string  `db:"project_id" json:"project_id,omitempty"`
}

// TableName returns the table name for Expense.
func (Expense) TableName() string {
	return "expenses"
}

// Validate checks required fields.
func (e *Expense) Validate() error {
	if e.Category == "" {
		return errors.New(errors.ErrValidation, "expense category is required")
	}
	if e.Amount <= 0 {
		return errors.New(errors.ErrValidation, "expense amount must be positive")
	}
	if e.Date == "" {
		return errors.New(errors.ErrValidation, "expense date is required")
	}
	if _, err := time.Parse(DateLayout, e.Date); err != nil {
		return errors.Newf(errors.ErrValidation, "expense date %q is not %s", e.Date, DateLayout)
	}
	if e.AccountID == "" {
		return errors.New(errors.ErrValidation, "expense account is required")
	}
	return nil
}

// Day returns the date truncated to day.
func (e *Expense) Day() string {
	if len(e.Date) >= len(DateLayout) {
		return e.Date[:len(DateLayout)]
	}
	return e.Date
}

// ToDocument serializes the expense for the remote store.
func (e *Expense) ToDocument() Document {
	return metaToDoc(&e.SyncMeta, Document{
		"date":               e.Date,
		"category":           e.Category,
		"amount":             e.Amount,
		"description":        e.Description,
		"account_id":         e.AccountID,
		"payment_account_id": e.PaymentAccountID,
		"project_id":         e.ProjectID,
	})
}

// ExpenseFromDocument builds an expense from a remote document.
func ExpenseFromDocument(doc Document) *Expense {
	return &Expense{
		SyncMeta:         metaFromDoc(doc),
		Date:             docString(doc, "date"),
		Category:         docString(doc, "category"),
		Amount:           docFloat(doc, "amount"),
		Description:      docString(doc, "description"),
		AccountID:        docString(doc, "account_id"),
		PaymentAccountID: docString(doc, "payment_account_id"),
		ProjectID:        docString(doc, "project_id"),
	}
}
