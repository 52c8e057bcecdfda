package models

import "github.com/skywaveads/erp-core/internal/errors"

// Account represents a chart-of-accounts entry. Code is assigned locally
// and is local-authoritative through reconciliation merges.
type Account struct {
	SyncMeta

	Name        string  `db:"name" json:"name"`
	Code        string  `db:"code" json:"code"`
	Type        string  `db:"type" json:"type"`
	ParentID    string  `db:"parent_id" json:"parent_id,omitempty"`
	Balance     float64 `db:"balance" json:"balance"`
	Currency    string  `db:"currency" json:"currency,omitempty"`
	Description string  `db:"description" json:"description,omitempty"`
	Status      string  `db:"status" json:"status"`
}

// TableName returns the table name for Account.
func (Account) TableName() string {
	return "accounts"
}

// Validate checks required fields.
func (a *Account) Validate() error {
	if a.Name == "" {
		return errors.New(errors.ErrValidation, "account name is required")
	}
	if a.Code == "" {
		return errors.New(errors.ErrValidation, "account code is required")
	}
	if a.Type == "" {
		return errors.New(errors.ErrValidation, "account type is required")
	}
	return nil
}

// ToDocument serializes the account for the remote store.
func (a *Account) ToDocument() Document {
	return metaToDoc(&a.SyncMeta, Document{
		"name":        a.Name,
		"code":        a.Code,
		"type":        a.Type,
		"parent_id":   a.ParentID,
		"balance":     a.Balance,
		"currency":    a.Currency,
		"description": a.Description,
		"status":      a.Status,
	})
}

// AccountFromDocument builds an account from a remote document.
func AccountFromDocument(doc Document) *Account {
	return &Account{
		SyncMeta:    metaFromDoc(doc),
		Name:        docString(doc, "name"),
		Code:        docString(doc, "code"),
		Type:        docString(doc, "type"),
		ParentID:    docString(doc, "parent_id"),
		Balance:     docFloat(doc, "balance"),
		Currency:    docString(doc, "currency"),
		Description: docString(doc, "description"),
		Status:      docString(doc, "status"),
	}
}
