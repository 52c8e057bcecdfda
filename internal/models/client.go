package models

import "github.com/skywaveads/erp-core/internal/errors"

// Client represents a business client.
type Client struct {
	SyncMeta

	Name        string `db:"name" json:"name"`
	CompanyName string `db:"company_name" json:"company_name,omitempty"`
	Email       string `db:"email" json:"email,omitempty"`
	Phone       string `db:"phone" json:"phone,omitempty"`
	Address     string `db:"address" json:"address,omitempty"`
	Country     string `db:"country" json:"country,omitempty"`
	VATNumber   string `db:"vat_number" json:"vat_number,omitempty"`
	Status      string `db:"status" json:"status"`
	ClientType  string `db:"client_type" json:"client_type,omitempty"`
	WorkField   string `db:"work_field" json:"work_field,omitempty"`
	Notes       string `db:"notes" json:"notes,omitempty"`
}

// TableName returns the table name for Client.
func (Client) TableName() string {
	return "clients"
}

// Validate checks required fields.
func (c *Client) Validate() error {
	if c.Name == "" {
		return errors.New(errors.ErrValidation, "client name is required")
	}
	return nil
}

// ToDocument serializes the client for the remote store.
func (c *Client) ToDocument() Document {
	return metaToDoc(&c.SyncMeta, Document{
		"name":         c.Name,
		"company_name": c.CompanyName,
		"email":        c.Email,
		"phone":        c.Phone,
		"address":      c.Address,
		"country":      c.Country,
		"vat_number":   c.VATNumber,
		"status":       c.Status,
		"client_type":  c.ClientType,
		"work_field":   c.WorkField,
		"notes":        c.Notes,
	})
}

// ClientFromDocument builds a client from a remote document.
func ClientFromDocument(doc Document) *Client {
	return &Client{
		SyncMeta:    metaFromDoc(doc),
		Name:        docString(doc, "name"),
		CompanyName: docString(doc, "company_name"),
		Email:       docString(doc, "email"),
		Phone:       docString(doc, "phone"),
		Address:     docString(doc, "address"),
		Country:     docString(doc, "country"),
		VATNumber:   docString(doc, "vat_number"),
		Status:      docString(doc, "status"),
		ClientType:  docString(doc, "client_type"),
		WorkField:   docString(doc, "work_field"),
		Notes:       docString(doc, "notes"),
	}
}
