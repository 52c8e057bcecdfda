package models

import "github.com/skywaveads/erp-core/internal/errors"

// Project represents a client project.
type Project struct {
	SyncMeta

	Name        string  `db:"name" json:"name"`
	ClientID    string  `db:"client_id" json:"client_id"`
	Status      string  `db:"status" json:"status"`
	Description string  `db:"description" json:"description,omitempty"`
	StartDate   string  `db:"start_date" json:"start_date,omitempty"`
	EndDate     string  `db:"end_date" json:"end_date,omitempty"`
	TotalAmount float64 `db:"total_amount" json:"total_amount"`
	Currency    string  `db:"currency" json:"currency,omitempty"`
	Notes       string  `db:"notes" json:"notes,omitempty"`
}

// TableName returns the table name for Project.
func (Project) TableName() string {
	return "projects"
}

// Validate checks required fields.
func (p *Project) Validate() error {
	if p.Name == "" {
		return errors.New(errors.ErrValidation, "project name is required")
	}
	if p.ClientID == "" {
		return errors.New(errors.ErrValidation, "project client is required")
	}
	return nil
}

// ToDocument serializes the project for the remote store.
func (p *Project) ToDocument() Document {
	return metaToDoc(&p.SyncMeta, Document{
		"name":         p.Name,
		"client_id":    p.ClientID,
		"status":       p.Status,
		"description":  p.Description,
		"start_date":   p.StartDate,
		"end_date":     p.EndDate,
		"total_amount": p.TotalAmount,
		"currency":     p.Currency,
		"notes":        p.Notes,
	})
}

// ProjectFromDocument builds a project from a remote document.
func ProjectFromDocument(doc Document) *Project {
	return &Project{
		SyncMeta:    metaFromDoc(doc),
		Name:        docString(doc, "name"),
		ClientID:    docString(doc, "client_id"),
		Status:      docString(doc, "status"),
		Description: docString(doc, "description"),
		StartDate:   docString(doc, "start_date"),
		EndDate:     docString(doc, "end_date"),
		TotalAmount: docFloat(doc, "total_amount"),
		Currency:    docString(doc, "currency"),
		Notes:       docString(doc, "notes"),
	}
}
