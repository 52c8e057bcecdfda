package models

import "github.com/skywaveads/erp-core/internal/errors"

// Service represents a sellable service from the catalog.
type Service struct {
	SyncMeta

	Name         string  `db:"name" json:"name"`
	Description  string  `db:"description" json:"description,omitempty"`
	DefaultPrice float64 `db:"default_price" json:"default_price"`
	Category     string  `db:"category" json:"category,omitempty"`
	Status       string  `db:"status" json:"status"`
}

// TableName returns the table name for Service.
func (Service) TableName() string {
	return "services"
}

// Validate checks required fields.
func (s *Service) Validate() error {
	if s.Name == "" {
		return errors.New(errors.ErrValidation, "service name is required")
	}
	if s.DefaultPrice < 0 {
		return errors.New(errors.ErrValidation, "service price must not be negative")
	}
	return nil
}

// ToDocument serializes the service for the remote store.
func (s *Service) ToDocument() Document {
	return metaToDoc(&s.SyncMeta, Document{
		"name":          s.Name,
		"description":   s.Description,
		"default_price": s.DefaultPrice,
		"category":      s.Category,
		"status":        s.Status,
	})
}

// ServiceFromDocument builds a service from a remote document.
func ServiceFromDocument(doc Document) *Service {
	return &Service{
		SyncMeta:     metaFromDoc(doc),
		Name:         docString(doc, "name"),
		Description:  docString(doc, "description"),
		DefaultPrice: docFloat(doc, "default_price"),
		Category:     docString(doc, "category"),
		Status:       docString(doc, "status"),
	}
}
