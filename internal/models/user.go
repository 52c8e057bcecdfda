package models

import "github.com/skywaveads/erp-core/internal/errors"

// User represents an application user. Username is local-authoritative
// through reconciliation merges.
type User struct {
	SyncMeta

	Username     string `db:"username" json:"username"`
	PasswordHash string `db:"password_hash" json:"password_hash"`
	Role         string `db:"role" json:"role"`
	FullName     string `db:"full_name" json:"full_name,omitempty"`
	Email        string `db:"email" json:"email,omitempty"`
	IsActive     bool   `db:"is_active" json:"is_active"`
	LastLogin    string `db:"last_login" json:"last_login,omitempty"`
}

// TableName returns the table name for User.
func (User) TableName() string {
	return "users"
}

// Validate checks required fields.
func (u *User) Validate() error {
	if u.Username == "" {
		return errors.New(errors.ErrValidation, "username is required")
	}
	if u.PasswordHash == "" {
		return errors.New(errors.ErrValidation, "password hash is required")
	}
	if u.Role == "" {
		return errors.New(errors.ErrValidation, "user role is required")
	}
	return nil
}

// ToDocument serializes the user for the remote store.
func (u *User) ToDocument() Document {
	return metaToDoc(&u.SyncMeta, Document{
		"username":      u.Username,
		"password_hash": u.PasswordHash,
		"role":          u.Role,
		"full_name":     u.FullName,
		"email":         u.Email,
		"is_active":     u.IsActive,
		"last_login":    u.LastLogin,
	})
}

// UserFromDocument builds a user from a remote document.
func UserFromDocument(doc Document) *User {
	return &User{
		SyncMeta:     metaFromDoc(doc),
		Username:     docString(doc, "username"),
		PasswordHash: docString(doc, "password_hash"),
		Role:         docString(doc, "role"),
		FullName:     docString(doc, "full_name"),
		Email:        docString(doc, "email"),
		IsActive:     docBool(doc, "is_active"),
		LastLogin:    docString(doc, "last_login"),
	}
}
