package db

import (
	"database/sql"

	"github.com/skywaveads/erp-core/internal/errors"
	"github.com/skywaveads/erp-core/internal/models"
)

const clientColumns = `id, remote_id, sync_status, created_at, last_modified,
	name, company_name, email, phone, address, country, vat_number, status,
	client_type, work_field, notes`

func scanClient(row rowScanner) (*models.Client, error) {
	var c models.Client
	err := row.Scan(
		&c.LocalID, &c.RemoteID, &c.SyncStatus, &c.CreatedAt, &c.LastModified,
		&c.Name, &c.CompanyName, &c.Email, &c.Phone, &c.Address, &c.Country,
		&c.VATNumber, &c.Status, &c.ClientType, &c.WorkField, &c.Notes,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// InsertClient inserts a client and assigns its local id. The caller owns
// the sync metadata: fresh records carry new_offline, records pulled from
// the remote store carry synced plus their remote id.
func (s *Store) InsertClient(c *models.Client) error {
	res, err := s.exec(`
		INSERT INTO clients (remote_id, sync_status, created_at, last_modified,
			name, company_name, email, phone, address, country, vat_number,
			status, client_type, work_field, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.RemoteID, c.SyncStatus, c.CreatedAt, c.LastModified,
		c.Name, c.CompanyName, c.Email, c.Phone, c.Address, c.Country,
		c.VATNumber, c.Status, c.ClientType, c.WorkField, c.Notes,
	)
	if err != nil {
		return errors.Wrap(errors.ErrLocalStore, "client insert failed", err)
	}
	c.LocalID, err = res.LastInsertId()
	if err != nil {
		return errors.Wrap(errors.ErrLocalStore, "client insert id", err)
	}
	return nil
}

// UpdateClient writes a client's business fields and sync metadata by
// local id.
func (s *Store) UpdateClient(c *models.Client) error {
	res, err := s.exec(`
		UPDATE clients SET
			sync_status = ?, last_modified = ?,
			name = ?, company_name = ?, email = ?, phone = ?, address = ?,
			country = ?, vat_number = ?, status = ?, client_type = ?,
			work_field = ?, notes = ?
		WHERE id = ?`,
		c.SyncStatus, c.LastModified,
		c.Name, c.CompanyName, c.Email, c.Phone, c.Address, c.Country,
		c.VATNumber, c.Status, c.ClientType, c.WorkField, c.Notes,
		c.LocalID,
	)
	if err != nil {
		return errors.Wrap(errors.ErrLocalStore, "client update failed", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Newf(errors.ErrNotFound, "client %d not found", c.LocalID)
	}
	return nil
}

// GetClient retrieves a client by locator (local id or remote id).
func (s *Store) GetClient(locator string) (*models.Client, error) {
	c, err := scanClient(s.db.QueryRow(
		"SELECT "+clientColumns+" FROM clients WHERE id = ? OR (remote_id != '' AND remote_id = ?)",
		parseLocalID(locator), locator,
	))
	if err == sql.ErrNoRows {
		return nil, errors.Newf(errors.ErrNotFound, "client %q not found", locator)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrLocalStore, "client lookup failed", err)
	}
	return c, nil
}

// ListClients returns clients with the given record status, ordered by
// name.
func (s *Store) ListClients(status string) ([]*models.Client, error) {
	return queryAll(s, scanClient,
		"SELECT "+clientColumns+" FROM clients WHERE status = ? AND sync_status != ? ORDER BY name",
		status, models.SyncStatusDeletedPending,
	)
}

// ListPendingClients returns clients whose sync status requires a remote
// operation.
func (s *Store) ListPendingClients() ([]*models.Client, error) {
	return queryAll(s, scanClient,
		"SELECT "+clientColumns+" FROM clients WHERE sync_status != ? ORDER BY id",
		models.SyncStatusSynced,
	)
}

// SearchClients returns active clients whose name, company or phone
// matches the term.
func (s *Store) SearchClients(term string) ([]*models.Client, error) {
	like := "%" + term + "%"
	return queryAll(s, scanClient,
		`SELECT `+clientColumns+` FROM clients
		 WHERE status = ? AND (name LIKE ? OR company_name LIKE ? OR phone LIKE ?)
		 ORDER BY name`,
		models.StatusActive, like, like, like,
	)
}
