package repo

import (
	"github.com/skywaveads/erp-core/internal/cache"
	"github.com/skywaveads/erp-core/internal/models"
)

// CreateClient validates, checks for duplicates and stores a new client.
// The record is immediately readable; the remote mirror follows in the
// background.
func (r *Repository) CreateClient(c *models.Client) error {
	if c.Status == "" {
		c.Status = models.StatusActive
	}
	if err := c.Validate(); err != nil {
		return err
	}
	if err := r.guard.CheckClient(c); err != nil {
		return err
	}

	c.MarkCreated()
	if err := r.store.InsertClient(c); err != nil {
		return err
	}
	r.invalidate("clients")
	r.mirrorCreate("clients", c.LocalID)
	return nil
}

// UpdateClient validates and stores changed client fields.
func (r *Repository) UpdateClient(c *models.Client) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := r.guard.CheckClient(c); err != nil {
		return err
	}

	c.MarkLocalUpdate()
	if err := r.store.UpdateClient(c); err != nil {
		return err
	}
	r.invalidate("clients")
	r.mirrorUpdate("clients", c.LocalID)
	return nil
}

// ArchiveClient hides a client from active listings without losing its
// history.
func (r *Repository) ArchiveClient(locator string) error {
	c, err := r.store.GetClient(locator)
	if err != nil {
		return err
	}
	c.Status = models.StatusArchived
	c.MarkLocalUpdate()
	if err := r.store.UpdateClient(c); err != nil {
		return err
	}
	r.invalidate("clients")
	r.mirrorUpdate("clients", c.LocalID)
	return nil
}

// DeleteClient removes a client permanently.
func (r *Repository) DeleteClient(locator string) error {
	return r.deleteRecord("clients", locator)
}

// GetClient retrieves a client by local or remote id.
func (r *Repository) GetClient(locator string) (*models.Client, error) {
	return r.store.GetClient(locator)
}

// GetClients returns active clients, cached.
func (r *Repository) GetClients() ([]*models.Client, error) {
	return listCached(r, cache.Key("clients", "list", models.StatusActive), func() ([]*models.Client, error) {
		return r.store.ListClients(models.StatusActive)
	})
}

// GetArchivedClients returns archived clients, cached.
func (r *Repository) GetArchivedClients() ([]*models.Client, error) {
	return listCached(r, cache.Key("clients", "list", models.StatusArchived), func() ([]*models.Client, error) {
		return r.store.ListClients(models.StatusArchived)
	})
}

// SearchClients matches active clients by name, company or phone.
func (r *Repository) SearchClients(term string) ([]*models.Client, error) {
	return r.store.SearchClients(term)
}
