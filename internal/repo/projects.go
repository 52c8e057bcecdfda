package repo

import (
	"github.com/skywaveads/erp-core/internal/cache"
	"github.com/skywaveads/erp-core/internal/models"
)

// CreateProject validates, checks for duplicates and stores a new
// project.
func (r *Repository) CreateProject(p *models.Project) error {
	if p.Status == "" {
		p.Status = models.StatusActive
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if err := r.guard.CheckProject(p); err != nil {
		return err
	}

	p.MarkCreated()
	if err := r.store.InsertProject(p); err != nil {
		return err
	}
	r.invalidate("projects")
	r.mirrorCreate("projects", p.LocalID)
	return nil
}

// UpdateProject validates and stores changed project fields.
func (r *Repository) UpdateProject(p *models.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := r.guard.CheckProject(p); err != nil {
		return err
	}

	p.MarkLocalUpdate()
	if err := r.store.UpdateProject(p); err != nil {
		return err
	}
	r.invalidate("projects")
	r.mirrorUpdate("projects", p.LocalID)
	return nil
}

// ArchiveProject hides a project from active listings.
func (r *Repository) ArchiveProject(locator string) error {
	p, err := r.store.GetProject(locator)
	if err != nil {
		return err
	}
	p.Status = models.StatusArchived
	p.MarkLocalUpdate()
	if err := r.store.UpdateProject(p); err != nil {
		return err
	}
	r.invalidate("projects")
	r.mirrorUpdate("projects", p.LocalID)
	return nil
}

// DeleteProject removes a project permanently.
func (r *Repository) DeleteProject(locator string) error {
	return r.deleteRecord("projects", locator)
}

// GetProject retrieves a project by local or remote id.
func (r *Repository) GetProject(locator string) (*models.Project, error) {
	return r.store.GetProject(locator)
}

// GetProjects returns active projects, cached.
func (r *Repository) GetProjects() ([]*models.Project, error) {
	return listCached(r, cache.Key("projects", "list", models.StatusActive), func() ([]*models.Project, error) {
		return r.store.ListProjects(models.StatusActive)
	})
}

// GetArchivedProjects returns archived projects, cached.
func (r *Repository) GetArchivedProjects() ([]*models.Project, error) {
	return listCached(r, cache.Key("projects", "list", models.StatusArchived), func() ([]*models.Project, error) {
		return r.store.ListProjects(models.StatusArchived)
	})
}

// GetProjectsForClient returns a client's projects.
func (r *Repository) GetProjectsForClient(clientID string) ([]*models.Project, error) {
	return r.store.ListProjectsForClient(clientID)
}

// GetProjectRevenue sums the payments received for a project.
func (r *Repository) GetProjectRevenue(projectID string) (float64, error) {
	return r.store.ProjectRevenue(projectID)
}

// GetProjectExpenses sums the expenses charged to a project.
func (r *Repository) GetProjectExpenses(projectID string) (float64, error) {
	return r.store.ProjectExpenses(projectID)
}
