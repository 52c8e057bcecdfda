package repo

import (
	"github.com/skywaveads/erp-core/internal/cache"
	"github.com/skywaveads/erp-core/internal/models"
)

// CreateService validates, checks the name and stores a new service
// offering.
func (r *Repository) CreateService(sv *models.Service) error {
	if sv.Status == "" {
		sv.Status = models.StatusActive
	}
	if err := sv.Validate(); err != nil {
		return err
	}
	if err := r.guard.CheckService(sv); err != nil {
		return err
	}

	sv.MarkCreated()
	if err := r.store.InsertService(sv); err != nil {
		return err
	}
	r.invalidate("services")
	r.mirrorCreate("services", sv.LocalID)
	return nil
}

// UpdateService validates and stores changed service fields.
func (r *Repository) UpdateService(sv *models.Service) error {
	if err := sv.Validate(); err != nil {
		return err
	}
	if err := r.guard.CheckService(sv); err != nil {
		return err
	}

	sv.MarkLocalUpdate()
	if err := r.store.UpdateService(sv); err != nil {
		return err
	}
	r.invalidate("services")
	r.mirrorUpdate("services", sv.LocalID)
	return nil
}

// ArchiveService hides a service from active listings.
func (r *Repository) ArchiveService(locator string) error {
	sv, err := r.store.GetService(locator)
	if err != nil {
		return err
	}
	sv.Status = models.StatusArchived
	sv.MarkLocalUpdate()
	if err := r.store.UpdateService(sv); err != nil {
		return err
	}
	r.invalidate("services")
	r.mirrorUpdate("services", sv.LocalID)
	return nil
}

// DeleteService removes a service permanently.
func (r *Repository) DeleteService(locator string) error {
	return r.deleteRecord("services", locator)
}

// GetService retrieves a service by local or remote id.
func (r *Repository) GetService(locator string) (*models.Service, error) {
	return r.store.GetService(locator)
}

// GetServices returns active services, cached.
func (r *Repository) GetServices() ([]*models.Service, error) {
	return listCached(r, cache.Key("services", "list", models.StatusActive), func() ([]*models.Service, error) {
		return r.store.ListServices(models.StatusActive)
	})
}

// CreateUser validates, checks the username and stores a new user.
func (r *Repository) CreateUser(u *models.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	if err := r.guard.CheckUser(u); err != nil {
		return err
	}

	u.MarkCreated()
	if err := r.store.InsertUser(u); err != nil {
		return err
	}
	r.invalidate("users")
	r.mirrorCreate("users", u.LocalID)
	return nil
}

// UpdateUser validates and stores changed user fields.
func (r *Repository) UpdateUser(u *models.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	if err := r.guard.CheckUser(u); err != nil {
		return err
	}

	u.MarkLocalUpdate()
	if err := r.store.UpdateUser(u); err != nil {
		return err
	}
	r.invalidate("users")
	r.mirrorUpdate("users", u.LocalID)
	return nil
}

// DeleteUser removes a user permanently.
func (r *Repository) DeleteUser(locator string) error {
	return r.deleteRecord("users", locator)
}

// GetUser retrieves a user by local or remote id.
func (r *Repository) GetUser(locator string) (*models.User, error) {
	return r.store.GetUser(locator)
}

// GetUserByUsername retrieves a user by their username.
func (r *Repository) GetUserByUsername(username string) (*models.User, error) {
	return r.store.GetUserByUsername(username)
}

// GetUsers returns all users, cached.
func (r *Repository) GetUsers() ([]*models.User, error) {
	return listCached(r, cache.Key("users", "list"), r.store.ListUsers)
}

// CreateTask validates and stores a new task.
func (r *Repository) CreateTask(t *models.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}

	t.MarkCreated()
	if err := r.store.InsertTask(t); err != nil {
		return err
	}
	r.invalidate("tasks")
	r.mirrorCreate("tasks", t.LocalID)
	return nil
}

// UpdateTask validates and stores changed task fields.
func (r *Repository) UpdateTask(t *models.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}

	t.MarkLocalUpdate()
	if err := r.store.UpdateTask(t); err != nil {
		return err
	}
	r.invalidate("tasks")
	r.mirrorUpdate("tasks", t.LocalID)
	return nil
}

// DeleteTask removes a task permanently.
func (r *Repository) DeleteTask(locator string) error {
	return r.deleteRecord("tasks", locator)
}

// GetTask retrieves a task by local or remote id.
func (r *Repository) GetTask(locator string) (*models.Task, error) {
	return r.store.GetTask(locator)
}

// GetTasks returns all tasks, cached.
func (r *Repository) GetTasks() ([]*models.Task, error) {
	return listCached(r, cache.Key("tasks", "list"), r.store.ListTasks)
}

// GetTasksForProject returns a project's tasks.
func (r *Repository) GetTasksForProject(projectID string) ([]*models.Task, error) {
	return r.store.ListTasksForProject(projectID)
}
