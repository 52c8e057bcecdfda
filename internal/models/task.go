package models

import "github.com/skywaveads/erp-core/internal/errors"

// Task statuses and priorities.
const (
	TaskStatusOpen      = "open"
	TaskStatusDone      = "done"
	TaskPriorityLow     = "low"
	TaskPriorityMedium  = "medium"
	TaskPriorityHigh    = "high"
)

// Task represents a work item. Tasks used to be loosely-typed dictionaries
// in the desktop layer; they are an explicit struct here so sync metadata
// travels with compile-time guarantees.
type Task struct {
	SyncMeta

	Title       string `db:"title" json:"title"`
	Description string `db:"description" json:"description,omitempty"`
	Status      string `db:"status" json:"status"`
	Priority    string `db:"priority" json:"priority"`
	AssignedTo  string `db:"assigned_to" json:"assigned_to,omitempty"`
	DueDate     string `db:"due_date" json:"due_date,omitempty"`
	ProjectID   string `db:"project_id" json:"project_id,omitempty"`
}

// TableName returns the table name for Task.
func (Task) TableName() string {
	return "tasks"
}

// Validate checks required fields.
func (t *Task) Validate() error {
	if t.Title == "" {
		return errors.New(errors.ErrValidation, "task title is required")
	}
	return nil
}

// ToDocument serializes the task for the remote store.
func (t *Task) ToDocument() Document {
	return metaToDoc(&t.SyncMeta, Document{
		"title":       t.Title,
		"description": t.Description,
		"status":      t.Status,
		"priority":    t.Priority,
		"assigned_to": t.AssignedTo,
		"due_date":    t.DueDate,
		"project_id":  t.ProjectID,
	})
}

// TaskFromDocument builds a task from a remote document.
func TaskFromDocument(doc Document) *Task {
	return &Task{
		SyncMeta:    metaFromDoc(doc),
		Title:       docString(doc, "title"),
		Description: docString(doc, "description"),
		Status:      docString(doc, "status"),
		Priority:    docString(doc, "priority"),
		AssignedTo:  docString(doc, "assigned_to"),
		DueDate:     docString(doc, "due_date"),
		ProjectID:   docString(doc, "project_id"),
	}
}
