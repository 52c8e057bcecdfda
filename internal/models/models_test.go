package models

import (
	"testing"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct {
		from, to SyncStatus
	}{
		{SyncStatusNewOffline, SyncStatusSynced},
		{SyncStatusNewOffline, SyncStatusDeletedPending},
		{SyncStatusModifiedOffline, SyncStatusSynced},
		{SyncStatusModifiedOffline, SyncStatusDeletedPending},
		{SyncStatusSynced, SyncStatusModifiedOffline},
		{SyncStatusSynced, SyncStatusDeletedPending},
	}
	for _, tc := range allowed {
		if !CanTransition(tc.from, tc.to) {
			t.Errorf("Expected %s -> %s to be allowed", tc.from, tc.to)
		}
	}

	denied := []struct {
		from, to SyncStatus
	}{
		{SyncStatusNewOffline, SyncStatusModifiedOffline},
		{SyncStatusSynced, SyncStatusNewOffline},
		{SyncStatusSynced, SyncStatusSynced},
		{SyncStatusDeletedPending, SyncStatusSynced},
		{SyncStatusDeletedPending, SyncStatusNewOffline},
	}
	for _, tc := range denied {
		if CanTransition(tc.from, tc.to) {
			t.Errorf("Expected %s -> %s to be denied", tc.from, tc.to)
		}
	}
}

func TestMarkLocalUpdate(t *testing.T) {
	m := &SyncMeta{}
	m.MarkCreated()

	if m.SyncStatus != SyncStatusNewOffline {
		t.Errorf("Expected new_offline after create, got %s", m.SyncStatus)
	}

	// A record that never synced stays new_offline on update.
	m.MarkLocalUpdate()
	if m.SyncStatus != SyncStatusNewOffline {
		t.Errorf("Expected new_offline to stick, got %s", m.SyncStatus)
	}

	// A synced record becomes modified_offline.
	m.SyncStatus = SyncStatusSynced
	m.MarkLocalUpdate()
	if m.SyncStatus != SyncStatusModifiedOffline {
		t.Errorf("Expected modified_offline, got %s", m.SyncStatus)
	}
}

func TestIsPending(t *testing.T) {
	for _, s := range []SyncStatus{SyncStatusNewOffline, SyncStatusModifiedOffline, SyncStatusDeletedPending} {
		if !s.IsPending() {
			t.Errorf("Expected %s to be pending", s)
		}
	}
	if SyncStatusSynced.IsPending() {
		t.Error("Expected synced to not be pending")
	}
}

func TestClientValidate(t *testing.T) {
	c := &Client{}
	if err := c.Validate(); err == nil {
		t.Error("Expected validation error for empty name")
	}

	c.Name = "Acme"
	if err := c.Validate(); err != nil {
		t.Errorf("Expected valid client, got %v", err)
	}
}

func TestPaymentValidateDate(t *testing.T) {
	p := &Payment{ProjectID: "1", Amount: 500, Date: "05/01/2024"}
	if err := p.Validate(); err == nil {
		t.Error("Expected validation error for malformed date")
	}

	p.Date = "2024-01-05"
	if err := p.Validate(); err != nil {
		t.Errorf("Expected valid payment, got %v", err)
	}
	if p.Day() != "2024-01-05" {
		t.Errorf("Expected day truncation, got %s", p.Day())
	}
}

func TestClientDocumentRoundTrip(t *testing.T) {
	c := &Client{
		Name:    "Acme",
		Phone:   "0100",
		Country: "EG",
		Status:  StatusActive,
	}
	c.MarkCreated()

	doc := c.ToDocument()
	doc["_id"] = "65f000000000000000000001"

	got := ClientFromDocument(doc)
	if got.Name != "Acme" || got.Phone != "0100" || got.Country != "EG" {
		t.Errorf("Expected fields preserved, got %+v", got)
	}
	if got.RemoteID != "65f000000000000000000001" {
		t.Errorf("Expected remote id stitched from _id, got %q", got.RemoteID)
	}
	if got.LastModified != c.LastModified {
		t.Errorf("Expected last_modified preserved, got %d", got.LastModified)
	}
}

func TestInvoiceItemsJSON(t *testing.T) {
	inv := &Invoice{
		Items: []InvoiceItem{
			{Description: "Design", Quantity: 2, UnitPrice: 250, Total: 500},
		},
	}

	raw := inv.ItemsJSON()
	out := &Invoice{}
	out.SetItemsJSON(raw)

	if len(out.Items) != 1 || out.Items[0].Description != "Design" {
		t.Errorf("Expected items round-trip, got %+v", out.Items)
	}

	empty := &Invoice{}
	if empty.ItemsJSON() != "[]" {
		t.Errorf("Expected empty items as [], got %s", empty.ItemsJSON())
	}
}
