// Package sync keeps the local store and the remote mirror converged.
// The local store is authoritative for the user path; everything here
// runs in the background and absorbs remote failures into the retry
// queue.
package sync

import (
	"strconv"

	"github.com/skywaveads/erp-core/internal/db"
	"github.com/skywaveads/erp-core/internal/models"
)

// Pending is one record's sync-relevant state, independent of entity
// type.
type Pending struct {
	LocalID      int64
	RemoteID     string
	SyncStatus   models.SyncStatus
	LastModified int64
	Doc          models.Document
}

// Codec adapts one entity type to the engine. The remote collection name
// equals the table name.
type Codec struct {
	Table string

	// ListPending returns records whose sync status requires a remote
	// operation.
	ListPending func(s *db.Store) ([]Pending, error)

	// Load returns one record's current state.
	Load func(s *db.Store, localID int64) (Pending, error)

	// InsertLocal inserts a record pulled from the remote store, already
	// carrying its remote id and synced status.
	InsertLocal func(s *db.Store, doc models.Document) error

	// MergeRemote applies a remote document onto an existing local row,
	// keeping fields this installation owns.
	MergeRemote func(s *db.Store, localID int64, doc models.Document) error
}

type syncModel interface {
	Meta() *models.SyncMeta
	ToDocument() models.Document
}

// codecFor builds a Codec from an entity's store accessors. preserve, when
// not nil, copies fields the local installation owns from the existing
// row onto the incoming record before a merge.
func codecFor[T syncModel](
	table string,
	listPending func(*db.Store) ([]T, error),
	get func(*db.Store, string) (T, error),
	fromDoc func(models.Document) T,
	insert func(*db.Store, T) error,
	update func(*db.Store, T) error,
	preserve func(existing, incoming T),
) Codec {
	toPending := func(rec T) Pending {
		meta := rec.Meta()
		return Pending{
			LocalID:      meta.LocalID,
			RemoteID:     meta.RemoteID,
			SyncStatus:   meta.SyncStatus,
			LastModified: meta.LastModified,
			Doc:          rec.ToDocument(),
		}
	}

	return Codec{
		Table: table,

		ListPending: func(s *db.Store) ([]Pending, error) {
			recs, err := listPending(s)
			if err != nil {
				return nil, err
			}
			out := make([]Pending, 0, len(recs))
			for _, rec := range recs {
				out = append(out, toPending(rec))
			}
			return out, nil
		},

		Load: func(s *db.Store, localID int64) (Pending, error) {
			rec, err := get(s, strconv.FormatInt(localID, 10))
			if err != nil {
				return Pending{}, err
			}
			return toPending(rec), nil
		},

		InsertLocal: func(s *db.Store, doc models.Document) error {
			rec := fromDoc(doc)
			rec.Meta().SyncStatus = models.SyncStatusSynced
			return insert(s, rec)
		},

		MergeRemote: func(s *db.Store, localID int64, doc models.Document) error {
			existing, err := get(s, strconv.FormatInt(localID, 10))
			if err != nil {
				return err
			}
			incoming := fromDoc(doc)
			if preserve != nil {
				preserve(existing, incoming)
			}
			meta := incoming.Meta()
			meta.LocalID = localID
			meta.RemoteID = existing.Meta().RemoteID
			meta.SyncStatus = models.SyncStatusSynced
			if meta.CreatedAt == 0 {
				meta.CreatedAt = existing.Meta().CreatedAt
			}
			return update(s, incoming)
		},
	}
}

// Codecs returns the registry for every synchronized entity type, in
// dependency order.
func Codecs() []Codec {
	return []Codec{
		codecFor("clients",
			(*db.Store).ListPendingClients, (*db.Store).GetClient,
			models.ClientFromDocument,
			(*db.Store).InsertClient, (*db.Store).UpdateClient, nil),
		codecFor("projects",
			(*db.Store).ListPendingProjects, (*db.Store).GetProject,
			models.ProjectFromDocument,
			(*db.Store).InsertProject, (*db.Store).UpdateProject, nil),
		codecFor("invoices",
			(*db.Store).ListPendingInvoices, (*db.Store).GetInvoice,
			models.InvoiceFromDocument,
			(*db.Store).InsertInvoice, (*db.Store).UpdateInvoice,
			func(existing, incoming *models.Invoice) {
				// Invoice numbers come from the local sequence.
				incoming.InvoiceNumber = existing.InvoiceNumber
			}),
		codecFor("payments",
			(*db.Store).ListPendingPayments, (*db.Store).GetPayment,
			models.PaymentFromDocument,
			(*db.Store).InsertPayment, (*db.Store).UpdatePayment, nil),
		codecFor("accounts",
			(*db.Store).ListPendingAccounts, (*db.Store).GetAccount,
			models.AccountFromDocument,
			(*db.Store).InsertAccount, (*db.Store).UpdateAccount,
			func(existing, incoming *models.Account) {
				incoming.Code = existing.Code
			}),
		codecFor("expenses",
			(*db.Store).ListPendingExpenses, (*db.Store).GetExpense,
			models.ExpenseFromDocument,
			(*db.Store).InsertExpense, (*db.Store).UpdateExpense, nil),
		codecFor("services",
			(*db.Store).ListPendingServices, (*db.Store).GetService,
			models.ServiceFromDocument,
			(*db.Store).InsertService, (*db.Store).UpdateService, nil),
		codecFor("users",
			(*db.Store).ListPendingUsers, (*db.Store).GetUser,
			models.UserFromDocument,
			(*db.Store).InsertUser, (*db.Store).UpdateUser,
			func(existing, incoming *models.User) {
				incoming.Username = existing.Username
			}),
		codecFor("tasks",
			(*db.Store).ListPendingTasks, (*db.Store).GetTask,
			models.TaskFromDocument,
			(*db.Store).InsertTask, (*db.Store).UpdateTask, nil),
	}
}

// CodecFor returns the codec for one entity table.
func CodecFor(table string) (Codec, bool) {
	for _, c := range Codecs() {
		if c.Table == table {
			return c, true
		}
	}
	return Codec{}, false
}
