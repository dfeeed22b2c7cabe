package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/checkin/internal/checkin/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this and expose sub-repositories so transactions can be scoped
// over several of them without nesting.
type Store interface {
	Bindings() Bindings
	Attendance() Attendance

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. The transaction is rolled back
	// if fn returns an error and committed otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Bindings interface {
	// GetBinding returns the binding for an identity or ErrNotFound.
	GetBinding(ctx context.Context, identity string) (domain.Binding, error)

	// GetBindingByDevice returns the binding holding a device or ErrNotFound.
	GetBindingByDevice(ctx context.Context, device string) (domain.Binding, error)

	// ListBindings returns every binding, used to warm the in-memory index.
	ListBindings(ctx context.Context) ([]domain.Binding, error)

	// CreateBinding inserts a binding. Returns ErrAlreadyExists when either the
	// identity or the device is already bound.
	CreateBinding(ctx context.Context, b domain.Binding) error

	// DeleteBinding removes the binding of an identity. Returns ErrNotFound when
	// nothing was deleted.
	DeleteBinding(ctx context.Context, identity string) error
}

type Attendance interface {
	// GetRecord returns the attendance record of an identity or ErrNotFound.
	GetRecord(ctx context.Context, identity string) (domain.AttendanceRecord, error)

	// ReplaceRecord inserts the record, overwriting any existing row for the identity.
	ReplaceRecord(ctx context.Context, r domain.AttendanceRecord) error

	// CloseRecord sets the check-out time and duration of an identity's record.
	// Returns ErrNotFound when the identity has no record.
	CloseRecord(ctx context.Context, identity string, checkOut time.Time, duration string) error

	// ListRecords returns all records ordered by check-in time, newest first.
	ListRecords(ctx context.Context) ([]domain.AttendanceRecord, error)

	// ListRecordsBetween returns the records whose date bucket lies within
	// [from, to] inclusive (both YYYY-MM-DD).
	ListRecordsBetween(ctx context.Context, from, to string) ([]domain.AttendanceRecord, error)
}
