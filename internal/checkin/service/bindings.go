package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/checkin/internal/checkin/domain"
	"github.com/aussiebroadwan/checkin/internal/checkin/store"
)

// BindingStore is the authoritative identity<->device table. It keeps a dual
// in-memory index for cheap lookups in both directions and writes through to
// the durable store: a mutation reaches memory only after the durable write
// succeeded. A single mutex serializes every read-then-write sequence over
// both indexes.
type BindingStore struct {
	Store   store.Store
	Logger  *slog.Logger
	Metrics *Metrics
	Now     func() time.Time

	mu         sync.RWMutex
	byIdentity map[string]string
	byDevice   map[string]string
}

// NewBindingStore creates a BindingStore and loads every persisted binding
// into memory.
func NewBindingStore(ctx context.Context, st store.Store, logger *slog.Logger, metrics *Metrics) (*BindingStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	b := &BindingStore{
		Store:   st,
		Logger:  logger,
		Metrics: metrics,
		Now:     time.Now,
	}

	if err := b.Load(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

// Load replaces the in-memory index with the persisted bindings.
func (b *BindingStore) Load(ctx context.Context) error {
	bindings, err := b.Store.Bindings().ListBindings(ctx)
	if err != nil {
		return fmt.Errorf("load bindings: %w", err)
	}

	byIdentity := make(map[string]string, len(bindings))
	byDevice := make(map[string]string, len(bindings))
	for _, binding := range bindings {
		byIdentity[binding.Identity] = binding.DeviceAddress
		byDevice[binding.DeviceAddress] = binding.Identity
	}

	b.mu.Lock()
	b.byIdentity = byIdentity
	b.byDevice = byDevice
	b.mu.Unlock()

	b.Metrics.boundDevices(len(bindings))
	b.Logger.Info("device bindings loaded", "count", len(bindings))
	return nil
}

func (b *BindingStore) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

// DeviceBoundTo returns the device bound to identity according to memory.
func (b *BindingStore) DeviceBoundTo(identity string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	device, ok := b.byIdentity[identity]
	return device, ok
}

// IdentityBoundTo returns the identity holding device according to memory.
func (b *BindingStore) IdentityBoundTo(device string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	identity, ok := b.byDevice[device]
	return identity, ok
}

// Count returns the number of bindings held in memory.
func (b *BindingStore) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.byIdentity)
}

// Lookup reads the binding of identity from durable storage.
func (b *BindingStore) Lookup(ctx context.Context, identity string) (domain.Binding, bool, error) {
	binding, err := b.Store.Bindings().GetBinding(ctx, identity)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return domain.Binding{}, false, nil
	case err != nil:
		return domain.Binding{}, false, storageError(MsgTryAgain, err)
	}
	return binding, true, nil
}

// Bind binds identity to device. Binding the same pair again is a no-op. It
// fails with a conflict when either side is already bound elsewhere, checked
// against memory and then against durable storage.
func (b *BindingStore) Bind(ctx context.Context, identity, device string) (domain.Binding, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if holder, ok := b.byDevice[device]; ok && holder != identity {
		return domain.Binding{}, conflictError(DeviceClaimedMsg(holder))
	}

	repo := b.Store.Bindings()

	existing, err := repo.GetBinding(ctx, identity)
	switch {
	case err == nil:
		if existing.DeviceAddress != device {
			return domain.Binding{}, conflictError(MsgIdentityElsewhere)
		}
		b.setLocked(existing.Identity, existing.DeviceAddress)
		return existing, nil
	case !errors.Is(err, store.ErrNotFound):
		return domain.Binding{}, storageError(MsgTryAgain, err)
	}

	holder, err := repo.GetBindingByDevice(ctx, device)
	switch {
	case err == nil:
		return domain.Binding{}, conflictError(DeviceClaimedMsg(holder.Identity))
	case !errors.Is(err, store.ErrNotFound):
		return domain.Binding{}, storageError(MsgTryAgain, err)
	}

	binding := domain.Binding{
		Identity:      identity,
		DeviceAddress: device,
		BoundAt:       b.now().UTC(),
	}
	if err := repo.CreateBinding(ctx, binding); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Binding{}, conflictError(MsgIdentityElsewhere)
		}
		return domain.Binding{}, storageError(MsgTryAgain, err)
	}

	b.setLocked(identity, device)
	b.Logger.Info("device bound", "identity", identity, "device", device)
	return binding, nil
}

// Unbind removes the binding of identity.
func (b *BindingStore) Unbind(ctx context.Context, identity string) error {
	return b.unbind(ctx, identity, "")
}

// UnbindFrom removes the binding of identity only if the persisted binding
// names device.
func (b *BindingStore) UnbindFrom(ctx context.Context, identity, device string) error {
	return b.unbind(ctx, identity, device)
}

func (b *BindingStore) unbind(ctx context.Context, identity, device string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	repo := b.Store.Bindings()

	existing, err := repo.GetBinding(ctx, identity)
	switch {
	case errors.Is(err, store.ErrNotFound):
		b.dropLocked(identity)
		return notFoundError(MsgNoBinding)
	case err != nil:
		return storageError(MsgTryAgain, err)
	}

	if device != "" && existing.DeviceAddress != device {
		return authorizationError(MsgNotOnBoundDevice)
	}

	if err := repo.DeleteBinding(ctx, identity); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			b.dropLocked(identity)
			return notFoundError(MsgNoBinding)
		}
		return storageError(MsgTryAgain, err)
	}

	b.dropLocked(identity)
	if b.byDevice[existing.DeviceAddress] == identity {
		delete(b.byDevice, existing.DeviceAddress)
	}
	b.Metrics.boundDevices(len(b.byIdentity))
	b.Logger.Info("device unbound", "identity", identity, "device", existing.DeviceAddress)
	return nil
}

// setLocked records a pair in both indexes. b.mu must be held.
func (b *BindingStore) setLocked(identity, device string) {
	if b.byIdentity == nil {
		b.byIdentity = make(map[string]string)
		b.byDevice = make(map[string]string)
	}
	if old, ok := b.byIdentity[identity]; ok && old != device && b.byDevice[old] == identity {
		delete(b.byDevice, old)
	}
	b.byIdentity[identity] = device
	b.byDevice[device] = identity
	b.Metrics.boundDevices(len(b.byIdentity))
}

// dropLocked removes identity and the device it held from both indexes.
// b.mu must be held.
func (b *BindingStore) dropLocked(identity string) {
	if device, ok := b.byIdentity[identity]; ok {
		delete(b.byIdentity, identity)
		if b.byDevice[device] == identity {
			delete(b.byDevice, device)
		}
	}
}
