package sqlite

import (
	"context"

	"github.com/aussiebroadwan/checkin/internal/checkin/domain"
	"github.com/aussiebroadwan/checkin/internal/checkin/store"
)

type bindingsRepo struct {
	q *queries
}

func (r *bindingsRepo) GetBinding(ctx context.Context, identity string) (domain.Binding, error) {
	row, err := r.q.GetBinding(ctx, identity)
	if err != nil {
		return domain.Binding{}, mapNotFound(err)
	}
	return mapBinding(row)
}

func (r *bindingsRepo) GetBindingByDevice(ctx context.Context, device string) (domain.Binding, error) {
	row, err := r.q.GetBindingByDevice(ctx, device)
	if err != nil {
		return domain.Binding{}, mapNotFound(err)
	}
	return mapBinding(row)
}

func (r *bindingsRepo) ListBindings(ctx context.Context) ([]domain.Binding, error) {
	rows, err := r.q.ListBindings(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Binding, 0, len(rows))
	for _, row := range rows {
		b, err := mapBinding(row)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *bindingsRepo) CreateBinding(ctx context.Context, b domain.Binding) error {
	err := r.q.CreateBinding(ctx, bindingRow{
		Identity:      b.Identity,
		DeviceAddress: b.DeviceAddress,
		BoundAt:       formatTime(b.BoundAt),
	})
	return mapConstraint(err)
}

func (r *bindingsRepo) DeleteBinding(ctx context.Context, identity string) error {
	n, err := r.q.DeleteBinding(ctx, identity)
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
