package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aussiebroadwan/checkin/internal/checkin/domain"
	"github.com/aussiebroadwan/checkin/internal/checkin/store"
	"github.com/aussiebroadwan/checkin/internal/checkin/store/drivers/postgres"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	postgresImage    = "postgres:16-alpine"
	postgresUser     = "checkin"
	postgresPassword = "checkin"
	postgresDB       = "checkin"
)

// setupPostgres starts a throwaway postgres container and returns a migrated
// store connected to it.
func setupPostgres(t *testing.T) *postgres.Store {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        postgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     postgresUser,
			"POSTGRES_PASSWORD": postgresPassword,
			"POSTGRES_DB":       postgresDB,
		},
		// The server logs readiness twice: once for the init run, once for the real start.
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		).WithDeadline(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	mappedPort, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		postgresUser, postgresPassword, host, mappedPort.Port(), postgresDB)

	st, err := postgres.NewStore(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func TestPostgresStore(t *testing.T) {
	st := setupPostgres(t)
	ctx := context.Background()

	boundAt := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	t.Run("bindings round trip", func(t *testing.T) {
		repo := st.Bindings()

		require.NoError(t, repo.CreateBinding(ctx, domain.Binding{
			Identity: "S1", DeviceAddress: "10.0.0.1", BoundAt: boundAt,
		}))

		b, err := repo.GetBinding(ctx, "S1")
		require.NoError(t, err)
		require.Equal(t, "10.0.0.1", b.DeviceAddress)
		require.True(t, boundAt.Equal(b.BoundAt))

		b, err = repo.GetBindingByDevice(ctx, "10.0.0.1")
		require.NoError(t, err)
		require.Equal(t, "S1", b.Identity)

		_, err = repo.GetBinding(ctx, "S9")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("unique violations map to already exists", func(t *testing.T) {
		repo := st.Bindings()

		err := repo.CreateBinding(ctx, domain.Binding{Identity: "S1", DeviceAddress: "10.0.0.2", BoundAt: boundAt})
		require.ErrorIs(t, err, store.ErrAlreadyExists)

		err = repo.CreateBinding(ctx, domain.Binding{Identity: "S2", DeviceAddress: "10.0.0.1", BoundAt: boundAt})
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("list and unbind", func(t *testing.T) {
		repo := st.Bindings()

		require.NoError(t, repo.CreateBinding(ctx, domain.Binding{
			Identity: "S3", DeviceAddress: "10.0.0.3", BoundAt: boundAt.Add(time.Minute),
		}))

		all, err := repo.ListBindings(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		require.Equal(t, "S1", all[0].Identity)
		require.Equal(t, "S3", all[1].Identity)

		require.NoError(t, repo.DeleteBinding(ctx, "S3"))
		require.ErrorIs(t, repo.DeleteBinding(ctx, "S3"), store.ErrNotFound)

		// The released device can be bound to someone else.
		require.NoError(t, repo.CreateBinding(ctx, domain.Binding{
			Identity: "S4", DeviceAddress: "10.0.0.3", BoundAt: boundAt,
		}))
	})

	first := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	second := first.Add(2 * time.Hour)

	t.Run("replace keeps a single row per identity", func(t *testing.T) {
		repo := st.Attendance()

		require.NoError(t, repo.ReplaceRecord(ctx, domain.AttendanceRecord{
			Identity: "S1", CheckInTime: first, DateBucket: "2026-03-02",
		}))
		require.NoError(t, repo.ReplaceRecord(ctx, domain.AttendanceRecord{
			Identity: "S1", CheckInTime: second, DateBucket: "2026-03-02",
		}))

		all, err := repo.ListRecords(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		require.True(t, second.Equal(all[0].CheckInTime))
		require.True(t, all[0].Open())
		require.Equal(t, "2026-03-02", all[0].DateBucket)
	})

	t.Run("close sets checkout and duration", func(t *testing.T) {
		repo := st.Attendance()
		out := second.Add(75 * time.Second)

		require.NoError(t, repo.CloseRecord(ctx, "S1", out, "00:01:15"))
		require.ErrorIs(t, repo.CloseRecord(ctx, "nobody", out, "00:00:01"), store.ErrNotFound)

		rec, err := repo.GetRecord(ctx, "S1")
		require.NoError(t, err)
		require.False(t, rec.Open())
		require.True(t, out.Equal(*rec.CheckOutTime))
		require.Equal(t, "00:01:15", *rec.Duration)
		require.Equal(t, 75*time.Second, rec.Elapsed())
	})

	t.Run("history and inclusive date range", func(t *testing.T) {
		repo := st.Attendance()

		require.NoError(t, repo.ReplaceRecord(ctx, domain.AttendanceRecord{
			Identity: "S2", CheckInTime: first.Add(24 * time.Hour), DateBucket: "2026-03-03",
		}))
		require.NoError(t, repo.ReplaceRecord(ctx, domain.AttendanceRecord{
			Identity: "S3", CheckInTime: first.Add(-24 * time.Hour), DateBucket: "2026-03-01",
		}))

		all, err := repo.ListRecords(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"S2", "S1", "S3"}, []string{all[0].Identity, all[1].Identity, all[2].Identity})

		recs, err := repo.ListRecordsBetween(ctx, "2026-03-02", "2026-03-03")
		require.NoError(t, err)
		require.Len(t, recs, 2)
		require.Equal(t, "S1", recs[0].Identity)
		require.Equal(t, "S2", recs[1].Identity)

		recs, err = repo.ListRecordsBetween(ctx, "2026-03-04", "2026-03-08")
		require.NoError(t, err)
		require.Empty(t, recs)
	})

	t.Run("rolled back transaction leaves no binding", func(t *testing.T) {
		err := st.WithTx(ctx, func(tx store.Tx) error {
			require.NoError(t, tx.Bindings().CreateBinding(ctx, domain.Binding{
				Identity: "S5", DeviceAddress: "10.0.0.5", BoundAt: boundAt,
			}))
			return store.ErrAlreadyExists
		})
		require.ErrorIs(t, err, store.ErrAlreadyExists)

		_, err = st.Bindings().GetBinding(ctx, "S5")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}
