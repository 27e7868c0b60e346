package registry_test

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/chifouu65/sass-hub-v2-sub000/internal/config"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/model"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/registry"
)

func databaseTemplate() config.Database {
	return config.Database{
		Name: "saashub",
		Port: "5432",
		Host: commoncfg.SourceRef{Value: "localhost", Source: commoncfg.EmbeddedSourceValue},
		User: commoncfg.SourceRef{Value: "saashub", Source: commoncfg.EmbeddedSourceValue},
		Secret: commoncfg.SourceRef{
			Value:  "secret",
			Source: commoncfg.EmbeddedSourceValue,
		},
	}
}

func gormOverSQLMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	sqlDB, smock, err := sqlmock.New()
	require.NoError(t, err)

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return gdb, smock, sqlDB
}

// testRegistry tracks every handle the injected opener produced, so tests can
// assert on open counts and close stale handles on demand.
type testRegistry struct {
	*registry.Registry

	mu      sync.Mutex
	opens   atomic.Int64
	handles map[string][]*sql.DB
}

func newTestRegistry(t *testing.T) (*testRegistry, sqlmock.Sqlmock) {
	t.Helper()

	control, controlMock, _ := gormOverSQLMock(t)

	tr := &testRegistry{handles: map[string][]*sql.DB{}}

	tr.Registry = registry.New(control, databaseTemplate(),
		registry.WithOpenFunc(func(_ context.Context, dsn string) (*gorm.DB, error) {
			conn, handleMock, sqlDB := gormOverSQLMock(t)

			// Tenant handles carry no query expectations; tests (and the
			// registry itself) may close them at any point.
			handleMock.ExpectClose()

			tr.opens.Add(1)

			tr.mu.Lock()
			tr.handles[dsn] = append(tr.handles[dsn], sqlDB)
			tr.mu.Unlock()

			return conn, nil
		}))

	return tr, controlMock
}

func TestValidateDatabaseName(t *testing.T) {
	valid := []string{"tenant_acme", "_internal", "abc", strings.Repeat("a", 63)}
	for _, name := range valid {
		assert.NoError(t, registry.ValidateDatabaseName(name), name)
	}

	for name, want := range map[string]error{
		"ab":                       registry.ErrDatabaseNameLength,
		strings.Repeat("a", 64):    registry.ErrDatabaseNameLength,
		"1tenant":                  registry.ErrDatabaseNamePattern,
		"tenant-acme":              registry.ErrDatabaseNamePattern,
		"Tenant":                   registry.ErrDatabaseNamePattern,
		`tenant"; DROP DATABASE x`: registry.ErrDatabaseNamePattern,
	} {
		assert.ErrorIs(t, registry.ValidateDatabaseName(name), want, name)
	}
}

func TestEnsureDatabase(t *testing.T) {
	t.Run("creates the database", func(t *testing.T) {
		reg, controlMock := newTestRegistry(t)

		controlMock.ExpectExec(`CREATE DATABASE "tenant_acme"`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := reg.EnsureDatabase(t.Context(), "tenant_acme")
		require.NoError(t, err)
		assert.NoError(t, controlMock.ExpectationsWereMet())
	})

	t.Run("existing database is a success", func(t *testing.T) {
		reg, controlMock := newTestRegistry(t)

		controlMock.ExpectExec(`CREATE DATABASE`).
			WillReturnError(&pgconn.PgError{Code: "42P04"})

		err := reg.EnsureDatabase(t.Context(), "tenant_acme")
		assert.NoError(t, err)
	})

	t.Run("missing CREATEDB privilege", func(t *testing.T) {
		reg, controlMock := newTestRegistry(t)

		controlMock.ExpectExec(`CREATE DATABASE`).
			WillReturnError(&pgconn.PgError{Code: "42501"})

		err := reg.EnsureDatabase(t.Context(), "tenant_acme")
		assert.ErrorIs(t, err, registry.ErrDatabasePermission)
	})

	t.Run("other storage failures", func(t *testing.T) {
		reg, controlMock := newTestRegistry(t)

		controlMock.ExpectExec(`CREATE DATABASE`).
			WillReturnError(errors.New("connection refused"))

		err := reg.EnsureDatabase(t.Context(), "tenant_acme")
		assert.ErrorIs(t, err, registry.ErrDatabaseUnavailable)
	})

	t.Run("invalid name never reaches the store", func(t *testing.T) {
		reg, _ := newTestRegistry(t)

		err := reg.EnsureDatabase(t.Context(), "tenant-acme")
		assert.ErrorIs(t, err, registry.ErrDatabaseNamePattern)
	})
}

func TestGetConnection(t *testing.T) {
	t.Run("caches the handle per database", func(t *testing.T) {
		reg, _ := newTestRegistry(t)

		first, err := reg.GetConnection(t.Context(), "tenant_acme")
		require.NoError(t, err)

		second, err := reg.GetConnection(t.Context(), "tenant_acme")
		require.NoError(t, err)

		assert.Same(t, first, second)
		assert.Equal(t, int64(1), reg.opens.Load())
		assert.Equal(t, 1, reg.Size())
	})

	t.Run("distinct databases get distinct handles", func(t *testing.T) {
		reg, _ := newTestRegistry(t)

		acme, err := reg.GetConnection(t.Context(), "tenant_acme")
		require.NoError(t, err)

		globex, err := reg.GetConnection(t.Context(), "tenant_globex")
		require.NoError(t, err)

		assert.NotSame(t, acme, globex)
		assert.Equal(t, 2, reg.Size())
	})

	t.Run("reinitializes a dead handle in place", func(t *testing.T) {
		reg, _ := newTestRegistry(t)

		stale, err := reg.GetConnection(t.Context(), "tenant_acme")
		require.NoError(t, err)

		// Kill the underlying pool so the liveness ping fails.
		staleDB, err := stale.DB()
		require.NoError(t, err)
		require.NoError(t, staleDB.Close())

		fresh, err := reg.GetConnection(t.Context(), "tenant_acme")
		require.NoError(t, err)

		assert.NotSame(t, stale, fresh)
		assert.Equal(t, int64(2), reg.opens.Load())
		assert.Equal(t, 1, reg.Size())
	})

	t.Run("concurrent cold access opens once", func(t *testing.T) {
		reg, _ := newTestRegistry(t)

		var wg sync.WaitGroup
		for range 16 {
			wg.Add(1)
			go func() {
				defer wg.Done()

				_, err := reg.GetConnection(context.Background(), "tenant_acme")
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		assert.Equal(t, int64(1), reg.opens.Load())
		assert.Equal(t, 1, reg.Size())
	})

	t.Run("open failure surfaces as unavailable", func(t *testing.T) {
		control, _, _ := gormOverSQLMock(t)

		reg := registry.New(control, databaseTemplate(),
			registry.WithOpenFunc(func(_ context.Context, _ string) (*gorm.DB, error) {
				return nil, errors.New("no route to host")
			}))

		_, err := reg.GetConnection(t.Context(), "tenant_acme")
		assert.ErrorIs(t, err, registry.ErrDatabaseUnavailable)
		assert.Equal(t, 0, reg.Size())
	})

	t.Run("invalid name", func(t *testing.T) {
		reg, _ := newTestRegistry(t)

		_, err := reg.GetConnection(t.Context(), "x")
		assert.ErrorIs(t, err, registry.ErrDatabaseNameLength)
	})
}

func TestAccessor(t *testing.T) {
	reg, _ := newTestRegistry(t)

	accessor, err := reg.Accessor(t.Context(), "tenant_acme", model.Organization{})
	require.NoError(t, err)
	require.NotNil(t, accessor)
	assert.Equal(t, 1, reg.Size())
}

func TestDispose(t *testing.T) {
	t.Run("evicts and closes the handle", func(t *testing.T) {
		reg, _ := newTestRegistry(t)

		conn, err := reg.GetConnection(t.Context(), "tenant_acme")
		require.NoError(t, err)

		reg.Dispose(t.Context(), "tenant_acme")
		assert.Equal(t, 0, reg.Size())

		sqlDB, err := conn.DB()
		require.NoError(t, err)
		assert.Error(t, sqlDB.PingContext(t.Context()))
	})

	t.Run("unknown name is a no-op", func(t *testing.T) {
		reg, _ := newTestRegistry(t)
		reg.Dispose(t.Context(), "tenant_ghost")
		assert.Equal(t, 0, reg.Size())
	})
}

func TestDisposeAll(t *testing.T) {
	reg, _ := newTestRegistry(t)

	for _, name := range []string{"tenant_acme", "tenant_globex", "tenant_initech"} {
		_, err := reg.GetConnection(t.Context(), name)
		require.NoError(t, err)
	}

	require.Equal(t, 3, reg.Size())

	reg.DisposeAll(t.Context())
	assert.Equal(t, 0, reg.Size())
}

func TestWarmUp(t *testing.T) {
	reg, _ := newTestRegistry(t)

	reg.WarmUp(t.Context(), []string{"tenant_acme", "tenant_globex", "bad-name"})

	// The invalid name is skipped, the others are cached.
	assert.Equal(t, 2, reg.Size())
	assert.Equal(t, int64(2), reg.opens.Load())
}
