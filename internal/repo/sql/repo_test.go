package sql_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/chifouu65/sass-hub-v2-sub000/internal/model"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/repo"
	reposql "github.com/chifouu65/sass-hub-v2-sub000/internal/repo/sql"
)

func newRepository(t *testing.T) (*reposql.ResourceRepository, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, smock, err := sqlmock.New()
	require.NoError(t, err)

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return reposql.NewRepository(gdb), smock
}

func TestCreate(t *testing.T) {
	user := &model.User{ID: uuid.New(), Email: "jane@example.com", DisplayName: "Jane"}

	t.Run("inserts the row", func(t *testing.T) {
		repository, smock := newRepository(t)

		smock.ExpectExec(`INSERT INTO "users"`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repository.Create(t.Context(), user)
		require.NoError(t, err)
		assert.NoError(t, smock.ExpectationsWereMet())
	})

	t.Run("classifies unique violations", func(t *testing.T) {
		repository, smock := newRepository(t)

		smock.ExpectExec(`INSERT INTO "users"`).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		err := repository.Create(t.Context(), user)
		assert.ErrorIs(t, err, repo.ErrUniqueConstraint)
	})

	t.Run("classifies other failures", func(t *testing.T) {
		repository, smock := newRepository(t)

		smock.ExpectExec(`INSERT INTO "users"`).
			WillReturnError(errors.New("connection reset"))

		err := repository.Create(t.Context(), user)
		assert.ErrorIs(t, err, repo.ErrCreateResource)
	})
}

func TestFirst(t *testing.T) {
	t.Run("fills the resource from the matching row", func(t *testing.T) {
		repository, smock := newRepository(t)
		id := uuid.New()

		smock.ExpectQuery(`SELECT \* FROM "users" WHERE email =`).
			WithArgs("jane@example.com", 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "display_name"}).
				AddRow(id.String(), "jane@example.com", "Jane"))

		user := &model.User{}

		found, err := repository.First(t.Context(), user,
			*repo.NewQuery().Where(repo.EmailField, "jane@example.com"))
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, id, user.ID)
		assert.Equal(t, "Jane", user.DisplayName)
	})

	t.Run("no row maps to not found", func(t *testing.T) {
		repository, smock := newRepository(t)

		smock.ExpectQuery(`SELECT \* FROM "users"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "email"}))

		_, err := repository.First(t.Context(), &model.User{},
			*repo.NewQuery().Where(repo.EmailField, "ghost@example.com"))
		assert.ErrorIs(t, err, repo.ErrNotFound)
	})

	t.Run("storage failures map to get errors", func(t *testing.T) {
		repository, smock := newRepository(t)

		smock.ExpectQuery(`SELECT \* FROM "users"`).
			WillReturnError(errors.New("terminating connection"))

		_, err := repository.First(t.Context(), &model.User{}, *repo.NewQuery())
		assert.ErrorIs(t, err, repo.ErrGetResource)
	})
}

func TestList(t *testing.T) {
	t.Run("returns the page and the total count", func(t *testing.T) {
		repository, smock := newRepository(t)

		smock.ExpectQuery(`SELECT count\(\*\) FROM "organizations" WHERE status = `).
			WithArgs("active").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

		smock.ExpectQuery(`SELECT \* FROM "organizations" WHERE status = .+ ORDER BY slug asc LIMIT`).
			WithArgs("active", 2, 2).
			WillReturnRows(sqlmock.NewRows([]string{"id", "slug"}).
				AddRow(uuid.New().String(), "acme").
				AddRow(uuid.New().String(), "globex"))

		var organizations []*model.Organization

		count, err := repository.List(t.Context(), model.Organization{}, &organizations,
			*repo.NewQuery().
				Where(repo.StatusField, model.OrganizationStatusActive).
				OrderBy(repo.SlugField, repo.Asc).
				SetLimit(2).SetOffset(2))
		require.NoError(t, err)
		assert.Equal(t, 5, count)
		assert.Len(t, organizations, 2)
	})

	t.Run("in conditions expand to IN clauses", func(t *testing.T) {
		repository, smock := newRepository(t)
		ids := []uuid.UUID{uuid.New(), uuid.New()}

		smock.ExpectQuery(`SELECT count\(\*\) FROM "organizations" WHERE id IN`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

		smock.ExpectQuery(`SELECT \* FROM "organizations" WHERE id IN`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).
				AddRow(ids[0].String()).AddRow(ids[1].String()))

		var organizations []*model.Organization

		count, err := repository.List(t.Context(), model.Organization{}, &organizations,
			*repo.NewQuery().Where(repo.IDField, ids, repo.In))
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("unsupported order directive", func(t *testing.T) {
		repository, smock := newRepository(t)

		smock.ExpectQuery(`SELECT count\(\*\) FROM "organizations"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		var organizations []*model.Organization

		_, err := repository.List(t.Context(), model.Organization{}, &organizations,
			*repo.NewQuery().OrderBy(repo.SlugField, "sideways"))
		assert.ErrorIs(t, err, reposql.ErrUnsupportedOrderDirective)
	})
}

func TestCount(t *testing.T) {
	repository, smock := newRepository(t)

	smock.ExpectQuery(`SELECT count\(\*\) FROM "memberships" WHERE organization_id = .+ AND role = `).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repository.Count(t.Context(), model.Membership{},
		*repo.NewQuery().
			Where(repo.OrganizationIDField, uuid.New()).
			Where(repo.RoleField, model.SystemRoleOwner))
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestDelete(t *testing.T) {
	t.Run("reports whether a row was removed", func(t *testing.T) {
		repository, smock := newRepository(t)

		smock.ExpectExec(`DELETE FROM "subscriptions"`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		deleted, err := repository.Delete(t.Context(),
			&model.Subscription{ID: uuid.New()}, *repo.NewQuery())
		require.NoError(t, err)
		assert.True(t, deleted)
	})

	t.Run("no match reports false without an error", func(t *testing.T) {
		repository, smock := newRepository(t)

		smock.ExpectExec(`DELETE FROM "subscriptions"`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		deleted, err := repository.Delete(t.Context(),
			&model.Subscription{ID: uuid.New()}, *repo.NewQuery())
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}

func TestTransaction(t *testing.T) {
	t.Run("commits when the function succeeds", func(t *testing.T) {
		repository, smock := newRepository(t)

		smock.ExpectBegin()
		smock.ExpectExec(`INSERT INTO "users"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		smock.ExpectCommit()

		err := repository.Transaction(t.Context(), func(ctx context.Context, tx repo.Repo) error {
			return tx.Create(ctx, &model.User{
				ID: uuid.New(), Email: "jane@example.com", DisplayName: "Jane",
			})
		})
		require.NoError(t, err)
		assert.NoError(t, smock.ExpectationsWereMet())
	})

	t.Run("rolls back on failure", func(t *testing.T) {
		repository, smock := newRepository(t)

		smock.ExpectBegin()
		smock.ExpectRollback()

		err := repository.Transaction(t.Context(), func(context.Context, repo.Repo) error {
			return errors.New("abort")
		})
		assert.ErrorIs(t, err, repo.ErrTransaction)
		assert.NoError(t, smock.ExpectationsWereMet())
	})
}
