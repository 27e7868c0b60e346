package sql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chifouu65/sass-hub-v2-sub000/internal/errs"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/log"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/repo"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/repo/violations"
)

var ErrUnsupportedOrderDirective = errors.New("unsupported order directive")

// ResourceRepository represents the repository for managing Resource data
// in the control-plane store.
type ResourceRepository struct {
	db *gorm.DB
}

// NewRepository creates and returns a new instance of ResourceRepository.
func NewRepository(db *gorm.DB) *ResourceRepository {
	return &ResourceRepository{
		db: db,
	}
}

// Create adds meta information and stores a Resource.
func (r *ResourceRepository) Create(ctx context.Context, resource repo.Resource) error {
	err := r.db.WithContext(ctx).Create(resource).Error
	if err != nil {
		log.Error(ctx, "error creating resource", err)

		if errors.Is(err, gorm.ErrDuplicatedKey) || violations.IsUniqueConstraint(err) {
			return errs.Wrap(repo.ErrUniqueConstraint, err)
		}

		return errs.Wrap(repo.ErrCreateResource, err)
	}

	return nil
}

// First fills the given Resource with data, if found. The resource's primary
// key, when set, narrows the lookup alongside the query conditions.
func (r *ResourceRepository) First(
	ctx context.Context,
	resource repo.Resource,
	query repo.Query,
) (bool, error) {
	db := applyConditions(r.db.WithContext(ctx), query)

	res := db.First(resource)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return false, errs.Wrap(repo.ErrNotFound, res.Error)
		}

		log.Error(ctx, "error finding the resource", res.Error)

		return false, errs.Wrap(repo.ErrGetResource, res.Error)
	}

	return res.RowsAffected > 0, nil
}

// List retrieves records from the database based on the provided query parameters and model.
// Result is an address of a slice of the resource type.
func (r *ResourceRepository) List(
	ctx context.Context,
	resource repo.Resource,
	result any,
	query repo.Query,
) (int, error) {
	var count int64

	db := applyConditions(r.db.WithContext(ctx).Model(resource), query)

	db = db.Count(&count)
	if db.Error != nil {
		return 0, errs.Wrap(repo.ErrGetResource, db.Error)
	}

	for _, order := range query.OrderFields {
		switch order.Direction {
		case repo.Desc:
			db = db.Order(order.Field + " desc")
		case repo.Asc:
			db = db.Order(order.Field + " asc")
		default:
			return 0, ErrUnsupportedOrderDirective
		}
	}

	res := applyPagination(db, query).Find(result)
	if res.Error != nil {
		return 0, errs.Wrap(repo.ErrGetResource, res.Error)
	}

	return int(count), nil
}

// Count returns the number of records matching the query.
func (r *ResourceRepository) Count(
	ctx context.Context,
	resource repo.Resource,
	query repo.Query,
) (int, error) {
	var count int64

	db := applyConditions(r.db.WithContext(ctx).Model(resource), query)

	err := db.Count(&count).Error
	if err != nil {
		return 0, errs.Wrap(repo.ErrGetResource, err)
	}

	return int(count), nil
}

// Delete removes the Resource.
//
// It returns true if a record was deleted successfully,
// false if there was no record to delete,
// and error if there was an error during the deletion.
// If no query is provided it deletes the item by the primaryKey
func (r *ResourceRepository) Delete(
	ctx context.Context,
	resource repo.Resource,
	query repo.Query,
) (bool, error) {
	db := applyConditions(r.db.WithContext(ctx), query)

	result := db.Delete(resource)
	if result.Error != nil {
		log.Error(ctx, "error deleting resource", result.Error)
		return false, errs.Wrap(repo.ErrDeleteResource, result.Error)
	}

	return result.RowsAffected > 0, nil
}

// Patch updates the resource with the primary key and the query conditions as
// the where condition. Without an explicit column selection only non-zero
// fields are written.
//
// It returns true if a record was patched successfully,
// and error if there was an error during the patch.
func (r *ResourceRepository) Patch(
	ctx context.Context,
	resource repo.Resource,
	query repo.Query,
) (bool, error) {
	db := applyConditions(r.db.WithContext(ctx).Model(resource), query)

	res := applyUpdateQuery(db.Clauses(clause.Returning{}), query).Updates(resource)
	if res.Error != nil {
		log.Error(ctx, "error updating resource", res.Error)

		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return false, errs.Wrap(repo.ErrNotFound, res.Error)
		}

		if violations.IsUniqueConstraint(res.Error) ||
			errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return false, errs.Wrap(repo.ErrUniqueConstraint, res.Error)
		}

		return false, errs.Wrap(repo.ErrUpdateResource, res.Error)
	}

	return res.RowsAffected > 0, nil
}

// Transaction wraps a function inside a database transaction.
// txFunc is a type TransactionFunc where we can define the transactional logic.
// if txFunc returns no error then transaction is committed,
// else if txFunc returns an error then transaction is rolled back.
func (r *ResourceRepository) Transaction(ctx context.Context, txFunc repo.TransactionFunc) error {
	err := r.db.WithContext(ctx).Transaction(
		func(tx *gorm.DB) error {
			return txFunc(ctx, NewRepository(tx))
		},
	)
	if err != nil {
		return errs.Wrap(repo.ErrTransaction, err)
	}

	return nil
}

// apply update operations on the db action
func applyUpdateQuery(db *gorm.DB, query repo.Query) *gorm.DB {
	if query.UpdateFields.All {
		return db.Select("*")
	}

	if len(query.UpdateFields.Fields) > 0 {
		sel := strings.Join(query.UpdateFields.Fields, ",")
		db = db.Select(sel)
	}

	return db
}

// applyConditions applies the query conditions to the database statement.
func applyConditions(db *gorm.DB, query repo.Query) *gorm.DB {
	for _, cond := range query.Conditions {
		db = db.Where(fmt.Sprintf("%s %s ?", cond.Field, cond.Op), cond.Value)
	}

	return db
}

func applyPagination(db *gorm.DB, query repo.Query) *gorm.DB {
	if query.Limit <= 0 {
		query.Limit = repo.DefaultLimit
	}

	return db.Offset(query.Offset).Limit(query.Limit)
}
