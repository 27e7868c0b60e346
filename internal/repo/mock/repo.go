package mock

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/chifouu65/sass-hub-v2-sub000/internal/errs"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/repo"
)

var (
	ErrResourceIsNil      = errors.New("resource cannot be nil")
	ErrResultNotSlicePtr  = errors.New("result must be a pointer to a slice")
	ErrUnknownQueryColumn = errors.New("query column does not exist on the resource")
)

// InMemoryRepository is a repo.Repo backed by process memory. It honors the
// equality and comparison conditions of repo.Query, which is enough for
// manager unit tests without a live control store.
type InMemoryRepository struct {
	mu     sync.RWMutex
	tables map[string][]any
}

// NewInMemoryRepository creates and returns a new instance of InMemoryRepository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		tables: map[string][]any{},
	}
}

// Create stores a copy of the resource, rejecting duplicate primary keys.
func (r *InMemoryRepository) Create(_ context.Context, resource repo.Resource) error {
	if resource == nil {
		return ErrResourceIsNil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	table := resource.TableName()

	id, hasID := fieldByColumn(structOf(resource), repo.IDField)
	if hasID {
		for _, stored := range r.tables[table] {
			existing, ok := fieldByColumn(structOf(stored), repo.IDField)
			if ok && reflect.DeepEqual(existing.Interface(), id.Interface()) {
				return errs.Wrapf(repo.ErrUniqueConstraint, "duplicate primary key")
			}
		}
	}

	r.tables[table] = append(r.tables[table], copyOf(resource))

	return nil
}

// First fills the given resource with the first match of the query conditions
// combined with the resource's own non-zero primary key.
func (r *InMemoryRepository) First(
	_ context.Context,
	resource repo.Resource,
	query repo.Query,
) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, stored := range r.tables[resource.TableName()] {
		match, err := matches(stored, resource, query)
		if err != nil {
			return false, err
		}

		if match {
			reflect.ValueOf(resource).Elem().Set(structOf(copyOf(stored)))
			return true, nil
		}
	}

	return false, errs.Wrapf(repo.ErrNotFound, "%s", resource.TableName())
}

// List appends copies of all matches to result and returns the total match count.
func (r *InMemoryRepository) List(
	_ context.Context,
	resource repo.Resource,
	result any,
	query repo.Query,
) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched, err := r.collect(resource, query)
	if err != nil {
		return 0, err
	}

	orderItems(matched, query.OrderFields)

	limit := query.Limit
	if limit <= 0 {
		limit = repo.DefaultLimit
	}

	page := paginate(matched, query.Offset, limit)

	err = assignList(result, page)
	if err != nil {
		return 0, err
	}

	return len(matched), nil
}

// Count returns the number of records matching the query.
func (r *InMemoryRepository) Count(
	_ context.Context,
	resource repo.Resource,
	query repo.Query,
) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched, err := r.collect(resource, query)
	if err != nil {
		return 0, err
	}

	return len(matched), nil
}

// Delete removes every match and reports whether anything was removed.
func (r *InMemoryRepository) Delete(
	_ context.Context,
	resource repo.Resource,
	query repo.Query,
) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	table := resource.TableName()
	kept := make([]any, 0, len(r.tables[table]))
	removed := false

	for _, stored := range r.tables[table] {
		match, err := matches(stored, resource, query)
		if err != nil {
			return false, err
		}

		if match {
			removed = true
			continue
		}

		kept = append(kept, stored)
	}

	r.tables[table] = kept

	return removed, nil
}

// Patch writes the selected columns of resource into every match.
func (r *InMemoryRepository) Patch(
	_ context.Context,
	resource repo.Resource,
	query repo.Query,
) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	patched := false

	for _, stored := range r.tables[resource.TableName()] {
		match, err := matches(stored, resource, query)
		if err != nil {
			return false, err
		}

		if !match {
			continue
		}

		applyPatch(structOf(stored), structOf(resource), query.UpdateFields)

		patched = true
	}

	return patched, nil
}

// Transaction runs txFunc against the same store. Rollback on failure is not
// emulated; tests asserting failure paths must not rely on partial writes.
func (r *InMemoryRepository) Transaction(ctx context.Context, txFunc repo.TransactionFunc) error {
	err := txFunc(ctx, r)
	if err != nil {
		return errs.Wrap(repo.ErrTransaction, err)
	}

	return nil
}

func (r *InMemoryRepository) collect(resource repo.Resource, query repo.Query) ([]any, error) {
	var matched []any

	for _, stored := range r.tables[resource.TableName()] {
		match, err := matches(stored, resource, query)
		if err != nil {
			return nil, err
		}

		if match {
			matched = append(matched, stored)
		}
	}

	return matched, nil
}

// orderItems sorts matches by the query's order fields. Only string and time
// columns are ordered on, which covers the managers' listings.
func orderItems(items []any, fields []repo.OrderField) {
	if len(fields) == 0 {
		return
	}

	sort.SliceStable(items, func(i, j int) bool {
		for _, order := range fields {
			a, aok := fieldByColumn(structOf(items[i]), order.Field)
			b, bok := fieldByColumn(structOf(items[j]), order.Field)

			if !aok || !bok {
				continue
			}

			cmp := compareOrdered(a, b)
			if cmp == 0 {
				continue
			}

			if order.Direction == repo.Desc {
				return cmp > 0
			}

			return cmp < 0
		}

		return false
	})
}

func compareOrdered(a, b reflect.Value) int {
	a, aNil := deref(a)
	b, bNil := deref(b)

	if aNil || bNil {
		switch {
		case aNil && bNil:
			return 0
		case aNil:
			return -1
		default:
			return 1
		}
	}

	if at, ok := a.Interface().(time.Time); ok {
		bt, ok := b.Interface().(time.Time)
		if !ok {
			return 0
		}

		return at.Compare(bt)
	}

	if a.Kind() == reflect.String && b.Kind() == reflect.String {
		return strings.Compare(a.String(), b.String())
	}

	return 0
}

func paginate(items []any, offset, limit int) []any {
	if offset >= len(items) {
		return nil
	}

	end := offset + limit
	if end > len(items) {
		end = len(items)
	}

	return items[offset:end]
}

// matches combines the query conditions with the non-zero primary key of the
// queried resource, mirroring gorm's First/Delete behavior.
func matches(stored any, resource repo.Resource, query repo.Query) (bool, error) {
	entity := structOf(stored)

	id, ok := fieldByColumn(structOf(resource), repo.IDField)
	if ok && !id.IsZero() {
		storedID, found := fieldByColumn(entity, repo.IDField)
		if !found || !reflect.DeepEqual(storedID.Interface(), id.Interface()) {
			return false, nil
		}
	}

	for _, cond := range query.Conditions {
		field, found := fieldByColumn(entity, cond.Field)
		if !found {
			return false, errs.Wrapf(ErrUnknownQueryColumn, "%s", cond.Field)
		}

		if !satisfies(field, cond) {
			return false, nil
		}
	}

	return true, nil
}

func satisfies(field reflect.Value, cond repo.Condition) bool {
	fieldVal, fieldNil := deref(field)

	condVal := reflect.ValueOf(cond.Value)
	condNil := cond.Value == nil
	if !condNil {
		condVal, condNil = deref(condVal)
	}

	switch cond.Op {
	case repo.Equal:
		return equalValues(fieldVal, fieldNil, condVal, condNil)
	case repo.NotEq:
		return !equalValues(fieldVal, fieldNil, condVal, condNil)
	case repo.LessThan:
		return compareTimes(fieldVal, fieldNil, condVal, condNil, true)
	case repo.GreaterThan:
		return compareTimes(fieldVal, fieldNil, condVal, condNil, false)
	case repo.In:
		return containsValue(fieldVal, fieldNil, cond.Value)
	}

	return false
}

func containsValue(field reflect.Value, fieldNil bool, candidates any) bool {
	values := reflect.ValueOf(candidates)
	if values.Kind() != reflect.Slice {
		return false
	}

	for i := range values.Len() {
		candidate, candidateNil := deref(values.Index(i))
		if equalValues(field, fieldNil, candidate, candidateNil) {
			return true
		}
	}

	return false
}

func equalValues(a reflect.Value, aNil bool, b reflect.Value, bNil bool) bool {
	if aNil || bNil {
		return aNil == bNil
	}

	if a.Type() != b.Type() && b.Type().ConvertibleTo(a.Type()) {
		b = b.Convert(a.Type())
	}

	return reflect.DeepEqual(a.Interface(), b.Interface())
}

// compareTimes supports the ordering operators for time columns, which is the
// only ordering the managers query on.
func compareTimes(a reflect.Value, aNil bool, b reflect.Value, bNil bool, less bool) bool {
	if aNil || bNil {
		return false
	}

	at, aok := a.Interface().(time.Time)
	bt, bok := b.Interface().(time.Time)

	if !aok || !bok {
		return false
	}

	if less {
		return at.Before(bt)
	}

	return at.After(bt)
}

func deref(v reflect.Value) (reflect.Value, bool) {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return v, true
		}

		v = v.Elem()
	}

	return v, false
}

// applyPatch copies the selected columns from src into dst. Without a column
// selection only non-zero fields are copied, matching gorm's Updates.
func applyPatch(dst, src reflect.Value, sel repo.UpdateFields) {
	selected := map[string]struct{}{}
	for _, f := range sel.Fields {
		selected[normalizeColumn(f)] = struct{}{}
	}

	walkFields(src, func(name string, field reflect.Value) {
		_, picked := selected[normalizeColumn(name)]

		if !sel.All && len(selected) > 0 && !picked {
			return
		}

		if !sel.All && len(selected) == 0 && field.IsZero() {
			return
		}

		target, ok := fieldByColumn(dst, name)
		if ok && target.CanSet() {
			target.Set(field)
		}
	})
}

func assignList(result any, items []any) error {
	slice := reflect.ValueOf(result)
	if slice.Kind() != reflect.Pointer || slice.Elem().Kind() != reflect.Slice {
		return ErrResultNotSlicePtr
	}

	elemType := slice.Elem().Type().Elem()

	for _, item := range items {
		value := reflect.ValueOf(copyOf(item))
		if elemType.Kind() != reflect.Pointer {
			value = value.Elem()
		}

		slice.Elem().Set(reflect.Append(slice.Elem(), value))
	}

	return nil
}

// structOf returns the struct value behind a resource pointer.
func structOf(resource any) reflect.Value {
	v := reflect.ValueOf(resource)
	for v.Kind() == reflect.Pointer {
		v = v.Elem()
	}

	return v
}

// copyOf clones a resource into a fresh pointer so stored entities never
// alias caller memory.
func copyOf(resource any) any {
	src := structOf(resource)
	dst := reflect.New(src.Type())
	dst.Elem().Set(src)

	return dst.Interface()
}

// fieldByColumn finds the struct field matching a snake_case column name,
// walking embedded structs.
func fieldByColumn(entity reflect.Value, column string) (reflect.Value, bool) {
	var result reflect.Value

	found := false
	want := normalizeColumn(column)

	walkFields(entity, func(name string, field reflect.Value) {
		if !found && normalizeColumn(name) == want {
			result = field
			found = true
		}
	})

	return result, found
}

func walkFields(entity reflect.Value, visit func(name string, field reflect.Value)) {
	t := entity.Type()

	for i := range t.NumField() {
		field := t.Field(i)

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			walkFields(entity.Field(i), visit)
			continue
		}

		visit(field.Name, entity.Field(i))
	}
}

// normalizeColumn folds both Go field names and snake_case column names onto
// a common lower-cased form without separators.
func normalizeColumn(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "_", ""))
}
