package repo

// Column names of the control-plane store, used to build queries without
// scattering string literals through the managers.
const (
	IDField                 = "id"
	NameField               = "name"
	SlugField               = "slug"
	EmailField              = "email"
	StatusField             = "status"
	CodeField               = "code"
	DatabaseNameField       = "database_name"
	UserIDField             = "user_id"
	OrganizationIDField     = "organization_id"
	OrganizationRoleIDField = "organization_role_id"
	RoleField               = "role"
	RoleIDField             = "role_id"
	PermissionIDField       = "permission_id"
	ApplicationIDField      = "application_id"
	IsSystemField           = "is_system"
	EndsAtField             = "ends_at"
)

// Operation is a condition operator.
type Operation string

const (
	Equal       Operation = "="
	NotEq       Operation = "!="
	LessThan    Operation = "<"
	GreaterThan Operation = ">"
	In          Operation = "IN"
)

// Condition is a single WHERE predicate; conditions of a query are ANDed.
type Condition struct {
	Field string
	Op    Operation
	Value any
}

type OrderDirection string

const (
	Asc  OrderDirection = "asc"
	Desc OrderDirection = "desc"
)

type OrderField struct {
	Field     string
	Direction OrderDirection
}

// UpdateFields selects the columns a Patch writes. With neither All nor
// Fields set, only non-zero fields of the resource are written.
type UpdateFields struct {
	All    bool
	Fields []string
}

type Query struct {
	Conditions   []Condition
	OrderFields  []OrderField
	UpdateFields UpdateFields
	Limit        int
	Offset       int
}

func NewQuery() *Query {
	return &Query{}
}

// Where adds an equality condition, or a condition with the given operation.
func (q *Query) Where(field string, value any, op ...Operation) *Query {
	operation := Equal
	if len(op) > 0 {
		operation = op[0]
	}

	q.Conditions = append(q.Conditions, Condition{Field: field, Op: operation, Value: value})

	return q
}

func (q *Query) OrderBy(field string, direction OrderDirection) *Query {
	q.OrderFields = append(q.OrderFields, OrderField{Field: field, Direction: direction})
	return q
}

// UpdateColumns names the columns a Patch writes, including zero values.
// Needed wherever a nullable column must be cleared.
func (q *Query) UpdateColumns(fields ...string) *Query {
	q.UpdateFields.Fields = append(q.UpdateFields.Fields, fields...)
	return q
}

// UpdateAll makes a Patch write every column of the resource.
func (q *Query) UpdateAll() *Query {
	q.UpdateFields.All = true
	return q
}

func (q *Query) SetLimit(limit int) *Query {
	q.Limit = limit
	return q
}

func (q *Query) SetOffset(offset int) *Query {
	q.Offset = offset
	return q
}
