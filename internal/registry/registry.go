package registry

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"sync"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/chifouu65/sass-hub-v2-sub000/internal/config"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/db"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/db/dsn"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/errs"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/log"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/repo/violations"
)

var (
	ErrDatabaseNamePattern = errors.New("invalid tenant database name pattern")
	ErrDatabaseNameLength  = errors.New("tenant database name length must be between 3 and 63 characters")
	ErrDatabasePermission  = errors.New("tenant database creation denied by storage credentials")
	ErrDatabaseUnavailable = errors.New("tenant database unavailable")
)

var databaseNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// OpenFunc opens a connection handle for the given DSN. Injected in tests.
type OpenFunc func(ctx context.Context, dsn string) (*gorm.DB, error)

// Registry caches one live connection handle per tenant database name for
// the lifetime of the process. It is constructed once and passed through
// explicit injection; there is no package-level instance. Handles are opened
// lazily on first access, reinitialized in place when they die, and closed
// through Dispose/DisposeAll.
//
// Tenant handles never run schema migrations: the control plane owns the
// databases, not their content.
type Registry struct {
	control  *gorm.DB
	template config.Database
	open     OpenFunc

	mu    sync.RWMutex
	conns map[string]*gorm.DB

	// group collapses concurrent cold access to one in-flight open per name.
	group singleflight.Group
}

type Option func(*Registry)

// WithOpenFunc replaces the connection opener.
func WithOpenFunc(open OpenFunc) Option {
	return func(r *Registry) {
		r.open = open
	}
}

// New creates a Registry deriving tenant connection options from the
// control-store template.
func New(control *gorm.DB, template config.Database, opts ...Option) *Registry {
	r := &Registry{
		control:  control,
		template: template,
		conns:    map[string]*gorm.DB{},
		open:     defaultOpen,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func defaultOpen(ctx context.Context, dsnStr string) (*gorm.DB, error) {
	conn, err := gorm.Open(db.NewDialector(dsnStr), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	return conn.WithContext(ctx), nil
}

// ValidateDatabaseName rejects names that cannot be used as a Postgres
// database identifier without quoting tricks.
func ValidateDatabaseName(name string) error {
	if len(name) < 3 || len(name) > 63 {
		return ErrDatabaseNameLength
	}

	if !databaseNamePattern.MatchString(name) {
		return ErrDatabaseNamePattern
	}

	return nil
}

// EnsureDatabase creates the tenant database if it does not exist yet.
// Recreating an existing database is a success. A credential without the
// CREATEDB privilege surfaces as ErrDatabasePermission, every other failure
// as ErrDatabaseUnavailable.
func (r *Registry) EnsureDatabase(ctx context.Context, name string) error {
	err := ValidateDatabaseName(name)
	if err != nil {
		return err
	}

	ctx = log.InjectTenantDatabase(ctx, name)

	err = r.control.WithContext(ctx).Exec(`CREATE DATABASE "` + name + `"`).Error
	if err == nil {
		databasesProvisioned.Inc()
		log.Info(ctx, "Tenant database created")

		return nil
	}

	if violations.IsDuplicateDatabase(err) {
		return nil
	}

	if violations.IsInsufficientPrivilege(err) {
		return errs.Wrap(ErrDatabasePermission, err)
	}

	return errs.Wrap(ErrDatabaseUnavailable, err)
}

// GetConnection returns the cached handle for the tenant database, opening
// or reinitializing it when needed. Concurrent first access to a cold name
// results in a single open.
func (r *Registry) GetConnection(ctx context.Context, name string) (*gorm.DB, error) {
	err := ValidateDatabaseName(name)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	conn, ok := r.conns[name]
	r.mu.RUnlock()

	if ok && isLive(ctx, conn) {
		return conn, nil
	}

	value, err, _ := r.group.Do(name, func() (any, error) {
		return r.openAndCache(ctx, name)
	})
	if err != nil {
		return nil, err
	}

	return value.(*gorm.DB), nil
}

func (r *Registry) openAndCache(ctx context.Context, name string) (*gorm.DB, error) {
	// A concurrent caller may have repaired the handle while this one was
	// waiting on the flight group.
	r.mu.RLock()
	cached, ok := r.conns[name]
	r.mu.RUnlock()

	if ok && isLive(ctx, cached) {
		return cached, nil
	}

	dsnStr, err := dsn.ForDatabase(r.template, name)
	if err != nil {
		return nil, errs.Wrap(ErrDatabaseUnavailable, err)
	}

	conn, err := r.open(ctx, dsnStr)
	if err != nil {
		return nil, errs.Wrap(ErrDatabaseUnavailable, err)
	}

	r.mu.Lock()
	stale, hadStale := r.conns[name]
	r.conns[name] = conn
	openConnections.Set(float64(len(r.conns)))
	r.mu.Unlock()

	connectionOpens.Inc()

	if hadStale && stale != conn {
		closeHandle(ctx, name, stale)
	}

	return conn, nil
}

// Accessor resolves the tenant connection and scopes it to the given record
// kind.
func (r *Registry) Accessor(ctx context.Context, name string, kind schema.Tabler) (*gorm.DB, error) {
	conn, err := r.GetConnection(ctx, name)
	if err != nil {
		return nil, err
	}

	return conn.WithContext(ctx).Model(kind), nil
}

// Dispose closes and evicts the cached handle for the tenant database.
// Disposing an unknown name is a no-op; close failures are logged, the
// eviction happens regardless.
func (r *Registry) Dispose(ctx context.Context, name string) {
	r.mu.Lock()
	conn, ok := r.conns[name]
	delete(r.conns, name)
	openConnections.Set(float64(len(r.conns)))
	r.mu.Unlock()

	if !ok {
		return
	}

	closeHandle(ctx, name, conn)
}

// DisposeAll drains the registry at shutdown. Individual close failures are
// tolerated so one bad handle cannot keep the rest open.
func (r *Registry) DisposeAll(ctx context.Context) {
	r.mu.Lock()
	conns := r.conns
	r.conns = map[string]*gorm.DB{}
	openConnections.Set(0)
	r.mu.Unlock()

	for name, conn := range conns {
		closeHandle(ctx, name, conn)
	}

	log.Info(ctx, "Tenant connection registry drained", slog.Int("disposed", len(conns)))
}

// WarmUp opens handles for the given tenant databases ahead of first access.
// Failures are logged per name and do not abort the remaining warm-ups.
func (r *Registry) WarmUp(ctx context.Context, names []string) {
	warmed := 0

	for _, name := range names {
		_, err := r.GetConnection(ctx, name)
		if err != nil {
			log.Error(log.InjectTenantDatabase(ctx, name), "Failed to warm up tenant connection", err)
			continue
		}

		warmed++
	}

	log.Info(ctx, "Tenant connection registry warmed up", slog.Int("warmed", warmed))
}

// Size returns the number of cached handles.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conns)
}

func isLive(ctx context.Context, conn *gorm.DB) bool {
	sqlDB, err := conn.DB()
	if err != nil {
		return false
	}

	return sqlDB.PingContext(ctx) == nil
}

func closeHandle(ctx context.Context, name string, conn *gorm.DB) {
	sqlDB, err := conn.DB()
	if err != nil {
		log.Error(log.InjectTenantDatabase(ctx, name), "Failed to resolve tenant handle for closing", err)
		return
	}

	err = sqlDB.Close()
	if err != nil {
		log.Error(log.InjectTenantDatabase(ctx, name), "Failed to close tenant connection", err)
	}
}
