package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pizza-nz/lunch-bot/internal/cache"
	"github.com/pizza-nz/lunch-bot/internal/config"
	"github.com/pizza-nz/lunch-bot/internal/sheet"
)

// Options configures the repositories
type Options struct {
	// Location is the business timezone used for order and validity dates.
	Location *time.Location

	// Deadline receives the cutoff stored in the Settings table.
	Deadline *config.Deadline

	Now func() time.Time
}

// Repositories provides access to all repository instances
type Repositories struct {
	Employee *EmployeeRepository
	Menu     *MenuRepository
	Order    *OrderRepository
	Settings *SettingsRepository
}

// NewRepositories creates a new repositories container
func NewRepositories(store sheet.Store, c *cache.Cache, opts Options, logger *logrus.Logger) *Repositories {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	t := &tables{store: store, cache: c, opts: opts, logger: logger}
	settings := &SettingsRepository{tables: t}
	return &Repositories{
		Employee: &EmployeeRepository{tables: t},
		Menu:     &MenuRepository{tables: t},
		Order:    &OrderRepository{tables: t, settings: settings},
		Settings: settings,
	}
}

// tables is the shared access path of every repository: cached reads that
// recreate missing tables, and uncached reads for read-modify-write.
type tables struct {
	store  sheet.Store
	cache  *cache.Cache
	opts   Options
	logger *logrus.Logger
}

func (t *tables) now() time.Time {
	return t.opts.Now().In(t.opts.Location)
}

func (t *tables) today() string {
	return t.now().Format(dateLayout)
}

// fresh reads a table from the store, creating it first when it is missing.
func (t *tables) fresh(ctx context.Context, table string) ([][]string, error) {
	values, err := t.store.ReadAll(ctx, table)
	if errors.Is(err, sheet.ErrTableNotFound) {
		t.logger.Warnf("Table %s not found, creating it", table)
		if err := EnsureTable(ctx, t.store, table, t.now()); err != nil {
			return nil, err
		}
		values, err = t.store.ReadAll(ctx, table)
	}
	return values, err
}

// values returns the cached snapshot of a table. Store failures degrade to
// the previous snapshot or to an empty result.
func (t *tables) values(ctx context.Context, table string) [][]string {
	return t.cache.Get(ctx, table, func(ctx context.Context) ([][]string, error) {
		return t.fresh(ctx, table)
	})
}

// records returns the cached rows of a table, or nothing when its header
// lacks one of the required columns.
func (t *tables) records(ctx context.Context, table string, required ...string) []sheet.Record {
	values := t.values(ctx, table)
	if len(values) == 0 {
		return nil
	}
	if !sheet.HasColumns(values[0], required...) {
		t.logger.WithField("table", table).Errorf("Header %v lacks required columns %v", values[0], required)
		return nil
	}
	return sheet.Records(values)
}

func (t *tables) invalidate(table string) {
	t.cache.Invalidate(table)
}
