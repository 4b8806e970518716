package services

import (
	"context"
	"slices"
	"sync"

	"github.com/dmitrijs2005/gopanel/internal/client/client"
	"github.com/dmitrijs2005/gopanel/internal/client/models"
	"github.com/dmitrijs2005/gopanel/internal/logging"
)

// RecordCollection mirrors one remote table into an ordered local list.
// Every operation resets the error, and failures are logged, stored in Err
// and returned.
type RecordCollection interface {
	Table() string
	// Items returns a copy of the local list.
	Items() []models.Record
	Loading() bool
	Err() string

	FetchAll(ctx context.Context) error
	Create(ctx context.Context, rec models.Record) (models.Record, error)
	Update(ctx context.Context, id any, patch models.Record) (models.Record, error)
	Remove(ctx context.Context, id any) error
}

type recordCollection struct {
	tables client.TableClient
	table  string
	log    logging.Logger

	mu      sync.RWMutex
	items   []models.Record
	loading bool
	err     string
}

func NewRecordCollection(tables client.TableClient, table string, log logging.Logger) RecordCollection {
	if log == nil {
		log = logging.Nop()
	}
	return &recordCollection{
		tables: tables,
		table:  table,
		log:    log.With("table", table),
		items:  []models.Record{},
	}
}

func (c *recordCollection) Table() string { return c.table }

func (c *recordCollection) Items() []models.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

func (c *recordCollection) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

func (c *recordCollection) Err() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

func (c *recordCollection) begin() {
	c.mu.Lock()
	c.loading = true
	c.err = ""
	c.mu.Unlock()
}

// fail records err and clears loading. The caller holds no lock.
func (c *recordCollection) fail(ctx context.Context, op string, err error) error {
	c.log.Error(ctx, "error "+op, "error", err)
	c.mu.Lock()
	c.err = err.Error()
	c.loading = false
	c.mu.Unlock()
	return err
}

func (c *recordCollection) FetchAll(ctx context.Context) error {
	c.begin()
	rows, err := c.tables.Select(ctx, c.table)
	if err != nil {
		return c.fail(ctx, "fetching", err)
	}
	if rows == nil {
		rows = []models.Record{}
	}

	c.mu.Lock()
	c.items = rows
	c.loading = false
	c.mu.Unlock()
	return nil
}

func (c *recordCollection) Create(ctx context.Context, rec models.Record) (models.Record, error) {
	c.begin()
	created, err := c.tables.Insert(ctx, c.table, rec.WithoutZeroID())
	if err != nil {
		return nil, c.fail(ctx, "creating", err)
	}

	c.mu.Lock()
	c.items = slices.Insert(c.items, 0, created)
	c.loading = false
	c.mu.Unlock()
	return created, nil
}

func (c *recordCollection) Update(ctx context.Context, id any, patch models.Record) (models.Record, error) {
	c.begin()
	updated, err := c.tables.Update(ctx, c.table, id, patch)
	if err != nil {
		return nil, c.fail(ctx, "updating", err)
	}

	c.mu.Lock()
	if i := c.indexOf(id); i >= 0 {
		c.items[i] = updated
	}
	c.loading = false
	c.mu.Unlock()
	return updated, nil
}

func (c *recordCollection) Remove(ctx context.Context, id any) error {
	c.begin()
	if err := c.tables.Delete(ctx, c.table, id); err != nil {
		return c.fail(ctx, "deleting", err)
	}

	c.mu.Lock()
	c.items = slices.DeleteFunc(c.items, func(r models.Record) bool {
		return models.SameID(r.ID(), id)
	})
	c.loading = false
	c.mu.Unlock()
	return nil
}

// indexOf must be called with c.mu held.
func (c *recordCollection) indexOf(id any) int {
	return slices.IndexFunc(c.items, func(r models.Record) bool {
		return models.SameID(r.ID(), id)
	})
}
