// Package cache keeps every saved content record in memory for synchronous reads
// and funnels all writes through the Store, updating the in-memory list only after
// the Store call succeeds.
//
// The Cache is a projection of the mutations this process has observed. Another
// process writing the same database is only picked up by Refresh.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/savezy/savezy/pkg/contents"
	"github.com/savezy/savezy/pkg/logging"
)

var (
	ErrItemNotFound = errors.New("item not found")
	ErrUndoExpired  = errors.New("undo window has closed")
)

// Store is the durable side the Cache writes through.
type Store interface {
	Insert(ctx context.Context, r contents.Record) (contents.Record, error)
	SelectAll(ctx context.Context) ([]contents.Record, error)
	Update(ctx context.Context, id int64, r contents.Record) (contents.Record, error)
	Delete(ctx context.Context, id int64) error
}

// Op names the mutation that failed.
type Op string

const (
	OpRefresh Op = "refresh"
	OpCreate  Op = "create"
	OpUpdate  Op = "update"
	OpDelete  Op = "delete"
	OpRestore Op = "restore"
)

// MutationError is the error state left behind by a failed mutation.
type MutationError struct {
	Op  Op
	ID  int64
	Err error
}

func (e *MutationError) Error() string {
	if e.ID != 0 {
		return fmt.Sprintf("%s content %d: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("%s content: %v", e.Op, e.Err)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}

// Message is the short text shown to the user.
func (e *MutationError) Message() string {
	switch e.Op {
	case OpRefresh:
		return "Failed to load items"
	case OpDelete:
		return "Failed to delete item"
	case OpRestore:
		return "Failed to restore item"
	default:
		return "Failed to save item"
	}
}

// Cache holds all records, newest first.
type Cache struct {
	store Store
	log   logging.Logger
	now   func() time.Time

	mu      sync.RWMutex
	items   []contents.Record
	lastErr *MutationError
}

func New(store Store, log logging.Logger) *Cache {
	return &Cache{
		store: store,
		log:   log.With("component", "cache"),
		now:   time.Now,
		items: []contents.Record{},
	}
}

// Refresh replaces the whole list with the Store's current rows.
func (c *Cache) Refresh(ctx context.Context) error {
	records, err := c.store.SelectAll(ctx)
	if err != nil {
		return c.fail(ctx, OpRefresh, 0, err)
	}

	c.mu.Lock()
	c.items = records
	c.lastErr = nil
	c.mu.Unlock()

	c.log.Debug(ctx, "contents loaded", "count", len(records))
	return nil
}

// Create normalizes tags, validates the variant, inserts the record and puts
// the stored copy at the front of the list.
func (c *Cache) Create(ctx context.Context, r contents.Record) (contents.Record, error) {
	r = r.Clone()
	r.ID = 0
	r.Tags = contents.NormalizeTags(r.Tags)
	if err := contents.Validate(r); err != nil {
		return contents.Record{}, c.fail(ctx, OpCreate, 0, err)
	}

	created, err := c.store.Insert(ctx, r)
	if err != nil {
		return contents.Record{}, c.fail(ctx, OpCreate, 0, err)
	}

	c.mu.Lock()
	c.items = append([]contents.Record{created}, c.items...)
	c.lastErr = nil
	c.mu.Unlock()

	c.log.Info(ctx, "content created", "id", created.ID, "kind", created.Kind)
	return created.Clone(), nil
}

// Update merges p over the cached record with id and writes the result.
// An id that is not cached fails with ErrItemNotFound before touching the Store.
func (c *Cache) Update(ctx context.Context, id int64, p contents.Patch) (contents.Record, error) {
	prev, ok := c.Get(id)
	if !ok {
		return contents.Record{}, c.fail(ctx, OpUpdate, id, ErrItemNotFound)
	}

	merged := p.Apply(prev)
	merged.Tags = contents.NormalizeTags(merged.Tags)
	if err := contents.Validate(merged); err != nil {
		return contents.Record{}, c.fail(ctx, OpUpdate, id, err)
	}

	updated, err := c.store.Update(ctx, id, merged)
	if err != nil {
		return contents.Record{}, c.fail(ctx, OpUpdate, id, err)
	}

	c.mu.Lock()
	for i := range c.items {
		if c.items[i].ID == id {
			c.items[i] = updated
			break
		}
	}
	c.lastErr = nil
	c.mu.Unlock()

	c.log.Info(ctx, "content updated", "id", id)
	return updated.Clone(), nil
}

// Delete removes id from the Store and then from the list. The Store call is
// made even when id is not cached.
func (c *Cache) Delete(ctx context.Context, id int64) error {
	if err := c.store.Delete(ctx, id); err != nil {
		return c.fail(ctx, OpDelete, id, err)
	}

	c.mu.Lock()
	c.remove(id)
	c.lastErr = nil
	c.mu.Unlock()

	c.log.Info(ctx, "content deleted", "id", id)
	return nil
}

// remove filters id out of the list. c.mu must be held.
func (c *Cache) remove(id int64) {
	kept := make([]contents.Record, 0, len(c.items))
	for _, r := range c.items {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	c.items = kept
}

func (c *Cache) fail(ctx context.Context, op Op, id int64, err error) error {
	merr := &MutationError{Op: op, ID: id, Err: err}

	c.mu.Lock()
	c.lastErr = merr
	c.mu.Unlock()

	c.log.Warn(ctx, "content mutation failed", "op", op, "id", id, "err", err)
	return merr
}

// Err returns the error left by the most recent failed mutation, or nil once a
// later mutation succeeded or ClearErr was called.
func (c *Cache) Err() *MutationError {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// ClearErr dismisses the current error.
func (c *Cache) ClearErr() {
	c.mu.Lock()
	c.lastErr = nil
	c.mu.Unlock()
}

// Items returns a copy of every cached record, newest first.
func (c *Cache) Items() []contents.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]contents.Record, len(c.items))
	for i, r := range c.items {
		out[i] = r.Clone()
	}
	return out
}

// Get returns a copy of the cached record with id.
func (c *Cache) Get(id int64) (contents.Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, r := range c.items {
		if r.ID == id {
			return r.Clone(), true
		}
	}
	return contents.Record{}, false
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
