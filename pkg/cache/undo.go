package cache

import (
	"context"
	"sync"
	"time"

	"github.com/savezy/savezy/pkg/contents"
)

// Undo restores a deleted record while its window is open. It can be used once.
type Undo struct {
	cache    *Cache
	record   contents.Record
	deadline time.Time

	mu   sync.Mutex
	used bool
}

// DeleteWithUndo deletes a cached record and returns a handle that can re-insert
// it until window elapses. Unlike Delete, the record must be cached, since the
// handle needs its fields.
func (c *Cache) DeleteWithUndo(ctx context.Context, id int64, window time.Duration) (*Undo, error) {
	prev, ok := c.Get(id)
	if !ok {
		return nil, c.fail(ctx, OpDelete, id, ErrItemNotFound)
	}
	if err := c.Delete(ctx, id); err != nil {
		return nil, err
	}
	return &Undo{
		cache:    c,
		record:   prev,
		deadline: c.now().Add(window),
	}, nil
}

// Record returns the deleted record.
func (u *Undo) Record() contents.Record {
	return u.record.Clone()
}

// Remaining is the time left to restore; zero once the window has closed.
func (u *Undo) Remaining() time.Duration {
	left := u.deadline.Sub(u.cache.now())
	if left < 0 {
		return 0
	}
	return left
}

// Restore re-inserts the deleted record. The Store assigns a new id and
// timestamp, so the restored record sorts first like any new one.
func (u *Undo) Restore(ctx context.Context) (contents.Record, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.used || !u.cache.now().Before(u.deadline) {
		return contents.Record{}, u.cache.fail(ctx, OpRestore, u.record.ID, ErrUndoExpired)
	}

	r := u.record.Clone()
	r.ID = 0
	r.Created = ""
	restored, err := u.cache.Create(ctx, r)
	if err != nil {
		return contents.Record{}, err
	}
	u.used = true
	return restored, nil
}
