package repository

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
	domainRepo "github.com/pipecenter/pipecenter-api/internal/domain/repository"
	"github.com/pipecenter/pipecenter-api/pkg/apperror"
	"github.com/sirupsen/logrus"
)

// Record is anything stored in a collection
type Record interface {
	RecordID() string
}

// Store owns the blob backend, the clock and one lock per blob key. Every
// collection built on the same Store shares those locks, so a load-mutate-save
// sequence on a key never interleaves with another one in this process.
type Store struct {
	blobs domainRepo.BlobStore
	log   *logrus.Logger
	now   func() time.Time

	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewStore creates a Store. A nil clock means time.Now.
func NewStore(blobs domainRepo.BlobStore, log *logrus.Logger, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		blobs: blobs,
		log:   log,
		now:   now,
		locks: make(map[string]chan struct{}),
	}
}

// Backend returns the underlying blob store
func (s *Store) Backend() domainRepo.BlobStore {
	return s.blobs
}

// lock acquires the per-key lock, giving up when ctx is done
func (s *Store) lock(ctx context.Context, key string) (func(), error) {
	s.mu.Lock()
	ch, ok := s.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[key] = ch
	}
	s.mu.Unlock()

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Collection is an ordered sequence of records persisted as one JSON array
// under a single blob key.
type Collection[T Record] struct {
	store  *Store
	key    string
	decode func(raw []byte, now time.Time) (T, error)
	keep   func(record T, now time.Time) bool

	// healOnLoad re-saves the collection when a load dropped anything
	healOnLoad bool
}

// NewCollection creates a collection over key. keep may be nil, in which case
// every valid record is retained.
func NewCollection[T Record](
	store *Store,
	key string,
	decode func(raw []byte, now time.Time) (T, error),
	keep func(record T, now time.Time) bool,
	healOnLoad bool,
) *Collection[T] {
	return &Collection[T]{
		store:      store,
		key:        key,
		decode:     decode,
		keep:       keep,
		healOnLoad: healOnLoad,
	}
}

// Load returns every valid, retained record in stored order. Invalid and
// expired records are dropped and logged; an absent or non-array blob is an
// empty collection.
func (c *Collection[T]) Load(ctx context.Context) ([]T, error) {
	unlock, err := c.store.lock(ctx, c.key)
	if err != nil {
		return nil, err
	}
	defer unlock()

	records, dropped, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	c.tryHeal(ctx, records, dropped)
	return records, nil
}

// Save overwrites the stored collection with records
func (c *Collection[T]) Save(ctx context.Context, records []T) error {
	unlock, err := c.store.lock(ctx, c.key)
	if err != nil {
		return err
	}
	defer unlock()

	return c.save(ctx, records)
}

// Transact loads the collection, hands it to fn and saves the result when fn
// reports a change. Nothing is written when fn fails. The whole sequence runs
// under the key's lock.
func (c *Collection[T]) Transact(ctx context.Context, fn func(records []T) ([]T, bool, error)) ([]T, error) {
	unlock, err := c.store.lock(ctx, c.key)
	if err != nil {
		return nil, err
	}
	defer unlock()

	records, dropped, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	next, changed, err := fn(records)
	if err != nil {
		c.tryHeal(ctx, records, dropped)
		return nil, err
	}
	if !changed {
		c.tryHeal(ctx, records, dropped)
		return records, nil
	}
	if err := c.save(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// load must be called with the key lock held. It returns the kept records and
// how many stored elements were dropped.
func (c *Collection[T]) load(ctx context.Context) ([]T, int, error) {
	raw, err := c.store.blobs.Get(ctx, c.key)
	if err != nil {
		c.store.log.WithError(err).WithField("key", c.key).Error("Failed to read collection")
		return nil, 0, err
	}
	records := make([]T, 0)
	if raw == nil {
		return records, 0, nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		c.store.log.WithError(err).WithField("key", c.key).Warn("Stored collection is not a JSON array, treating as empty")
		return records, 0, nil
	}

	now := c.store.now()
	dropped := 0
	for i, elem := range elems {
		rec, err := c.decode(elem, now)
		if err != nil {
			dropped++
			c.store.log.WithFields(logrus.Fields{
				"key":   c.key,
				"index": i,
			}).WithError(err).Warn("Dropping invalid record")
			continue
		}
		if c.keep != nil && !c.keep(rec, now) {
			dropped++
			c.store.log.WithFields(logrus.Fields{
				"key": c.key,
				"id":  rec.RecordID(),
			}).Info("Dropping record past retention")
			continue
		}
		records = append(records, rec)
	}

	return records, dropped, nil
}

// heal writes back a load that dropped records, for collections that ask for it
func (c *Collection[T]) heal(ctx context.Context, records []T, dropped int) error {
	if dropped == 0 || !c.healOnLoad {
		return nil
	}
	if err := c.save(ctx, records); err != nil {
		return err
	}
	c.store.log.WithFields(logrus.Fields{
		"key":     c.key,
		"dropped": dropped,
	}).Info("Pruned collection re-saved")
	return nil
}

// tryHeal is heal for read paths, where a failed write-back is only logged.
// The filtered view is still correct and the next load retries.
func (c *Collection[T]) tryHeal(ctx context.Context, records []T, dropped int) {
	if err := c.heal(ctx, records, dropped); err != nil {
		c.store.log.WithError(err).WithField("key", c.key).Error("Failed to re-save pruned collection")
	}
}

// save must be called with the key lock held
func (c *Collection[T]) save(ctx context.Context, records []T) error {
	if records == nil {
		records = []T{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return apperror.NewStorageError("encode", c.key, err)
	}
	if err := c.store.blobs.Put(ctx, c.key, data); err != nil {
		c.store.log.WithError(err).WithField("key", c.key).Error("Failed to write collection")
		return err
	}
	return nil
}

// purge runs a load and reports how many records it dropped
func (c *Collection[T]) purge(ctx context.Context) (int, error) {
	unlock, err := c.store.lock(ctx, c.key)
	if err != nil {
		return 0, err
	}
	defer unlock()

	records, dropped, err := c.load(ctx)
	if err != nil {
		return 0, err
	}
	if err := c.heal(ctx, records, dropped); err != nil {
		return 0, err
	}
	return dropped, nil
}

func indexOf[T Record](records []T, id string) int {
	for i, r := range records {
		if r.RecordID() == id {
			return i
		}
	}
	return -1
}
