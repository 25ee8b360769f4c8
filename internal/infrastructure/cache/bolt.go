package cache

import (
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/tilelens/backend/internal/domain"
	"go.etcd.io/bbolt"
)

var bucketEntries = []byte("entries")

// BoltCache is a file-backed cache for single-node deployments.
// Each value is stored as an 8-byte expiry (unix nanoseconds) followed by the payload.
type BoltCache struct {
	db   *bbolt.DB
	now  func() time.Time
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// NewBoltCache opens (or creates) the database at path.
// Expired entries are purged every 10 minutes until Close is called.
func NewBoltCache(path string) (*BoltCache, error) {
	return newBoltCache(path, 10*time.Minute)
}

func newBoltCache(path string, purgeInterval time.Duration) (*BoltCache, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketEntries); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketEntries, err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	cache := &BoltCache{
		db:   db,
		now:  time.Now,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go cache.purgeExpired(purgeInterval)

	return cache, nil
}

// Get retrieves a value, treating expired entries as misses
func (c *BoltCache) Get(ctx context.Context, key string) ([]byte, error) {
	var out []byte
	err := c.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketEntries).Get([]byte(key))
		value, ok := c.decode(raw)
		if !ok {
			return domain.ErrCacheMiss
		}
		// bbolt memory is only valid inside the transaction
		out = make([]byte, len(value))
		copy(out, value)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Set stores a value with TTL
func (c *BoltCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	record := make([]byte, 8+len(value))
	binary.BigEndian.PutUint64(record[:8], uint64(c.now().Add(ttl).UnixNano()))
	copy(record[8:], value)

	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEntries).Put([]byte(key), record)
	})
}

// Delete removes a value
func (c *BoltCache) Delete(ctx context.Context, key string) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEntries).Delete([]byte(key))
	})
}

// Exists checks if a key exists and is not expired
func (c *BoltCache) Exists(ctx context.Context, key string) (bool, error) {
	var found bool
	err := c.db.View(func(tx *bbolt.Tx) error {
		_, found = c.decode(tx.Bucket(bucketEntries).Get([]byte(key)))
		return nil
	})
	return found, err
}

// Purge deletes expired entries and returns how many were removed
func (c *BoltCache) Purge() (int, error) {
	removed := 0
	err := c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEntries)
		var expired [][]byte
		err := b.ForEach(func(k, v []byte) error {
			if _, ok := c.decode(v); !ok {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range expired {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(expired)
		return nil
	})
	return removed, err
}

// purgeExpired runs Purge periodically until Close is called
func (c *BoltCache) purgeExpired(interval time.Duration) {
	defer close(c.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			removed, err := c.Purge()
			if err != nil {
				log.Printf("[CACHE] bolt purge failed: %v", err)
			} else if removed > 0 {
				log.Printf("[CACHE] bolt purge removed %d expired entries", removed)
			}
		}
	}
}

// Close stops the purge goroutine and closes the database
func (c *BoltCache) Close() error {
	var err error
	c.once.Do(func() {
		close(c.stop)
		<-c.done
		err = c.db.Close()
	})
	return err
}

func (c *BoltCache) decode(raw []byte) ([]byte, bool) {
	if len(raw) < 8 {
		return nil, false
	}
	expiry := int64(binary.BigEndian.Uint64(raw[:8]))
	if c.now().UnixNano() > expiry {
		return nil, false
	}
	return raw[8:], true
}
