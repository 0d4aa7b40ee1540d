// Package cache holds the cover-art cache: an in-process LRU tier backed by a
// durable storage.Collection tier, content-addressed by the source URL so
// the same artwork is never fetched twice regardless of which track or album
// referenced it.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/daedal00/muse/internal/provider"
	"github.com/daedal00/muse/internal/storage"
)

const collectionName = "cover_art"

// defaultL1Size bounds the number of decoded entries held in process memory.
const defaultL1Size = 256

// Fetcher retrieves artwork from its origin on a cache miss. Concrete
// providers supply this; it is the provider.Provider.CoverArt capability
// narrowed to a single call.
type Fetcher func(ctx context.Context) (*provider.CoverArt, error)

// CoverArt is the two-tier cache described above. The L1 tier trades memory
// for latency; the L2 tier (any storage.Collection) survives restarts.
type CoverArt struct {
	l1      *lru.Cache[string, *provider.CoverArt]
	l2      storage.Collection
	flight  singleflight.Group
	l2TTL   time.Duration
	nowFunc func() time.Time
}

type l2Entry struct {
	Art      *provider.CoverArt
	StoredAt time.Time
}

// New constructs a CoverArt cache backed by opener's "cover_art" collection.
// l2TTL of zero disables expiry of the durable tier.
func New(ctx context.Context, opener storage.Opener, l2TTL time.Duration) (*CoverArt, error) {
	l1, err := lru.New[string, *provider.CoverArt](defaultL1Size)
	if err != nil {
		return nil, fmt.Errorf("cache: constructing L1: %w", err)
	}
	col, err := opener.Collection(ctx, collectionName)
	if err != nil {
		return nil, fmt.Errorf("cache: opening collection: %w", err)
	}
	return &CoverArt{l1: l1, l2: col, l2TTL: l2TTL, nowFunc: time.Now}, nil
}

// addressOf content-addresses a source URL. Any fetch error for a given URL
// is never itself cached: only successful results are worth deduplicating.
func addressOf(sourceURL string) string {
	sum := md5.Sum([]byte(sourceURL))
	return hex.EncodeToString(sum[:])
}

// Get returns cached artwork for sourceURL, calling fetch on a miss.
// Concurrent callers for the same URL share a single in-flight fetch.
func (c *CoverArt) Get(ctx context.Context, sourceURL string, fetch Fetcher) (*provider.CoverArt, error) {
	key := addressOf(sourceURL)

	if art, ok := c.l1.Get(key); ok {
		return art, nil
	}

	if art, err := c.getL2(ctx, key); err == nil && art != nil {
		c.l1.Add(key, art)
		return art, nil
	}

	result, err, _ := c.flight.Do(key, func() (interface{}, error) {
		art, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if art == nil {
			return nil, nil
		}
		if err := c.putL2(ctx, key, art); err != nil {
			return nil, fmt.Errorf("cache: storing artwork: %w", err)
		}
		c.l1.Add(key, art)
		return art, nil
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	return result.(*provider.CoverArt), nil
}

func (c *CoverArt) getL2(ctx context.Context, key string) (*provider.CoverArt, error) {
	raw, err := c.l2.Get(ctx, key)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}

	var entry l2Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("cache: decoding entry: %w", err)
	}
	if c.l2TTL > 0 && c.nowFunc().Sub(entry.StoredAt) > c.l2TTL {
		_ = c.l2.Delete(ctx, key)
		return nil, nil
	}
	return entry.Art, nil
}

func (c *CoverArt) putL2(ctx context.Context, key string, art *provider.CoverArt) error {
	raw, err := json.Marshal(l2Entry{Art: art, StoredAt: c.nowFunc()})
	if err != nil {
		return err
	}
	return c.l2.Put(ctx, key, raw)
}

// Invalidate drops sourceURL's entry from both tiers.
func (c *CoverArt) Invalidate(ctx context.Context, sourceURL string) error {
	key := addressOf(sourceURL)
	c.l1.Remove(key)
	if err := c.l2.Delete(ctx, key); err != nil {
		return fmt.Errorf("cache: invalidating %s: %w", sourceURL, err)
	}
	return nil
}
