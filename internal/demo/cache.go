package demo

import (
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/csheth/candyrag/internal/i18n"
	"github.com/csheth/candyrag/internal/rag"
)

const (
	defaultCacheTTL    = 1 * time.Hour
	cacheCleanupPeriod = 10 * time.Minute
	cacheKeySeparator  = "|"
)

type responseCache struct {
	store *cache.Cache
}

func newResponseCache(ttl time.Duration) *responseCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &responseCache{store: cache.New(ttl, cacheCleanupPeriod)}
}

// cacheKey folds case and whitespace so equivalent queries share an entry.
func cacheKey(lang i18n.Language, query string) string {
	return string(lang) + cacheKeySeparator + strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

func (c *responseCache) Get(lang i18n.Language, query string) (*rag.QueryResponse, bool) {
	v, ok := c.store.Get(cacheKey(lang, query))
	if !ok {
		return nil, false
	}
	resp, ok := v.(*rag.QueryResponse)
	return resp, ok
}

func (c *responseCache) Set(lang i18n.Language, query string, resp *rag.QueryResponse) {
	c.store.Set(cacheKey(lang, query), resp, cache.DefaultExpiration)
}

func (c *responseCache) Flush() {
	c.store.Flush()
}

func (c *responseCache) Len() int {
	return c.store.ItemCount()
}
