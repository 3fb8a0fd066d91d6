package fix

import (
	"fmt"

	"github.com/golang/groupcache/lru"
	"github.com/mitchellh/hashstructure/v2"
	"github.com/rotblauer/rund/params"
)

// NewDedupeLRUFunc returns a predicate that is true the first time it sees
// any given fix and false for repeats, within an LRU window. Providers
// occasionally re-deliver a fix verbatim on reconnect; repeats would count
// zero distance but still reset the timeout clock.
func NewDedupeLRUFunc() func(*Fix) bool {
	var dedupeCache = lru.New(params.DefaultBatchSize)
	return func(f *Fix) bool {
		hash, err := hashstructure.Hash(f, hashstructure.FormatV2, nil)
		if err != nil {
			return false
		}
		key := fmt.Sprintf("%d", hash)
		_, ok := dedupeCache.Get(key)
		if ok {
			return false
		}
		dedupeCache.Add(key, true)
		return true
	}
}
