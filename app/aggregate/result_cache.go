package aggregate

import (
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/wasteviz/wasteviz/app/dataset"
)

// ResultCache memoizes aggregations over the single immutable record set of a
// process. Returned values are shared and must not be modified.
type ResultCache struct {
	c   *cache.Cache
	pop dataset.PopulationTable
}

func NewResultCache(ttl time.Duration, pop dataset.PopulationTable) *ResultCache {
	return &ResultCache{
		c:   cache.New(ttl, 2*ttl),
		pop: pop,
	}
}

func memo[T any](rc *ResultCache, key string, compute func() T) T {
	if v, found := rc.c.Get(key); found {
		return v.(T)
	}
	v := compute()
	rc.c.Set(key, v, cache.DefaultExpiration)
	return v
}

func (rc *ResultCache) StateTotals(rows []dataset.WasteRecord, year int) StateTotals {
	return memo(rc, fmt.Sprintf("states:%d", year), func() StateTotals {
		return SumByState(rows, year, rc.pop)
	})
}

// TopCategories is TopKByCategory with the projection picked by name, see
// Categories.
func (rc *ResultCache) TopCategories(rows []dataset.WasteRecord, year int, state, by string, k int) ([]CategoryTotal, error) {
	fn, ok := Categories[by]
	if !ok {
		return nil, fmt.Errorf("unknown category %q", by)
	}
	if k <= 0 {
		k = DefaultK
	}
	key := fmt.Sprintf("top:%s:%d:%s:%d", by, year, state, k)
	return memo(rc, key, func() []CategoryTotal {
		return TopKByCategory(rows, year, state, fn, k)
	}), nil
}

func (rc *ResultCache) Trend(rows []dataset.WasteRecord, state string) []YearTotal {
	return memo(rc, "trend:"+state, func() []YearTotal {
		return TrendByYear(rows, state)
	})
}

func (rc *ResultCache) Summary(rows []dataset.WasteRecord, year int, state string) Summary {
	return memo(rc, fmt.Sprintf("summary:%d:%s", year, state), func() Summary {
		return Summarize(rows, year, state, rc.pop)
	})
}

func (rc *ResultCache) Population() dataset.PopulationTable {
	return rc.pop
}

func (rc *ResultCache) Len() int {
	return rc.c.ItemCount()
}
