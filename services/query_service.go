package services

import (
	"github.com/fenilmodi00/stock-api/models"
)

// NoLimit asks Slice for the whole collection
const NoLimit = -1

// QueryService answers read requests from the cache store. It never calls upstream
// except through the lazy market summary.
type QueryService struct {
	store   *CacheStore
	summary *MarketSummaryService
}

func NewQueryService(store *CacheStore, summary *MarketSummaryService) *QueryService {
	return &QueryService{store: store, summary: summary}
}

// Slice returns the first limit records of the named collection.
// A zero or negative limit, NoLimit included, returns everything.
func (q *QueryService) Slice(name models.CollectionName, limit int) models.Collection {
	var current models.Collection
	if name == models.CollectionSummary && q.summary != nil {
		current = q.summary.Summary()
	} else {
		current = q.store.Read(name)
	}
	return Prefix(current, limit)
}

// Prefix truncates c to its first n records without copying; n <= 0 keeps all of them.
// The result has its capacity clipped so appends cannot write into the cached array.
func Prefix(c models.Collection, n int) models.Collection {
	if c == nil {
		c = models.Collection{}
	}
	if n <= 0 || n >= len(c) {
		return c[:len(c):len(c)]
	}
	return c[:n:n]
}
