package services

import (
	"sync"

	"github.com/fenilmodi00/stock-api/models"
)

// CacheStore holds the latest value of each named collection.
//
// Values are published whole: Replace swaps the slice header under the write
// lock and a stored slice is never mutated afterwards, so readers always see
// either the previous or the new value in full.
type CacheStore struct {
	mutex   sync.RWMutex
	entries map[models.CollectionName]models.Collection
}

// NewCacheStore creates a store with every collection unset
func NewCacheStore() *CacheStore {
	return &CacheStore{
		entries: make(map[models.CollectionName]models.Collection, len(models.AllCollections)),
	}
}

// Replace overwrites the named collection with value.
// The store takes ownership of value; callers must not modify it afterwards.
func (cs *CacheStore) Replace(name models.CollectionName, value models.Collection) {
	if value == nil {
		value = models.Collection{}
	}

	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	cs.entries[name] = value
}

// Read returns the current value of the named collection, empty when unset
func (cs *CacheStore) Read(name models.CollectionName) models.Collection {
	value, _ := cs.Lookup(name)
	if value == nil {
		return models.Collection{}
	}
	return value
}

// Lookup returns the current value and whether the collection was ever set
func (cs *CacheStore) Lookup(name models.CollectionName) (models.Collection, bool) {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	value, exists := cs.entries[name]
	return value, exists
}

// Sizes returns the record count of every known collection, 0 when unset
func (cs *CacheStore) Sizes() map[models.CollectionName]int {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	sizes := make(map[models.CollectionName]int, len(models.AllCollections))
	for _, name := range models.AllCollections {
		sizes[name] = len(cs.entries[name])
	}
	return sizes
}
