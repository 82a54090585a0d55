package services

import (
	"fmt"
	"testing"

	"github.com/fenilmodi00/stock-api/models"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestQueryServiceSliceExamples(t *testing.T) {
	store := NewCacheStore()
	store.Replace(models.CollectionGainers, records("A", "B", "C", "D"))
	query := NewQueryService(store, nil)

	assert.Equal(t, records("A", "B"), query.Slice(models.CollectionGainers, 2))
	assert.Equal(t, records("A", "B", "C", "D"), query.Slice(models.CollectionGainers, 100))
	assert.Equal(t, records("A", "B", "C", "D"), query.Slice(models.CollectionGainers, NoLimit))
	assert.Equal(t, records("A", "B", "C", "D"), query.Slice(models.CollectionGainers, 0))
}

func TestQueryServiceSliceOfUnsetCollectionIsEmpty(t *testing.T) {
	query := NewQueryService(NewCacheStore(), nil)

	result := query.Slice(models.CollectionLosers, 5)
	assert.NotNil(t, result)
	assert.Empty(t, result)
}

func TestPrefixDoesNotExposeCachedCapacity(t *testing.T) {
	cached := records("A", "B", "C")
	prefix := Prefix(cached, 1)

	_ = append(prefix, records("Z")...)

	assert.Equal(t, records("A", "B", "C"), cached, "appending to a prefix must not write into the cache")
}

// TestPrefixTruncationProperties checks query(C, n) == C[:min(n, len(C))] for all n >= 1
func TestPrefixTruncationProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("Slice returns the first min(n, len) records in original order", prop.ForAll(
		func(size, n int) bool {
			values := make([]string, size)
			for i := range values {
				values[i] = fmt.Sprintf("record-%d", i)
			}
			store := NewCacheStore()
			store.Replace(models.CollectionNews, records(values...))
			query := NewQueryService(store, nil)

			result := query.Slice(models.CollectionNews, n)

			expected := n
			if size < n {
				expected = size
			}
			if len(result) != expected {
				return false
			}
			for i := range result {
				if string(result[i]) != fmt.Sprintf("%q", values[i]) {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 60),
		gen.IntRange(1, 120),
	))

	properties.Property("NoLimit returns the whole collection", prop.ForAll(
		func(size int) bool {
			store := NewCacheStore()
			store.Replace(models.CollectionGainers, filled("x", size))
			return len(NewQueryService(store, nil).Slice(models.CollectionGainers, NoLimit)) == size
		},
		gen.IntRange(0, 60),
	))

	properties.TestingRun(t)
}
