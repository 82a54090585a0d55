package models

import "encoding/json"

// CollectionName identifies one of the cached result sets
type CollectionName string

const (
	CollectionGainers CollectionName = "gainers"
	CollectionLosers  CollectionName = "losers"
	CollectionNews    CollectionName = "news"
	CollectionSummary CollectionName = "summary"
)

// AllCollections lists every collection the cache holds, in display order
var AllCollections = []CollectionName{
	CollectionGainers,
	CollectionLosers,
	CollectionNews,
	CollectionSummary,
}

// Collection is an ordered list of upstream records. Record contents are opaque.
type Collection []json.RawMessage
