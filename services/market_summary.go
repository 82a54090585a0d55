package services

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/fenilmodi00/stock-api/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// IndexSession is the open and close of an index for one trading day
type IndexSession struct {
	Open  decimal.Decimal
	Close decimal.Decimal
}

// IndexHistorySource returns the most recent trading session of an index.
// A nil session with a nil error means the source has no history for symbol.
type IndexHistorySource interface {
	LatestSession(ctx context.Context, symbol string) (*IndexSession, error)
}

var hundred = decimal.NewFromInt(100)

// MarketSummaryService lazily computes the index summary and memoizes it in the
// cache store for the life of the process. The first completed computation is
// final even when some indices were unavailable.
type MarketSummaryService struct {
	store        *CacheStore
	source       IndexHistorySource
	indices      []models.MarketIndex
	timeout      time.Duration
	group        singleflight.Group
	computations atomic.Int64
}

// NewMarketSummaryService creates the service for the default index list
func NewMarketSummaryService(store *CacheStore, source IndexHistorySource, timeout time.Duration) *MarketSummaryService {
	return &MarketSummaryService{
		store:   store,
		source:  source,
		indices: models.DefaultMarketIndices,
		timeout: timeout,
	}
}

// Summary returns the memoized summary, computing it on the first call.
// Concurrent first calls share a single computation.
func (s *MarketSummaryService) Summary() models.Collection {
	if cached, ok := s.store.Lookup(models.CollectionSummary); ok {
		return cached
	}

	result, _, _ := s.group.Do(string(models.CollectionSummary), func() (interface{}, error) {
		if cached, ok := s.store.Lookup(models.CollectionSummary); ok {
			return cached, nil
		}
		summary := s.compute()
		s.store.Replace(models.CollectionSummary, summary)
		return summary, nil
	})

	return result.(models.Collection)
}

// Computations returns how many times the summary was computed
func (s *MarketSummaryService) Computations() int64 {
	return s.computations.Load()
}

func (s *MarketSummaryService) compute() models.Collection {
	s.computations.Add(1)
	startTime := time.Now()

	// One deadline per index; order follows s.indices.
	encoded := make([]json.RawMessage, len(s.indices))
	var g errgroup.Group
	for i, index := range s.indices {
		g.Go(func() error {
			encoded[i] = s.summarizeIndex(index)
			return nil
		})
	}
	_ = g.Wait()

	summary := make(models.Collection, 0, len(s.indices))
	for _, record := range encoded {
		if record != nil {
			summary = append(summary, record)
		}
	}

	logrus.WithFields(logrus.Fields{
		"component": "MarketSummaryService",
		"indices":   len(summary),
		"requested": len(s.indices),
		"duration":  time.Since(startTime),
	}).Info("Market summary computed")

	return summary
}

// summarizeIndex returns the encoded summary record for index, or nil when it must be omitted
func (s *MarketSummaryService) summarizeIndex(index models.MarketIndex) json.RawMessage {
	logger := logrus.WithFields(logrus.Fields{
		"component": "MarketSummaryService",
		"symbol":    index.Symbol,
	})

	// Detached from the triggering request: the result is cached for every later caller.
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	session, err := s.source.LatestSession(ctx, index.Symbol)
	if err != nil {
		logger.WithError(err).Warn("Index history unavailable, omitting from summary")
		return nil
	}
	if session == nil {
		logger.Warn("Index history empty, omitting from summary")
		return nil
	}

	record, ok := SummarizeSession(index, *session)
	if !ok {
		logger.Warn("Index opened at zero, omitting from summary")
		return nil
	}

	encoded, err := json.Marshal(record)
	if err != nil {
		logger.WithError(err).Error("Failed to encode index summary")
		return nil
	}
	return encoded
}

// SummarizeSession derives the summary record for index from its latest session.
// It reports false when the open price is zero and no percentage can be computed.
func SummarizeSession(index models.MarketIndex, session IndexSession) (models.MarketIndexSummary, bool) {
	if session.Open.IsZero() {
		return models.MarketIndexSummary{}, false
	}

	change := session.Close.Sub(session.Open)
	changePercent := change.Div(session.Open).Mul(hundred)

	return models.MarketIndexSummary{
		Symbol:        index.Symbol,
		Name:          index.Name,
		Price:         session.Close.Round(2).InexactFloat64(),
		Change:        change.Round(2).InexactFloat64(),
		ChangePercent: changePercent.Round(2).InexactFloat64(),
	}, true
}
