package jobs

import (
	"context"
	"net/url"
	"time"

	"github.com/fenilmodi00/stock-api/models"
	"github.com/fenilmodi00/stock-api/services"
	"github.com/fenilmodi00/stock-api/shared"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// UpstreamFetcher builds upstream URLs and fetches JSON collections from them
type UpstreamFetcher interface {
	ResourceURL(resource string, query url.Values) (string, error)
	FetchCollection(ctx context.Context, rawURL string) (models.Collection, error)
}

// RefreshEventSink receives one event per sub-fetch. Sink errors never fail a cycle.
type RefreshEventSink interface {
	RecordRefreshEvent(ctx context.Context, event models.RefreshEvent) error
}

// Refresher performs the fetch-and-replace step shared by every refresh job
type Refresher struct {
	fetcher UpstreamFetcher
	store   *services.CacheStore
	metrics *shared.RefreshMetrics
	sinks   []RefreshEventSink
}

func NewRefresher(fetcher UpstreamFetcher, store *services.CacheStore, metrics *shared.RefreshMetrics, sinks ...RefreshEventSink) *Refresher {
	if metrics == nil {
		metrics = shared.NewRefreshMetrics()
	}
	return &Refresher{
		fetcher: fetcher,
		store:   store,
		metrics: metrics,
		sinks:   sinks,
	}
}

type fetchTarget struct {
	collection models.CollectionName
	url        string
}

// resolve builds the request URL for each collection.
// A failure here is a programming or configuration error and is returned to the caller.
func (r *Refresher) resolve(resources map[models.CollectionName]string, order []models.CollectionName, query url.Values) ([]fetchTarget, error) {
	targets := make([]fetchTarget, 0, len(order))
	for _, collection := range order {
		rawURL, err := r.fetcher.ResourceURL(resources[collection], query)
		if err != nil {
			return nil, err
		}
		targets = append(targets, fetchTarget{collection: collection, url: rawURL})
	}
	return targets, nil
}

// refreshAll refreshes each target independently; a failed target never affects the others
func (r *Refresher) refreshAll(ctx context.Context, targets []fetchTarget) []models.RefreshEvent {
	cycleID := uuid.New()
	events := make([]models.RefreshEvent, 0, len(targets))
	for _, target := range targets {
		events = append(events, r.refreshOne(ctx, cycleID, target))
	}
	return events
}

func (r *Refresher) refreshOne(ctx context.Context, cycleID uuid.UUID, target fetchTarget) (event models.RefreshEvent) {
	startTime := time.Now()
	event = models.RefreshEvent{
		ID:         uuid.New(),
		CycleID:    cycleID,
		Collection: target.collection,
		Timestamp:  startTime,
	}

	defer func() {
		if rec := recover(); rec != nil {
			err := shared.NewServiceError(shared.ErrorCategoryProcessing, "PANIC", "refresh panicked",
				"Refresher", string(target.collection), false, nil).WithDetails(rec)
			event.Success = false
			event.ErrorKind = shared.ErrorKind(err)
			event.ErrorMessage = err.Error()
		}
		event.Duration = time.Since(startTime)
		r.emit(ctx, event)
	}()

	records, err := r.fetcher.FetchCollection(ctx, target.url)
	if err != nil {
		event.ErrorKind = shared.ErrorKind(err)
		event.ErrorMessage = err.Error()
		event.Retryable = shared.IsRetryableError(err)
		return event
	}

	r.store.Replace(target.collection, records)
	event.Success = true
	event.Records = len(records)
	return event
}

func (r *Refresher) emit(ctx context.Context, event models.RefreshEvent) {
	logger := logrus.WithFields(logrus.Fields{
		"component":  "Refresher",
		"cycle_id":   event.CycleID,
		"collection": event.Collection,
		"duration":   event.Duration,
	})

	if event.Success {
		r.metrics.RecordSuccess(string(event.Collection), event.Records, event.Duration)
		logger.WithField("records", event.Records).Info("Collection refreshed")
	} else {
		r.metrics.RecordFailure(string(event.Collection), event.ErrorKind, event.Duration)
		logger.WithFields(logrus.Fields{
			"error_kind": event.ErrorKind,
			"error":      event.ErrorMessage,
			"retryable":  event.Retryable,
		}).Warn("Collection refresh failed, keeping cached value")
	}

	for _, sink := range r.sinks {
		if err := sink.RecordRefreshEvent(ctx, event); err != nil {
			logger.WithError(err).Warn("Failed to record refresh event")
		}
	}
}
