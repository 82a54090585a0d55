package shared

import (
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// CollectionMetrics tracks refresh outcomes for a single cached collection
type CollectionMetrics struct {
	Collection          string        `json:"collection"`
	TotalRefreshes      int64         `json:"total_refreshes"`
	SuccessfulRefreshes int64         `json:"successful_refreshes"`
	FailedRefreshes     int64         `json:"failed_refreshes"`
	LastRecordCount     int           `json:"last_record_count"`
	LastSuccess         *time.Time    `json:"last_success,omitempty"`
	LastFailure         *time.Time    `json:"last_failure,omitempty"`
	LastErrorKind       string        `json:"last_error_kind,omitempty"`
	TotalDuration       time.Duration `json:"-"`
	AverageDuration     time.Duration `json:"average_duration"`
}

// SuccessRate returns the success rate as a percentage
func (m CollectionMetrics) SuccessRate() float64 {
	if m.TotalRefreshes == 0 {
		return 0.0
	}
	return float64(m.SuccessfulRefreshes) / float64(m.TotalRefreshes) * 100.0
}

// RefreshMetrics aggregates per-collection refresh metrics. Safe for concurrent use.
type RefreshMetrics struct {
	mutex       sync.RWMutex
	collections map[string]*CollectionMetrics
}

// NewRefreshMetrics creates an empty metrics tracker
func NewRefreshMetrics() *RefreshMetrics {
	return &RefreshMetrics{collections: make(map[string]*CollectionMetrics)}
}

// RecordSuccess records a refresh that replaced the collection with records items
func (m *RefreshMetrics) RecordSuccess(collection string, records int, duration time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	cm := m.entry(collection)
	now := time.Now()
	cm.SuccessfulRefreshes++
	cm.LastRecordCount = records
	cm.LastSuccess = &now
	m.addDuration(cm, duration)
}

// RecordFailure records a refresh that left the collection untouched
func (m *RefreshMetrics) RecordFailure(collection, errorKind string, duration time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	cm := m.entry(collection)
	now := time.Now()
	cm.FailedRefreshes++
	cm.LastFailure = &now
	cm.LastErrorKind = errorKind
	m.addDuration(cm, duration)
}

// Snapshot returns a copy of the metrics for one collection
func (m *RefreshMetrics) Snapshot(collection string) (CollectionMetrics, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	cm, exists := m.collections[collection]
	if !exists {
		return CollectionMetrics{Collection: collection}, false
	}
	return *cm, true
}

// SnapshotAll returns copies of all tracked collections sorted by name
func (m *RefreshMetrics) SnapshotAll() []CollectionMetrics {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	out := make([]CollectionMetrics, 0, len(m.collections))
	for _, cm := range m.collections {
		out = append(out, *cm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Collection < out[j].Collection })
	return out
}

// LogSummary logs one structured line per collection
func (m *RefreshMetrics) LogSummary() {
	for _, cm := range m.SnapshotAll() {
		logrus.WithFields(logrus.Fields{
			"component":            "RefreshMetrics",
			"collection":           cm.Collection,
			"total_refreshes":      cm.TotalRefreshes,
			"successful_refreshes": cm.SuccessfulRefreshes,
			"failed_refreshes":     cm.FailedRefreshes,
			"success_rate":         cm.SuccessRate(),
			"last_record_count":    cm.LastRecordCount,
			"last_error_kind":      cm.LastErrorKind,
			"average_duration":     cm.AverageDuration,
		}).Info("Refresh metrics summary")
	}
}

func (m *RefreshMetrics) entry(collection string) *CollectionMetrics {
	cm, exists := m.collections[collection]
	if !exists {
		cm = &CollectionMetrics{Collection: collection}
		m.collections[collection] = cm
	}
	return cm
}

func (m *RefreshMetrics) addDuration(cm *CollectionMetrics, duration time.Duration) {
	cm.TotalRefreshes++
	cm.TotalDuration += duration
	cm.AverageDuration = time.Duration(int64(cm.TotalDuration) / cm.TotalRefreshes)
}
