package jobs

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/fenilmodi00/stock-api/models"
	"github.com/fenilmodi00/stock-api/services"
	"github.com/sirupsen/logrus"
)

// NewsTaskName tags the news task in the scheduler
const NewsTaskName = "news-refresh"

var newsResources = map[models.CollectionName]string{
	models.CollectionNews: services.ResourceArticles,
}

// NewsRefreshJob refreshes the news collection
type NewsRefreshJob struct {
	refresher  *Refresher
	fetchLimit int
}

// NewNewsRefreshJob asks upstream for at most fetchLimit articles per refresh
func NewNewsRefreshJob(refresher *Refresher, fetchLimit int) *NewsRefreshJob {
	return &NewsRefreshJob{refresher: refresher, fetchLimit: fetchLimit}
}

func (j *NewsRefreshJob) Run(ctx context.Context) error {
	startTime := time.Now()
	logrus.Info("Running News Refresh Job...")

	query := url.Values{}
	query.Set("page", "0")
	if j.fetchLimit > 0 {
		query.Set("limit", strconv.Itoa(j.fetchLimit))
	}

	targets, err := j.refresher.resolve(newsResources, []models.CollectionName{models.CollectionNews}, query)
	if err != nil {
		return err
	}

	events := j.refresher.refreshAll(ctx, targets)
	if len(events) > 0 && events[0].Success {
		logrus.Infof("News Refresh Job completed: %d articles cached (took %v)", events[0].Records, time.Since(startTime))
	} else {
		logrus.Warnf("News Refresh Job completed without refreshing news (took %v)", time.Since(startTime))
	}

	return nil
}

// Task wraps the job for the scheduler
func (j *NewsRefreshJob) Task(interval time.Duration) PeriodicTask {
	return PeriodicTask{
		Name:           NewsTaskName,
		Interval:       interval,
		RunImmediately: true,
		Work:           j.Run,
	}
}
